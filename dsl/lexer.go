package dsl

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
)

// 数字可以带单位：长度（pt/mm/cm/in/px/em）、百分比或行高倍数 x。
var microtypeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Newline", Pattern: `\n+`},
	{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
	{Name: "HashComment", Pattern: `#[^\n]*`},
	{Name: "Number", Pattern: `(?:\d+\.\d+|\.\d+|\d+)(?:pt|mm|cm|in|px|em|%|x)?`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
	{Name: "LBrace", Pattern: `{`},
	{Name: "RBrace", Pattern: `}`},
})

// kinds 缓存词法规则名与 TokenType 的对应关系。
type kinds struct {
	names   map[lexer.TokenType]string
	newline lexer.TokenType
	lbrace  lexer.TokenType
	rbrace  lexer.TokenType
	symbol  lexer.TokenType
	str     lexer.TokenType
}

var tokenKinds = loadKinds(microtypeLexer.Symbols())

func loadKinds(symbols map[string]lexer.TokenType) kinds {
	k := kinds{names: make(map[lexer.TokenType]string, len(symbols))}
	for name, tt := range symbols {
		k.names[tt] = name
	}
	lookup := func(name string) lexer.TokenType {
		tt, ok := symbols[name]
		if !ok {
			panic(fmt.Sprintf("dsl: token %s not defined", name))
		}
		return tt
	}
	k.newline = lookup("Newline")
	k.lbrace = lookup("LBrace")
	k.rbrace = lookup("RBrace")
	k.symbol = lookup("Symbol")
	k.str = lookup("String")
	return k
}

// Lexeme 是命令参数或表达式中的单个词法单元。字符串的 Value 已去掉引号，Raw 保留原文。
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse implements participle.Parseable so Lexeme can act as a grammar atom.
// 参数在换行、花括号或分号处结束。
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	if endsArgs(lex.Peek()) {
		return errNoMatch
	}
	next, err := take(lex)
	if err != nil {
		return err
	}
	*l = next
	return nil
}

func endsArgs(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case tokenKinds.newline, tokenKinds.lbrace, tokenKinds.rbrace:
		return true
	case tokenKinds.symbol:
		return tok.Value == ";"
	}
	return false
}

// take 消费下一个 token 并转换为 Lexeme。
func take(lex *lexer.PeekingLexer) (Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return Lexeme{}, errNoMatch
	}
	value := tok.Value
	if tok.Type == tokenKinds.str {
		unquoted, err := strconv.Unquote(tok.Value)
		if err != nil {
			return Lexeme{}, err
		}
		value = unquoted
	}
	name, ok := tokenKinds.names[tok.Type]
	if !ok {
		name = fmt.Sprintf("#%d", tok.Type)
	}
	return Lexeme{Type: name, Value: value, Raw: tok.Value, Pos: tok.Pos}, nil
}
