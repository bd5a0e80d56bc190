package dsl

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
)

// Document 是 microtype 文档的根节点：doc <名称> <版本> { 段落... }
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'doc' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section 是顶层段落，四个字段中恰好有一个非空。
type Section struct {
	Meta      *MetaSection      `parser:"  @@"`
	Resources *ResourcesSection `parser:"| @@"`
	Microtype *MicrotypeSection `parser:"| @@"`
	Page      *PageSection      `parser:"| @@"`
}

// Kind returns the section keyword, or "unknown" for an empty section.
func (s *Section) Kind() string {
	if s == nil {
		return "unknown"
	}
	for _, c := range []struct {
		set  bool
		name string
	}{
		{s.Meta != nil, "meta"},
		{s.Resources != nil, "resources"},
		{s.Microtype != nil, "microtype"},
		{s.Page != nil, "page"},
	} {
		if c.set {
			return c.name
		}
	}
	return "unknown"
}

// MetaSection 保存文档元信息（title、author 等赋值语句）。
type MetaSection struct {
	Block *Block `parser:"'meta' @@"`
}

// ResourcesSection 声明字体、颜色与样式。
type ResourcesSection struct {
	Block *Block `parser:"'resources' @@"`
}

// MicrotypeSection 保存断行、断字与两端对齐的设置。
type MicrotypeSection struct {
	Block *Block `parser:"'microtype' @@"`
}

// PageSection 描述一组使用相同纸张与边距的页面。
type PageSection struct {
	Spec  PageSpec `parser:"'page' @@"`
	Block *Block   `parser:"@@"`
}

// PageSpec 是 page 关键字之后的纸张尺寸与参数，例如 A4 landscape margin 18mm。
type PageSpec struct {
	Size   string    `parser:"@Ident"`
	Params []*Lexeme `parser:"@@*"`
}

// Block 是花括号包围的语句列表，语句之间以换行或分号分隔。
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement 是赋值、命令或字符串字面量之一。
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Assignment 是 key: value 形式的语句。键可以加引号，以便使用标点作为键，例如 ".": 0.2。
type Assignment struct {
	Key   Key    `parser:"@(Ident | String)"`
	Value *Value `parser:"':' Newline* @@"`
}

// Key 是赋值语句的键，带引号的键在捕获时去掉引号。
type Key string

// Capture implements participle.Capture.
func (k *Key) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("dsl: empty key")
	}
	v := values[0]
	if len(v) < 2 || v[0] != '"' {
		*k = Key(v)
		return nil
	}
	unquoted, err := strconv.Unquote(v)
	if err != nil {
		return err
	}
	*k = Key(unquoted)
	return nil
}

// Command 是命令语句：名称、若干参数以及可选的子 block。
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// TextLiteral 是 block 中单独成行的字符串。
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// StringLiteral 在捕获时按 Go 语法去掉引号并处理转义。
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("dsl: empty string literal")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Value 是赋值语句右侧的值。无法识别为字面量的内容保存为 Expr。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Array  *ArrayValue    `parser:"| @@"`
	Object *InlineObject  `parser:"| @@"`
	Expr   *Expression    `parser:"| @@"`
}

// ArrayValue 是 [ ... ] 列表，元素之间以逗号、分号或换行分隔。
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// InlineObject 是 { key: value } 形式的内联表。
type InlineObject struct {
	Entries []*Assignment `parser:"'{' Newline* ( @@ Newline* ( (';' | Newline+) Newline* @@ Newline* )* )? Newline* '}'"`
}

// Expression 原样保存表达式中的词法单元，求值由使用方负责。
type Expression struct {
	Parts []*Lexeme
}

// nesting 记录表达式中尚未闭合的圆括号与方括号。
type nesting struct {
	paren   int
	bracket int
}

func (n nesting) top() bool { return n.paren == 0 && n.bracket == 0 }

func (n *nesting) track(raw string) {
	switch raw {
	case "(":
		n.paren++
	case ")":
		n.paren = max(n.paren-1, 0)
	case "[":
		n.bracket++
	case "]":
		n.bracket = max(n.bracket-1, 0)
	}
}

// ends 判断 tok 是否结束当前表达式。只有最外层的换行、花括号、分号与逗号会结束表达式；
// 不匹配的 ] 属于外层数组。
func (n nesting) ends(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case tokenKinds.newline, tokenKinds.lbrace, tokenKinds.rbrace:
		return n.top()
	case tokenKinds.symbol:
		switch tok.Value {
		case ";", ",":
			return n.top()
		case "]":
			return n.bracket == 0
		}
	}
	return false
}

// Parse implements participle.Parseable for Expression.
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	var depth nesting
	var parts []*Lexeme
	for !depth.ends(lex.Peek()) {
		next, err := take(lex)
		if err != nil {
			return err
		}
		depth.track(next.Raw)
		parts = append(parts, &next)
	}
	if len(parts) == 0 {
		return errNoMatch
	}
	e.Parts = parts
	return nil
}
