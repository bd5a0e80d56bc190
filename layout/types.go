package layout

import (
	"sort"

	"github.com/ByLCY/microtype/fonts"
)

// 该文件定义排版结果与资源描述，供断行、两端对齐、渲染与调试 JSON 共用。

// Result 保存整篇文档排版后的页面与资源信息。
type Result struct {
	Pages     []Page             `json:"pages"`
	Resources ResourceSet        `json:"resources"`
	Meta      DocumentMeta       `json:"meta"`
	Config    Config             `json:"config"`
	Failures  []ParagraphFailure `json:"failures,omitempty"`
}

// ResourceSet 记录解析出的字体、颜色与样式定义。
type ResourceSet struct {
	Fonts  map[string]FontResource `json:"fonts"`
	Colors map[string]Color        `json:"colors"`
	Styles map[string]Style        `json:"styles"`
}

// Font 按名称查找字体；未定义时依次回退到 Body、按名称排序的第一个字体、内置默认字体。
func (rs ResourceSet) Font(name string) FontResource {
	if font, ok := rs.Fonts[name]; ok {
		return font
	}
	if font, ok := rs.Fonts["Body"]; ok {
		return font
	}
	if len(rs.Fonts) > 0 {
		names := make([]string, 0, len(rs.Fonts))
		for n := range rs.Fonts {
			names = append(names, n)
		}
		sort.Strings(names)
		return rs.Fonts[names[0]]
	}
	return FontResource{Name: name, Family: name, Src: fonts.Default}
}

// FontResource 描述字体资源，src 可以是文件路径或 builtin:* 形式。
type FontResource struct {
	Name   string `json:"name"`
	Src    string `json:"src"`
	Style  string `json:"style"`
	Family string `json:"family"` // 渲染器使用的 Family 名称
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Page 记录页面尺寸、边距与排好的段落（单位：mm）。
type Page struct {
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Margin     Margin         `json:"margin"`
	Paragraphs []ParagraphBox `json:"paragraphs"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// ParagraphBox 表示一个已经定位、断行并两端对齐的段落。
type ParagraphBox struct {
	Index      int     `json:"index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Indent     float64 `json:"indent"`
	LineHeight float64 `json:"lineHeight"`
	Font       string  `json:"font"`
	FontSize   float64 `json:"fontSize"`
	Color      Color   `json:"color"`
	Lines      []*Line `json:"lines"`
	Height     float64 `json:"height"`

	Debug *ParagraphDebug `json:"debug,omitempty"`
}

// ParagraphFailure 记录排版失败的段落；失败段落不输出任何行。
type ParagraphFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// TokenKind 区分单词与词间空格。
type TokenKind int

const (
	TokenWord TokenKind = iota
	TokenSpace
)

func (k TokenKind) String() string {
	switch k {
	case TokenWord:
		return "word"
	case TokenSpace:
		return "space"
	default:
		return "unknown"
	}
}

// MarshalText 让 JSON 中输出可读的 kind。
func (k TokenKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Token 是行内的最小单元：单词片段或词间空格。
// 对于空格，Width 是两端对齐之后的渲染宽度，NaturalWidth 为自然宽度。
type Token struct {
	Kind         TokenKind `json:"kind"`
	Text         string    `json:"text"`
	Source       string    `json:"source,omitempty"`
	NaturalWidth float64   `json:"naturalWidth"`
	Width        float64   `json:"width"`
	Fixed        bool      `json:"fixed,omitempty"` // 空格已被固定为显式宽度，不再跟随字距
}

// IsWord reports whether the token is a word span.
func (t Token) IsWord() bool { return t.Kind == TokenWord }

// IsSpace reports whether the token is an interword space span.
func (t Token) IsSpace() bool { return t.Kind == TokenSpace }

// Line 是一行排好的 token 序列。
// HardBreak 对除段落最后一行外的所有行为 true。
type Line struct {
	Index      int     `json:"index"`
	Tokens     []Token `json:"tokens"`
	Target     float64 `json:"target"`
	Protrusion float64 `json:"protrusion,omitempty"`
	Tracking   float64 `json:"tracking"`
	Width      float64 `json:"width"`
	HardBreak  bool    `json:"hardBreak"`
	Hyphenated bool    `json:"hyphenated,omitempty"`
}

// Text 返回该行的显示文本（空格按单个字符输出）。
func (l *Line) Text() string {
	n := 0
	for _, tok := range l.Tokens {
		n += len(tok.Text)
	}
	buf := make([]byte, 0, n)
	for _, tok := range l.Tokens {
		buf = append(buf, tok.Text...)
	}
	return string(buf)
}

// Spaces 返回该行空格 token 的数量。
func (l *Line) Spaces() int {
	n := 0
	for _, tok := range l.Tokens {
		if tok.IsSpace() {
			n++
		}
	}
	return n
}

// lastWord 返回最后一个单词 token 的下标，没有单词时返回 -1。
func (l *Line) lastWord() int {
	for i := len(l.Tokens) - 1; i >= 0; i-- {
		if l.Tokens[i].IsWord() {
			return i
		}
	}
	return -1
}

// words 返回该行单词 token 的数量。
func (l *Line) words() int {
	n := 0
	for _, tok := range l.Tokens {
		if tok.IsWord() {
			n++
		}
	}
	return n
}

// dropTrailingSpace 删除行尾的空格 token（若存在）。
func (l *Line) dropTrailingSpace() {
	if n := len(l.Tokens); n > 0 && l.Tokens[n-1].IsSpace() {
		l.Tokens = l.Tokens[:n-1]
	}
}

// Style 用于描述可继承的文本样式。
type Style struct {
	Name    string            `json:"name"`
	Extends string            `json:"extends,omitempty"`
	Props   map[string]string `json:"props"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
