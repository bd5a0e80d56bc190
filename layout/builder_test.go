package layout

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ByLCY/microtype/dsl"
)

// sizeMeasurer 是测试用的测量器：每个字符宽半个 em，文本 "boom" 测量失败。
type sizeMeasurer struct{}

func (sizeMeasurer) MeasureText(content string, style TextStyle) (float64, error) {
	if content == "boom" {
		return 0, errBoom
	}
	return float64(utf8.RuneCountInString(content)) * style.Size / 2, nil
}

const sampleDoc = `
doc Sample v1 {
  meta {
    title: "Microtype"
    keywords: ["typesetting", "justification"]
  }

  resources {
    font Body { src: "builtin:goregular" }
    font Mono { src: "builtin:gomono" }
    color Ink = #336699
    style Para { size: 10pt; line-height: 1.5x }
    style Lead extends Para { indent: 2em; color: Ink }
  }

  microtype {
    maxSpaceGrow: 0.3
    hyphenate: false
    protrusion: { ".": 0.2; ",": 0.1; "ab": 1 }
    exceptions: ["hy-phen-a-tion"]
  }

  page A5 margin 15mm {
    flow width 100mm {
      text Lead { "Hello ${user.name}, this paragraph is set with a first line indent of two em." }
      text Para { "A second paragraph follows after the default spacing." }
      pagebreak
      text Para font Mono { "Third." }
    }
  }
}
`

// buildDoc 是测试辅助：解析 DSL 文本并完成排版。
func buildDoc(t *testing.T, dslText string, data any, opts BuildOptions) *Result {
	t.Helper()
	doc, err := dsl.Parse(strings.NewReader(dslText))
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	if opts.Measurer == nil {
		opts.Measurer = sizeMeasurer{}
	}
	res, err := Build(doc, data, opts)
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	return res
}

func TestBuildSampleDocument(t *testing.T) {
	data := map[string]any{"user": map[string]any{"name": "Ada"}}
	res := buildDoc(t, sampleDoc, data, BuildOptions{Workers: 2})

	if res.Meta.Title != "Microtype" || len(res.Meta.Keywords) != 2 {
		t.Fatalf("meta 解析错误: %+v", res.Meta)
	}
	if res.Config.MaxSpaceGrow != 0.3 || res.Config.Hyphenate {
		t.Fatalf("microtype 配置未生效: %+v", res.Config)
	}
	if res.Config.MaxSpaceShrink != DefaultConfig().MaxSpaceShrink {
		t.Fatalf("未设置的配置项应保留默认值: %+v", res.Config)
	}
	if got := res.Config.Protrusion["."]; got != 0.2 {
		t.Fatalf("protrusion 表解析错误: %+v", res.Config.Protrusion)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("不应有失败的段落: %+v", res.Failures)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("pagebreak 后应有 2 页，实际 %d", len(res.Pages))
	}

	page := res.Pages[0]
	if page.Width != 148 || page.Height != 210 || page.Margin.Left != 15 {
		t.Fatalf("页面尺寸或边距错误: %+v", page)
	}
	if len(page.Paragraphs) != 2 {
		t.Fatalf("第一页应有 2 个段落，实际 %d", len(page.Paragraphs))
	}

	first := page.Paragraphs[0]
	size := 10 * PtToMm
	if first.X != 15 || first.Y != 15 || first.Width != 100 {
		t.Fatalf("段落位置错误: x=%g y=%g w=%g", first.X, first.Y, first.Width)
	}
	if math.Abs(first.FontSize-size) > 1e-9 || math.Abs(first.Indent-2*size) > 1e-9 {
		t.Fatalf("字号或缩进错误: size=%g indent=%g", first.FontSize, first.Indent)
	}
	if math.Abs(first.LineHeight-1.5*size) > 1e-9 {
		t.Fatalf("行高错误: %g", first.LineHeight)
	}
	if first.Color != (Color{R: 0x33, G: 0x66, B: 0x99}) {
		t.Fatalf("颜色应继承自 Lead 样式: %+v", first.Color)
	}
	if len(first.Lines) < 2 {
		t.Fatalf("段落应被断成多行，实际 %d", len(first.Lines))
	}
	if !strings.HasPrefix(first.Lines[0].Text(), "Hello Ada,") {
		t.Fatalf("数据绑定未生效: %q", first.Lines[0].Text())
	}
	if first.Lines[len(first.Lines)-1].HardBreak {
		t.Fatalf("段落最后一行不应有硬换行")
	}
	if want := float64(len(first.Lines)) * first.LineHeight; math.Abs(first.Height-want) > 1e-9 {
		t.Fatalf("段落高度错误: got=%g want=%g", first.Height, want)
	}

	second := page.Paragraphs[1]
	if want := first.Y + first.Height + blockSpacing; math.Abs(second.Y-want) > 1e-9 {
		t.Fatalf("第二段位置错误: got=%g want=%g", second.Y, want)
	}
	if second.Index != 1 || second.Indent != 0 {
		t.Fatalf("第二段属性错误: %+v", second)
	}

	third := res.Pages[1].Paragraphs[0]
	if third.Font != "Mono" || third.Y != 15 {
		t.Fatalf("第三段应使用 Mono 字体并位于新页顶部: %+v", third)
	}
}

func TestBuildRecordsFailedParagraphs(t *testing.T) {
	const text = `
doc Fail v1 {
  page A4 {
    flow {
      text { "fine words here" }
      text { "this one goes boom" }
      text { "still fine" }
    }
  }
}
`
	res := buildDoc(t, text, nil, BuildOptions{Workers: 3})
	if len(res.Failures) != 1 || res.Failures[0].Index != 1 {
		t.Fatalf("应记录第 1 段失败: %+v", res.Failures)
	}
	if !strings.Contains(res.Failures[0].Error, "boom") {
		t.Fatalf("失败信息应包含原始错误: %s", res.Failures[0].Error)
	}
	if got := len(res.Pages[0].Paragraphs); got != 2 {
		t.Fatalf("其余段落应正常输出，实际 %d", got)
	}
}

func TestBuildPaginatesWholeParagraphs(t *testing.T) {
	var b strings.Builder
	b.WriteString("doc Long v1 {\n  resources {\n    style Big { size: 14pt }\n  }\n  page A5 margin 10mm {\n    flow {\n")
	for i := 0; i < 30; i++ {
		b.WriteString(`      text Big { "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua." }` + "\n")
	}
	b.WriteString("    }\n  }\n}\n")

	res := buildDoc(t, b.String(), nil, BuildOptions{Workers: 4})
	if len(res.Pages) < 2 {
		t.Fatalf("内容应分布在多页上，实际 %d 页", len(res.Pages))
	}
	total := 0
	for i, page := range res.Pages {
		bottom := page.Height - page.Margin.Bottom
		for _, p := range page.Paragraphs {
			total++
			if p.Y+p.Height > bottom+1e-9 {
				t.Fatalf("第 %d 页段落 %d 超出版心: y=%g h=%g bottom=%g", i, p.Index, p.Y, p.Height, bottom)
			}
		}
	}
	if total != 30 {
		t.Fatalf("段落数量应为 30，实际 %d", total)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(nil, nil, BuildOptions{Measurer: sizeMeasurer{}}); err == nil {
		t.Fatalf("空文档应返回错误")
	}

	parse := func(src string) *dsl.Document {
		doc, err := dsl.ParseString(src)
		if err != nil {
			t.Fatalf("解析 DSL 失败: %v", err)
		}
		return doc
	}

	doc := parse(`doc A v1 { page A4 { flow { text { "x" } } } }`)
	if _, err := Build(doc, nil, BuildOptions{}); err == nil {
		t.Fatalf("缺少测量后端时应返回错误")
	}

	doc = parse(`doc A v1 { meta { title: "x" } }`)
	if _, err := Build(doc, nil, BuildOptions{Measurer: sizeMeasurer{}}); err == nil {
		t.Fatalf("缺少 page 段落时应返回错误")
	}

	doc = parse(`doc A v1 { page Z9 { flow { text { "x" } } } }`)
	if _, err := Build(doc, nil, BuildOptions{Measurer: sizeMeasurer{}}); err == nil {
		t.Fatalf("未知纸张尺寸应返回错误")
	}

	for _, setting := range []string{`maxSpaceGrow: "abc"`, `maxSpaceShrink: -1`, `hyphenate: maybe`} {
		doc = parse(`doc A v1 {
  microtype { ` + setting + ` }
  page A4 { flow { text { "x" } } }
}`)
		_, err := Build(doc, nil, BuildOptions{Measurer: sizeMeasurer{}})
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("%s 应返回 ConfigError，实际 %v", setting, err)
		}
	}
}

func TestBuildHyphenatorUsesExceptions(t *testing.T) {
	settings := microtypeSettings{Config: DefaultConfig(), Exceptions: []string{"hy-phen-a-tion"}}
	h, err := buildHyphenator(settings, BuildOptions{})
	if err != nil {
		t.Fatalf("创建断字器失败: %v", err)
	}
	segs, err := h.Hyphenate("hyphenation")
	if err != nil {
		t.Fatalf("断字失败: %v", err)
	}
	if strings.Join(segs, "|") != "hy|phen|a|tion" {
		t.Fatalf("例外词典未生效: %q", segs)
	}

	override := tableHyphenator{"word": {"wo", "rd"}}
	h, _ = buildHyphenator(microtypeSettings{Patterns: "missing.pat.txt"}, BuildOptions{Hyphenator: override})
	if segs, _ := h.Hyphenate("word"); len(segs) != 2 {
		t.Fatalf("BuildOptions.Hyphenator 应覆盖文档中的模式表: %q", segs)
	}

	if _, err := buildHyphenator(microtypeSettings{Patterns: "missing.pat.txt"}, BuildOptions{BaseDir: t.TempDir()}); err == nil {
		t.Fatalf("模式表不存在时应返回错误")
	}
}

func TestSplitParagraphs(t *testing.T) {
	got := splitParagraphs("one\ntwo\n\n  \nthree\r\n\r\nfour")
	want := []string{"one two", "three", "four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("段落切分错误: %q", got)
	}
}

func TestResolveMargin(t *testing.T) {
	doc, err := dsl.ParseString(`doc A v1 { page A4 portrait margin 10mm 2cm 5mm { flow { text { "x" } } } }`)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	m := resolveMargin(doc.Sections[0].Page.Spec.Params)
	if m != (Margin{Top: 10, Right: 20, Bottom: 5, Left: 20}) {
		t.Fatalf("margin 解析错误: %+v", m)
	}
}

func TestWriteDebugJSONRawUnits(t *testing.T) {
	res := buildDoc(t, sampleDoc, nil, BuildOptions{Debug: DebugOptions{RawUnits: true}})
	p := res.Pages[0].Paragraphs[0]
	if p.Debug == nil || p.Debug.FontSize.Unit != "pt" || p.Debug.Indent == nil || p.Debug.Indent.Unit != "em" {
		t.Fatalf("调试信息应保留原始单位: %+v", p.Debug)
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("写入调试 JSON 失败: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if !strings.Contains(string(raw), `"kind": "word"`) {
		t.Fatalf("token 类型应以字符串输出")
	}
}

func TestBuildEachLiteralIsParagraph(t *testing.T) {
	const text = `
doc Lit v1 {
  page A4 {
    flow {
      text {
        "first literal"
        "second literal"
      }
      text { "third" }
    }
  }
}
`
	res := buildDoc(t, text, nil, BuildOptions{})
	paras := res.Pages[0].Paragraphs
	if len(paras) != 3 {
		t.Fatalf("每个字符串字面量应成为独立段落，实际 %d", len(paras))
	}
	for i, p := range paras {
		if p.Index != i {
			t.Fatalf("段落序号应按文档顺序递增: %d != %d", p.Index, i)
		}
	}
	if got := paras[1].Lines[0].Text(); got != "second literal" {
		t.Fatalf("第二段内容错误: %q", got)
	}
}

func TestResolveStyles(t *testing.T) {
	styles, err := resolveStyles(map[string]Style{
		"Base":  {Name: "Base", Props: map[string]string{"size": "10pt", "color": "#000"}},
		"Lead":  {Name: "Lead", Extends: "Base", Props: map[string]string{"size": "12pt"}},
		"Quote": {Name: "Quote", Extends: "Lead", Props: map[string]string{"indent": "1em"}},
	})
	if err != nil {
		t.Fatalf("展开样式失败: %v", err)
	}
	q := styles["Quote"].Props
	if q["size"] != "12pt" || q["color"] != "#000" || q["indent"] != "1em" {
		t.Fatalf("继承链展开错误: %v", q)
	}

	_, err = resolveStyles(map[string]Style{
		"A": {Name: "A", Extends: "B"},
		"B": {Name: "B", Extends: "A"},
	})
	if err == nil || !strings.Contains(err.Error(), "循环") {
		t.Fatalf("循环继承应返回错误: %v", err)
	}

	if _, err := resolveStyles(map[string]Style{"A": {Name: "A", Extends: "Nope"}}); err == nil {
		t.Fatalf("继承未定义的样式应返回错误")
	}
}
