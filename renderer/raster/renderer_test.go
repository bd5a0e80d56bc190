package raster

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/ByLCY/microtype/layout"
)

var body = layout.FontResource{Name: "Body", Src: "builtin:goregular"}

func TestMeasureTextIsResolutionIndependent(t *testing.T) {
	style := layout.TextStyle{Font: body, Size: 4}
	lo, err := NewRenderer(".", 72).MeasureText("microtype", style)
	if err != nil {
		t.Fatalf("测量失败: %v", err)
	}
	hi, err := NewRenderer(".", 300).MeasureText("microtype", style)
	if err != nil {
		t.Fatalf("测量失败: %v", err)
	}
	// 栅格取整带来的误差应小于 1 个 72dpi 像素
	if math.Abs(lo-hi) > 25.4/72 {
		t.Fatalf("不同分辨率下的宽度差异过大: 72dpi=%g 300dpi=%g", lo, hi)
	}
}

func TestRenderPNG(t *testing.T) {
	r := NewRenderer(".", 96)
	engine, err := layout.NewEngine(layout.DefaultConfig(), r, nil)
	if err != nil {
		t.Fatalf("创建引擎失败: %v", err)
	}
	style := layout.TextStyle{Font: body, Size: 4}
	lines, err := engine.Format(layout.Paragraph{Text: "Sphinx of black quartz, judge my vow.", Width: 40, Style: style})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}

	page := layout.Page{Width: 60, Height: 40, Paragraphs: []layout.ParagraphBox{{
		X: 10, Y: 10, Width: 40, LineHeight: 5.6, Font: "Body", FontSize: 4, Lines: lines,
	}}}
	data, err := r.Render(&layout.Result{
		Pages:     []layout.Page{page, page},
		Resources: layout.ResourceSet{Fonts: map[string]layout.FontResource{"Body": body}},
	})
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("输出不是 PNG: %v", err)
	}
	if got, want := img.Bounds().Dy(), 2*r.px(40); got != want {
		t.Fatalf("两页拼接后高度应为 %d，实际 %d", want, got)
	}
}
