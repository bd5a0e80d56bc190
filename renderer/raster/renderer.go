// Package raster 使用 github.com/fogleman/gg 测量文本并把排版结果绘制为 PNG。
package raster

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/ByLCY/microtype/fonts"
	"github.com/ByLCY/microtype/layout"
	"github.com/ByLCY/microtype/renderer"
)

// DefaultDPI 是未指定分辨率时的输出分辨率。
const DefaultDPI = 150

// Renderer 以像素栅格测量与绘制文本。对外的长度单位仍为 mm。
type Renderer struct {
	baseDir string
	dpi     float64

	mu      sync.Mutex
	parsed  map[string]*truetype.Font
	faces   map[faceKey]font.Face
	measure *gg.Context
}

var _ renderer.Measurer = (*Renderer)(nil)

type faceKey struct {
	src  string
	size float64
}

// NewRenderer creates a raster renderer; dpi <= 0 selects DefaultDPI.
func NewRenderer(baseDir string, dpi float64) *Renderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{
		baseDir: baseDir,
		dpi:     dpi,
		parsed:  map[string]*truetype.Font{},
		faces:   map[faceKey]font.Face{},
		measure: gg.NewContext(1, 1),
	}
}

// MeasureText 实现 layout.TextMeasurer。
func (r *Renderer) MeasureText(content string, style layout.TextStyle) (float64, error) {
	if content == "" {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	face, err := r.face(style.Font, style.Size)
	if err != nil {
		return 0, err
	}
	r.measure.SetFontFace(face)
	w, _ := r.measure.MeasureString(content)
	return r.mm(w), nil
}

// Render 把所有页面自上而下拼接为一张 PNG，页与页之间留一条灰色分隔线。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	width, height := 0, 0
	for _, page := range result.Pages {
		width = max(width, r.px(page.Width))
		height += r.px(page.Height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	top := 0.0
	for i, page := range result.Pages {
		if i > 0 {
			dc.SetRGB(0.8, 0.8, 0.8)
			dc.DrawLine(0, top, float64(width), top)
			dc.Stroke()
		}
		for _, para := range page.Paragraphs {
			if err := r.drawParagraph(dc, top, para, result.Resources); err != nil {
				return nil, fmt.Errorf("绘制段落 %d 失败: %w", para.Index, err)
			}
		}
		top += float64(r.px(page.Height))
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("写入 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawParagraph(dc *gg.Context, top float64, para layout.ParagraphBox, resources layout.ResourceSet) error {
	face, err := r.face(resources.Font(para.Font), para.FontSize)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetRGB255(para.Color.R, para.Color.G, para.Color.B)
	ascent := float64(face.Metrics().Ascent) / 64

	for i, line := range para.Lines {
		x := r.fpx(para.X)
		if i == 0 {
			x += r.fpx(para.Indent)
		}
		baseline := top + r.fpx(para.Y+float64(i)*para.LineHeight) + ascent
		tracking := r.fpx(line.Tracking)
		for _, tok := range line.Tokens {
			if tok.IsSpace() {
				if tok.Fixed {
					x += r.fpx(tok.Width)
				} else {
					w, _ := dc.MeasureString(tok.Text)
					x += w + tracking
				}
				continue
			}
			if line.Tracking == 0 {
				dc.DrawString(tok.Text, x, baseline)
				w, _ := dc.MeasureString(tok.Text)
				x += w
				continue
			}
			for _, g := range layout.Graphemes(tok.Text) {
				dc.DrawString(g, x, baseline)
				w, _ := dc.MeasureString(g)
				x += w + tracking
			}
		}
	}
	return nil
}

// face 返回缓存的字体面，调用方需持有 r.mu。size 为 mm。
func (r *Renderer) face(res layout.FontResource, size float64) (font.Face, error) {
	src := res.Src
	if src == "" {
		src = fonts.Default
	}
	key := faceKey{src: src, size: size}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	parsed, err := r.font(src)
	if err != nil {
		return nil, err
	}
	f := truetype.NewFace(parsed, &truetype.Options{
		Size:    size * layout.MmToPt,
		DPI:     r.dpi,
		Hinting: font.HintingNone,
	})
	r.faces[key] = f
	return f, nil
}

func (r *Renderer) font(src string) (*truetype.Font, error) {
	if f, ok := r.parsed[src]; ok {
		return f, nil
	}
	data, err := r.fontBytes(src)
	if err != nil {
		if src == fonts.Default {
			return nil, err
		}
		// 与 canvas 渲染器一致：加载失败时回退到内置字体
		return r.font(fonts.Default)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", src, err)
	}
	r.parsed[src] = f
	return f, nil
}

// fontBytes 读取字体数据；gg 通过 freetype 绘制，只能使用 TrueType 字体文件。
func (r *Renderer) fontBytes(src string) ([]byte, error) {
	if !fonts.IsBuiltin(src) && !strings.HasSuffix(strings.ToLower(src), ".ttf") {
		return nil, fmt.Errorf("栅格渲染只支持 TrueType 字体：%s", src)
	}
	return fonts.Open(src, r.baseDir)
}

func (r *Renderer) fpx(mm float64) float64 { return mm * r.dpi / 25.4 }

func (r *Renderer) px(mm float64) int { return int(math.Ceil(r.fpx(mm))) }

func (r *Renderer) mm(px float64) float64 { return px * 25.4 / r.dpi }
