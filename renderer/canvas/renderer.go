package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/microtype/fonts"
	"github.com/ByLCY/microtype/layout"
	"github.com/ByLCY/microtype/renderer"
)

// Renderer 通过 github.com/tdewolff/canvas 测量文本并输出 PDF。
// 所有长度均为 mm，创建字体面时换算为 pt。
type Renderer struct {
	baseDir string

	fontBlobs map[string][]byte // 通过 builtin:<name> 注入的字体

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	faces          map[faceKey]*canvas.FontFace
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Measurer = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

type faceKey struct {
	font string
	size float64
	col  layout.Color
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // 通过 builtin:<name> 访问的字体，优先于内置 Go 字体
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
		faces:        map[faceKey]*canvas.FontFace{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			// 读取失败时留到实际使用该字体时报错
			if data, err := os.ReadFile(res.Path); err == nil && len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// MeasureText 实现 layout.TextMeasurer：返回文本在给定字号（mm）下的宽度（mm）。
func (r *Renderer) MeasureText(content string, style layout.TextStyle) (float64, error) {
	if content == "" {
		return 0, nil
	}
	face, err := r.fontFace(style.Font, style.Size, layout.Color{})
	if err != nil {
		return 0, err
	}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	return face.TextWidth(content), nil
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		for _, para := range page.Paragraphs {
			if err := r.drawParagraph(ctx, para, result.Resources); err != nil {
				return nil, fmt.Errorf("绘制段落 %d 失败: %w", para.Index, err)
			}
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawParagraph 逐个 token 绘制段落：固定宽度的空格按其宽度前进，
// 字距不为 0 时单词按字素逐个绘制并在每个字素后追加字距。
func (r *Renderer) drawParagraph(ctx *canvas.Context, para layout.ParagraphBox, resources layout.ResourceSet) error {
	font := resources.Font(para.Font)
	face, err := r.fontFace(font, para.FontSize, para.Color)
	if err != nil {
		return err
	}

	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	ascent := face.Metrics().Ascent
	for i, line := range para.Lines {
		x := para.X
		if i == 0 {
			x += para.Indent
		}
		baseline := para.Y + float64(i)*para.LineHeight + ascent
		for _, tok := range line.Tokens {
			if tok.IsSpace() {
				if tok.Fixed {
					x += tok.Width
				} else {
					x += face.TextWidth(tok.Text) + line.Tracking
				}
				continue
			}
			if line.Tracking == 0 {
				ctx.DrawText(x, baseline, canvas.NewTextLine(face, tok.Text, canvas.Left))
				x += face.TextWidth(tok.Text)
				continue
			}
			for _, g := range layout.Graphemes(tok.Text) {
				ctx.DrawText(x, baseline, canvas.NewTextLine(face, g, canvas.Left))
				x += face.TextWidth(g) + line.Tracking
			}
		}
	}
	return nil
}

// fontFace 返回缓存的字体面；size 为 mm。
func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	key := faceKey{font: fontCacheKey(font), size: size, col: col}

	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if face, ok := r.faces[key]; ok {
		return face, nil
	}
	face := family.Face(toPt(size), colorFromLayout(col), style, canvas.FontNormal)
	r.faces[key] = face
	return face, nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

// loadFontBytes 优先使用通过 Options.Fonts 注入的字体。
func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	for _, prefix := range []string{"builtin:", "built-in:"} {
		if name, ok := strings.CutPrefix(font.Src, prefix); ok {
			if blob, ok := r.fontBlobs[name]; ok {
				return blob, nil
			}
		}
	}
	return fonts.Open(font.Src, r.baseDir)
}

// fallback 在调用方已持有 fontMu 时使用。
func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("microtype-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

// fontWeights 按匹配顺序排列：semibold 必须先于 bold 判断。
var fontWeights = []struct {
	names []string
	style canvas.FontStyle
}{
	{[]string{"black", "heavy"}, canvas.FontBlack},
	{[]string{"extrabold"}, canvas.FontExtraBold},
	{[]string{"semibold", "demibold"}, canvas.FontSemiBold},
	{[]string{"bold"}, canvas.FontBold},
	{[]string{"medium"}, canvas.FontMedium},
	{[]string{"light"}, canvas.FontLight},
}

// parseFontStyle 把 "bold italic" 之类的描述转换为 canvas.FontStyle。
func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
weights:
	for _, w := range fontWeights {
		for _, name := range w.names {
			if strings.Contains(s, name) {
				result = w.style
				break weights
			}
		}
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
