package layout

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/microtype/binding"
	"github.com/ByLCY/microtype/dsl"
)

const (
	blockSpacing      = 3.0 // 段落之间的默认间距（mm）
	defaultFontSizePT = 12
	defaultLineFactor = 1.4
)

// flowItem 是按文档顺序收集的段落或分页符。
type flowItem struct {
	pageBreak bool
	para      Paragraph
	box       ParagraphBox
	spaceMM   float64
}

type flowContext struct {
	baseX  float64
	width  float64
	data   any
	debug  DebugOptions
	parent *flowContext
	items  *[]flowItem
	res    ResourceSet
}

func buildPages(ctx context.Context, section *dsl.PageSection, engine *Engine, res ResourceSet, data any, opts BuildOptions) ([]Page, []ParagraphFailure, error) {
	width, height, err := resolvePageSize(section.Spec)
	if err != nil {
		return nil, nil, err
	}
	if section.Block == nil {
		return nil, nil, fmt.Errorf("page 段落缺少内容")
	}
	margin := resolveMargin(section.Spec.Params)

	var items []flowItem
	root := &flowContext{
		baseX: margin.Left,
		width: width - margin.Left - margin.Right,
		data:  data,
		debug: opts.Debug,
		items: &items,
		res:   res,
	}
	if err := processBlock(section.Block, root); err != nil {
		return nil, nil, err
	}

	paragraphs := make([]Paragraph, 0, len(items))
	for _, it := range items {
		if !it.pageBreak {
			paragraphs = append(paragraphs, it.para)
		}
	}
	formatted := engine.FormatAll(ctx, paragraphs, opts.Workers)

	collector := newPageCollector(width, height, margin)
	var failures []ParagraphFailure
	n := 0
	for _, it := range items {
		if it.pageBreak {
			collector.pageBreak()
			continue
		}
		out := formatted[n]
		n++
		if out.Err != nil {
			failures = append(failures, ParagraphFailure{Index: it.box.Index, Error: out.Err.Error()})
			continue
		}
		box := it.box
		box.Lines = out.Lines
		box.Height = float64(len(out.Lines)) * box.LineHeight
		collector.place(box, it.spaceMM)
	}
	return collector.pages(), failures, nil
}

// processBlock 依次处理 block 内的命令，支持 flow、text 与 pagebreak。
func processBlock(block *dsl.Block, ctx *flowContext) error {
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		switch cmd.Name {
		case "flow":
			if err := handleFlow(cmd, ctx); err != nil {
				return err
			}
		case "text":
			if err := handleText(cmd, ctx); err != nil {
				return err
			}
		case "pagebreak":
			*ctx.items = append(*ctx.items, flowItem{pageBreak: true})
		default:
			// 其余命令暂未实现，忽略即可
			logger().Debug("ignoring command", "name", cmd.Name, "line", cmd.Pos.Line)
		}
	}
	return nil
}

func handleFlow(cmd *dsl.Command, parent *flowContext) error {
	if cmd.Block == nil {
		return fmt.Errorf("flow 语句缺少子内容")
	}
	styleName, attrs := parseArgs(cmd.Args, false)
	attrs = mergeStyleAttributes(styleName, attrs, parent.res.Styles)
	width := parent.width
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, parent.width); w > 0 && w <= parent.width {
			width = w
		}
	}
	child := &flowContext{
		baseX:  parent.baseX + alignOffset(parent.width, width, attrs["align"]),
		width:  width,
		data:   parent.data,
		debug:  parent.debug,
		parent: parent,
		items:  parent.items,
		res:    parent.res,
	}
	return processBlock(cmd.Block, child)
}

// handleText 把 text 命令拆成段落：文本中的空行分隔多个段落，每段都应用首行缩进。
func handleText(cmd *dsl.Command, ctx *flowContext) error {
	if cmd.Block == nil {
		return fmt.Errorf("text 语句缺少文本块")
	}
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = mergeStyleAttributes(styleName, attrs, ctx.res.Styles)
	content := extractText(cmd.Block)
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("text 语句缺少文本内容")
	}
	content = binding.Interpolate(content, ctx.data)

	fontName := attrs["font"]
	if fontName == "" {
		fontName = styleName
	}
	if fontName == "" {
		fontName = "Body"
	}
	font := ctx.res.Font(fontName)

	size := ParseRawLengthStr(attrs["size"])
	if size.Value <= 0 || size.Unit == UnitEM {
		size = Length{Value: defaultFontSizePT, Unit: UnitPT}
	}
	sizeMM := size.ToMM()
	lineHeight := parseLineHeight(attrs["line-height"])
	indent := ParseRawLengthStr(attrs["indent"])
	space := blockSpacing
	if v := attrs["space"]; v != "" {
		space = ParseRawLengthStr(v).Resolve(size, UnitMM)
	}

	width := ctx.width
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, ctx.width); w > 0 && w <= ctx.width {
			width = w
		}
	}

	box := ParagraphBox{
		X:          ctx.baseX,
		Width:      width,
		Indent:     indent.Resolve(size, UnitMM),
		LineHeight: lineHeight.Resolve(size, UnitMM),
		Font:       fontName,
		FontSize:   sizeMM,
		Color:      resolveColor(attrs["color"], ctx.res),
	}
	if ctx.debug.RawUnits {
		box.Debug = rawUnitsDebug(size, lineHeight, indent)
	}

	for _, text := range splitParagraphs(content) {
		box.Index = countParagraphs(*ctx.items)
		*ctx.items = append(*ctx.items, flowItem{
			para: Paragraph{
				Text:   text,
				Indent: box.Indent,
				Width:  box.Width,
				Style:  TextStyle{Font: font, Size: sizeMM},
			},
			box:     box,
			spaceMM: space,
		})
	}
	return nil
}

func countParagraphs(items []flowItem) int {
	n := 0
	for _, it := range items {
		if !it.pageBreak {
			n++
		}
	}
	return n
}

// splitParagraphs 以空行切分文本，忽略只含空白的段落。
func splitParagraphs(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var out []string
	var cur []string
	flush := func() {
		if text := strings.TrimSpace(strings.Join(cur, " ")); text != "" {
			out = append(out, text)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

func parseLineHeight(v string) LineHeightSpec {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: defaultLineFactor}
	}
	l := ParseRawLengthStr(strings.TrimSuffix(v, "x"))
	if strings.HasSuffix(v, "x") || l.Unit == UnitNone {
		if l.Value > 0 {
			return LineHeightSpec{Kind: LineHeightFactor, Factor: l.Value}
		}
		return LineHeightSpec{Kind: LineHeightFactor, Factor: defaultLineFactor}
	}
	if l.Value <= 0 {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: defaultLineFactor}
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}
}

type pageAccumulator struct {
	paragraphs []ParagraphBox
}

type pageCollector struct {
	width   float64
	height  float64
	margin  Margin
	accs    []*pageAccumulator
	cursorY float64
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	pc := &pageCollector{width: width, height: height, margin: margin}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	pc.cursorY = pc.contentTop()
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator { return pc.accs[len(pc.accs)-1] }

func (pc *pageCollector) contentTop() float64 { return pc.margin.Top }

func (pc *pageCollector) contentBottom() float64 { return pc.height - pc.margin.Bottom }

// ensureSpace 在当前页放不下 height 时换页；空白页上的超高段落直接放置。
func (pc *pageCollector) ensureSpace(height float64) {
	if pc.cursorY+height <= pc.contentBottom() {
		return
	}
	if len(pc.curr().paragraphs) == 0 {
		return
	}
	pc.newPage()
}

// pageBreak 强制换页；当前页为空时不产生空白页。
func (pc *pageCollector) pageBreak() {
	if len(pc.curr().paragraphs) == 0 {
		return
	}
	pc.newPage()
}

// place 把段落整体放到页面上，段落不会跨页拆分。
func (pc *pageCollector) place(box ParagraphBox, space float64) {
	pc.ensureSpace(box.Height)
	box.Y = pc.cursorY
	acc := pc.curr()
	acc.paragraphs = append(acc.paragraphs, box)
	pc.cursorY += box.Height + math.Max(space, 0)
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:      pc.width,
			Height:     pc.height,
			Margin:     pc.margin,
			Paragraphs: acc.paragraphs,
		}
	}
	return out
}
