package layout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// softHyphen 是手动断字位置，不参与显示。
const softHyphen = "\u00ad"

// Paragraph 描述待排版的一段文本。Width 是段落盒宽度，Indent 只作用于首行。
type Paragraph struct {
	Text   string
	Indent float64
	Width  float64
	Style  TextStyle
}

// Engine 负责单个段落的断行与两端对齐。
// Engine 自身不保存排版状态，只要 oracle 并发安全即可在多个 goroutine 间共享。
type Engine struct {
	cfg        Config
	measure    MeasurementOracle
	hyphen     HyphenationOracle
	protrusion map[rune]float64
}

// NewEngine 校验配置并创建引擎；h 为 nil 时不断字。
func NewEngine(cfg Config, m TextMeasurer, h HyphenationOracle) (*Engine, error) {
	if m == nil {
		return nil, ErrNoMeasurer
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		measure:    asOracle(m),
		hyphen:     h,
		protrusion: compileProtrusion(cfg.Protrusion),
	}, nil
}

// Format 对一个段落依次执行断行与两端对齐。
// 要么返回完整的行序列，要么返回错误，不会返回部分结果。
func (e *Engine) Format(p Paragraph) ([]*Line, error) {
	lines, err := e.Break(Words(p.Text), p.Width, p.Indent, p.Style)
	if err != nil {
		return nil, err
	}
	if err := e.Justify(lines, p.Width, p.Indent, p.Style); err != nil {
		return nil, err
	}
	return lines, nil
}

// Formatted 是批量排版中单个段落的结果。
type Formatted struct {
	Lines []*Line
	Err   error
}

// FormatAll 并行排版相互独立的段落，每个段落拥有独立的行集合。
// 某个段落失败只影响它自己；ctx 取消后尚未开始的段落以 ctx.Err() 失败。
func (e *Engine) FormatAll(ctx context.Context, paragraphs []Paragraph, workers int) []Formatted {
	if workers <= 0 {
		workers = 1
	}
	out := make([]Formatted, len(paragraphs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range paragraphs {
		if err := ctx.Err(); err != nil {
			out[i].Err = &ParagraphError{Index: i, Err: err}
			continue
		}
		select {
		case <-ctx.Done():
			out[i].Err = &ParagraphError{Index: i, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}
		// 等待名额期间可能已被取消
		if err := ctx.Err(); err != nil {
			<-sem
			out[i].Err = &ParagraphError{Index: i, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			lines, err := e.Format(paragraphs[i])
			if err != nil {
				logger().Warn("paragraph failed", "index", i, "err", err)
				out[i].Err = &ParagraphError{Index: i, Err: err}
				return
			}
			out[i].Lines = lines
		}(i)
	}
	wg.Wait()
	return out
}

// Words 把段落文本切分为单词：先做 NFC 规范化，再按空白切分。
// 只由软连字符组成的单词没有可显示内容，直接丢弃。
func Words(text string) []string {
	fields := strings.Fields(norm.NFC.String(text))
	words := fields[:0]
	for _, w := range fields {
		if displayText(w) != "" {
			words = append(words, w)
		}
	}
	return words
}

// displayText 去掉单词中的软连字符。
func displayText(word string) string {
	if !strings.Contains(word, softHyphen) {
		return word
	}
	return strings.ReplaceAll(word, softHyphen, "")
}

func (e *Engine) text(s string, style TextStyle) (float64, error) {
	w, err := e.measure.MeasureText(s, style)
	if err != nil {
		return 0, err
	}
	if err := checkWidth(s, w); err != nil {
		return 0, err
	}
	return w, nil
}

func (e *Engine) box(line *Line, style TextStyle) (float64, error) {
	w, err := e.measure.MeasureBox(line, style)
	if err != nil {
		return 0, err
	}
	if err := checkWidth(line.Text(), w); err != nil {
		return 0, err
	}
	return w, nil
}

// segments 查询断字器并校验结果：片段不能为空，拼接后必须等于单词的显示文本。
func (e *Engine) segments(word string) ([]string, error) {
	segs, err := e.hyphen.Hyphenate(word)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: no segments for %q", ErrMalformedSegments, word)
	}
	if len(segs) == 1 {
		return segs, nil
	}
	var sb strings.Builder
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrMalformedSegments, segs)
		}
		sb.WriteString(s)
	}
	if want := displayText(word); sb.String() != want {
		return nil, fmt.Errorf("%w: %q does not rebuild %q", ErrMalformedSegments, segs, want)
	}
	return segs, nil
}
