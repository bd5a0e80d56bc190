package layout

import (
	"math"
	"sync"

	"github.com/go-text/typesetting/segmenter"
)

// BoxMeasurer 把只会测量文本的 TextMeasurer 适配为 MeasurementOracle：
// 行宽 = 单词宽度 + 空格宽度（已固定的空格取显式宽度）+ 字距 × 受影响的字素数。
type BoxMeasurer struct {
	Text TextMeasurer
}

// NewBoxMeasurer wraps tm so that whole lines can be measured.
func NewBoxMeasurer(tm TextMeasurer) *BoxMeasurer { return &BoxMeasurer{Text: tm} }

// MeasureText implements TextMeasurer.
func (b *BoxMeasurer) MeasureText(content string, style TextStyle) (float64, error) {
	return b.Text.MeasureText(content, style)
}

// MeasureBox implements MeasurementOracle.
func (b *BoxMeasurer) MeasureBox(line *Line, style TextStyle) (float64, error) {
	total := 0.0
	for _, tok := range line.Tokens {
		if tok.IsSpace() && tok.Fixed {
			total += tok.Width
			continue
		}
		w, err := b.Text.MeasureText(tok.Text, style)
		if err != nil {
			return 0, err
		}
		total += w + line.Tracking*float64(graphemeCount(tok.Text))
	}
	return total, nil
}

// asOracle 返回可以直接测量整行的 oracle。
func asOracle(tm TextMeasurer) MeasurementOracle {
	if mo, ok := tm.(MeasurementOracle); ok {
		return mo
	}
	return NewBoxMeasurer(tm)
}

var segmenterPool = sync.Pool{
	New: func() any { return new(segmenter.Segmenter) },
}

// graphemeCount 返回字符串中的字素簇数量（用户感知的字符数）。
func graphemeCount(s string) int {
	if s == "" {
		return 0
	}
	seg := segmenterPool.Get().(*segmenter.Segmenter)
	defer segmenterPool.Put(seg)

	seg.Init([]rune(s))
	iter := seg.GraphemeIterator()
	n := 0
	for iter.Next() {
		n++
	}
	return n
}

// Graphemes 把字符串切分为字素簇，渲染器按字素施加字距时使用。
func Graphemes(s string) []string {
	if s == "" {
		return nil
	}
	seg := segmenterPool.Get().(*segmenter.Segmenter)
	defer segmenterPool.Put(seg)

	seg.Init([]rune(s))
	iter := seg.GraphemeIterator()
	var out []string
	for iter.Next() {
		out = append(out, string(iter.Grapheme().Text))
	}
	return out
}

// lineGraphemes 返回整行文本（含空格与行尾连字符）的字素数，是字距调整量的除数。
func lineGraphemes(line *Line) int {
	return graphemeCount(line.Text())
}

func checkWidth(fragment string, w float64) error {
	if w < 0 || math.IsNaN(w) {
		return &MeasureError{Fragment: fragment, Width: w, Err: ErrInvalidWidth}
	}
	return nil
}
