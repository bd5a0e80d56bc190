package layout

import (
	"math"
	"unicode/utf8"
)

// epsilon 以下的偏差视为已经对齐。
const epsilon = 1e-6

// Justify 依次调整每一行的空格宽度与字距，使行宽尽量接近目标宽度。
// 段落最后一行保持自然宽度，只记录测量结果。
// 重复调用得到相同的结果：每次调整前先恢复空格的自然宽度并清零字距。
func (e *Engine) Justify(lines []*Line, width, indent float64, style TextStyle) error {
	for i, line := range lines {
		line.Target = width
		if i == 0 {
			line.Target = width - indent
		}
		reset(line)
		if i == len(lines)-1 {
			w, err := e.box(line, style)
			if err != nil {
				return err
			}
			line.Width = w
			continue
		}
		if err := e.justifyLine(line, style); err != nil {
			return err
		}
	}
	return nil
}

func reset(line *Line) {
	line.Tracking = 0
	line.Protrusion = 0
	for i := range line.Tokens {
		tok := &line.Tokens[i]
		if tok.IsSpace() {
			tok.Fixed = false
			tok.Width = tok.NaturalWidth
		}
	}
}

func (e *Engine) justifyLine(line *Line, style TextStyle) error {
	em := style.Size
	line.Protrusion = e.protrusionFor(line) * em
	target := line.Target + line.Protrusion

	w, err := e.box(line, style)
	if err != nil {
		return err
	}

	if dev := target - w; math.Abs(dev) > epsilon {
		if spaces := line.Spaces(); spaces > 0 {
			delta := clamp(dev/float64(spaces), e.cfg.MaxSpaceShrink*em, e.cfg.MaxSpaceGrow*em)
			for i := range line.Tokens {
				tok := &line.Tokens[i]
				if !tok.IsSpace() {
					continue
				}
				tok.Width = math.Max(0, tok.NaturalWidth+delta)
				tok.Fixed = true
			}
			if w, err = e.box(line, style); err != nil {
				return err
			}
		}
	}

	if dev := target - w; math.Abs(dev) > epsilon {
		if n := lineGraphemes(line); n > 0 {
			line.Tracking = clamp(dev/float64(n), e.cfg.MaxTrackingShrink*em, e.cfg.MaxTrackingGrow*em)
			if w, err = e.box(line, style); err != nil {
				return err
			}
		}
	}

	line.Width = w
	logger().Debug("justify line",
		"line", line.Index,
		"target", target,
		"width", w,
		"tracking", line.Tracking,
		"protrusion", line.Protrusion)
	return nil
}

// protrusionFor 返回行尾字符允许伸出的 em 比例，行内没有单词时为 0。
func (e *Engine) protrusionFor(line *Line) float64 {
	i := line.lastWord()
	if i < 0 {
		return 0
	}
	r, _ := utf8.DecodeLastRuneInString(line.Tokens[i].Text)
	if r == utf8.RuneError {
		return 0
	}
	return e.protrusion[r]
}

// clamp 把带符号的调整量限制在 [-shrink, grow] 之内。
func clamp(v, shrink, grow float64) float64 {
	if v < 0 {
		return math.Max(v, -shrink)
	}
	return math.Min(v, grow)
}
