package layout

import (
	"math"
	"strings"
)

// wordCursor 是可回退的单词游标。Back 把上一次 Next 取出的单词放回，
// 使其作为下一行的首个单词重新处理。
type wordCursor struct {
	words []string
	pos   int
}

func (c *wordCursor) Next() (string, bool) {
	if c.pos >= len(c.words) {
		return "", false
	}
	w := c.words[c.pos]
	c.pos++
	return w, true
}

func (c *wordCursor) HasNext() bool { return c.pos < len(c.words) }

func (c *wordCursor) Back() {
	if c.pos > 0 {
		c.pos--
	}
}

// breaker 保存一次断行过程的状态。当前行总是 lines 的最后一个元素。
type breaker struct {
	e       *Engine
	style   TextStyle
	width   float64
	indent  float64
	lines   []*Line
	index   int     // 当前行号
	open    bool    // 当前行是否已经创建
	running float64 // 当前行已占用的宽度（含行尾空格）
}

// Break 把单词序列贪心地分配到行中，在行溢出时尝试断字或把单词移到下一行。
// 首行的目标宽度为 width-indent，其余行为 width。
func (e *Engine) Break(words []string, width, indent float64, style TextStyle) ([]*Line, error) {
	b := &breaker{e: e, style: style, width: width, indent: indent}
	cur := &wordCursor{words: words}
	for {
		word, ok := cur.Next()
		if !ok {
			break
		}
		if err := b.place(word, cur); err != nil {
			return nil, err
		}
	}
	if n := len(b.lines); n > 0 {
		last := b.lines[n-1]
		last.dropTrailingSpace()
		last.HardBreak = false
	}
	return b.lines, nil
}

func (b *breaker) targetFor(index int) float64 {
	if index == 0 {
		return b.width - b.indent
	}
	return b.width
}

// current 返回当前行，行尚未开始时新建一行。
func (b *breaker) current() (*Line, error) {
	if !b.open {
		line := &Line{Index: b.index, Target: b.targetFor(b.index)}
		b.lines = append(b.lines, line)
		b.open = true
		b.running = 0
		return line, nil
	}
	if len(b.lines) != b.index+1 {
		return nil, &LineMissingError{Line: b.index}
	}
	return b.lines[b.index], nil
}

func (b *breaker) place(word string, cur *wordCursor) error {
	line, err := b.current()
	if err != nil {
		return err
	}

	display := displayText(word)
	ww, err := b.e.text(display, b.style)
	if err != nil {
		return err
	}
	line.Tokens = append(line.Tokens, Token{Kind: TokenWord, Text: display, Source: word, NaturalWidth: ww, Width: ww})
	wordIdx := len(line.Tokens) - 1
	b.running += ww

	more := cur.HasNext()
	if more {
		sw, err := b.e.text(" ", b.style)
		if err != nil {
			return err
		}
		line.Tokens = append(line.Tokens, Token{Kind: TokenSpace, Text: " ", NaturalWidth: sw, Width: sw})
		b.running += sw
	}

	// 溢出检查发生在追加空格之后，宽度恰好等于目标宽度也视为溢出。
	if b.running < line.Target {
		return nil
	}
	return b.resolve(line, wordIdx, word, more, cur)
}

// resolve 处理溢出的行：先尝试断字，否则决定单词留在本行还是移到下一行。
func (b *breaker) resolve(line *Line, wordIdx int, word string, more bool, cur *wordCursor) error {
	firstWord := line.words() == 1

	if b.e.cfg.Hyphenate && b.e.hyphen != nil {
		done, err := b.hyphenate(line, wordIdx, word, firstWord, more)
		if err != nil {
			return err
		}
		if done {
			b.index++
			return nil
		}
	}

	ww := line.Tokens[wordIdx].Width
	over := b.running - line.Target
	under := math.Abs(b.running - ww - line.Target)
	if over > under && !firstWord {
		line.Tokens = line.Tokens[:wordIdx]
		cur.Back()
		logger().Debug("wrap word", "line", line.Index, "word", word, "over", over, "under", under)
	} else {
		logger().Debug("keep word", "line", line.Index, "word", word, "over", over, "under", under)
	}
	line.dropTrailingSpace()
	line.HardBreak = true
	b.open = false
	b.index++
	return nil
}

// 断字候选：保留整词、整词换行、在第 split 个片段后断开。
const (
	keepWhole = iota
	wrapWhole
	splitWord
)

type candidate struct {
	kind  int
	split int
	diff  float64
}

// hyphenate 在所有候选中选择与目标宽度偏差最小的一个；偏差相同时先评估者胜出。
// 选中断字时把单词拆到两行并返回 true；否则恢复单词原文并重新测量其宽度。
func (b *breaker) hyphenate(line *Line, wordIdx int, word string, firstWord, more bool) (bool, error) {
	segs, err := b.e.segments(word)
	if err != nil {
		return false, err
	}
	if len(segs) < 2 {
		return false, nil
	}

	tok := &line.Tokens[wordIdx]
	display := tok.Text
	cands, err := b.candidates(line, wordIdx, segs, firstWord)
	if err != nil {
		return false, err
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.diff < best.diff {
			best = c
		}
	}

	if best.kind != splitWord {
		w, err := b.e.text(display, b.style)
		if err != nil {
			return false, err
		}
		tok.Width, tok.NaturalWidth = w, w
		return false, nil
	}

	hyphen := b.e.cfg.hyphenChar()
	head := strings.Join(segs[:best.split], "") + hyphen
	tail := strings.Join(segs[best.split:], "")
	hw, err := b.e.text(head, b.style)
	if err != nil {
		return false, err
	}
	tok.Text = head
	tok.Width, tok.NaturalWidth = hw, hw
	line.dropTrailingSpace()
	line.HardBreak = true
	line.Hyphenated = true

	next := &Line{Index: b.index + 1, Target: b.targetFor(b.index + 1)}
	b.lines = append(b.lines, next)
	tw, err := b.e.text(tail, b.style)
	if err != nil {
		return false, err
	}
	next.Tokens = append(next.Tokens, Token{Kind: TokenWord, Text: tail, Source: word, NaturalWidth: tw, Width: tw})
	if more {
		sw, err := b.e.text(" ", b.style)
		if err != nil {
			return false, err
		}
		next.Tokens = append(next.Tokens, Token{Kind: TokenSpace, Text: " ", NaturalWidth: sw, Width: sw})
	}
	running, err := b.e.box(next, b.style)
	if err != nil {
		return false, err
	}
	b.running = running
	b.open = true

	logger().Debug("hyphenate word", "line", line.Index, "word", word, "head", head, "tail", tail, "diff", best.diff)
	return true, nil
}

// candidates 依次评估保留整词、整词换行（行首单词除外）与每个断字位置，
// 返回时单词文本已恢复原样。断字候选按 "前半段+连字符" 测量整行宽度。
func (b *breaker) candidates(line *Line, wordIdx int, segs []string, firstWord bool) ([]candidate, error) {
	tok := &line.Tokens[wordIdx]
	display := tok.Text
	defer func() { tok.Text = display }()

	hyphen := b.e.cfg.hyphenChar()
	cands := []candidate{{kind: keepWhole, diff: b.running - line.Target}}
	if !firstWord {
		cands = append(cands, candidate{kind: wrapWhole, diff: math.Abs(line.Target - (b.running - tok.Width))})
	}
	for j := 1; j < len(segs); j++ {
		tok.Text = strings.Join(segs[:j], "") + hyphen
		w, err := b.e.box(line, b.style)
		if err != nil {
			return nil, err
		}
		cands = append(cands, candidate{kind: splitWord, split: j, diff: math.Abs(w - line.Target)})
	}
	return cands, nil
}
