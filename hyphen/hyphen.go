// Package hyphen 提供断字器：软连字符、Liang 模式表与例外词典，
// 以及把多个断字器按优先级串联的 Chain。
//
// 所有断字器都返回拼接后等于单词显示文本（去掉软连字符）的非空片段；
// 只返回一个片段表示该单词不可断。
package hyphen

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SoftHyphenRune 是手动断字位置。
const SoftHyphenRune = '\u00ad'

// Hyphenator 与 layout.HyphenationOracle 方法集一致。
type Hyphenator interface {
	Hyphenate(word string) ([]string, error)
}

// SoftHyphen 只在单词中显式写出的软连字符处断开。
type SoftHyphen struct{}

// Hyphenate implements Hyphenator.
func (SoftHyphen) Hyphenate(word string) ([]string, error) {
	parts := strings.Split(word, string(SoftHyphenRune))
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	if len(segs) == 0 {
		return []string{""}, nil
	}
	return segs, nil
}

// Chain 依次询问各个断字器，第一个给出多个片段的结果胜出。
type Chain []Hyphenator

// Hyphenate implements Hyphenator.
func (c Chain) Hyphenate(word string) ([]string, error) {
	for _, h := range c {
		if h == nil {
			continue
		}
		segs, err := h.Hyphenate(word)
		if err != nil {
			return nil, err
		}
		if len(segs) > 1 {
			return segs, nil
		}
	}
	return []string{stripSoftHyphens(word)}, nil
}

func stripSoftHyphens(word string) string {
	return strings.ReplaceAll(word, string(SoftHyphenRune), "")
}

// splitAffixes 把单词拆成前导标点、字母主体与尾随标点，例如 `"word,` → `"`, `word`, `,`。
func splitAffixes(word string) (prefix, core, suffix string) {
	isLetter := func(r rune) bool { return unicode.IsLetter(r) || unicode.IsMark(r) }
	start := strings.IndexFunc(word, isLetter)
	if start < 0 {
		return "", "", word
	}
	end := strings.LastIndexFunc(word, isLetter)
	_, size := utf8.DecodeRuneInString(word[end:])
	return word[:start], word[start : end+size], word[end+size:]
}

// cut 在 rune 位置 breaks（升序、绝对位置）处切开 core，并把前后缀接回首尾片段。
// 越界、重复或非递增的位置被忽略。
func cut(prefix, core, suffix string, breaks []int) []string {
	runes := []rune(core)
	segs := make([]string, 0, len(breaks)+1)
	last := 0
	for _, b := range breaks {
		if b <= last || b >= len(runes) {
			continue
		}
		segs = append(segs, string(runes[last:b]))
		last = b
	}
	segs = append(segs, string(runes[last:]))
	segs[0] = prefix + segs[0]
	segs[len(segs)-1] += suffix
	return segs
}
