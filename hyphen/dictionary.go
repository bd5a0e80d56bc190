package hyphen

import (
	"strings"
	"unicode/utf8"
)

// Dictionary 保存例外词的断字位置，条目写法如 "hy-phen-a-tion"，匹配时忽略大小写。
type Dictionary struct {
	entries map[string][]int
}

// NewDictionary 由例外词条目构造词典；空条目被忽略，重复的词以后出现者为准。
func NewDictionary(entries ...string) *Dictionary {
	d := &Dictionary{entries: make(map[string][]int, len(entries))}
	for _, e := range entries {
		d.Add(e)
	}
	return d
}

// Add 登记一个例外词。
func (d *Dictionary) Add(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}
	var (
		word   strings.Builder
		breaks []int
		pos    int
	)
	for _, part := range strings.Split(entry, "-") {
		if part == "" {
			continue
		}
		if pos > 0 {
			breaks = append(breaks, pos)
		}
		word.WriteString(part)
		pos += utf8.RuneCountInString(part)
	}
	if word.Len() == 0 {
		return
	}
	d.entries[strings.ToLower(word.String())] = breaks
}

// Len 返回词条数量。
func (d *Dictionary) Len() int { return len(d.entries) }

// Hyphenate implements Hyphenator.
func (d *Dictionary) Hyphenate(word string) ([]string, error) {
	word = stripSoftHyphens(word)
	prefix, core, suffix := splitAffixes(word)
	breaks, ok := d.entries[strings.ToLower(core)]
	if !ok || len(breaks) == 0 {
		return []string{word}, nil
	}
	return cut(prefix, core, suffix, breaks), nil
}
