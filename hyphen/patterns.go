package hyphen

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/speedata/hyphenation"
)

// Patterns 基于 Liang 模式表（hyph-utf8 的 *.pat.txt 格式）断字。
type Patterns struct {
	mu   sync.Mutex
	lang *hyphenation.Lang
}

// DefaultLeftmin 与 DefaultRightmin 是模式库的首尾保留参数，
// 断字后首片段至少 DefaultLeftmin+1 个字母，尾片段至少 DefaultRightmin 个字母。
const (
	DefaultLeftmin  = 2
	DefaultRightmin = 2
)

// New 从 r 读取模式表。
func New(r io.Reader) (*Patterns, error) {
	lang, err := hyphenation.New(r)
	if err != nil {
		return nil, fmt.Errorf("hyphen: 读取模式表失败: %w", err)
	}
	lang.Leftmin = DefaultLeftmin
	lang.Rightmin = DefaultRightmin
	return &Patterns{lang: lang}, nil
}

// Load 从文件读取模式表。
func Load(path string) (*Patterns, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hyphen: 打开模式表 %s 失败: %w", path, err)
	}
	defer f.Close()
	return New(f)
}

// Hyphenate implements Hyphenator. 单词首尾的标点不参与匹配，并保留在首尾片段上。
func (p *Patterns) Hyphenate(word string) ([]string, error) {
	word = stripSoftHyphens(word)
	prefix, core, suffix := splitAffixes(word)
	if core == "" {
		return []string{word}, nil
	}

	// 返回的是断点前的字母数（绝对位置），首尾保留由 Leftmin 与 Rightmin 控制。
	p.mu.Lock()
	breaks := p.lang.Hyphenate(core)
	p.mu.Unlock()
	if len(breaks) == 0 {
		return []string{word}, nil
	}
	return cut(prefix, core, suffix, breaks), nil
}
