package hyphen

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftHyphen(t *testing.T) {
	cases := map[string][]string{
		"co\u00adop":            {"co", "op"},
		"hy\u00adphen\u00adate": {"hy", "phen", "ate"},
		"plain":                 {"plain"},
		"\u00adlead":            {"lead"},
		"dou\u00ad\u00adble":    {"dou", "ble"},
	}
	for in, want := range cases {
		got, err := SoftHyphen{}.Hyphenate(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestDictionary(t *testing.T) {
	d := NewDictionary("hy-phen-a-tion", "", "ta-ble", "Ta-bles")
	assert.Equal(t, 3, d.Len())

	got, err := d.Hyphenate("hyphenation")
	require.NoError(t, err)
	assert.Equal(t, []string{"hy", "phen", "a", "tion"}, got)

	got, err = d.Hyphenate("(Hyphenation),")
	require.NoError(t, err)
	assert.Equal(t, []string{"(Hy", "phen", "a", "tion),"}, got)

	got, err = d.Hyphenate("unknown")
	require.NoError(t, err)
	assert.Equal(t, []string{"unknown"}, got)

	got, err = d.Hyphenate("ta\u00adble")
	require.NoError(t, err)
	assert.Equal(t, []string{"ta", "ble"}, got)
}

func TestSplitAffixes(t *testing.T) {
	p, c, s := splitAffixes(`"word,"`)
	assert.Equal(t, `"`, p)
	assert.Equal(t, "word", c)
	assert.Equal(t, `,"`, s)

	p, c, s = splitAffixes("...")
	assert.Empty(t, p)
	assert.Empty(t, c)
	assert.Equal(t, "...", s)
}

func TestCutIgnoresInvalidPositions(t *testing.T) {
	got := cut("", "abcdef", "", []int{0, 2, 2, 1, 4, 6, 9})
	assert.Equal(t, []string{"ab", "cd", "ef"}, got)
	assert.Equal(t, "abcdef", strings.Join(got, ""))
}

type errHyphenator struct{}

func (errHyphenator) Hyphenate(string) ([]string, error) { return nil, errors.New("broken") }

type fixed []string

func (f fixed) Hyphenate(string) ([]string, error) { return f, nil }

func TestChain(t *testing.T) {
	c := Chain{SoftHyphen{}, nil, NewDictionary("hy-phen-a-tion")}

	got, err := c.Hyphenate("hyphen\u00adation")
	require.NoError(t, err)
	assert.Equal(t, []string{"hyphen", "ation"}, got)

	got, err = c.Hyphenate("hyphenation")
	require.NoError(t, err)
	assert.Equal(t, []string{"hy", "phen", "a", "tion"}, got)

	got, err = c.Hyphenate("plain\u00ad")
	require.NoError(t, err)
	assert.Equal(t, []string{"plain"}, got)

	_, err = Chain{fixed{"one"}, errHyphenator{}}.Hyphenate("word")
	assert.Error(t, err)
}

// 模式 "a1b" 允许在 ab 之间断开。
const tinyPatterns = "a1b\n"

// englishPatterns 是英语模式表的一个片段。
const englishPatterns = `1co
4m1p
pu2t
5pute
put3er
pos1s
1pos
2ess
2ss
s1e4s
s1si
1sio
5sion
2io
o2n
`

func TestPatterns(t *testing.T) {
	p, err := New(strings.NewReader(tinyPatterns))
	require.NoError(t, err)

	got, err := p.Hyphenate("aaabaaa")
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa", "baaa"}, got)

	got, err = p.Hyphenate("Aaabaaa.")
	require.NoError(t, err)
	assert.Equal(t, []string{"Aaa", "baaa."}, got)

	// 断点离词首太近，被 Leftmin 排除
	got, err = p.Hyphenate("abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, got)
}

func TestPatternsMultipleBreaks(t *testing.T) {
	p, err := New(strings.NewReader(englishPatterns))
	require.NoError(t, err)

	cases := map[string][]string{
		"possession":  {"pos", "ses", "sion"},
		"Computer":    {"Com", "put", "er"},
		"(computer),": {"(com", "put", "er),"},
		"a":           {"a"},
	}
	for in, want := range cases {
		got, err := p.Hyphenate(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestLoadPatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.pat.txt")
	require.NoError(t, os.WriteFile(path, []byte(tinyPatterns), 0o644))
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultLeftmin, p.lang.Leftmin)
	assert.Equal(t, DefaultRightmin, p.lang.Rightmin)

	_, err = Load(filepath.Join(t.TempDir(), "missing.pat.txt"))
	assert.Error(t, err)
}
