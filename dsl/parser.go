// Package dsl 解析 microtype 文档：meta、resources、microtype 与 page 段落。
package dsl

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

// errNoMatch 告诉 participle 尝试下一个分支。
var errNoMatch = participle.NextMatch

var documentParser = participle.MustBuild[Document](
	participle.Lexer(microtypeLexer),
	participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
)

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}

// ParseFile 解析文件，错误信息中的位置带有文件名。
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 DSL 文件 %s: %w", path, err)
	}
	defer f.Close()
	return documentParser.Parse(path, f)
}
