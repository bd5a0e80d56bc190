// Package fonts 提供随程序分发的内置字体（Go 字体家族）。
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Default 是未声明字体时使用的内置字体。
const Default = "builtin:goregular"

var builtin = map[string][]byte{
	"goregular":    goregular.TTF,
	"gobold":       gobold.TTF,
	"goitalic":     goitalic.TTF,
	"gobolditalic": gobolditalic.TTF,
	"gomono":       gomono.TTF,
}

// IsBuiltin 判断 src 是否指向内置字体。
func IsBuiltin(src string) bool {
	_, ok := builtin[trimScheme(src)]
	return ok && src != trimScheme(src)
}

// Load 返回内置字体的字节数据，src 可写为 "builtin:goregular" 或 "embed:goregular"。
func Load(src string) ([]byte, error) {
	name := trimScheme(src)
	data, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("找不到内置字体 %s（可用：%s）", src, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Open 读取字体数据：内置字体直接返回，其余按文件路径读取，相对路径相对 baseDir。
func Open(src, baseDir string) ([]byte, error) {
	if src == "" {
		src = Default
	}
	if trimScheme(src) != src {
		return Load(src)
	}
	path := src
	if !filepath.IsAbs(path) {
		if baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin:）", src)
		}
		path = filepath.Join(baseDir, path)
	}
	return os.ReadFile(path)
}

// Names 返回所有内置字体名称。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func trimScheme(src string) string {
	for _, prefix := range []string{"builtin:", "built-in:", "embed:"} {
		if strings.HasPrefix(src, prefix) {
			return strings.TrimSuffix(strings.TrimPrefix(src, prefix), ".ttf")
		}
	}
	return src
}
