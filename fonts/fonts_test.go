package fonts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	for _, src := range []string{"builtin:goregular", "built-in:gobold", "embed:gomono.ttf"} {
		data, err := Load(src)
		if err != nil {
			t.Fatalf("加载 %s 失败: %v", src, err)
		}
		// TrueType 文件以 0x00010000 开头
		if !bytes.HasPrefix(data, []byte{0, 1, 0, 0}) {
			t.Fatalf("%s 不是 TrueType 数据", src)
		}
	}
}

func TestLoadUnknown(t *testing.T) {
	if _, err := Load("builtin:inter"); err == nil {
		t.Fatalf("未知字体应返回错误")
	}
}

func TestIsBuiltin(t *testing.T) {
	if !IsBuiltin(Default) {
		t.Fatalf("%s 应为内置字体", Default)
	}
	if IsBuiltin("goregular") || IsBuiltin("fonts/goregular.ttf") {
		t.Fatalf("没有前缀的路径不应视为内置字体")
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open("", ""); err != nil {
		t.Fatalf("空 src 应使用默认字体: %v", err)
	}
	if _, err := Open("fonts/a.ttf", ""); err == nil {
		t.Fatalf("没有资源目录时相对路径应返回错误")
	}

	dir := t.TempDir()
	want := []byte("not really a font")
	if err := os.WriteFile(filepath.Join(dir, "a.ttf"), want, 0o644); err != nil {
		t.Fatalf("写入临时文件失败: %v", err)
	}
	got, err := Open("a.ttf", dir)
	if err != nil || !bytes.Equal(got, want) {
		t.Fatalf("应按 baseDir 读取字体文件: %v", err)
	}
}
