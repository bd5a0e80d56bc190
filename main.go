package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ByLCY/microtype/dsl"
	"github.com/ByLCY/microtype/hyphen"
	"github.com/ByLCY/microtype/layout"
	"github.com/ByLCY/microtype/renderer"
	canvasrenderer "github.com/ByLCY/microtype/renderer/canvas"
	rasterrenderer "github.com/ByLCY/microtype/renderer/raster"
)

type options struct {
	input         string
	output        string
	format        string
	debug         string
	debugRawUnits bool
	patterns      string
	workers       int
	dpi           float64
	data          any
}

func main() {
	input := flag.String("in", "examples/demo.microtype", "DSL 文件路径")
	output := flag.String("out", "output/demo.pdf", "输出路径")
	format := flag.String("format", "pdf", "输出格式：pdf 或 png")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	debugRawUnits := flag.Bool("debug-raw-units", false, "在调试 JSON 中输出 debug.rawUnits 影子字段")
	dataJSON := flag.String("data", "", "绑定到 DSL 的 JSON 数据")
	patterns := flag.String("patterns", "", "TeX 断字模式表路径，优先于文档中的 patterns 设置")
	workers := flag.Int("workers", 0, "并行排版的段落数，0 表示 CPU 核数")
	dpi := flag.Float64("dpi", rasterrenderer.DefaultDPI, "PNG 输出分辨率")
	verbose := flag.Bool("v", false, "输出排版过程日志")
	flag.Parse()

	if *verbose {
		layout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	opts := options{
		input:         *input,
		output:        *output,
		format:        *format,
		debug:         *debug,
		debugRawUnits: *debugRawUnits,
		patterns:      *patterns,
		workers:       *workers,
		dpi:           *dpi,
	}
	if opts.workers <= 0 {
		opts.workers = runtime.NumCPU()
	}
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &opts.data); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	r, err := newBackend(opts.format, filepath.Dir(opts.input), opts.dpi)
	if err != nil {
		log.Fatalf("%v", err)
	}
	start := time.Now()
	if err := run(context.Background(), opts, r); err != nil {
		log.Fatalf("生成 %s 失败: %v", opts.format, err)
	}
	fmt.Printf("已生成 %s：%s，耗时 %s\n", opts.format, opts.output, time.Since(start).Round(time.Millisecond))
}

// newBackend 选择测量与渲染后端，两者必须一致才能让排版宽度与绘制宽度吻合。
func newBackend(format, baseDir string, dpi float64) (renderer.Measurer, error) {
	switch format {
	case "pdf":
		return canvasrenderer.NewRenderer(baseDir), nil
	case "png":
		return rasterrenderer.NewRenderer(baseDir, dpi), nil
	default:
		return nil, fmt.Errorf("不支持的输出格式：%s", format)
	}
}

// run 串联解析、布局与渲染。
func run(ctx context.Context, opts options, r renderer.Measurer) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	doc, err := dsl.ParseFile(opts.input)
	if err != nil {
		return fmt.Errorf("解析 DSL 失败: %w", err)
	}

	buildOpts := layout.BuildOptions{
		Measurer: r,
		BaseDir:  filepath.Dir(opts.input),
		Workers:  opts.workers,
		Debug:    layout.DebugOptions{RawUnits: opts.debugRawUnits},
	}
	if opts.patterns != "" {
		p, err := hyphen.Load(opts.patterns)
		if err != nil {
			return err
		}
		buildOpts.Hyphenator = p
	}

	result, err := layout.BuildContext(ctx, doc, opts.data, buildOpts)
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	for _, f := range result.Failures {
		log.Printf("段落 %d 排版失败: %s", f.Index, f.Error)
	}

	if opts.debug != "" {
		if err := writeDebug(result, opts.debug); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	out, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}

	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
