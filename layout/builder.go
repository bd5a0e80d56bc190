package layout

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ByLCY/microtype/dsl"
	"github.com/ByLCY/microtype/fonts"
	"github.com/ByLCY/microtype/hyphen"
)

// Build 根据 DSL AST 生成排好版的页面。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	return BuildContext(context.Background(), doc, data, opts)
}

// BuildContext 与 Build 相同，ctx 取消后尚未排版的段落记为失败。
// 单个段落排版失败不会中断整篇文档，失败信息记录在 Result.Failures 中。
func BuildContext(ctx context.Context, doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少测量后端 Measurer")
	}

	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	meta := collectMeta(doc)
	settings, err := collectMicrotype(doc)
	if err != nil {
		return nil, err
	}
	hyphenator, err := buildHyphenator(settings, opts)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(settings.Config, opts.Measurer, hyphenator)
	if err != nil {
		return nil, err
	}

	var sections []*dsl.PageSection
	for _, section := range doc.Sections {
		if section.Page != nil {
			sections = append(sections, section.Page)
		}
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}

	result := &Result{
		Resources: res,
		Meta:      meta,
		Config:    settings.Config,
	}
	for _, section := range sections {
		pages, failures, err := buildPages(ctx, section, engine, res, data, opts)
		if err != nil {
			return nil, err
		}
		result.Pages = append(result.Pages, pages...)
		result.Failures = append(result.Failures, failures...)
	}
	return result, nil
}

// microtypeSettings 是 microtype 段落解析出的配置。
type microtypeSettings struct {
	Config     Config
	Patterns   string
	Exceptions []string
}

// collectMicrotype 在默认配置之上应用 microtype 段落中的设置。
func collectMicrotype(doc *dsl.Document) (microtypeSettings, error) {
	settings := microtypeSettings{Config: DefaultConfig()}
	cfg := &settings.Config
	blocks := sectionBlocks(doc, func(s *dsl.Section) *dsl.Block {
		if s.Microtype == nil {
			return nil
		}
		return s.Microtype.Block
	})
	for _, block := range blocks {
		for _, stmt := range block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			key := string(stmt.Assignment.Key)
			val := stmt.Assignment.Value
			var err error
			switch key {
			case "maxSpaceShrink":
				cfg.MaxSpaceShrink, err = parseLimit(key, val)
			case "maxSpaceGrow":
				cfg.MaxSpaceGrow, err = parseLimit(key, val)
			case "maxTrackingShrink":
				cfg.MaxTrackingShrink, err = parseLimit(key, val)
			case "maxTrackingGrow":
				cfg.MaxTrackingGrow, err = parseLimit(key, val)
			case "hyphenate":
				cfg.Hyphenate, err = strconv.ParseBool(valueToString(val))
				if err != nil {
					err = &ConfigError{Key: key, Reason: "must be true or false"}
				}
			case "hyphenChar":
				cfg.HyphenChar = valueToString(val)
			case "protrusion":
				cfg.Protrusion, err = parseProtrusion(val)
			case "patterns":
				settings.Patterns = valueToString(val)
			case "exceptions":
				settings.Exceptions = valueToStringSlice(val)
			default:
				logger().Warn("ignoring microtype setting", "key", key)
			}
			if err != nil {
				return settings, err
			}
		}
	}
	return settings, cfg.Validate()
}

func parseLimit(key string, val *dsl.Value) (float64, error) {
	f, err := strconv.ParseFloat(trimUnit(valueToString(val)), 64)
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: "must be a number"}
	}
	return f, nil
}

// parseProtrusion 读取 { ".": 0.2 } 形式的表，取值不是数字的条目被忽略。
func parseProtrusion(val *dsl.Value) (map[string]float64, error) {
	if val == nil || val.Object == nil {
		return nil, &ConfigError{Key: "protrusion", Reason: `must be a table like { ".": 0.2 }`}
	}
	table := make(map[string]float64, len(val.Object.Entries))
	for _, entry := range val.Object.Entries {
		key := string(entry.Key)
		f, err := strconv.ParseFloat(valueToString(entry.Value), 64)
		if err != nil {
			logger().Warn("ignoring protrusion entry", "key", key, "reason", "not a number")
			continue
		}
		table[key] = f
	}
	return table, nil
}

// buildHyphenator 组合断字器：软连字符优先，其次是例外词典，最后是模式表。
// BuildOptions.Hyphenator 优先于文档中声明的模式表。
func buildHyphenator(settings microtypeSettings, opts BuildOptions) (HyphenationOracle, error) {
	chain := hyphen.Chain{hyphen.SoftHyphen{}}
	if len(settings.Exceptions) > 0 {
		dict := hyphen.NewDictionary(settings.Exceptions...)
		logger().Debug("exception dictionary loaded", "entries", dict.Len())
		chain = append(chain, dict)
	}
	switch {
	case opts.Hyphenator != nil:
		chain = append(chain, opts.Hyphenator)
	case settings.Patterns != "":
		path := settings.Patterns
		if !filepath.IsAbs(path) && opts.BaseDir != "" {
			path = filepath.Join(opts.BaseDir, path)
		}
		patterns, err := hyphen.Load(path)
		if err != nil {
			return nil, err
		}
		chain = append(chain, patterns)
	}
	return chain, nil
}

// sectionBlocks 返回文档中所有指定类型段落的 block。
func sectionBlocks(doc *dsl.Document, pick func(*dsl.Section) *dsl.Block) []*dsl.Block {
	var out []*dsl.Block
	for _, section := range doc.Sections {
		if b := pick(section); b != nil {
			out = append(out, b)
		}
	}
	return out
}

// assignments 收集 block 中的赋值语句，同名键以后出现者为准。
func assignments(block *dsl.Block) map[string]*dsl.Value {
	out := map[string]*dsl.Value{}
	if block == nil {
		return out
	}
	for _, stmt := range block.Statements {
		if stmt.Assignment != nil {
			out[string(stmt.Assignment.Key)] = stmt.Assignment.Value
		}
	}
	return out
}

func collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]Color{},
		Styles: map[string]Style{},
	}
	declared := map[string]Style{}

	blocks := sectionBlocks(doc, func(s *dsl.Section) *dsl.Block {
		if s.Resources == nil {
			return nil
		}
		return s.Resources.Block
	})
	for _, block := range blocks {
		for _, stmt := range block.Statements {
			cmd := stmt.Command
			if cmd == nil || len(cmd.Args) == 0 {
				continue
			}
			name := cmd.Args[0].Value
			switch cmd.Name {
			case "font":
				res.Fonts[name] = parseFontResource(name, cmd.Block)
			case "color":
				// color Accent = #0F62FE，取最后一个参数作为颜色值
				if c, err := parseColor(cmd.Args[len(cmd.Args)-1].Value); err == nil {
					res.Colors[name] = c
				} else {
					logger().Warn("ignoring color", "name", name, "err", err)
				}
			case "style":
				declared[name] = parseStyleResource(name, cmd)
			}
		}
	}

	if len(res.Fonts) == 0 {
		res.Fonts["Body"] = FontResource{Name: "Body", Src: fonts.Default, Family: "Body"}
	}

	styles, err := resolveStyles(declared)
	if err != nil {
		return res, err
	}
	res.Styles = styles
	return res, nil
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{Creator: "microtype"}
	fields := map[string]*string{
		"title":   &meta.Title,
		"author":  &meta.Author,
		"subject": &meta.Subject,
		"creator": &meta.Creator,
	}
	blocks := sectionBlocks(doc, func(s *dsl.Section) *dsl.Block {
		if s.Meta == nil {
			return nil
		}
		return s.Meta.Block
	})
	for _, block := range blocks {
		for key, val := range assignments(block) {
			key = strings.ToLower(key)
			if dst, ok := fields[key]; ok {
				*dst = valueToString(val)
			} else if key == "keywords" {
				meta.Keywords = valueToStringSlice(val)
			}
		}
	}
	return meta
}

// parseFontResource 读取 font 声明中的 src、style 与 family，未声明 src 时使用内置字体。
func parseFontResource(name string, block *dsl.Block) FontResource {
	font := FontResource{Name: name, Family: name, Src: fonts.Default}
	for key, val := range assignments(block) {
		v := valueToString(val)
		if v == "" {
			continue
		}
		switch key {
		case "src":
			font.Src = v
		case "style":
			font.Style = v
		case "family":
			font.Family = v
		}
	}
	return font
}

// parseStyleResource 解析 style Name [extends Parent] { key: value }。
func parseStyleResource(name string, cmd *dsl.Command) Style {
	style := Style{Name: name, Props: map[string]string{}}
	if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
		style.Extends = cmd.Args[2].Value
	}
	for key, val := range assignments(cmd.Block) {
		if v := valueToString(val); v != "" {
			style.Props[key] = v
		}
	}
	return style
}

// resolveStyles 展开 extends 继承链，子样式覆盖父样式的同名属性。
func resolveStyles(declared map[string]Style) (map[string]Style, error) {
	const (
		pending = iota
		active
		done
	)
	state := map[string]int{}
	resolved := make(map[string]Style, len(declared))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case active:
			return fmt.Errorf("style 继承存在循环：%s", name)
		}
		style, ok := declared[name]
		if !ok {
			return fmt.Errorf("style %s 未定义", name)
		}
		state[name] = active
		props := map[string]string{}
		if style.Extends != "" {
			if err := visit(style.Extends); err != nil {
				return err
			}
			for k, v := range resolved[style.Extends].Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		state[name] = done
		return nil
	}

	for name := range declared {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}
