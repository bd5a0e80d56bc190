package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/microtype/dsl"
)

// pagePresets 是常用纸张的纵向尺寸（mm）。
var pagePresets = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"B5":     {176, 250},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

func resolvePageSize(spec dsl.PageSpec) (float64, float64, error) {
	size, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
	}
	if hasParam(spec.Params, "landscape") {
		return size[1], size[0], nil
	}
	return size[0], size[1], nil
}

func hasParam(params []*dsl.Lexeme, name string) bool {
	for _, p := range params {
		if p.Value == name {
			return true
		}
	}
	return false
}

const defaultMargin = 20.0

// resolveMargin 解析 margin 之后的 1 到 4 个长度，按 CSS 简写展开；默认四边 20mm。
func resolveMargin(params []*dsl.Lexeme) Margin {
	var vals []float64
	for i, p := range params {
		if p.Value != "margin" {
			continue
		}
		vals = vals[:0]
		for _, next := range params[i+1:] {
			l, ok := lengthToken(next.Value)
			if !ok || len(vals) == 4 {
				break
			}
			vals = append(vals, l)
		}
	}
	if len(vals) == 0 {
		return Margin{Top: defaultMargin, Right: defaultMargin, Bottom: defaultMargin, Left: defaultMargin}
	}
	// top right bottom left 在 vals 中的下标，按值的个数查表
	order := [5][4]int{
		{},
		{0, 0, 0, 0},
		{0, 1, 0, 1},
		{0, 1, 2, 1},
		{0, 1, 2, 3},
	}
	idx := order[len(vals)]
	return Margin{Top: vals[idx[0]], Right: vals[idx[1]], Bottom: vals[idx[2]], Left: vals[idx[3]]}
}

// lengthToken 判断 token 是否为长度（例如 18mm、1in、12），是则返回 mm 值。
func lengthToken(v string) (float64, bool) {
	if _, err := strconv.ParseFloat(trimUnit(v), 64); err != nil {
		return 0, false
	}
	return parseLength(v), true
}

// parseArgs 把命令参数解析为 key value 对；allowStyle 时开头的标识符是样式名。
func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	attrs := map[string]string{}
	var style string
	if allowStyle && len(args) > 0 && args[0].Type == "Ident" {
		style, args = args[0].Value, args[1:]
	}
	for len(args) >= 2 {
		attrs[args[0].Value] = args[1].Value
		args = args[2:]
	}
	return style, attrs
}

// mergeStyleAttributes 以样式属性为底，命令上的属性覆盖同名项。
func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	merged := make(map[string]string, len(inline))
	if s, ok := styles[style]; ok {
		for k, v := range s.Props {
			merged[k] = v
		}
	}
	for k, v := range inline {
		merged[k] = v
	}
	return merged
}

// extractText 拼接 block 中的字符串字面量，每个字面量自成一段。
func extractText(block *dsl.Block) string {
	if block == nil {
		return ""
	}
	var parts []string
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			parts = append(parts, string(stmt.Text.Value))
		}
	}
	return strings.Join(parts, "\n\n")
}

var defaultColor = Color{R: 30, G: 30, B: 30}

// resolveColor 先查找命名颜色，再尝试 #rgb 字面量，都失败时使用默认颜色。
func resolveColor(value string, res ResourceSet) Color {
	if c, ok := res.Colors[value]; ok {
		return c
	}
	if c, err := parseColor(value); err == nil {
		return c
	}
	return defaultColor
}

// parseColor 解析 #rgb、#rrggbb 与 #rrggbbaa，透明度被忽略。
func parseColor(value string) (Color, error) {
	hex, ok := strings.CutPrefix(value, "#")
	if !ok {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	case 8:
		hex = hex[:6]
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: int(rgb >> 16 & 0xff), G: int(rgb >> 8 & 0xff), B: int(rgb & 0xff)}, nil
}

// parseLength 把绝对长度换算为 mm，无单位按 mm 处理，无法解析时返回 0。
func parseLength(value string) float64 {
	return ParseRawLengthStr(value).ToMM()
}

// parseDimension 在 parseLength 之外支持相对 reference 的百分比。
func parseDimension(value string, reference float64) float64 {
	num, ok := strings.CutSuffix(value, "%")
	if !ok {
		return parseLength(value)
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return reference * f / 100
}

func trimUnit(value string) string {
	for _, suffix := range []string{"pt", "mm", "cm", "in", "px", "em", "%"} {
		if v, ok := strings.CutSuffix(value, suffix); ok {
			return v
		}
	}
	return value
}

// alignOffset 返回宽度为 width 的内容在 container 中按 align 对齐时的左侧偏移。
func alignOffset(container, width float64, align string) float64 {
	free := container - width
	if free <= 0 {
		return 0
	}
	switch strings.ToLower(align) {
	case "center", "middle":
		return free / 2
	case "right", "end":
		return free
	}
	return 0
}

// valueToString 把标量值转换为字符串；表达式按原文拼接，数组与表返回空串。
func valueToString(val *dsl.Value) string {
	switch {
	case val == nil:
		return ""
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		raw := make([]string, len(val.Expr.Parts))
		for i, part := range val.Expr.Parts {
			raw[i] = part.Value
		}
		return strings.Join(raw, "")
	}
	return ""
}

// valueToStringSlice 展开数组值，标量视为只有一个元素的数组，空元素被跳过。
func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	items := []*dsl.Value{val}
	if val.Array != nil {
		items = val.Array.Values
	}
	var out []string
	for _, item := range items {
		if s := valueToString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
