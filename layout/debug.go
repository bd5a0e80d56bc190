package layout

import (
	"encoding/json"
	"os"
)

// RawLengthJSON 记录 DSL 中书写的原始长度。
type RawLengthJSON struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// RawLineHeightJSON 记录行高的原始写法（倍数或绝对长度）。
type RawLineHeightJSON struct {
	Kind   string  `json:"kind"`
	Factor float64 `json:"factor,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

// ParagraphDebug 只在 DebugOptions.RawUnits 开启时输出。
type ParagraphDebug struct {
	FontSize   RawLengthJSON     `json:"fontSize"`
	LineHeight RawLineHeightJSON `json:"lineHeight"`
	Indent     *RawLengthJSON    `json:"indent,omitempty"`
}

func rawUnitsDebug(size Length, lh LineHeightSpec, indent Length) *ParagraphDebug {
	d := &ParagraphDebug{
		FontSize: RawLengthJSON{Value: size.Value, Unit: UnitToString(size.Unit)},
	}
	switch lh.Kind {
	case LineHeightFactor:
		d.LineHeight = RawLineHeightJSON{Kind: "factor", Factor: lh.Factor}
	case LineHeightAbsolute:
		d.LineHeight = RawLineHeightJSON{Kind: "absolute", Value: lh.Len.Value, Unit: UnitToString(lh.Len.Unit)}
	}
	if !indent.IsZero() {
		d.Indent = &RawLengthJSON{Value: indent.Value, Unit: UnitToString(indent.Unit)}
	}
	return d
}

// WriteDebugJSON 将排版结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
