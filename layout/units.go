package layout

import (
	"strconv"
	"strings"
)

// Unit 表示 DSL 中长度值的原始单位。
type Unit int

const (
	UnitNone Unit = iota // 无单位（倍数等）
	UnitMM
	UnitCM
	UnitIN
	UnitPT
	UnitPX // CSS 像素，1in = 96px
	UnitEM // 相对当前字号
)

// Conversion constants between pt, px and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToMm = 25.4 / 96
	MmToPx = 1.0 / PxToMm
)

var unitSuffixes = []struct {
	s string
	u Unit
}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"px", UnitPX}, {"em", UnitEM}}

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	for _, suf := range unitSuffixes {
		if suf.u == u {
			return suf.s
		}
	}
	return ""
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// mm 把绝对长度换算为毫米；em 相对 emMM 换算，无单位数值按毫米处理。
func (l Length) mm(emMM float64) float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	case UnitPX:
		return l.Value * PxToMm
	case UnitEM:
		return l.Value * emMM
	default:
		return l.Value
	}
}

// To converts this length to target unit. Supported targets: UnitMM, UnitPT, UnitPX.
// em 长度没有字号上下文时按 0 处理，应使用 Resolve。
func (l Length) To(target Unit) float64 {
	if l.Unit == target || l.Unit == UnitNone {
		return l.Value
	}
	return fromMM(l.mm(0), target)
}

// Resolve 以 fontSize 为 1em 把长度换算到目标单位。
func (l Length) Resolve(fontSize Length, target Unit) float64 {
	if l.Unit != UnitEM {
		return l.To(target)
	}
	return fromMM(l.mm(fontSize.ToMM()), target)
}

func fromMM(mm float64, target Unit) float64 {
	switch target {
	case UnitPT:
		return mm * MmToPt
	case UnitPX:
		return mm * MmToPx
	case UnitCM:
		return mm / 10
	case UnitIN:
		return mm / 25.4
	default:
		return mm
	}
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseRawLengthStr parses a DSL length string preserving its unit.
// 无法解析的值返回零长度。
func ParseRawLengthStr(value string) Length {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return Length{}
	}
	unit := UnitNone
	num := lower
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}
	}
	return Length{Value: f, Unit: unit}
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec 保留作者的原始写法：倍数（如 1.2x）或绝对长度（如 18pt、1.5em）。
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// Resolve computes the absolute line height in target unit using the given fontSize.
func (s LineHeightSpec) Resolve(fontSize Length, target Unit) float64 {
	switch s.Kind {
	case LineHeightFactor:
		return fontSize.To(target) * s.Factor
	case LineHeightAbsolute:
		return s.Len.Resolve(fontSize, target)
	default:
		return fontSize.To(target) * 1.4
	}
}
