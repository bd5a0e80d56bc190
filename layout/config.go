package layout

import (
	"math"
	"unicode/utf8"
)

// Config 控制弹性空格、字距与视觉边距；所有限值都以 em 为单位。
type Config struct {
	MaxSpaceShrink    float64            `json:"maxSpaceShrink"`
	MaxSpaceGrow      float64            `json:"maxSpaceGrow"`
	MaxTrackingShrink float64            `json:"maxTrackingShrink"`
	MaxTrackingGrow   float64            `json:"maxTrackingGrow"`
	Protrusion        map[string]float64 `json:"protrusion"`
	Hyphenate         bool               `json:"hyphenate"`
	HyphenChar        string             `json:"hyphenChar"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		MaxSpaceShrink:    0.15,
		MaxSpaceGrow:      0.2,
		MaxTrackingShrink: 0.01,
		MaxTrackingGrow:   0.01,
		Protrusion: map[string]float64{
			",": 0.15,
			".": 0.2,
			"!": 0.15,
			"-": 0.25,
		},
		Hyphenate:  true,
		HyphenChar: "-",
	}
}

// Validate 检查弹性限值；protrusion 中的非法条目不算错误，会在编译时被忽略。
func (c Config) Validate() error {
	limits := []struct {
		key string
		v   float64
	}{
		{"maxSpaceShrink", c.MaxSpaceShrink},
		{"maxSpaceGrow", c.MaxSpaceGrow},
		{"maxTrackingShrink", c.MaxTrackingShrink},
		{"maxTrackingGrow", c.MaxTrackingGrow},
	}
	for _, l := range limits {
		if math.IsNaN(l.v) || math.IsInf(l.v, 0) {
			return &ConfigError{Key: l.key, Reason: "must be a finite number"}
		}
		if l.v < 0 {
			return &ConfigError{Key: l.key, Reason: "must not be negative"}
		}
	}
	return nil
}

func (c Config) hyphenChar() string {
	if c.HyphenChar == "" {
		return "-"
	}
	return c.HyphenChar
}

// compileProtrusion 把 protrusion 表转换为按字符查找的表。
// 键不是单个字符、或数值非法的条目被忽略，对应字符的 protrusion 为 0。
func compileProtrusion(table map[string]float64) map[rune]float64 {
	out := make(map[rune]float64, len(table))
	for key, em := range table {
		r, size := utf8.DecodeRuneInString(key)
		if r == utf8.RuneError || size != len(key) {
			logger().Warn("ignoring protrusion entry", "key", key, "reason", "not a single character")
			continue
		}
		if math.IsNaN(em) || math.IsInf(em, 0) {
			logger().Warn("ignoring protrusion entry", "key", key, "reason", "not a finite number")
			continue
		}
		out[r] = em
	}
	return out
}
