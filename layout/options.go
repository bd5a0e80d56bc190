package layout

// BuildOptions 配置布局阶段所需的依赖，例如测量后端与断字器。
type BuildOptions struct {
	Measurer   TextMeasurer
	Hyphenator HyphenationOracle // 覆盖文档中声明的模式表
	BaseDir    string            // 解析文档中相对路径（例如模式表）的目录
	Workers    int               // 并行排版的段落数，<=0 时为 1
	Debug      DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	RawUnits bool // 在调试 JSON 中输出原始单位
}

// TextStyle 是测量文本时的样式上下文。Size 是字号，也就是 1em，单位与宽度相同（mm）。
type TextStyle struct {
	Font FontResource
	Size float64
}

// TextMeasurer 返回一段文本在给定样式下的渲染宽度。
type TextMeasurer interface {
	MeasureText(content string, style TextStyle) (float64, error)
}

// MeasurementOracle 在文本测量之外还能测量一整行的当前宽度，
// 结果需要反映已经施加的空格宽度与字距。
type MeasurementOracle interface {
	TextMeasurer
	MeasureBox(line *Line, style TextStyle) (float64, error)
}

// HyphenationOracle 把单词拆成有序的音节片段；只返回一个片段表示不可断字。
type HyphenationOracle interface {
	Hyphenate(word string) ([]string, error)
}
