package renderer

import "github.com/ByLCY/microtype/layout"

// Renderer 将排版结果输出为最终文件，例如 PDF 或 PNG。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Measurer 既能渲染排版结果，也能为排版引擎测量文本。
// 同一个后端同时负责测量与绘制，保证两者使用相同的字体度量。
type Measurer interface {
	Renderer
	layout.TextMeasurer
}
