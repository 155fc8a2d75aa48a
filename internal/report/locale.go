// Package report renders fit results as charts and text.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"

	"github.com/KaramelBytes/linefit/internal/regression"
)

// Locale selects the label language.
type Locale string

const (
	English Locale = "en"
	Chinese Locale = "zh"
)

// ParseLocale accepts "zh", "zh-CN", "zh_TW" and similar as Chinese; anything else is English.
func ParseLocale(s string) Locale {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "zh" || strings.HasPrefix(s, "zh-") || strings.HasPrefix(s, "zh_") {
		return Chinese
	}
	return English
}

// Config is passed to every renderer call; nothing is read from process state.
type Config struct {
	Locale Locale
	// Font is used for chart text. Chinese chart labels need a font with CJK
	// glyphs; without one charts fall back to English.
	Font   *truetype.Font
	Width  int
	Height int
}

// DefaultConfig renders English 1000x600 charts with the built-in font.
func DefaultConfig() Config {
	return Config{Locale: English, Width: 1000, Height: 600}
}

// LoadFont parses a TrueType font file.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// Labels holds the user-facing strings of one locale.
type Labels struct {
	Locale         Locale
	AppTitle       string
	Title          string
	XAxis          string
	YAxis          string
	DataPoints     string
	RegressionLine string
	Slope          string
	Intercept      string
	RSquared       string
	Equation       string
	Evaluation     string
	Excellent      string
	Good           string
	Fair           string
	Preview        string
	TotalRows      string
	SkippedRows    string
	Results        string
	Visualization  string
	DownloadChart  string
	Detail         string
	YActual        string
	YPredicted     string
	Residual       string
	MeanResidual   string
	StdResidual    string
	MaxResidual    string
	RMSE           string
	Usage          string
	UsageSteps     []string
	SampleFormat   string
	ChooseFile     string
	FileHelp       string
	XColumn        string
	YColumn        string
	Analyze        string
	DownloadSample string
	StartHint      string
	Error          string
	Back           string
}

var english = Labels{
	Locale:         English,
	AppTitle:       "Simple Linear Regression Tool",
	Title:          "Linear Regression Result",
	XAxis:          "X (Feature Variable)",
	YAxis:          "Y (Target Variable)",
	DataPoints:     "Data Points",
	RegressionLine: "Regression Line",
	Slope:          "Slope",
	Intercept:      "Intercept",
	RSquared:       "R²",
	Equation:       "Regression Equation",
	Evaluation:     "Model Evaluation",
	Excellent:      "Excellent fit",
	Good:           "Good fit",
	Fair:           "Fair fit",
	Preview:        "Data Preview",
	TotalRows:      "Total rows",
	SkippedRows:    "Skipped rows",
	Results:        "Regression Results",
	Visualization:  "Visualization",
	DownloadChart:  "Download chart",
	Detail:         "Detailed Data",
	YActual:        "Y (actual)",
	YPredicted:     "Y (predicted)",
	Residual:       "Residual",
	MeanResidual:   "Mean residual",
	StdResidual:    "Residual std dev",
	MaxResidual:    "Max |residual|",
	RMSE:           "RMSE",
	Usage:          "Usage",
	UsageSteps: []string{
		"Upload a CSV file with an X and a Y column",
		"The regression runs automatically",
		"Download the result chart if needed",
	},
	SampleFormat:   "Sample data format",
	ChooseFile:     "Choose a CSV file",
	FileHelp:       "CSV, TSV or XLSX with X and Y columns",
	XColumn:        "X column",
	YColumn:        "Y column",
	Analyze:        "Analyze",
	DownloadSample: "Download sample data",
	StartHint:      "Upload a CSV file to start, or download the sample data",
	Error:          "Error",
	Back:           "Back",
}

var chinese = Labels{
	Locale:         Chinese,
	AppTitle:       "单线性回归分析工具",
	Title:          "单线性回归结果",
	XAxis:          "X (特征变量)",
	YAxis:          "Y (目标变量)",
	DataPoints:     "原始数据点",
	RegressionLine: "回归线",
	Slope:          "斜率",
	Intercept:      "截距",
	RSquared:       "决定系数 (R²)",
	Equation:       "回归方程",
	Evaluation:     "模型评估",
	Excellent:      "模型拟合度优秀",
	Good:           "模型拟合度良好",
	Fair:           "模型拟合度一般",
	Preview:        "数据预览",
	TotalRows:      "数据总行数",
	SkippedRows:    "跳过的行数",
	Results:        "回归结果",
	Visualization:  "可视化结果",
	DownloadChart:  "下载图像",
	Detail:         "详细数据",
	YActual:        "Y_实际值",
	YPredicted:     "Y_预测值",
	Residual:       "残差",
	MeanResidual:   "平均残差",
	StdResidual:    "残差标准差",
	MaxResidual:    "最大残差",
	RMSE:           "均方根误差",
	Usage:          "使用说明",
	UsageSteps: []string{
		"上传CSV文件：文件应包含 X 和 Y 两列",
		"查看结果：程序会自动进行线性回归分析",
		"下载结果：可以下载回归结果图像",
	},
	SampleFormat:   "示例数据格式",
	ChooseFile:     "选择CSV文件",
	FileHelp:       "请上传包含X和Y两列的CSV文件",
	XColumn:        "X 列名",
	YColumn:        "Y 列名",
	Analyze:        "开始分析",
	DownloadSample: "下载示例数据",
	StartHint:      "请上传CSV文件开始分析，或下载示例数据",
	Error:          "发生错误",
	Back:           "返回",
}

// LabelsFor returns the text labels of a locale. Browsers and terminals render
// CJK text themselves, so no font is required here.
func LabelsFor(l Locale) Labels {
	if l == Chinese {
		return chinese
	}
	return english
}

// ChartLabels returns the labels drawn into images. Chinese needs a font with
// CJK glyphs; without one the chart uses English.
func (c Config) ChartLabels() Labels {
	if c.Locale == Chinese && c.Font != nil && hasCJK(c.Font) {
		return chinese
	}
	return english
}

func hasCJK(f *truetype.Font) bool {
	return f.Index('回') != 0 && f.Index('归') != 0
}

// QualityText returns the localized verdict for q.
func (l Labels) QualityText(q regression.FitQuality) string {
	switch q {
	case regression.QualityExcellent:
		return l.Excellent
	case regression.QualityGood:
		return l.Good
	default:
		return l.Fair
	}
}
