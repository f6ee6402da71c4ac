package pricing

import (
	"strconv"
	"strings"
	"unicode"
)

// PincodeBand 邮编区间（闭区间）
type PincodeBand struct {
	From int `json:"from" mapstructure:"from" yaml:"from"`
	To   int `json:"to" mapstructure:"to" yaml:"to"`
}

// Contains 邮编是否落在区间内
func (b PincodeBand) Contains(code int) bool {
	return code >= b.From && code <= b.To
}

// DefaultNorthEastBands 阿萨姆及东北各邦的邮编区间
func DefaultNorthEastBands() []PincodeBand {
	return []PincodeBand{
		{From: 781000, To: 788999}, // Assam
		{From: 790000, To: 791999}, // Arunachal Pradesh
		{From: 793000, To: 793999}, // Meghalaya
		{From: 795000, To: 795999}, // Manipur
		{From: 796000, To: 796999}, // Mizoram
		{From: 797000, To: 797999}, // Nagaland
		{From: 737000, To: 737999}, // Sikkim
		{From: 799000, To: 799999}, // Tripura
	}
}

// RouteClassifier 按目的地邮编划分路线
type RouteClassifier struct {
	northEast []PincodeBand
}

// NewRouteClassifier 创建路线分类器，bands 为空时使用默认区间
func NewRouteClassifier(bands []PincodeBand) *RouteClassifier {
	if len(bands) == 0 {
		bands = DefaultNorthEastBands()
	}
	copied := make([]PincodeBand, len(bands))
	copy(copied, bands)
	return &RouteClassifier{northEast: copied}
}

// Classify 邮编落在东北区间返回 assamToNe，否则（含无法解析）返回 assamToRoi
// 只取开头的数字部分（"781001x" 按 781001），不校验长度，由调用方负责
func (c *RouteClassifier) Classify(postalCode string) RouteKey {
	code, ok := leadingInt(postalCode)
	if !ok {
		return RouteAssamToROI
	}
	for _, band := range c.northEast {
		if band.Contains(code) {
			return RouteAssamToNE
		}
	}
	return RouteAssamToROI
}

// leadingInt 跳过前导空白和可选符号后读取连续数字
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bands 返回区间副本
func (c *RouteClassifier) Bands() []PincodeBand {
	out := make([]PincodeBand, len(c.northEast))
	copy(out, c.northEast)
	return out
}

var defaultClassifier = NewRouteClassifier(nil)

// ClassifyRoute 使用默认区间划分路线
func ClassifyRoute(postalCode string) RouteKey {
	return defaultClassifier.Classify(postalCode)
}
