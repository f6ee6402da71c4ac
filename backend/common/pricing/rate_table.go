package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// 重量档位名称（与费率表 JSON 字段一致）
const (
	SlabDoxUpto250g     = "01gm-250gm"
	SlabDoxUpto500g     = "251gm-500gm"
	SlabDoxAdd500g      = "add500gm"
	SlabNonDoxUpto5kg   = "1kg-5kg"
	SlabNonDoxUpto100kg = "5kg-100kg"
)

// Rate 单个费率值
// Valid=false 表示费率缺失（JSON null、字段缺失、负数或非数字）
type Rate struct {
	Value float64
	Valid bool
}

// NewRate 创建有效费率
func NewRate(v float64) Rate {
	return sanitize(v)
}

// MissingRate 缺失费率
func MissingRate() Rate {
	return Rate{}
}

// sanitize 负数与 NaN/Inf 统一视为缺失
func sanitize(v float64) Rate {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return Rate{}
	}
	return Rate{Value: v, Valid: true}
}

// OrZero 缺失时返回 0
func (r Rate) OrZero() float64 {
	if !r.Valid {
		return 0
	}
	return r.Value
}

// MarshalJSON 缺失费率序列化为 null
func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON 兼容数字、数字字符串和 null
func (r *Rate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Rate{}
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*r = sanitize(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("rate must be a number: %s", string(data))
	}
	*r = parseRateString(str)
	return nil
}

// UnmarshalYAML YAML 费率文件解析
func (r *Rate) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" || node.Value == "" || node.Value == "~" {
		*r = Rate{}
		return nil
	}
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("rate must be a scalar at line %d", node.Line)
	}
	*r = parseRateString(node.Value)
	return nil
}

// MarshalYAML 缺失费率输出为 null
func (r Rate) MarshalYAML() (interface{}, error) {
	if !r.Valid {
		return nil, nil
	}
	return r.Value, nil
}

func parseRateString(s string) Rate {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Rate{}
	}
	return sanitize(v)
}

// RouteRates 路线 → 费率
type RouteRates map[RouteKey]Rate

// Lookup 查询路线费率，不存在时返回缺失费率
func (r RouteRates) Lookup(route RouteKey) Rate {
	if r == nil {
		return Rate{}
	}
	return r[route]
}

// DoxSlabs 文件类（DOX）按件计价档位表
type DoxSlabs struct {
	Upto250g RouteRates `json:"01gm-250gm,omitempty" yaml:"01gm-250gm,omitempty"`
	Upto500g RouteRates `json:"251gm-500gm,omitempty" yaml:"251gm-500gm,omitempty"`
	Add500g  RouteRates `json:"add500gm,omitempty" yaml:"add500gm,omitempty"`
}

// NonDoxSlabs 非文件类（NON-DOX）按公斤计价档位表
type NonDoxSlabs struct {
	Upto5kg   RouteRates `json:"1kg-5kg,omitempty" yaml:"1kg-5kg,omitempty"`
	Upto100kg RouteRates `json:"5kg-100kg,omitempty" yaml:"5kg-100kg,omitempty"`
}

// StandardDox 标准件 DOX 费率
type StandardDox struct {
	Air   *DoxSlabs  `json:"air,omitempty" yaml:"air,omitempty"`
	Road  *DoxSlabs  `json:"road,omitempty" yaml:"road,omitempty"`
	Train RouteRates `json:"train,omitempty" yaml:"train,omitempty"`
}

// StandardNonDox 标准件 NON-DOX 费率
type StandardNonDox struct {
	Air   *NonDoxSlabs `json:"air,omitempty" yaml:"air,omitempty"`
	Road  *NonDoxSlabs `json:"road,omitempty" yaml:"road,omitempty"`
	Train RouteRates   `json:"train,omitempty" yaml:"train,omitempty"`
}

// PriorityPricing 加急件统一单价（每 500g）
type PriorityPricing struct {
	Base500g Rate `json:"base500gm" yaml:"base500gm"`
}

// RateTable 费率表（由定价接口下发，只读）
type RateTable struct {
	StandardDox     *StandardDox     `json:"standardDox,omitempty" yaml:"standardDox,omitempty"`
	StandardNonDox  *StandardNonDox  `json:"standardNonDox,omitempty" yaml:"standardNonDox,omitempty"`
	PriorityPricing *PriorityPricing `json:"priorityPricing,omitempty" yaml:"priorityPricing,omitempty"`
}

// doxSlabs 返回指定运输方式的 DOX 档位表，不存在返回 nil
func (t *RateTable) doxSlabs(mode Mode) *DoxSlabs {
	if t.StandardDox == nil {
		return nil
	}
	switch mode {
	case ModeAir:
		return t.StandardDox.Air
	case ModeRoad:
		return t.StandardDox.Road
	}
	return nil
}

func (t *RateTable) nonDoxSlabs(mode Mode) *NonDoxSlabs {
	if t.StandardNonDox == nil {
		return nil
	}
	switch mode {
	case ModeAir:
		return t.StandardNonDox.Air
	case ModeRoad:
		return t.StandardNonDox.Road
	}
	return nil
}

func (t *RateTable) trainRates(consignment ConsignmentType) RouteRates {
	switch consignment {
	case ConsignmentDox:
		if t.StandardDox != nil {
			return t.StandardDox.Train
		}
	case ConsignmentNonDox:
		if t.StandardNonDox != nil {
			return t.StandardNonDox.Train
		}
	}
	return nil
}

func (t *RateTable) priorityBase() Rate {
	if t.PriorityPricing == nil {
		return Rate{}
	}
	return t.PriorityPricing.Base500g
}

// ValidateRaw 校验上传的费率表原文
// 负数费率在解析时已被视为缺失，这里在入库前拒绝它们
func ValidateRaw(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid rate table json: %w", err)
	}

	var bad []string
	walkNumbers(raw, "", func(path string, v float64) {
		if v < 0 {
			bad = append(bad, path)
		}
	})
	if len(bad) > 0 {
		sort.Strings(bad)
		return fmt.Errorf("negative rates are not allowed: %s", strings.Join(bad, ", "))
	}
	return nil
}

func walkNumbers(node interface{}, path string, fn func(path string, v float64)) {
	switch n := node.(type) {
	case map[string]interface{}:
		for k, child := range n {
			next := k
			if path != "" {
				next = path + "." + k
			}
			walkNumbers(child, next, fn)
		}
	case []interface{}:
		for i, child := range n {
			walkNumbers(child, fmt.Sprintf("%s[%d]", path, i), fn)
		}
	case float64:
		fn(path, n)
	}
}

// Empty 费率表是否不含任何服务
func (t *RateTable) Empty() bool {
	return t == nil || (t.StandardDox == nil && t.StandardNonDox == nil && t.PriorityPricing == nil)
}
