package pricing

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Calculator 报价计算器
// 无状态、无 I/O，同一费率表下相同输入必然得到相同报价
type Calculator struct {
	classifier *RouteClassifier
	rules      Rules
}

// NewCalculator 创建计算器，classifier 为 nil 时使用默认路线区间
func NewCalculator(classifier *RouteClassifier, rules Rules) *Calculator {
	if classifier == nil {
		classifier = defaultClassifier
	}
	return &Calculator{
		classifier: classifier,
		rules:      rules.WithDefaults(),
	}
}

// QuoteRequest 报价输入
type QuoteRequest struct {
	ServiceType     ServiceType     `json:"service_type"`
	ConsignmentType ConsignmentType `json:"consignment_type,omitempty"` // 加急件忽略
	Mode            Mode            `json:"mode,omitempty"`             // 加急件忽略
	Destination     string          `json:"destination_pincode"`
	WeightKg        float64         `json:"weight_kg"`
}

// Rules 返回计算器使用的规则
func (c *Calculator) Rules() Rules {
	return c.rules
}

// Classifier 返回路线分类器
func (c *Calculator) Classifier() *RouteClassifier {
	return c.classifier
}

// Route 校验邮编长度并划分路线
func (c *Calculator) Route(destination string) (RouteKey, error) {
	if utf8.RuneCountInString(destination) != c.rules.PincodeLength {
		return "", newInvalidDestination(c.rules.PincodeLength)
	}
	return c.classifier.Classify(destination), nil
}

// Compute 计算报价
// 前置校验按顺序：费率表 → 目的地邮编长度 → 重量
func (c *Calculator) Compute(table *RateTable, req QuoteRequest) (*Quote, error) {
	// 1. 前置校验
	if err := c.precheck(table, req.Destination, req.WeightKg); err != nil {
		return nil, err
	}

	route := c.classifier.Classify(req.Destination)

	// 2. 按服务类型分支
	switch req.ServiceType {
	case ServicePriority:
		return c.priority(table, route, req.WeightKg)
	case ServiceStandard:
		switch req.ConsignmentType {
		case ConsignmentDox:
			return c.standardDox(table, route, req.Mode, req.WeightKg)
		case ConsignmentNonDox:
			return c.standardNonDox(table, route, req.Mode, req.WeightKg)
		}
		return nil, newInvalidOption("consignment_type", string(req.ConsignmentType))
	}
	return nil, newInvalidOption("service_type", string(req.ServiceType))
}

// ComputeRaw 计算未解析的输入
// 枚举在前置校验之后解析，错误顺序与 Compute 一致
func (c *Calculator) ComputeRaw(table *RateTable, raw RawRequest) (*Quote, error) {
	if err := c.precheck(table, raw.Destination, raw.WeightKg); err != nil {
		return nil, err
	}
	req, err := ParseRequest(raw)
	if err != nil {
		return nil, err
	}
	return c.Compute(table, req)
}

func (c *Calculator) precheck(table *RateTable, destination string, weightKg float64) error {
	if table == nil {
		return newRateTableUnavailable()
	}
	if utf8.RuneCountInString(destination) != c.rules.PincodeLength {
		return newInvalidDestination(c.rules.PincodeLength)
	}
	if !isFinite(weightKg) || weightKg <= 0 {
		return newInvalidWeight()
	}
	return nil
}

// priority 加急件：按 500g 单位计价，无最低计费重量
func (c *Calculator) priority(table *RateTable, route RouteKey, weightKg float64) (*Quote, error) {
	grams := toGrams(weightKg)
	if grams > c.rules.PriorityLimitGrams {
		return nil, newExceedsPriorityLimit(c.rules.PriorityLimitGrams / 1000)
	}

	var missing missingRates
	units := math.Ceil(grams / c.rules.PriorityUnitGrams)
	base := missing.take(table.priorityBase(), "priorityPricing.base500gm")
	amount := units * base

	return finish(Format(route, ServicePriority, "", "", amount, weightKg, false), missing)
}

// standardDox 标准件 DOX
func (c *Calculator) standardDox(table *RateTable, route RouteKey, mode Mode, weightKg float64) (*Quote, error) {
	if mode == ModeTrain {
		return c.train(table, route, ConsignmentDox, weightKg)
	}

	slabs := table.doxSlabs(mode)
	if slabs == nil {
		return nil, newModeUnavailable(mode, ConsignmentDox)
	}

	// 1. 最低计费克数
	grams := toGrams(weightKg)
	chargeable := math.Max(grams, c.rules.doxMinGrams(mode))
	minimumApplied := chargeable > grams

	// 2. 按档位计价（按件）
	var missing missingRates
	prefix := fmt.Sprintf("standardDox.%s.", mode)
	var amount float64
	switch {
	case chargeable <= c.rules.DoxFirstSlabGrams:
		amount = missing.take(slabs.Upto250g.Lookup(route), prefix+SlabDoxUpto250g+"."+string(route))
	case chargeable <= c.rules.DoxSecondSlabGrams:
		amount = missing.take(slabs.Upto500g.Lookup(route), prefix+SlabDoxUpto500g+"."+string(route))
	default:
		base := missing.take(slabs.Upto500g.Lookup(route), prefix+SlabDoxUpto500g+"."+string(route))
		blocks := math.Ceil((chargeable - c.rules.DoxSecondSlabGrams) / c.rules.DoxAddBlockGrams)
		additional := missing.take(slabs.Add500g.Lookup(route), prefix+SlabDoxAdd500g+"."+string(route))
		amount = base + blocks*additional
	}

	return finish(Format(route, ServiceStandard, ConsignmentDox, mode, amount, chargeable/1000, minimumApplied), missing)
}

// standardNonDox 标准件 NON-DOX（按公斤计价）
func (c *Calculator) standardNonDox(table *RateTable, route RouteKey, mode Mode, weightKg float64) (*Quote, error) {
	if mode == ModeTrain {
		return c.train(table, route, ConsignmentNonDox, weightKg)
	}

	slabs := table.nonDoxSlabs(mode)
	if slabs == nil {
		return nil, newModeUnavailable(mode, ConsignmentNonDox)
	}

	chargeable := math.Max(weightKg, c.rules.nonDoxMinKg(mode))
	minimumApplied := chargeable > weightKg

	var missing missingRates
	prefix := fmt.Sprintf("standardNonDox.%s.", mode)
	var perKg float64
	if chargeable <= c.rules.NonDoxFirstSlabKg {
		perKg = missing.take(slabs.Upto5kg.Lookup(route), prefix+SlabNonDoxUpto5kg+"."+string(route))
	} else {
		perKg = missing.take(slabs.Upto100kg.Lookup(route), prefix+SlabNonDoxUpto100kg+"."+string(route))
	}

	return finish(Format(route, ServiceStandard, ConsignmentNonDox, mode, perKg*chargeable, chargeable, minimumApplied), missing)
}

// train 铁路：DOX 与 NON-DOX 结构相同，仅费率来源不同
// 铁路不存在“运输方式不可用”，缺失费率按 0 计
func (c *Calculator) train(table *RateTable, route RouteKey, consignment ConsignmentType, weightKg float64) (*Quote, error) {
	chargeable := math.Max(weightKg, c.rules.TrainMinKg)
	minimumApplied := chargeable > weightKg

	var missing missingRates
	section := "standardDox"
	if consignment == ConsignmentNonDox {
		section = "standardNonDox"
	}
	perKg := missing.take(table.trainRates(consignment).Lookup(route), section+".train."+string(route))

	return finish(Format(route, ServiceStandard, consignment, ModeTrain, perKg*chargeable, chargeable, minimumApplied), missing)
}

// finish 金额或计费重量溢出时按重量非法处理，保证报价可以序列化
func finish(q Quote, missing missingRates) (*Quote, error) {
	if !isFinite(q.Amount) || !isFinite(q.ChargeableWeightKg) {
		return nil, newInvalidWeight()
	}
	q.MissingRates = missing.paths()
	return &q, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// toGrams 公斤转克，保留到 0.001g 以消除浮点误差（如 100.001kg → 100001g）
func toGrams(kg float64) float64 {
	return math.Round(kg*1e6) / 1e3
}

// roundTo2Decimals 四舍五入到两位小数
func roundTo2Decimals(f float64) float64 {
	return math.Round(f*100) / 100
}

// missingRates 记录计价过程中缺失的费率路径
type missingRates []string

func (m *missingRates) take(r Rate, path string) float64 {
	if !r.Valid {
		*m = append(*m, path)
	}
	return r.OrZero()
}

func (m missingRates) paths() []string {
	if len(m) == 0 {
		return nil
	}
	return []string(m)
}

var defaultCalculator = NewCalculator(nil, DefaultRules())

// ComputeQuote 使用默认规则计算报价
func ComputeQuote(
	table *RateTable,
	serviceType ServiceType,
	consignmentType ConsignmentType,
	mode Mode,
	destinationPostalCode string,
	weightKg float64,
) (*Quote, error) {
	return defaultCalculator.Compute(table, QuoteRequest{
		ServiceType:     serviceType,
		ConsignmentType: consignmentType,
		Mode:            mode,
		Destination:     destinationPostalCode,
		WeightKg:        weightKg,
	})
}

// RoundAmount 金额保留两位小数
func RoundAmount(f float64) float64 {
	return roundTo2Decimals(f)
}
