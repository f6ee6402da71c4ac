package pricing

// Quote 报价结果
type Quote struct {
	Amount             float64 `json:"amount"`               // 金额，保留两位小数，不为负
	ChargeableWeightKg float64 `json:"chargeable_weight_kg"` // 计费重量
	MinimumApplied     bool    `json:"minimum_applied"`      // 是否触发最低计费重量

	Route           RouteKey        `json:"route"`
	ServiceType     ServiceType     `json:"service_type"`
	ConsignmentType ConsignmentType `json:"consignment_type,omitempty"`
	Mode            Mode            `json:"mode,omitempty"`

	RouteLabel   string `json:"route_label"`
	ServiceLabel string `json:"service_label"`
	ModeLabel    string `json:"mode_label"`

	// MissingRates 计价时缺失（按 0 计）的费率路径，如 standardDox.road.251gm-500gm.assamToNe
	MissingRates []string `json:"missing_rates,omitempty"`
}

// HasMissingRates 是否使用了缺失费率
func (q *Quote) HasMissingRates() bool {
	return len(q.MissingRates) > 0
}
