package pricing

import (
	"math"
	"strings"
)

// Format 组装展示用的报价
// 金额四舍五入到两位小数，负数按 0 处理
func Format(
	route RouteKey,
	service ServiceType,
	consignment ConsignmentType,
	mode Mode,
	amount float64,
	chargeableWeightKg float64,
	minimumApplied bool,
) Quote {
	q := Quote{
		Amount:             roundTo2Decimals(math.Max(amount, 0)),
		ChargeableWeightKg: chargeableWeightKg,
		MinimumApplied:     minimumApplied,
		Route:              route,
		ServiceType:        service,
		RouteLabel:         RouteLabel(route),
		ServiceLabel:       serviceLabel(service, consignment),
		ModeLabel:          modeLabel(service, mode),
	}
	if service == ServiceStandard {
		q.ConsignmentType = consignment
		q.Mode = mode
	}
	if math.IsNaN(q.Amount) {
		q.Amount = 0
	}
	return q
}

// RouteLabel 路线展示名
func RouteLabel(route RouteKey) string {
	if route == RouteAssamToNE {
		return "Assam → North East"
	}
	return "Assam → Rest of India"
}

func serviceLabel(service ServiceType, consignment ConsignmentType) string {
	if service == ServicePriority {
		return "Priority"
	}
	return "Standard • " + consignmentLabel(consignment)
}

func consignmentLabel(consignment ConsignmentType) string {
	if consignment == ConsignmentDox {
		return "DOX"
	}
	return "NON DOX"
}

func modeLabel(service ServiceType, mode Mode) string {
	if service == ServicePriority {
		return "Unified"
	}
	return strings.ToUpper(string(mode))
}
