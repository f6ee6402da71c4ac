package ratetable

import "cpq/backend/cpmain/internal/app/domains/services/svratecard"

// VersionHeader 费率表版本响应头
const VersionHeader = "X-Rate-Table-Version"

// RateTableHandler 费率表 HTTP 处理器
type RateTableHandler struct {
	rateCardService *svratecard.RateCardService
}

// NewRateTableHandler 创建处理器实例
func NewRateTableHandler(rateCardService *svratecard.RateCardService) *RateTableHandler {
	return &RateTableHandler{
		rateCardService: rateCardService,
	}
}
