package response

import (
	"time"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
)

// QuoteResponse 单笔报价响应（DTO）
type QuoteResponse struct {
	*pricing.Quote
	RateTableVersion string `json:"rate_table_version"`
}

// RouteResponse 邮编路线
type RouteResponse struct {
	Pincode string `json:"pincode"`
	Route   string `json:"route"`
	Label   string `json:"label"`
}

// QuoteBatchResponse 批量报价响应（DTO）
type QuoteBatchResponse struct {
	ID        string                  `json:"id"`
	RequestID string                  `json:"request_id"`
	Status    string                  `json:"status"`
	ItemCount int                     `json:"item_count"`
	Results   []model.QuoteItemResult `json:"results,omitempty"`
	Summary   *model.BatchSummary     `json:"summary,omitempty"`
	Error     string                  `json:"error,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// RateCardResponse 费率表版本（DTO）
type RateCardResponse struct {
	Version   string    `json:"version"`
	Note      string    `json:"note,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RateCardListResponse 版本列表
type RateCardListResponse struct {
	Items []*RateCardResponse `json:"items"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Total int64               `json:"total"`
}
