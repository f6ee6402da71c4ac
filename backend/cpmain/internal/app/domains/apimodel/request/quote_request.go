package request

import "encoding/json"

// CreateQuoteRequest 单笔报价请求
// 邮编与重量由计价器按顺序校验，这里不做 binding，保证错误类型一致
type CreateQuoteRequest struct {
	ServiceType        string  `json:"service_type" binding:"required" example:"standard"`
	ConsignmentType    string  `json:"consignment_type" example:"dox"`
	Mode               string  `json:"mode" example:"road"`
	DestinationPincode string  `json:"destination_pincode" example:"781001"`
	WeightKg           float64 `json:"weight_kg" example:"1.2"`
}

// QuoteItem 批量报价单条输入
type QuoteItem struct {
	Ref                string  `json:"ref" binding:"max=64" example:"AWB-0001"`
	ServiceType        string  `json:"service_type" binding:"required" example:"priority"`
	ConsignmentType    string  `json:"consignment_type" example:""`
	Mode               string  `json:"mode" example:""`
	DestinationPincode string  `json:"destination_pincode" example:"110001"`
	WeightKg           float64 `json:"weight_kg" example:"2.5"`
}

// CreateQuoteBatchRequest 批量报价请求
type CreateQuoteBatchRequest struct {
	Items []QuoteItem `json:"items" binding:"required,min=1,dive"`
}

// UploadRateTableRequest 上传费率表
type UploadRateTableRequest struct {
	Table     json.RawMessage `json:"table" binding:"required" swaggertype:"object"`
	Note      string          `json:"note" binding:"max=255" example:"October revision"`
	CreatedBy string          `json:"created_by" binding:"max=64" example:"ops@example.com"`
}
