package model

import (
	"strings"

	"cpq/backend/common/pricing"
)

// ActionTypeQuoteBatch 批量报价任务的 action_type
const ActionTypeQuoteBatch = "quote_batch"

// QuoteBatchJob 批量报价任务消息（标准化）
// 用于 cpmain → cpsync 的消息传递
type QuoteBatchJob struct {
	Payload QuoteBatchPayload `json:"payload"`
}

// QuoteBatchPayload Job 负载
type QuoteBatchPayload struct {
	Data QuoteBatchData `json:"data"`
}

// QuoteBatchData Job 数据层
type QuoteBatchData struct {
	// 元信息
	RequestID  string `json:"request_id"`  // 请求 ID（全链路追踪）
	OrgID      string `json:"org_id"`      // 组织 ID（固定为 "0"）
	ActionType string `json:"action_type"` // 固定值 "quote_batch"
	ID         string `json:"id"`          // 批次 ID

	// 业务数据
	Data QuoteBatchBusinessData `json:"data"`
}

// QuoteBatchBusinessData 批量报价业务数据
// 包含 cpsync 报价所需的全部输入（worker 不查询 DB）
type QuoteBatchBusinessData struct {
	BatchID string           `json:"batch_id"`
	Items   []QuoteBatchItem `json:"items"`
}

// QuoteBatchItem 单条报价输入
// 枚举字段保留原始字符串，由 worker 解析并按条返回错误
type QuoteBatchItem struct {
	Ref                string  `json:"ref,omitempty"` // 调用方自定义编号（如运单号）
	ServiceType        string  `json:"service_type"`
	ConsignmentType    string  `json:"consignment_type,omitempty"`
	Mode               string  `json:"mode,omitempty"`
	DestinationPincode string  `json:"destination_pincode"`
	WeightKg           float64 `json:"weight_kg"`
}

// NewQuoteBatchJob 组装标准 Job 消息
func NewQuoteBatchJob(requestID, batchID string, items []QuoteBatchItem) QuoteBatchJob {
	return QuoteBatchJob{
		Payload: QuoteBatchPayload{
			Data: QuoteBatchData{
				RequestID:  requestID,
				OrgID:      "0",
				ActionType: ActionTypeQuoteBatch,
				ID:         batchID,
				Data: QuoteBatchBusinessData{
					BatchID: batchID,
					Items:   items,
				},
			},
		},
	}
}

// RawRequest 转为计价输入，枚举交给 Calculator.ComputeRaw 在前置校验后解析
func (i QuoteBatchItem) RawRequest() pricing.RawRequest {
	return pricing.RawRequest{
		ServiceType:     i.ServiceType,
		ConsignmentType: i.ConsignmentType,
		Mode:            i.Mode,
		Destination:     strings.TrimSpace(i.DestinationPincode),
		WeightKg:        i.WeightKg,
	}
}
