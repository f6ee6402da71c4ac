package model

// QuoteBatchCallback 批量报价回调消息（标准化）
// 用于 cpsync → cpmain callback consumer 的消息传递
type QuoteBatchCallback struct {
	RequestID   string            `json:"request_id"`        // 对应请求的 request_id（链路追踪）
	BatchID     string            `json:"batch_id"`          // 批次 ID
	Status      string            `json:"status"`            // 回调状态: SUCCESS / FAILED
	Results     []QuoteItemResult `json:"results,omitempty"` // 逐条报价结果（成功时返回）
	Summary     *BatchSummary     `json:"summary,omitempty"` // 汇总
	Error       string            `json:"error,omitempty"`   // 错误信息（整批失败时返回）
	ProcessedAt int64             `json:"processed_at"`      // 处理时间戳（Unix timestamp）
}

// 回调状态常量
const (
	CallbackStatusSuccess = "SUCCESS" // 整批已报价（单条可能失败）
	CallbackStatusFailed  = "FAILED"  // 整批无法报价
)
