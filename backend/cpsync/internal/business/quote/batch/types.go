package batch

import "cpq/backend/common/model"

// BatchResultData 业务处理结果
type BatchResultData struct {
	BatchID     string
	Results     []model.QuoteItemResult
	ProcessedAt int64
}

// BatchOutput 最终输出结构
type BatchOutput struct {
	BatchID     string                  `json:"batch_id"`
	Summary     model.BatchSummary      `json:"summary"`
	Results     []model.QuoteItemResult `json:"results"`
	ProcessedAt int64                   `json:"processed_at"`
}
