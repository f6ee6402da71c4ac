package batch

import "cpq/backend/cpmain/internal/app/domains/services/svbatch"

// BatchHandler 批量报价 HTTP 处理器
type BatchHandler struct {
	batchService *svbatch.BatchService
}

// NewBatchHandler 创建处理器实例
func NewBatchHandler(batchService *svbatch.BatchService) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
	}
}
