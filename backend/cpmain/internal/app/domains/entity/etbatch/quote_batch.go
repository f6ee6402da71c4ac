package etbatch

import (
	"errors"
	"fmt"
	"time"

	"cpq/backend/common/model"
)

// 错误定义
var (
	ErrInvalidBatchID = errors.New("batch ID cannot be empty")
	ErrNoItems        = errors.New("items cannot be empty")
	ErrTooManyItems   = errors.New("too many items")
)

// BatchStatus 批次状态
type BatchStatus string

const (
	BatchStatusQuoting BatchStatus = "QUOTING"
	BatchStatusQuoted  BatchStatus = "QUOTED"
	BatchStatusFailed  BatchStatus = "FAILED"
)

// QuoteBatch 批量报价聚合根（领域对象）
type QuoteBatch struct {
	ID        string
	RequestID string
	Items     []model.QuoteBatchItem
	Status    BatchStatus
	Results   []model.QuoteItemResult
	Summary   *model.BatchSummary
	ErrorMsg  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewQuoteBatch 创建批次（工厂方法）
// maxItems<=0 表示不限制条数
func NewQuoteBatch(id, requestID string, items []model.QuoteBatchItem, maxItems int) (*QuoteBatch, error) {
	if id == "" {
		return nil, ErrInvalidBatchID
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if maxItems > 0 && len(items) > maxItems {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(items), maxItems)
	}

	now := time.Now()
	return &QuoteBatch{
		ID:        id,
		RequestID: requestID,
		Items:     items,
		Status:    BatchStatusQuoting,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkQuoted 写入逐条结果（领域行为）
func (b *QuoteBatch) MarkQuoted(results []model.QuoteItemResult) {
	summary := model.Summarize(results)
	b.Results = results
	b.Summary = &summary
	b.Status = BatchStatusQuoted
	b.ErrorMsg = ""
	b.UpdatedAt = time.Now()
}

// MarkFailed 整批失败
func (b *QuoteBatch) MarkFailed(msg string) {
	b.Status = BatchStatusFailed
	b.ErrorMsg = msg
	b.UpdatedAt = time.Now()
}

// Finished 是否已出结果
func (b *QuoteBatch) Finished() bool {
	return b.Status == BatchStatusQuoted || b.Status == BatchStatusFailed
}
