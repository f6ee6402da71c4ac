package rpbatch

import (
	"context"

	"cpq/backend/cpmain/internal/app/domains/entity/etbatch"
)

// QuoteBatchRepository 批量报价仓储接口
type QuoteBatchRepository interface {
	// Create 创建批次
	Create(ctx context.Context, batch *etbatch.QuoteBatch) error

	// GetByID 根据 ID 查询，不存在时返回 nil, nil
	GetByID(ctx context.Context, batchID string) (*etbatch.QuoteBatch, error)

	// UpdateResult 写入批次结果（QUOTED 带结果，FAILED 带错误信息）
	UpdateResult(ctx context.Context, batch *etbatch.QuoteBatch) error
}
