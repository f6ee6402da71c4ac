package svbatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cpq/backend/common/model"
	"cpq/backend/cpmain/internal/app/domains/entity/etbatch"
	"cpq/backend/cpmain/internal/app/domains/modules/mdbatch"
	"cpq/backend/cpmain/internal/app/pkg/errorx"
	"cpq/backend/cpmain/internal/app/pkg/idgen"
	"cpq/backend/cpmain/internal/app/pkg/logger"
)

// Config 批量报价参数
type Config struct {
	MaxItems    int
	DefaultWait time.Duration
	MaxWait     time.Duration
}

// BatchService 批量报价服务，负责批次业务编排
type BatchService struct {
	module *mdbatch.BatchModule
	cfg    Config
	logger logger.Logger
}

// NewBatchService 创建服务实例
func NewBatchService(module *mdbatch.BatchModule, cfg Config, log logger.Logger) *BatchService {
	return &BatchService{
		module: module,
		cfg:    cfg,
		logger: log,
	}
}

// Create 创建批次（完整业务流程）
// 1. 校验条数并落库（QUOTING）
// 2. 需要等待时先订阅结果频道
// 3. 投递到报价队列
// 4. Smart Wait：收到通知后重新读库，超时返回 QUOTING 状态的批次
// wait<0 表示使用默认等待时长
func (s *BatchService) Create(ctx context.Context, requestID string, items []model.QuoteBatchItem, wait time.Duration) (*etbatch.QuoteBatch, error) {
	batch, err := etbatch.NewQuoteBatch(idgen.NewBatchID(), requestID, items, s.cfg.MaxItems)
	if err != nil {
		return nil, s.validationError(err)
	}

	if err := s.module.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("save quote batch failed: %w", err)
	}

	wait = s.clampWait(wait)
	var sub mdbatch.Subscription
	if wait > 0 {
		sub, err = s.module.Watch(ctx, batch.ID)
		if err != nil {
			// 订阅失败降级为轮询
			s.logger.WarnContext(ctx, "Subscribe batch result failed", "batch_id", batch.ID, "error", err)
			sub = nil
		} else {
			defer sub.Close()
		}
	}

	jobID, err := s.module.PublishQuoteJob(ctx, batch)
	if err != nil {
		batch.MarkFailed("enqueue failed")
		if saveErr := s.module.SaveResult(ctx, batch); saveErr != nil {
			s.logger.ErrorContext(ctx, "Persist batch failure failed", "batch_id", batch.ID, "error", saveErr)
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "Quote batch enqueued",
		"batch_id", batch.ID,
		"job_id", jobID,
		"items", len(items),
	)

	if sub == nil {
		return batch, nil
	}

	n, err := s.module.WaitForResult(ctx, sub, wait)
	if err != nil {
		s.logger.InfoContext(ctx, "Smart wait ended without result", "batch_id", batch.ID, "error", err)
		return batch, nil
	}

	s.logger.DebugContext(ctx, "Batch notification received", "batch_id", n.BatchID, "status", n.Status)
	finished, err := s.module.GetBatch(ctx, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("reload quote batch failed: %w", err)
	}
	return finished, nil
}

// Get 查询批次
func (s *BatchService) Get(ctx context.Context, batchID string) (*etbatch.QuoteBatch, error) {
	return s.module.GetBatch(ctx, batchID)
}

// clampWait 限制等待时长不超过 MaxWait
func (s *BatchService) clampWait(wait time.Duration) time.Duration {
	if wait < 0 {
		wait = s.cfg.DefaultWait
	}
	if s.cfg.MaxWait > 0 && wait > s.cfg.MaxWait {
		wait = s.cfg.MaxWait
	}
	return wait
}

func (s *BatchService) validationError(err error) error {
	switch {
	case errors.Is(err, etbatch.ErrNoItems):
		return errorx.Wrap(errorx.ErrEmptyBatch, http.StatusBadRequest, "items cannot be empty",
			errorx.ErrorDetail{Path: "items", Info: "at least one item is required"})
	case errors.Is(err, etbatch.ErrTooManyItems):
		return errorx.Wrap(errorx.ErrTooManyItems, http.StatusBadRequest,
			fmt.Sprintf("a batch can contain at most %d items", s.cfg.MaxItems),
			errorx.ErrorDetail{Path: "items", Info: err.Error()})
	}
	return err
}
