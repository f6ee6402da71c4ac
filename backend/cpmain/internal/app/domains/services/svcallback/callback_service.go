package svcallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cpq/backend/common/model"
	"cpq/backend/cpmain/internal/app/domains/entity/etbatch"
	"cpq/backend/cpmain/internal/app/domains/modules/mdbatch"
	"cpq/backend/cpmain/internal/app/pkg/logger"
	"cpq/backend/cpmain/internal/app/pkg/metrics"
)

// ErrUnknownStatus 回调状态非 SUCCESS / FAILED
var ErrUnknownStatus = errors.New("unknown callback status")

// Notifier 结果通知发布（infra/persistence/redis.Client）
type Notifier interface {
	Publish(ctx context.Context, channel string, message []byte) error
}

// CallbackService 回调处理服务
// 职责：
// 1. 处理 cpsync 发送的批量报价回调
// 2. 更新 DB 批次状态
// 3. 发送 Redis PubSub 通知（Smart Wait）
type CallbackService struct {
	module   *mdbatch.BatchModule
	notifier Notifier
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewCallbackService 创建回调服务实例
func NewCallbackService(module *mdbatch.BatchModule, notifier Notifier, m *metrics.Metrics, log logger.Logger) *CallbackService {
	return &CallbackService{
		module:   module,
		notifier: notifier,
		metrics:  m,
		logger:   log,
	}
}

// HandleCallback 处理回调
// 返回 error 表示处理失败（需要重试），批次不存在时返回 errorx.ErrBatchNotFound
func (s *CallbackService) HandleCallback(ctx context.Context, callback *model.QuoteBatchCallback) error {
	s.logger.InfoContext(ctx, "Processing callback",
		"batch_id", callback.BatchID,
		"status", callback.Status,
		"request_id", callback.RequestID,
	)

	batch, err := s.module.GetBatch(ctx, callback.BatchID)
	if err != nil {
		return fmt.Errorf("load quote batch failed: %w", err)
	}

	// 重复投递：已有终态不再覆盖
	if batch.Finished() {
		s.logger.WarnContext(ctx, "Duplicate callback ignored",
			"batch_id", batch.ID,
			"status", batch.Status,
		)
		return nil
	}

	// 1. 根据回调状态更新 DB
	switch callback.Status {
	case model.CallbackStatusSuccess:
		batch.MarkQuoted(callback.Results)
	case model.CallbackStatusFailed:
		batch.MarkFailed(callback.Error)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, callback.Status)
	}

	if err := s.module.SaveResult(ctx, batch); err != nil {
		return fmt.Errorf("update quote batch failed: %w", err)
	}
	s.metrics.BatchFinished(string(batch.Status))

	// 2. 发送 Redis PubSub 通知
	if err := s.publishNotification(ctx, batch); err != nil {
		// DB 已更新，等待方超时后可轮询
		s.logger.WarnContext(ctx, "Failed to publish Redis notification",
			"batch_id", batch.ID,
			"error", err,
		)
	}

	s.logger.InfoContext(ctx, "Callback processed successfully",
		"batch_id", batch.ID,
		"status", batch.Status,
	)
	return nil
}

// publishNotification 发送批次独立频道通知
func (s *CallbackService) publishNotification(ctx context.Context, batch *etbatch.QuoteBatch) error {
	payload, err := json.Marshal(model.QuoteBatchNotification{
		BatchID:   batch.ID,
		Status:    string(batch.Status),
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification failed: %w", err)
	}
	return s.notifier.Publish(ctx, model.QuoteBatchResultChannel(batch.ID), payload)
}
