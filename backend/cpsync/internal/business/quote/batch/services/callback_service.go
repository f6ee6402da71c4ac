package services

import (
	"context"
	"encoding/json"

	"cpq/backend/common/model"
	"cpq/backend/cpsync/pkg/errorutil"
	"cpq/backend/cpsync/pkg/logger"
)

// Publisher 回调发布（lmstfy.Client）
type Publisher interface {
	Publish(queue string, data []byte, ttl, delay uint32) error
}

// CallbackService 回调服务
// 职责：把批次结果发送到 callback 队列，由 cpmain 入库并通知 Smart Wait
type CallbackService struct {
	publisher     Publisher
	callbackQueue string
	log           logger.Logger
}

// NewCallbackService 创建回调服务
func NewCallbackService(publisher Publisher, callbackQueue string, log logger.Logger) *CallbackService {
	return &CallbackService{
		publisher:     publisher,
		callbackQueue: callbackQueue,
		log:           log,
	}
}

// Send 发送回调
// 发布失败可重试（消息不 ACK，等待重新投递）
func (s *CallbackService) Send(ctx context.Context, callback *model.QuoteBatchCallback) error {
	data, err := json.Marshal(callback)
	if err != nil {
		return errorutil.NonRetriableWithDetails("marshal callback failed", err.Error())
	}

	// ttl=0 表示永不过期, delay=0 表示立即可用
	if err := s.publisher.Publish(s.callbackQueue, data, 0, 0); err != nil {
		return errorutil.RetriableWithDetails("publish callback failed", err.Error())
	}

	s.log.Infof(ctx, "[CallbackService] Callback sent: batch_id=%s, status=%s, queue=%s",
		callback.BatchID, callback.Status, s.callbackQueue)
	return nil
}

// Queue 回调队列名
func (s *CallbackService) Queue() string {
	return s.callbackQueue
}
