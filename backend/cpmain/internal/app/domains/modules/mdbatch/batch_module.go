package mdbatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cpq/backend/common/model"
	"cpq/backend/cpmain/internal/app/domains/entity/etbatch"
	"cpq/backend/cpmain/internal/app/domains/repo/rpbatch"
	"cpq/backend/cpmain/internal/app/infra/persistence/redis"
	"cpq/backend/cpmain/internal/app/pkg/errorx"
)

// Queue 任务队列（infra/mq/lmstfy.Client）
type Queue interface {
	Publish(ctx context.Context, queue string, data interface{}) (string, error)
}

// Subscription 结果频道订阅
type Subscription interface {
	Wait(ctx context.Context, timeout time.Duration) ([]byte, error)
	Close() error
}

// Subscriber 创建订阅，返回前订阅必须已生效
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// BatchModule 批量报价模块
// 职责：
// 1. 批次落库与查询
// 2. 构造标准 Job 消息并投递到 lmstfy
// 3. 按业务约定的频道等待结果通知（Smart Wait）
type BatchModule struct {
	repo       rpbatch.QuoteBatchRepository
	queue      Queue
	subscriber Subscriber
	queueName  string
}

// NewBatchModule 创建批量报价模块
func NewBatchModule(repo rpbatch.QuoteBatchRepository, queue Queue, subscriber Subscriber, queueName string) *BatchModule {
	return &BatchModule{
		repo:       repo,
		queue:      queue,
		subscriber: subscriber,
		queueName:  queueName,
	}
}

// CreateBatch 批次落库
func (m *BatchModule) CreateBatch(ctx context.Context, batch *etbatch.QuoteBatch) error {
	return m.repo.Create(ctx, batch)
}

// GetBatch 查询批次
func (m *BatchModule) GetBatch(ctx context.Context, batchID string) (*etbatch.QuoteBatch, error) {
	batch, err := m.repo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, errorx.ErrBatchNotFound
	}
	return batch, nil
}

// SaveResult 写入批次结果
func (m *BatchModule) SaveResult(ctx context.Context, batch *etbatch.QuoteBatch) error {
	return m.repo.UpdateResult(ctx, batch)
}

// PublishQuoteJob 投递批量报价任务，返回 lmstfy job_id
func (m *BatchModule) PublishQuoteJob(ctx context.Context, batch *etbatch.QuoteBatch) (string, error) {
	job := model.NewQuoteBatchJob(batch.RequestID, batch.ID, batch.Items)
	jobID, err := m.queue.Publish(ctx, m.queueName, job)
	if err != nil {
		return "", fmt.Errorf("publish quote job failed: %w", err)
	}
	return jobID, nil
}

// Watch 订阅批次结果频道（频道约定：quote_batch:result:{batchID}）
// 必须在 PublishQuoteJob 之前调用
func (m *BatchModule) Watch(ctx context.Context, batchID string) (Subscription, error) {
	return m.subscriber.Subscribe(ctx, model.QuoteBatchResultChannel(batchID))
}

// WaitForResult 等待批次完成通知
func (m *BatchModule) WaitForResult(ctx context.Context, sub Subscription, timeout time.Duration) (*model.QuoteBatchNotification, error) {
	payload, err := sub.Wait(ctx, timeout)
	if err != nil {
		return nil, err
	}

	var n model.QuoteBatchNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("decode batch notification failed: %w", err)
	}
	return &n, nil
}

// redisSubscriber 适配 redis.Client
type redisSubscriber struct {
	client *redis.Client
}

// NewRedisSubscriber 使用 Redis Pub/Sub 实现 Subscriber
func NewRedisSubscriber(client *redis.Client) Subscriber {
	return redisSubscriber{client: client}
}

func (s redisSubscriber) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	sub, err := s.client.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
