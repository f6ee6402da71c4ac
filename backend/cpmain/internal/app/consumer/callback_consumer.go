package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cpq/backend/common/model"
	"cpq/backend/cpmain/internal/app/domains/services/svcallback"
	"cpq/backend/cpmain/internal/app/infra/mq/lmstfy"
	"cpq/backend/cpmain/internal/app/pkg/errorx"
	"cpq/backend/cpmain/internal/app/pkg/logger"
)

// Queue 回调队列（lmstfy.Client）
type Queue interface {
	Consume(ctx context.Context, queue string, timeout, ttr int) (*lmstfy.Message, error)
	Ack(ctx context.Context, queue, jobID string) error
}

// Handler 回调处理（svcallback.CallbackService）
type Handler interface {
	HandleCallback(ctx context.Context, callback *model.QuoteBatchCallback) error
}

var _ Handler = (*svcallback.CallbackService)(nil)

// CallbackConsumer 回调消费者
// 职责：
// 1. 从 lmstfy 队列消费回调消息
// 2. 解析消息并调用 CallbackService 处理
// 3. 确认消息（ACK）
type CallbackConsumer struct {
	queue     Queue
	handler   Handler
	queueName string
	logger    logger.Logger

	// 消费配置
	timeout      int // 拉取消息超时（秒）
	ttr          int // Time-To-Run（秒）
	pollInterval time.Duration
}

// Config 消费者配置
type Config struct {
	QueueName    string        // 队列名称
	Timeout      int           // 拉取消息超时（秒）
	TTR          int           // Time-To-Run（秒）
	PollInterval time.Duration // 出错后的重试间隔
}

// NewCallbackConsumer 创建回调消费者实例
func NewCallbackConsumer(queue Queue, handler Handler, config *Config, log logger.Logger) *CallbackConsumer {
	return &CallbackConsumer{
		queue:        queue,
		handler:      handler,
		queueName:    config.QueueName,
		timeout:      config.Timeout,
		ttr:          config.TTR,
		pollInterval: config.PollInterval,
		logger:       log,
	}
}

// Start 启动消费循环，ctx 取消后返回 ctx.Err()
func (c *CallbackConsumer) Start(ctx context.Context) error {
	c.logger.Info("Callback consumer started",
		"queue", c.queueName,
		"timeout", c.timeout,
		"ttr", c.ttr,
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Callback consumer stopped")
			return ctx.Err()
		default:
		}

		if err := c.consumeOne(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("Failed to consume message", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(c.pollInterval):
			}
		}
	}
}

// consumeOne 消费一条消息
func (c *CallbackConsumer) consumeOne(ctx context.Context) error {
	// 1. 从队列拉取消息
	msg, err := c.queue.Consume(ctx, c.queueName, c.timeout, c.ttr)
	if err != nil {
		return fmt.Errorf("consume message failed: %w", err)
	}
	if msg == nil {
		return nil
	}

	c.logger.Info("Received callback message", "job_id", msg.JobID)

	// 2. 解析回调消息
	callback, err := parseMessage(msg.Data)
	if err != nil {
		// 解析失败，直接 ACK（避免死循环）
		c.logger.Error("Failed to parse message", "job_id", msg.JobID, "error", err)
		return c.ack(ctx, msg.JobID)
	}

	// 3. 处理回调
	ctx = logger.WithRequestID(ctx, callback.RequestID)
	if err := c.handler.HandleCallback(ctx, callback); err != nil {
		if errors.Is(err, errorx.ErrBatchNotFound) || errors.Is(err, svcallback.ErrUnknownStatus) {
			// 重试也无法成功
			c.logger.ErrorContext(ctx, "Dropping callback", "job_id", msg.JobID, "batch_id", callback.BatchID, "error", err)
			return c.ack(ctx, msg.JobID)
		}
		// 处理失败，不 ACK（让 lmstfy TTR 机制重试）
		c.logger.ErrorContext(ctx, "Failed to handle callback",
			"job_id", msg.JobID,
			"batch_id", callback.BatchID,
			"error", err,
		)
		return err
	}

	// 4. 确认消息
	if err := c.ack(ctx, msg.JobID); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Callback message processed successfully",
		"job_id", msg.JobID,
		"batch_id", callback.BatchID,
	)
	return nil
}

func (c *CallbackConsumer) ack(ctx context.Context, jobID string) error {
	if err := c.queue.Ack(ctx, c.queueName, jobID); err != nil {
		c.logger.Error("Failed to ack message", "job_id", jobID, "error", err)
		return err
	}
	return nil
}

// parseMessage 解析并校验回调消息
func parseMessage(data json.RawMessage) (*model.QuoteBatchCallback, error) {
	var callback model.QuoteBatchCallback
	if err := json.Unmarshal(data, &callback); err != nil {
		return nil, fmt.Errorf("unmarshal callback failed: %w", err)
	}

	if callback.BatchID == "" {
		return nil, fmt.Errorf("batch_id is required")
	}
	if callback.Status == "" {
		return nil, fmt.Errorf("status is required")
	}
	return &callback, nil
}
