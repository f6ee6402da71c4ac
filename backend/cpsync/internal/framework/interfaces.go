package framework

import (
	"context"
	"time"
)

// JobSource 批量报价任务的来源，目前由 lmstfy 客户端实现
type JobSource interface {
	// Consume 长轮询拉取一条任务，超时返回 nil, nil
	Consume(queue string, timeout time.Duration, ttr time.Duration) (*Message, error)

	// Ack 删除任务，之后不会再被投递
	Ack(queue string, jobID string) error
}

// Logger 框架只依赖带 ctx 的格式化日志
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
}

// ProcessorFunc PreProcessor 链中的一步
type ProcessorFunc func(ctx context.Context) error

// BusinessHandler 处理一条已解析的任务（如一个报价批次），返回回调负载
// 可重试错误不 ACK，等 TTR 到期后重新投递；其余错误照常 ACK
type BusinessHandler interface {
	Handle(ctx context.Context) ([]byte, error)
}

// ResultCollector 收集处理结果，Set 可多次调用，Get 返回累计的输出
type ResultCollector interface {
	Set(ctx context.Context, data interface{}) error
	Get(ctx context.Context) interface{}
}
