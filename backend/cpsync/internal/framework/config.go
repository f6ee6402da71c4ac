package framework

import "time"

// SubscriberConfig 拉取端配置，由 worker.yaml 的 workers[].subscriber 转换而来
type SubscriberConfig struct {
	QueueName    string        // 批量报价队列
	Concurrency  int           // 并发长轮询的 goroutine 数
	Timeout      time.Duration // 单次长轮询等待时间
	TTR          time.Duration // 超过该时间未 ACK，lmstfy 重新投递
	Rate         time.Duration // 两次拉取之间的最小间隔，0 不限
	ErrorBackoff time.Duration // Consume 出错后的等待
}

// ProcessorConfig 处理端配置
type ProcessorConfig struct {
	Concurrency int           // 同时处理的批次数
	BufferSize  int           // Subscriber 到 Processor 的缓冲
	Timeout     time.Duration // 单个批次的处理上限
}
