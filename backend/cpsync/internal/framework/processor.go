package framework

import (
	"context"
	"sync"
	"time"

	"github.com/bitleak/lmstfy/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cpq/backend/cpsync/pkg/lmstfyx"
	"cpq/backend/cpsync/pkg/logger"
)

const tracerName = "cpq/cpsync/framework"

// Processor 处理器：接收消息，调用业务处理函数，按结果 ACK
type Processor struct {
	cfg        *ProcessorConfig
	proc       lmstfyx.Proc  // 业务处理函数（注入的 GetProcess）
	source     JobSource     // 用于 ACK
	logger     Logger
	shutdownCh chan struct{} // 专门的退出信号通道
	shutdown   sync.Once
	wg         sync.WaitGroup
}

// NewProcessor 创建处理器
func NewProcessor(cfg *ProcessorConfig, proc lmstfyx.Proc, source JobSource, logger Logger) *Processor {
	return &Processor{
		cfg:        cfg,
		proc:       proc,
		source:     source,
		logger:     logger,
		shutdownCh: make(chan struct{}),
	}
}

// Start 启动处理协程
func (p *Processor) Start(ctx context.Context, inputChan <-chan *Message) {
	p.logger.Infof(ctx, "[Processor] Starting with %d workers", p.cfg.Concurrency)

	for i := 0; i < p.cfg.Concurrency; i++ {
		workerID := i
		p.wg.Add(1)
		go p.loop(ctx, workerID, inputChan)
	}
}

// SignalShutdown 通知 Processor 准备退出（进入 Drain 模式），可重复调用
func (p *Processor) SignalShutdown() {
	p.shutdown.Do(func() {
		p.logger.Infof(context.Background(), "[Processor] Shutdown signal received")
		close(p.shutdownCh)
	})
}

// Wait 等待所有处理协程退出
func (p *Processor) Wait() {
	p.wg.Wait()
	p.logger.Infof(context.Background(), "[Processor] All workers exited")
}

// loop 处理循环（单个 Worker）
func (p *Processor) loop(ctx context.Context, workerID int, inputChan <-chan *Message) {
	defer p.wg.Done()
	p.logger.Infof(ctx, "[Processor-%d] Started", workerID)

	for {
		select {
		// A. 正常业务处理
		case msg := <-inputChan:
			p.process(ctx, msg, workerID)

		// B. Drain 模式：处理完剩余消息再退出
		case <-p.shutdownCh:
			p.logger.Infof(ctx, "[Processor-%d] Entering DRAIN mode", workerID)
			count := 0
			for {
				select {
				case msg := <-inputChan:
					p.process(ctx, msg, workerID)
					count++
				default:
					p.logger.Infof(ctx, "[Processor-%d] Drained %d messages, exiting", workerID, count)
					return
				}
			}
		}
	}
}

// process 处理单个消息
func (p *Processor) process(ctx context.Context, msg *Message, workerID int) {
	if msg == nil {
		return
	}

	startTime := time.Now()

	// 1. 创建超时控制的 Context，注入元信息
	procCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	procCtx = logger.WithWorkerID(procCtx, workerID)
	procCtx, span := otel.Tracer(tracerName).Start(procCtx, "framework.Processor.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "lmstfy"),
			attribute.String("messaging.destination.name", msg.Queue),
			attribute.String("messaging.message.id", msg.ID),
			attribute.Int("worker.id", workerID),
		))
	defer span.End()

	p.logger.Debugf(procCtx, "[Processor-%d] Processing message: %s", workerID, msg.ID)

	// 2. 调用业务处理函数（注入的 GetProcess）
	job := &client.Job{
		ID:    msg.ID,
		Queue: msg.Queue,
		Data:  msg.Data,
	}
	resp := p.proc(procCtx, job)
	if resp == nil {
		resp = lmstfyx.Release(nil)
	}

	// 3. 按处理结果决定 ACK
	span.SetAttributes(attribute.String("job.action", resp.Action.String()))
	switch resp.Action {
	case lmstfyx.JobRespStatusSuccess:
		p.ack(procCtx, msg, workerID)
	case lmstfyx.JobRespStatusBury:
		p.logger.Errorf(procCtx, "[Processor-%d] Burying message %s: %s", workerID, msg.ID, string(resp.Data))
		span.SetStatus(codes.Error, "buried")
		p.ack(procCtx, msg, workerID)
	default:
		p.logger.Warnf(procCtx, "[Processor-%d] Message %s released, lmstfy will redeliver after TTR", workerID, msg.ID)
	}

	p.logger.Infof(procCtx, "[Processor-%d] Message processed: %s, action: %s, duration: %v",
		workerID, msg.ID, resp.Action, time.Since(startTime))
}

func (p *Processor) ack(ctx context.Context, msg *Message, workerID int) {
	if err := p.source.Ack(msg.Queue, msg.ID); err != nil {
		p.logger.Errorf(ctx, "[Processor-%d] Ack failed for %s: %v", workerID, msg.ID, err)
	}
}
