package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"cpq/backend/common/pricing"
	"cpq/backend/common/ratetable"
	"cpq/backend/cpsync/internal/business"
	"cpq/backend/cpsync/internal/business/quote/batch/services"
	"cpq/backend/cpsync/internal/domains"
	"cpq/backend/cpsync/internal/framework"
	"cpq/backend/cpsync/pkg/config"
	"cpq/backend/cpsync/pkg/infra/redis"
	"cpq/backend/cpsync/pkg/lmstfy"
	"cpq/backend/cpsync/pkg/logger"
)

// Manager 接口
type Manager interface {
	Start() error
	Shutdown()
}

// Queue 消息队列（消费 + 回调发布）
type Queue interface {
	framework.JobSource
	services.Publisher
}

// ManagerInstance Manager 实例
type ManagerInstance struct {
	ctx        context.Context
	cfg        *config.Config
	queue      Queue
	rates      *ratetable.Cache
	quoter     *services.BatchQuoter
	pubsub     *redis.PubSub // 为 nil 时不订阅费率表更新
	mu         sync.RWMutex
	workers    []Worker
	closing    *atomic.Bool
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	stopListen context.CancelFunc
	listenWg   sync.WaitGroup
	logger     logger.Logger
}

// NewManagerInstance 创建 Manager
func NewManagerInstance(cfg *config.Config, log logger.Logger) (Manager, error) {
	// 初始化 lmstfy 客户端
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create lmstfy client: %w", err)
	}

	m := newManager(cfg, lmstfyClient, newFetcher(cfg.RateTable), log)

	// Redis 可选：未配置时只能依赖 cache_ttl 刷新
	if cfg.Redis.Addr != "" {
		pubsub, err := redis.NewPubSub(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		m.pubsub = pubsub
	}
	return m, nil
}

// newManager 组装依赖（不连接外部服务）
func newManager(cfg *config.Config, queue Queue, fetcher ratetable.Fetcher, log logger.Logger) *ManagerInstance {
	rates := ratetable.NewCache(fetcher, cfg.RateTable.CacheTTL)
	calc := pricing.NewCalculator(pricing.NewRouteClassifier(cfg.Pricing.NorthEastBands), cfg.Pricing.Rules)

	return &ManagerInstance{
		ctx:        context.Background(),
		cfg:        cfg,
		queue:      queue,
		rates:      rates,
		quoter:     services.NewBatchQuoter(rates, calc, log),
		closing:    atomic.NewBool(false),
		shutdownCh: make(chan struct{}),
		workers:    make([]Worker, 0),
		logger:     log,
	}
}

// newFetcher 本地文件优先，否则走定价接口
func newFetcher(cfg config.RateTableConfig) ratetable.Fetcher {
	if cfg.File != "" {
		return ratetable.FileFetcher{Path: cfg.File}
	}
	return ratetable.NewHTTPFetcher(cfg.Endpoint, cfg.Token, cfg.Timeout)
}

// Start 启动 Manager
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] Starting...")

	// 1. 预热费率表（失败不阻塞启动，首个任务会重试拉取）
	if _, err := m.rates.Get(m.ctx); err != nil {
		m.logger.Warnf(m.ctx, "[Manager] Rate table warm-up failed: %v", err)
	}

	// 2. 订阅费率表更新广播
	m.startRefreshListener()

	// 3. 加载所有 Worker
	if err := m.loadWorkers(); err != nil {
		return fmt.Errorf("failed to load workers: %w", err)
	}

	m.logger.Infof(m.ctx, "[Manager] All workers loaded, count: %d", len(m.Workers()))

	// 4. 启动所有 Worker（每个 Worker 在独立 goroutine）
	for _, worker := range m.Workers() {
		w := worker
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Start()
		}()
		m.logger.Infof(m.ctx, "[Manager] Worker started: %s", w.GetName())
	}

	m.logger.Infof(m.ctx, "[Manager] Start success")

	// 5. 阻塞等待退出信号
	<-m.shutdownCh

	return nil
}

// Shutdown 优雅退出
func (m *ManagerInstance) Shutdown() {
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	// 原子操作，保证并发安全
	if m.closing.CAS(false, true) {
		// 1. 所有 Worker 安全退出
		for _, worker := range m.Workers() {
			m.logger.Infof(m.ctx, "[Manager] Shutting down worker: %s", worker.GetName())
			worker.Shutdown()
		}

		// 2. 等待所有 Worker 退出
		m.wg.Wait()

		// 3. 停止订阅并关闭 Redis
		if m.stopListen != nil {
			m.stopListen()
		}
		m.listenWg.Wait()
		if m.pubsub != nil {
			if err := m.pubsub.Close(); err != nil {
				m.logger.Warnf(m.ctx, "[Manager] Close redis failed: %v", err)
			}
		}

		// 4. 关闭信号通道
		close(m.shutdownCh)

		m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
	}
}

// startRefreshListener 后台订阅费率表更新
func (m *ManagerInstance) startRefreshListener() {
	if m.pubsub == nil {
		return
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.stopListen = cancel

	m.listenWg.Add(1)
	go func() {
		defer m.listenWg.Done()
		m.pubsub.ListenRateTableUpdates(ctx, m.cfg.RateTable.RefreshChannel, m.rates, m.logger)
		m.logger.Infof(ctx, "[Manager] Rate table refresh listener stopped")
	}()
}

// loadWorkers 加载所有 Worker
func (m *ManagerInstance) loadWorkers() error {
	// 遍历配置中的所有 Worker
	for _, workerCfg := range m.cfg.Workers {
		// 创建 Subscriber 配置
		subCfg := &framework.SubscriberConfig{
			QueueName:    workerCfg.QueueName,
			Concurrency:  workerCfg.Subscriber.Threads,
			Rate:         workerCfg.Subscriber.Rate,
			Timeout:      workerCfg.Subscriber.Timeout,
			TTR:          workerCfg.Subscriber.TTR,
			ErrorBackoff: workerCfg.Subscriber.ErrorBackoff,
		}

		// 创建 Processor 配置
		procCfg := &framework.ProcessorConfig{
			Concurrency: workerCfg.Processor.Threads,
			BufferSize:  workerCfg.Processor.BufferSize,
			Timeout:     workerCfg.Processor.Timeout,
		}

		// 每个 Worker 回调到自己的队列
		deps := &business.Deps{
			Quoter:   m.quoter,
			Callback: services.NewCallbackService(m.queue, workerCfg.CallbackQueue, m.logger),
			Logger:   m.logger,
			MaxItems: workerCfg.MaxItems,
		}

		// 创建 Worker 实例
		worker, err := NewWorkerInstance(
			m.ctx,
			workerCfg.Name,
			subCfg,
			procCfg,
			m.queue,                            // JobSource
			domains.GetProcess(m.logger, deps), // lmstfyx.Proc
			m.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create worker %s: %w", workerCfg.Name, err)
		}

		m.mu.Lock()
		m.workers = append(m.workers, worker)
		m.mu.Unlock()
	}

	return nil
}

// Workers 已加载的 Worker 快照
func (m *ManagerInstance) Workers() []Worker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Worker, len(m.workers))
	copy(out, m.workers)
	return out
}
