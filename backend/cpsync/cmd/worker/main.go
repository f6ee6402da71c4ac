package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cpq/backend/common/tracing"
	"cpq/backend/cpsync/internal/worker"
	"cpq/backend/cpsync/pkg/config"
	"cpq/backend/cpsync/pkg/logger"
)

var configPath = flag.String("config", "./config/worker.yaml", "worker 配置文件")

// 批量报价 worker：消费 quote_batch 队列，按费率表逐条计价后发布回调
func main() {
	flag.Parse()
	if err := run(*configPath); err != nil {
		log.Printf("quote worker exited: %v", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracerProvider(cfg.App.Name, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			zapLogger.Warnf(flushCtx, "[Main] Flush spans failed: %v", err)
		}
	}()

	zapLogger.Infof(ctx, "[Main] Quote worker %s starting, env=%s workers=%d rate_table=%s cache_ttl=%s",
		cfg.App.Name, cfg.App.Env, len(cfg.Workers), rateTableSource(cfg.RateTable), cfg.RateTable.CacheTTL)

	mgr, err := worker.NewManagerInstance(cfg, zapLogger)
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}

	// Start 阻塞到 Shutdown 完成
	errCh := make(chan error, 1)
	go func() { errCh <- mgr.Start() }()

	select {
	case err := <-errCh:
		mgr.Shutdown()
		if err != nil {
			return fmt.Errorf("start manager: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zapLogger.Infof(context.Background(), "[Main] Signal received, draining in-flight batches")
	mgr.Shutdown()
	if err := <-errCh; err != nil {
		return fmt.Errorf("start manager: %w", err)
	}
	zapLogger.Infof(context.Background(), "[Main] Quote worker stopped")
	return nil
}

func rateTableSource(cfg config.RateTableConfig) string {
	if cfg.File != "" {
		return "file:" + cfg.File
	}
	return cfg.Endpoint
}
