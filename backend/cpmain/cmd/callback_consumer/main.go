package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"cpq/backend/common/tracing"
	"cpq/backend/cpmain/internal/app/config"
	"cpq/backend/cpmain/internal/app/consumer"
	"cpq/backend/cpmain/internal/app/domains/modules/mdbatch"
	"cpq/backend/cpmain/internal/app/domains/repo/rpbatch"
	"cpq/backend/cpmain/internal/app/domains/services/svcallback"
	"cpq/backend/cpmain/internal/app/infra/mq/lmstfy"
	"cpq/backend/cpmain/internal/app/infra/persistence/redis"
	"cpq/backend/cpmain/internal/app/pkg/logger"
	"cpq/backend/cpmain/internal/app/pkg/metrics"
)

// 独立部署的回调消费者，与 apiserver 内置消费者二选一
func main() {
	// 1. 加载配置
	cfg, err := config.LoadDefault()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. 初始化日志
	appLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("Starting callback consumer...")

	shutdownTracer, err := tracing.InitTracerProvider(cfg.App.Name+"-callback", cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to init tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	// 3. 初始化基础设施组件
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql.DB: %v", err)
	}
	defer sqlDB.Close()
	appLogger.Info("Database connected")

	redisClient, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to init redis: %v", err)
	}
	defer redisClient.Close()
	appLogger.Info("Redis connected")

	lmstfyClient := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token, cfg.Lmstfy.Timeout)

	// 4. 初始化 Module / Service 层
	// 消费者不投递任务也不等待结果，Queue 与 Subscriber 留空
	batchModule := mdbatch.NewBatchModule(rpbatch.NewQuoteBatchRepository(db), nil, nil, cfg.Lmstfy.Queue)
	callbackService := svcallback.NewCallbackService(batchModule, redisClient, metrics.New(), appLogger)

	// 5. 初始化 Consumer
	callbackConsumer := consumer.NewCallbackConsumer(
		lmstfyClient,
		callbackService,
		&consumer.Config{
			QueueName:    cfg.Lmstfy.CallbackQueue,
			Timeout:      3,  // 拉取消息超时 3 秒
			TTR:          30, // 消息处理超时 30 秒
			PollInterval: time.Second,
		},
		appLogger,
	)

	// 6. 启动消费循环，收到信号后退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := callbackConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Consumer stopped with error", "error", err)
		return
	}
	appLogger.Info("Consumer stopped gracefully")
}
