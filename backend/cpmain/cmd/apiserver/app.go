package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cpq/backend/common/entity"
	"cpq/backend/common/pricing"
	"cpq/backend/common/tracing"
	"cpq/backend/cpmain/internal/app/config"
	"cpq/backend/cpmain/internal/app/consumer"
	"cpq/backend/cpmain/internal/app/domains/modules/mdbatch"
	"cpq/backend/cpmain/internal/app/domains/modules/mdratecard"
	"cpq/backend/cpmain/internal/app/domains/repo/rpbatch"
	"cpq/backend/cpmain/internal/app/domains/repo/rpratecard"
	"cpq/backend/cpmain/internal/app/domains/services/svbatch"
	"cpq/backend/cpmain/internal/app/domains/services/svcallback"
	"cpq/backend/cpmain/internal/app/domains/services/svquote"
	"cpq/backend/cpmain/internal/app/domains/services/svratecard"
	"cpq/backend/cpmain/internal/app/infra/mq/lmstfy"
	"cpq/backend/cpmain/internal/app/infra/persistence/redis"
	"cpq/backend/cpmain/internal/app/pkg/idgen"
	"cpq/backend/cpmain/internal/app/pkg/logger"
	"cpq/backend/cpmain/internal/app/pkg/metrics"
	"cpq/backend/cpmain/internal/app/server/handlers/batch"
	"cpq/backend/cpmain/internal/app/server/handlers/quote"
	"cpq/backend/cpmain/internal/app/server/handlers/ratetable"
	"cpq/backend/cpmain/internal/app/server/routers"
)

// App 进程内组件
type App struct {
	Engine           *gin.Engine
	CallbackConsumer *consumer.CallbackConsumer
	Logger           *logger.ZapLogger
}

// InitializeApp 按依赖顺序组装各层，返回的 cleanup 负责释放连接
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	// 1. 日志与 ID
	appLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	idgen.SetMachineID(cfg.App.MachineID)
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	shutdownTracer, err := tracing.InitTracerProvider(cfg.App.Name, cfg.Tracing)
	if err != nil {
		return nil, nil, fmt.Errorf("init tracer: %w", err)
	}

	// 2. 基础设施
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.MySQL.AutoMigrate {
		if err := db.AutoMigrate(&entity.RateCard{}, &entity.QuoteBatch{}); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	appLogger.Info("Database connected")

	redisClient, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("init redis: %w", err)
	}
	appLogger.Info("Redis connected")

	lmstfyClient := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token, cfg.Lmstfy.Timeout)
	m := metrics.New()

	// 3. Repository / Module
	rateModule := mdratecard.NewRateCardModule(
		rpratecard.NewRateCardRepository(db),
		redisClient,
		cfg.Pricing.CacheTTL,
		cfg.Pricing.RefreshChannel,
		appLogger,
	)
	batchModule := mdbatch.NewBatchModule(
		rpbatch.NewQuoteBatchRepository(db),
		lmstfyClient,
		mdbatch.NewRedisSubscriber(redisClient),
		cfg.Lmstfy.Queue,
	)

	// 4. Service
	calc := pricing.NewCalculator(pricing.NewRouteClassifier(cfg.Pricing.NorthEastBands), cfg.Pricing.Rules)
	quoteService := svquote.NewQuoteService(calc, rateModule, m, appLogger)
	rateCardService := svratecard.NewRateCardService(rateModule, appLogger)
	batchService := svbatch.NewBatchService(batchModule, svbatch.Config{
		MaxItems:    cfg.Batch.MaxItems,
		DefaultWait: cfg.Batch.DefaultWait,
		MaxWait:     cfg.Batch.MaxWait,
	}, appLogger)
	callbackService := svcallback.NewCallbackService(batchModule, redisClient, m, appLogger)

	// 5. HTTP 与回调消费者
	engine := routers.SetupRoutes(routers.Handlers{
		Quote:     quote.NewQuoteHandler(quoteService),
		RateTable: ratetable.NewRateTableHandler(rateCardService),
		Batch:     batch.NewBatchHandler(batchService),
	}, m, appLogger)

	callbackConsumer := consumer.NewCallbackConsumer(
		lmstfyClient,
		callbackService,
		consumerConfig(cfg),
		appLogger,
	)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			appLogger.Warn("Shutdown tracer failed", "error", err)
		}
		if err := redisClient.Close(); err != nil {
			appLogger.Warn("Close redis failed", "error", err)
		}
		if err := sqlDB.Close(); err != nil {
			appLogger.Warn("Close database failed", "error", err)
		}
		_ = appLogger.Sync()
	}

	return &App{
		Engine:           engine,
		CallbackConsumer: callbackConsumer,
		Logger:           appLogger,
	}, cleanup, nil
}

func consumerConfig(cfg *config.Config) *consumer.Config {
	return &consumer.Config{
		QueueName:    cfg.Lmstfy.CallbackQueue,
		Timeout:      3,  // 拉取消息超时 3 秒
		TTR:          30, // 消息处理超时 30 秒
		PollInterval: time.Second,
	}
}
