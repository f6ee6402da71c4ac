package routers

import (
	"github.com/gin-gonic/gin"

	"cpq/backend/cpmain/internal/app/pkg/logger"
	"cpq/backend/cpmain/internal/app/pkg/metrics"
	"cpq/backend/cpmain/internal/app/server/handlers/batch"
	"cpq/backend/cpmain/internal/app/server/handlers/quote"
	"cpq/backend/cpmain/internal/app/server/handlers/ratetable"
	"cpq/backend/cpmain/internal/app/server/middlewares"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Quote     *quote.QuoteHandler
	RateTable *ratetable.RateTableHandler
	Batch     *batch.BatchHandler
}

// SetupRoutes 配置所有路由，使用 Route Group 分类
func SetupRoutes(h Handlers, m *metrics.Metrics, log logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(middlewares.Recovery(log))
	r.Use(middlewares.CORS())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.Tracing())
	r.Use(middlewares.Logger(log))
	r.Use(middlewares.Metrics(m))
	r.Use(middlewares.ErrorHandler(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "cpmain",
			"message": "Service is running",
		})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/quotes", h.Quote.Create)
		v1.GET("/routes/:pincode", h.Quote.Route)

		v1.GET("/rate-table", h.RateTable.Current)
		v1.PUT("/rate-table", h.RateTable.Upload)

		rateCards := v1.Group("/rate-cards")
		{
			rateCards.GET("", h.RateTable.List)
			rateCards.GET("/:version", h.RateTable.Get)
		}

		batches := v1.Group("/quote-batches")
		{
			batches.POST("", h.Batch.Create)
			batches.GET("/:id", h.Batch.Get)
		}
	}

	return r
}
