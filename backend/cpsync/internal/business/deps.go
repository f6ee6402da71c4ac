package business

import (
	"cpq/backend/cpsync/internal/business/quote/batch/services"
	"cpq/backend/cpsync/pkg/logger"
)

// Deps Handler 依赖（Manager 创建，所有 Handler 共享）
type Deps struct {
	Quoter   *services.BatchQuoter
	Callback *services.CallbackService
	Logger   logger.Logger

	// MaxItems 单批最大条数，0 表示不限制
	MaxItems int
}
