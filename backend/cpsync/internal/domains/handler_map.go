package domains

import (
	"context"

	"cpq/backend/common/model"
	"cpq/backend/cpsync/internal/business"
	"cpq/backend/cpsync/internal/business/quote/batch"
	"cpq/backend/cpsync/internal/framework"
)

// HandlerFactory Handler 构造函数类型
type HandlerFactory func(
	ctx context.Context,
	baseHandler *framework.BaseHandler,
	deps *business.Deps,
) (framework.BusinessHandler, error)

// HandlerMap 路由表（ActionType → Handler 映射）
var HandlerMap = map[string]HandlerFactory{
	model.ActionTypeQuoteBatch: batch.NewQuoteBatchHandler,
}
