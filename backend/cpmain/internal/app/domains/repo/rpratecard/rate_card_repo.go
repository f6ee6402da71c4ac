package rpratecard

import (
	"context"

	"cpq/backend/cpmain/internal/app/domains/entity/etprimitive"
	"cpq/backend/cpmain/internal/app/domains/entity/etratecard"
)

// RateCardRepository 费率表版本仓储接口
type RateCardRepository interface {
	// Create 保存新版本（只增不改）
	Create(ctx context.Context, card *etratecard.RateCard) error

	// Latest 最新版本，不存在时返回 nil, nil
	Latest(ctx context.Context) (*etratecard.RateCard, error)

	// GetByVersion 按版本号查询，不存在时返回 nil, nil
	GetByVersion(ctx context.Context, version string) (*etratecard.RateCard, error)

	// List 分页查询版本列表（不含费率表原文）
	List(ctx context.Context, page etprimitive.Pagination) ([]*etratecard.RateCard, int64, error)
}
