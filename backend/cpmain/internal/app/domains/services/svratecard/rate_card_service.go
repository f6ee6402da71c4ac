package svratecard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cpq/backend/cpmain/internal/app/domains/entity/etprimitive"
	"cpq/backend/cpmain/internal/app/domains/entity/etratecard"
	"cpq/backend/cpmain/internal/app/domains/modules/mdratecard"
	"cpq/backend/cpmain/internal/app/pkg/errorx"
	"cpq/backend/cpmain/internal/app/pkg/idgen"
	"cpq/backend/cpmain/internal/app/pkg/logger"
)

// RateCardService 费率表管理服务
type RateCardService struct {
	module *mdratecard.RateCardModule
	logger logger.Logger
	now    func() time.Time
}

// NewRateCardService 创建服务实例
func NewRateCardService(module *mdratecard.RateCardModule, log logger.Logger) *RateCardService {
	return &RateCardService{
		module: module,
		logger: log,
		now:    time.Now,
	}
}

// Upload 上传新费率表
// 1. 校验并生成新版本
// 2. 落库、清缓存、广播 worker 刷新
func (s *RateCardService) Upload(ctx context.Context, raw []byte, note, createdBy string) (*etratecard.RateCard, error) {
	version := idgen.NewRateCardVersion(s.now())
	card, err := etratecard.NewRateCard(idgen.GenerateID(), version, raw, note, createdBy)
	if err != nil {
		if errors.Is(err, etratecard.ErrInvalidVersion) {
			return nil, err
		}
		return nil, errorx.InvalidRateTable(err.Error())
	}

	if err := s.module.Save(ctx, card); err != nil {
		return nil, fmt.Errorf("save rate card failed: %w", err)
	}

	s.logger.InfoContext(ctx, "Rate table uploaded",
		"version", card.Version,
		"created_by", card.CreatedBy,
	)
	return card, nil
}

// Current 当前费率表
func (s *RateCardService) Current(ctx context.Context) (*etratecard.RateCard, error) {
	return s.module.Current(ctx)
}

// Get 按版本号查询
func (s *RateCardService) Get(ctx context.Context, version string) (*etratecard.RateCard, error) {
	return s.module.GetByVersion(ctx, version)
}

// List 版本列表
func (s *RateCardService) List(ctx context.Context, page, limit int) ([]*etratecard.RateCard, etprimitive.Pagination, error) {
	p := etprimitive.NewPagination(page, limit)
	cards, total, err := s.module.List(ctx, p)
	if err != nil {
		return nil, p, err
	}
	p.Total = total
	return cards, p, nil
}
