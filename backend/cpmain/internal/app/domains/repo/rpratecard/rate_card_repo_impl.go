package rpratecard

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cpq/backend/common/entity"
	"cpq/backend/cpmain/internal/app/domains/entity/etprimitive"
	"cpq/backend/cpmain/internal/app/domains/entity/etratecard"
)

// listColumns 列表查询不加载 rate_table 大字段
var listColumns = []string{"id", "version", "note", "created_by", "created_at"}

// RateCardRepositoryImpl 费率表仓储实现（MySQL）
type RateCardRepositoryImpl struct {
	db *gorm.DB
}

// NewRateCardRepository 创建费率表仓储实例
func NewRateCardRepository(db *gorm.DB) RateCardRepository {
	return &RateCardRepositoryImpl{db: db}
}

// Create 保存新版本
func (r *RateCardRepositoryImpl) Create(ctx context.Context, card *etratecard.RateCard) error {
	return r.db.WithContext(ctx).Create(toGormModel(card)).Error
}

// Latest 最新版本（按创建时间、ID 倒序）
func (r *RateCardRepositoryImpl) Latest(ctx context.Context) (*etratecard.RateCard, error) {
	var po entity.RateCard
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainModel(&po)
}

// GetByVersion 按版本号查询
func (r *RateCardRepositoryImpl) GetByVersion(ctx context.Context, version string) (*etratecard.RateCard, error) {
	var po entity.RateCard
	err := r.db.WithContext(ctx).Where("version = ?", version).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainModel(&po)
}

// List 分页查询
func (r *RateCardRepositoryImpl) List(ctx context.Context, page etprimitive.Pagination) ([]*etratecard.RateCard, int64, error) {
	var total int64
	var pos []entity.RateCard

	query := r.db.WithContext(ctx).Model(&entity.RateCard{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Select(listColumns).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&pos).Error
	if err != nil {
		return nil, 0, err
	}

	cards := make([]*etratecard.RateCard, 0, len(pos))
	for i := range pos {
		cards = append(cards, toSummary(&pos[i]))
	}
	return cards, total, nil
}

// toGormModel 领域对象转换为 GORM 模型
func toGormModel(card *etratecard.RateCard) *entity.RateCard {
	return &entity.RateCard{
		ID:        card.ID,
		Version:   card.Version,
		Table:     datatypes.JSON(card.Raw),
		Note:      card.Note,
		CreatedBy: card.CreatedBy,
		CreatedAt: card.CreatedAt,
	}
}

// toDomainModel GORM 模型转换为领域对象
func toDomainModel(po *entity.RateCard) (*etratecard.RateCard, error) {
	table, err := etratecard.ParseTable(po.Table)
	if err != nil {
		return nil, fmt.Errorf("rate card %s: %w", po.Version, err)
	}
	card := toSummary(po)
	card.Raw = []byte(po.Table)
	card.Table = table
	return card, nil
}

func toSummary(po *entity.RateCard) *etratecard.RateCard {
	return &etratecard.RateCard{
		ID:        po.ID,
		Version:   po.Version,
		Note:      po.Note,
		CreatedBy: po.CreatedBy,
		CreatedAt: po.CreatedAt,
	}
}
