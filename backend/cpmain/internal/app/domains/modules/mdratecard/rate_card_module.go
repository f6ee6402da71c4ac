package mdratecard

import (
	"context"
	"encoding/json"
	"time"

	"cpq/backend/common/model"
	"cpq/backend/cpmain/internal/app/domains/entity/etprimitive"
	"cpq/backend/cpmain/internal/app/domains/entity/etratecard"
	"cpq/backend/cpmain/internal/app/domains/repo/rpratecard"
	"cpq/backend/cpmain/internal/app/pkg/errorx"
	"cpq/backend/cpmain/internal/app/pkg/logger"
)

// CurrentKey 当前费率表缓存 key
const CurrentKey = "rate_table:current"

// Cache 费率表缓存与更新广播（infra/persistence/redis.Client）
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Publish(ctx context.Context, channel string, message []byte) error
}

// RateCardModule 费率表模块
// 读路径：Redis → MySQL 最新版本；写路径：MySQL → 删除缓存 → 广播
type RateCardModule struct {
	repo    rpratecard.RateCardRepository
	cache   Cache
	ttl     time.Duration
	channel string
	logger  logger.Logger
}

// NewRateCardModule 创建费率表模块
func NewRateCardModule(repo rpratecard.RateCardRepository, cache Cache, ttl time.Duration, channel string, log logger.Logger) *RateCardModule {
	if channel == "" {
		channel = model.ChannelRateTableUpdated
	}
	return &RateCardModule{
		repo:    repo,
		cache:   cache,
		ttl:     ttl,
		channel: channel,
		logger:  log,
	}
}

// cachedCard 缓存中的费率表
type cachedCard struct {
	ID        int64           `json:"id"`
	Version   string          `json:"version"`
	Table     json.RawMessage `json:"table"`
	Note      string          `json:"note,omitempty"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Current 当前生效的费率表
// 缓存故障只降级到 MySQL，不影响报价
func (m *RateCardModule) Current(ctx context.Context) (*etratecard.RateCard, error) {
	if card := m.fromCache(ctx); card != nil {
		return card, nil
	}

	card, err := m.repo.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, errorx.ErrRateCardNotFound
	}

	m.store(ctx, card)
	return card, nil
}

// Save 保存新版本并通知 worker 刷新
func (m *RateCardModule) Save(ctx context.Context, card *etratecard.RateCard) error {
	if err := m.repo.Create(ctx, card); err != nil {
		return err
	}

	if err := m.cache.Del(ctx, CurrentKey); err != nil {
		m.logger.WarnContext(ctx, "Failed to drop cached rate table", "version", card.Version, "error", err)
	}

	msg, err := json.Marshal(model.RateTableUpdated{Version: card.Version, UpdatedAt: card.CreatedAt.Unix()})
	if err != nil {
		return err
	}
	if err := m.cache.Publish(ctx, m.channel, msg); err != nil {
		// worker 的 rate_table.cache_ttl 到期后也会重新拉取
		m.logger.WarnContext(ctx, "Failed to broadcast rate table update", "version", card.Version, "error", err)
	}
	return nil
}

// GetByVersion 按版本号查询
func (m *RateCardModule) GetByVersion(ctx context.Context, version string) (*etratecard.RateCard, error) {
	card, err := m.repo.GetByVersion(ctx, version)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, errorx.ErrRateCardNotFound
	}
	return card, nil
}

// List 分页查询版本
func (m *RateCardModule) List(ctx context.Context, page etprimitive.Pagination) ([]*etratecard.RateCard, int64, error) {
	return m.repo.List(ctx, page)
}

func (m *RateCardModule) fromCache(ctx context.Context) *etratecard.RateCard {
	data, ok, err := m.cache.Get(ctx, CurrentKey)
	if err != nil {
		m.logger.WarnContext(ctx, "Rate table cache read failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var cached cachedCard
	if err := json.Unmarshal(data, &cached); err != nil {
		m.logger.WarnContext(ctx, "Discarding malformed cached rate table", "error", err)
		return nil
	}
	table, err := etratecard.ParseTable(cached.Table)
	if err != nil {
		m.logger.WarnContext(ctx, "Discarding malformed cached rate table", "error", err)
		return nil
	}

	return &etratecard.RateCard{
		ID:        cached.ID,
		Version:   cached.Version,
		Raw:       cached.Table,
		Table:     table,
		Note:      cached.Note,
		CreatedBy: cached.CreatedBy,
		CreatedAt: cached.CreatedAt,
	}
}

func (m *RateCardModule) store(ctx context.Context, card *etratecard.RateCard) {
	data, err := json.Marshal(cachedCard{
		ID:        card.ID,
		Version:   card.Version,
		Table:     card.Raw,
		Note:      card.Note,
		CreatedBy: card.CreatedBy,
		CreatedAt: card.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := m.cache.Set(ctx, CurrentKey, data, m.ttl); err != nil {
		m.logger.WarnContext(ctx, "Rate table cache write failed", "version", card.Version, "error", err)
	}
}
