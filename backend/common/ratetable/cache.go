package ratetable

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"cpq/backend/common/pricing"
)

// Cache 会话级费率表缓存
// 首次 Get 时拉取，并发的首次加载合并为一次请求
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration // 0 表示不过期，只能通过 Invalidate 刷新
	now     func() time.Time

	mu       sync.RWMutex
	table    *pricing.RateTable
	loadedAt time.Time
	version  uint64

	group singleflight.Group
}

// NewCache 创建缓存
func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get 返回缓存的费率表，未加载或已过期时拉取
// 拉取失败时直接返回错误
func (c *Cache) Get(ctx context.Context) (*pricing.RateTable, error) {
	if table, ok := c.cached(); ok {
		return table, nil
	}

	// 共享的拉取不随任一调用方取消，每个调用方只等到自己的 ctx 结束
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("rate_table", func() (interface{}, error) {
		if table, ok := c.cached(); ok {
			return table, nil
		}
		c.mu.RLock()
		version := c.version
		c.mu.RUnlock()

		table, err := c.fetcher.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// 拉取期间发生了 Invalidate，结果仍返回给本次调用方，但不写入缓存
		if c.version == version {
			c.table = table
			c.loadedAt = c.now()
		}
		c.mu.Unlock()
		return table, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*pricing.RateTable), nil
	}
}

// Set 直接写入费率表（如管理端刚上传的新版本）
func (c *Cache) Set(table *pricing.RateTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.table = table
	c.loadedAt = c.now()
}

// Invalidate 丢弃缓存，下次 Get 重新拉取
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.table = nil
	c.loadedAt = time.Time{}
}

// LoadedAt 最近一次加载时间，未加载返回零值
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

func (c *Cache) cached() (*pricing.RateTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.table == nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(c.loadedAt) >= c.ttl {
		return nil, false
	}
	return c.table, true
}
