package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cpq/backend/common/model"
	"cpq/backend/cpsync/pkg/logger"
)

// Backoff 重新订阅的退避区间，失败一次翻倍直到 Max
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

// DefaultBackoff 默认退避
var DefaultBackoff = Backoff{Min: time.Second, Max: 30 * time.Second}

// PubSub Redis 订阅客户端
type PubSub struct {
	client  *redis.Client
	backoff Backoff
}

// NewPubSub 创建 PubSub 实例
func NewPubSub(addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &PubSub{
		client:  client,
		backoff: DefaultBackoff,
	}, nil
}

// Invalidator 收到更新广播后需要失效的缓存（ratetable.Cache）
type Invalidator interface {
	Invalidate()
}

// ListenRateTableUpdates 订阅费率表更新频道，每条广播都使缓存失效
// 订阅失败或断开后按退避重试，阻塞直到 ctx 取消
func (p *PubSub) ListenRateTableUpdates(ctx context.Context, channel string, target Invalidator, log logger.Logger) {
	subscribe := func(ctx context.Context) (<-chan *redis.Message, func(), error) {
		sub := p.client.Subscribe(ctx, channel)
		// 等待订阅确认，确保之后发布的广播不会丢
		if _, err := sub.Receive(ctx); err != nil {
			_ = sub.Close()
			return nil, nil, fmt.Errorf("subscribe %s failed: %w", channel, err)
		}
		return sub.Channel(), func() { _ = sub.Close() }, nil
	}
	runListener(ctx, subscribe, target, log, p.backoff)
}

// subscribeFunc 建立一次订阅，返回消息通道和关闭函数
type subscribeFunc func(ctx context.Context) (<-chan *redis.Message, func(), error)

// runListener 订阅循环
// 除首次订阅外，每次重新订阅成功都先失效缓存，断开期间的广播可能已丢失
func runListener(ctx context.Context, subscribe subscribeFunc, target Invalidator, log logger.Logger, backoff Backoff) {
	delay := backoff.Min
	resubscribe := false
	for {
		ch, closeFn, err := subscribe(ctx)
		if err == nil {
			log.Infof(ctx, "[PubSub] Rate table updates subscribed")
			if resubscribe {
				target.Invalidate()
			}
			delay = backoff.Min
			consumeUpdates(ctx, ch, target, log)
			closeFn()
		}
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warnf(ctx, "[PubSub] %v, retry in %s", err, delay)
		} else {
			log.Warnf(ctx, "[PubSub] Rate table subscription closed, retry in %s", delay)
		}

		resubscribe = true
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err != nil {
			delay = min(delay*2, backoff.Max)
		}
	}
}

// consumeUpdates 消费广播直到 ctx 取消或频道关闭
func consumeUpdates(ctx context.Context, ch <-chan *redis.Message, target Invalidator, log logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			// 负载只用于日志，解析失败也照常失效
			var evt model.RateTableUpdated
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Warnf(ctx, "[PubSub] malformed rate table notification: %v", err)
			}
			target.Invalidate()
			log.Infof(ctx, "[PubSub] Rate table cache invalidated: version=%s", evt.Version)
		}
	}
}

// Close 关闭 Redis 连接
func (p *PubSub) Close() error {
	return p.client.Close()
}
