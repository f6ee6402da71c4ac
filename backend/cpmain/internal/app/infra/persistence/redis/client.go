package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client Redis 客户端封装（缓存 + Pub/Sub）
type Client struct {
	rdb *redis.Client
}

// NewClient 创建客户端，支持密码认证
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &Client{rdb: rdb}, nil
}

// Get 读取缓存，key 不存在时 ok=false
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set 写入缓存
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del 删除缓存
func (c *Client) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Publish 向指定 channel 发布消息
func (c *Client) Publish(ctx context.Context, channel string, message []byte) error {
	return c.rdb.Publish(ctx, channel, message).Err()
}

// Subscribe 订阅 channel，返回前已收到服务端订阅确认
// Smart Wait 必须先订阅再投递任务，否则可能错过结果通知
func (c *Client) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	sub := c.rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	return &Subscription{sub: sub, ch: sub.Channel()}, nil
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Subscription 单频道订阅
type Subscription struct {
	sub *redis.PubSub
	ch  <-chan *redis.Message
}

// Wait 等待一条消息，超时返回 context.DeadlineExceeded
func (s *Subscription) Wait(ctx context.Context, timeout time.Duration) ([]byte, error) {
	return waitMessage(ctx, s.ch, timeout)
}

// Close 取消订阅
func (s *Subscription) Close() error {
	return s.sub.Close()
}

func waitMessage(ctx context.Context, ch <-chan *redis.Message, timeout time.Duration) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, errors.New("subscription closed")
		}
		return []byte(msg.Payload), nil
	case <-timeoutCtx.Done():
		return nil, timeoutCtx.Err()
	}
}
