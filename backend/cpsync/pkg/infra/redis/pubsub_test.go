package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"cpq/backend/cpsync/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() {
	c.calls.Inc()
}

func TestConsumeUpdates_InvalidatesPerMessage(t *testing.T) {
	ch := make(chan *redis.Message, 3)
	ch <- &redis.Message{Channel: "rate_table:updated", Payload: `{"version":"v2","updated_at":1}`}
	ch <- &redis.Message{Channel: "rate_table:updated", Payload: "not-json"}
	close(ch)

	target := &countingInvalidator{}
	consumeUpdates(context.Background(), ch, target, logger.NewNop())

	assert.Equal(t, int32(2), target.calls.Load())
}

func TestConsumeUpdates_StopsOnCancel(t *testing.T) {
	ch := make(chan *redis.Message)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumeUpdates(ctx, ch, &countingInvalidator{}, logger.NewNop())
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumeUpdates did not return after cancel")
	}
}

func TestRunListener_RetriesUntilSubscribed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	msgs := make(chan *redis.Message, 1)
	subscribe := func(ctx context.Context) (<-chan *redis.Message, func(), error) {
		switch attempts.Inc() {
		case 1, 2:
			return nil, nil, errors.New("connection refused")
		case 3:
			// 立即断开，迫使再订阅一次
			closed := make(chan *redis.Message)
			close(closed)
			return closed, func() {}, nil
		default:
			return msgs, func() {}, nil
		}
	}

	target := &countingInvalidator{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		runListener(ctx, subscribe, target, logger.NewNop(), Backoff{Min: time.Millisecond, Max: 5 * time.Millisecond})
	}()

	// 第 3 次是首次订阅成功不失效，第 4 次是重新订阅，失效一次
	assert.Eventually(t, func() bool { return attempts.Load() >= 4 }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return target.calls.Load() == 1 }, time.Second, time.Millisecond)

	msgs <- &redis.Message{Payload: `{"version":"v3"}`}
	assert.Eventually(t, func() bool { return target.calls.Load() == 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runListener did not return after cancel")
	}
}

func TestRunListener_StopsDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var attempts atomic.Int32
	subscribe := func(ctx context.Context) (<-chan *redis.Message, func(), error) {
		attempts.Inc()
		return nil, nil, errors.New("connection refused")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		runListener(ctx, subscribe, &countingInvalidator{}, logger.NewNop(), Backoff{Min: time.Hour, Max: time.Hour})
	}()

	assert.Eventually(t, func() bool { return attempts.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runListener did not return while backing off")
	}
	assert.Equal(t, int32(1), attempts.Load())
}
