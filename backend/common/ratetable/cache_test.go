package ratetable

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"cpq/backend/common/pricing"
)

func countingFetcher(calls *atomic.Int32, delay time.Duration) Fetcher {
	return FetcherFunc(func(ctx context.Context) (*pricing.RateTable, error) {
		calls.Inc()
		time.Sleep(delay)
		return &pricing.RateTable{PriorityPricing: &pricing.PriorityPricing{Base500g: pricing.NewRate(40)}}, nil
	})
}

func TestCache_FetchOncePerSession(t *testing.T) {
	var calls atomic.Int32
	cache := NewCache(countingFetcher(&calls, 20*time.Millisecond), 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := cache.Get(context.Background())
			assert.NoError(t, err)
			assert.NotNil(t, table)
		}()
	}
	wg.Wait()

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, cache.LoadedAt().IsZero())
}

func TestCache_Invalidate(t *testing.T) {
	var calls atomic.Int32
	cache := NewCache(countingFetcher(&calls, 0), 0)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	cache.Invalidate()
	assert.True(t, cache.LoadedAt().IsZero())

	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_TTL(t *testing.T) {
	var calls atomic.Int32
	cache := NewCache(countingFetcher(&calls, 0), time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, _ = cache.Get(context.Background())
	now = now.Add(30 * time.Second)
	_, _ = cache.Get(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(31 * time.Second)
	_, _ = cache.Get(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_SetAndFetchError(t *testing.T) {
	fetchErr := errors.New("pricing endpoint down")
	cache := NewCache(FetcherFunc(func(ctx context.Context) (*pricing.RateTable, error) {
		return nil, fetchErr
	}), 0)

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, fetchErr)

	table := &pricing.RateTable{PriorityPricing: &pricing.PriorityPricing{}}
	cache.Set(table)
	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, table, got)
}

func TestCache_CancelledCallerDoesNotAbortSharedFetch(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetchErr := make(chan error, 1)
	cache := NewCache(FetcherFunc(func(ctx context.Context) (*pricing.RateTable, error) {
		if calls.Inc() == 1 {
			close(started)
		}
		<-release
		fetchErr <- ctx.Err()
		return &pricing.RateTable{PriorityPricing: &pricing.PriorityPricing{Base500g: pricing.NewRate(40)}}, nil
	}), 0)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := cache.Get(ctx)
		first <- err
	}()
	<-started

	second := make(chan *pricing.RateTable, 1)
	go func() {
		table, err := cache.Get(context.Background())
		assert.NoError(t, err)
		second <- table
	}()
	// 让第二个调用方加入进行中的拉取
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	table := <-second
	require.NotNil(t, table)
	assert.Equal(t, pricing.NewRate(40), table.PriorityPricing.Base500g)
	assert.NoError(t, <-fetchErr)
	assert.Equal(t, int32(1), calls.Load())

	// 结果已写入缓存
	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
