package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
	"cpq/backend/common/ratetable"
	"cpq/backend/cpsync/internal/framework"
	"cpq/backend/cpsync/pkg/config"
	"cpq/backend/cpsync/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memQueue 内存队列：Consume 按序出队，Publish 记录回调
type memQueue struct {
	mu        sync.Mutex
	pending   []*framework.Message
	acked     []string
	published map[string][][]byte
}

func newMemQueue(msgs ...*framework.Message) *memQueue {
	return &memQueue{pending: msgs, published: make(map[string][][]byte)}
}

func (q *memQueue) Consume(queue string, timeout, ttr time.Duration) (*framework.Message, error) {
	q.mu.Lock()
	if len(q.pending) > 0 {
		msg := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()
		return msg, nil
	}
	q.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	return nil, nil
}

func (q *memQueue) Ack(queue, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, jobID)
	return nil
}

func (q *memQueue) Publish(queue string, data []byte, ttl, delay uint32) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published[queue] = append(q.published[queue], data)
	return nil
}

func (q *memQueue) ackCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.acked)
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "cpsync-test"},
		Pricing: config.PricingConfig{Rules: pricing.DefaultRules()},
		Workers: []config.WorkerConfig{{
			Name:          "quote-batch-worker",
			QueueName:     "quote_batch",
			CallbackQueue: "quote_batch_callback",
			Subscriber: config.SubscriberConfig{
				Threads:      1,
				Timeout:      10 * time.Millisecond,
				TTR:          time.Second,
				ErrorBackoff: 10 * time.Millisecond,
			},
			Processor: config.ProcessorConfig{
				Threads:    2,
				BufferSize: 4,
				Timeout:    time.Second,
			},
		}},
	}
}

func staticFetcher() ratetable.Fetcher {
	return ratetable.FetcherFunc(func(ctx context.Context) (*pricing.RateTable, error) {
		return &pricing.RateTable{
			PriorityPricing: &pricing.PriorityPricing{Base500g: pricing.NewRate(40)},
		}, nil
	})
}

func TestManager_ProcessesBatchAndShutsDown(t *testing.T) {
	job := model.NewQuoteBatchJob("req-1", "b-1", []model.QuoteBatchItem{
		{ServiceType: "priority", DestinationPincode: "781001", WeightKg: 2},
	})
	raw, err := json.Marshal(job)
	require.NoError(t, err)

	queue := newMemQueue(
		&framework.Message{ID: "job-1", Data: raw},
		&framework.Message{ID: "job-2", Data: []byte("garbage")},
	)
	m := newManager(testConfig(), queue, staticFetcher(), logger.NewNop())

	done := make(chan error, 1)
	go func() { done <- m.Start() }()

	// job-1 成功 ACK，job-2 格式错误 Bury 后同样 ACK
	require.Eventually(t, func() bool { return queue.ackCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	m.Shutdown()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not stop")
	}

	queue.mu.Lock()
	defer queue.mu.Unlock()
	require.Len(t, queue.published["quote_batch_callback"], 1)

	var cb model.QuoteBatchCallback
	require.NoError(t, json.Unmarshal(queue.published["quote_batch_callback"][0], &cb))
	assert.Equal(t, "b-1", cb.BatchID)
	assert.Equal(t, model.CallbackStatusSuccess, cb.Status)
	require.Len(t, cb.Results, 1)
	// 2kg = 4 个 500g 单位 × 40
	assert.Equal(t, 160.0, cb.Results[0].Quote.Amount)
}

func TestManager_ShutdownIsIdempotent(t *testing.T) {
	m := newManager(testConfig(), newMemQueue(), staticFetcher(), logger.NewNop())

	done := make(chan error, 1)
	go func() { done <- m.Start() }()

	require.Eventually(t, func() bool { return len(m.Workers()) == 1 }, time.Second, 5*time.Millisecond)

	m.Shutdown()
	m.Shutdown()
	require.NoError(t, <-done)
	assert.True(t, m.closing.Load())
}

func TestNewFetcher_PrefersFile(t *testing.T) {
	f := newFetcher(config.RateTableConfig{File: "rates.json", Endpoint: "http://x"})
	assert.Equal(t, ratetable.FileFetcher{Path: "rates.json"}, f)

	_, ok := newFetcher(config.RateTableConfig{Endpoint: "http://x"}).(*ratetable.HTTPFetcher)
	assert.True(t, ok)
}
