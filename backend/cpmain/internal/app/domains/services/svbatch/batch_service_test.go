package svbatch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
	"cpq/backend/cpmain/internal/app/domains/entity/etbatch"
	"cpq/backend/cpmain/internal/app/domains/modules/mdbatch"
	"cpq/backend/cpmain/internal/app/pkg/errorx"
	"cpq/backend/cpmain/internal/app/pkg/logger"
)

type memRepo struct {
	mu      sync.Mutex
	batches map[string]*etbatch.QuoteBatch
}

func newMemRepo() *memRepo {
	return &memRepo{batches: map[string]*etbatch.QuoteBatch{}}
}

func (r *memRepo) Create(_ context.Context, b *etbatch.QuoteBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.batches[b.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*etbatch.QuoteBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) UpdateResult(ctx context.Context, b *etbatch.QuoteBatch) error {
	return r.Create(ctx, b)
}

// workerQueue 模拟 cpsync：收到任务后写库并推送通知
type workerQueue struct {
	repo    *memRepo
	subs    *memSubscriber
	fail    error
	respond bool
}

func (q *workerQueue) Publish(ctx context.Context, _ string, data interface{}) (string, error) {
	if q.fail != nil {
		return "", q.fail
	}
	job := data.(model.QuoteBatchJob)
	if q.respond {
		id := job.Payload.Data.ID
		b, _ := q.repo.GetByID(ctx, id)
		b.MarkQuoted([]model.QuoteItemResult{{Index: 0, Status: model.ItemStatusQuoted, Quote: &pricing.Quote{Amount: 40}}})
		_ = q.repo.UpdateResult(ctx, b)
		q.subs.deliver(model.QuoteBatchResultChannel(id), []byte(`{"batch_id":"`+id+`","status":"QUOTED"}`))
	}
	return "job-1", nil
}

type memSubscription struct {
	ch     chan []byte
	closed bool
}

func (s *memSubscription) Wait(ctx context.Context, timeout time.Duration) ([]byte, error) {
	select {
	case p := <-s.ch:
		return p, nil
	case <-time.After(timeout):
		return nil, context.DeadlineExceeded
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *memSubscription) Close() error {
	s.closed = true
	return nil
}

type memSubscriber struct {
	mu   sync.Mutex
	subs map[string]*memSubscription
	err  error
}

func (s *memSubscriber) Subscribe(_ context.Context, channel string) (mdbatch.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &memSubscription{ch: make(chan []byte, 1)}
	s.subs[channel] = sub
	return sub, nil
}

func (s *memSubscriber) deliver(channel string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[channel]; ok {
		sub.ch <- payload
	}
}

type fixture struct {
	svc   *BatchService
	repo  *memRepo
	queue *workerQueue
	subs  *memSubscriber
}

func newFixture(cfg Config) *fixture {
	repo := newMemRepo()
	subs := &memSubscriber{subs: map[string]*memSubscription{}}
	queue := &workerQueue{repo: repo, subs: subs}
	module := mdbatch.NewBatchModule(repo, queue, subs, "quote_batch")
	return &fixture{
		svc:   NewBatchService(module, cfg, logger.NewNop()),
		repo:  repo,
		queue: queue,
		subs:  subs,
	}
}

var oneItem = []model.QuoteBatchItem{{ServiceType: "priority", DestinationPincode: "781001", WeightKg: 0.5}}

func TestBatchService_SmartWaitReturnsResult(t *testing.T) {
	f := newFixture(Config{MaxItems: 10, MaxWait: time.Second})
	f.queue.respond = true

	b, err := f.svc.Create(context.Background(), "req-1", oneItem, time.Second)
	require.NoError(t, err)
	assert.Equal(t, etbatch.BatchStatusQuoted, b.Status)
	assert.Equal(t, 40.0, b.Summary.TotalAmount)

	sub := f.subs.subs[model.QuoteBatchResultChannel(b.ID)]
	require.NotNil(t, sub)
	assert.True(t, sub.closed)
}

func TestBatchService_SmartWaitTimeout(t *testing.T) {
	f := newFixture(Config{MaxItems: 10, MaxWait: 20 * time.Millisecond})

	b, err := f.svc.Create(context.Background(), "req-1", oneItem, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, etbatch.BatchStatusQuoting, b.Status)

	stored, err := f.svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, etbatch.BatchStatusQuoting, stored.Status)
}

func TestBatchService_NoWaitSkipsSubscribe(t *testing.T) {
	f := newFixture(Config{MaxItems: 10, MaxWait: time.Second})

	b, err := f.svc.Create(context.Background(), "req-1", oneItem, 0)
	require.NoError(t, err)
	assert.Equal(t, etbatch.BatchStatusQuoting, b.Status)
	assert.Empty(t, f.subs.subs)
}

func TestBatchService_SubscribeFailureStillEnqueues(t *testing.T) {
	f := newFixture(Config{MaxItems: 10, DefaultWait: time.Second, MaxWait: time.Second})
	f.subs.err = errors.New("redis down")

	b, err := f.svc.Create(context.Background(), "req-1", oneItem, -1)
	require.NoError(t, err)
	assert.Equal(t, etbatch.BatchStatusQuoting, b.Status)
}

func TestBatchService_PublishFailureMarksFailed(t *testing.T) {
	f := newFixture(Config{MaxItems: 10})
	f.queue.fail = errors.New("lmstfy unavailable")

	_, err := f.svc.Create(context.Background(), "req-1", oneItem, 0)
	require.ErrorContains(t, err, "lmstfy unavailable")

	require.Len(t, f.repo.batches, 1)
	for _, b := range f.repo.batches {
		assert.Equal(t, etbatch.BatchStatusFailed, b.Status)
	}
}

func TestBatchService_Validation(t *testing.T) {
	f := newFixture(Config{MaxItems: 1})

	_, err := f.svc.Create(context.Background(), "req-1", nil, 0)
	var be *errorx.BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusBadRequest, be.Code)
	assert.ErrorIs(t, err, errorx.ErrEmptyBatch)

	_, err = f.svc.Create(context.Background(), "req-1", append(oneItem, oneItem[0]), 0)
	assert.ErrorIs(t, err, errorx.ErrTooManyItems)
	assert.Empty(t, f.repo.batches)
}

func TestBatchService_GetNotFound(t *testing.T) {
	f := newFixture(Config{})
	_, err := f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, errorx.ErrBatchNotFound)
}

func TestBatchService_ClampWait(t *testing.T) {
	s := &BatchService{cfg: Config{DefaultWait: 2 * time.Second, MaxWait: 5 * time.Second}}
	assert.Equal(t, 2*time.Second, s.clampWait(-1))
	assert.Equal(t, 5*time.Second, s.clampWait(time.Minute))
	assert.Equal(t, time.Duration(0), s.clampWait(0))
}
