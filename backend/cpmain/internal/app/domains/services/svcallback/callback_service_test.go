package svcallback

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
	"cpq/backend/cpmain/internal/app/domains/entity/etbatch"
	"cpq/backend/cpmain/internal/app/domains/modules/mdbatch"
	"cpq/backend/cpmain/internal/app/pkg/errorx"
	"cpq/backend/cpmain/internal/app/pkg/logger"
	"cpq/backend/cpmain/internal/app/pkg/metrics"
)

type memRepo struct {
	batches map[string]*etbatch.QuoteBatch
	updates int
}

func (r *memRepo) Create(_ context.Context, b *etbatch.QuoteBatch) error {
	r.batches[b.ID] = b
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*etbatch.QuoteBatch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) UpdateResult(_ context.Context, b *etbatch.QuoteBatch) error {
	r.updates++
	r.batches[b.ID] = b
	return nil
}

type memNotifier struct {
	mu   sync.Mutex
	msgs map[string][]byte
	err  error
}

func (n *memNotifier) Publish(_ context.Context, channel string, message []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs[channel] = message
	return nil
}

type unusedQueue struct{}

func (unusedQueue) Publish(context.Context, string, interface{}) (string, error) { return "", nil }

func newService(t *testing.T) (*CallbackService, *memRepo, *memNotifier, *metrics.Metrics) {
	t.Helper()
	repo := &memRepo{batches: map[string]*etbatch.QuoteBatch{}}
	b, err := etbatch.NewQuoteBatch("b-1", "req-1", []model.QuoteBatchItem{{ServiceType: "priority"}}, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), b))

	notifier := &memNotifier{msgs: map[string][]byte{}}
	m := metrics.New()
	module := mdbatch.NewBatchModule(repo, unusedQueue{}, nil, "quote_batch")
	return NewCallbackService(module, notifier, m, logger.NewNop()), repo, notifier, m
}

func TestCallbackService_Success(t *testing.T) {
	svc, repo, notifier, m := newService(t)

	err := svc.HandleCallback(context.Background(), &model.QuoteBatchCallback{
		RequestID: "req-1",
		BatchID:   "b-1",
		Status:    model.CallbackStatusSuccess,
		Results: []model.QuoteItemResult{
			{Index: 0, Status: model.ItemStatusQuoted, Quote: &pricing.Quote{Amount: 40}},
		},
	})
	require.NoError(t, err)

	stored := repo.batches["b-1"]
	assert.Equal(t, etbatch.BatchStatusQuoted, stored.Status)
	assert.Equal(t, 1, stored.Summary.Quoted)

	var n model.QuoteBatchNotification
	require.NoError(t, json.Unmarshal(notifier.msgs["quote_batch:result:b-1"], &n))
	assert.Equal(t, "QUOTED", n.Status)

	n2, err := testutil.GatherAndCount(m.Registry(), "cpq_quote_batches_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n2)
}

func TestCallbackService_Failed(t *testing.T) {
	svc, repo, _, _ := newService(t)

	err := svc.HandleCallback(context.Background(), &model.QuoteBatchCallback{
		BatchID: "b-1",
		Status:  model.CallbackStatusFailed,
		Error:   "items is empty",
	})
	require.NoError(t, err)
	assert.Equal(t, etbatch.BatchStatusFailed, repo.batches["b-1"].Status)
	assert.Equal(t, "items is empty", repo.batches["b-1"].ErrorMsg)
}

func TestCallbackService_DuplicateIgnored(t *testing.T) {
	svc, repo, _, _ := newService(t)
	cb := &model.QuoteBatchCallback{BatchID: "b-1", Status: model.CallbackStatusFailed, Error: "boom"}

	require.NoError(t, svc.HandleCallback(context.Background(), cb))
	require.NoError(t, svc.HandleCallback(context.Background(), cb))
	assert.Equal(t, 1, repo.updates)
}

func TestCallbackService_NotificationFailureIsNotFatal(t *testing.T) {
	svc, repo, notifier, _ := newService(t)
	notifier.err = errors.New("redis down")

	err := svc.HandleCallback(context.Background(), &model.QuoteBatchCallback{BatchID: "b-1", Status: model.CallbackStatusSuccess})
	require.NoError(t, err)
	assert.Equal(t, etbatch.BatchStatusQuoted, repo.batches["b-1"].Status)
}

func TestCallbackService_Errors(t *testing.T) {
	svc, _, _, _ := newService(t)

	err := svc.HandleCallback(context.Background(), &model.QuoteBatchCallback{BatchID: "nope", Status: model.CallbackStatusSuccess})
	assert.ErrorIs(t, err, errorx.ErrBatchNotFound)

	err = svc.HandleCallback(context.Background(), &model.QuoteBatchCallback{BatchID: "b-1", Status: "DONE"})
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
