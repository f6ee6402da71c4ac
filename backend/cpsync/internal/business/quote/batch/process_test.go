package batch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
	"cpq/backend/cpsync/internal/business"
	"cpq/backend/cpsync/internal/business/quote/batch/services"
	"cpq/backend/cpsync/internal/framework"
	"cpq/backend/cpsync/pkg/errorutil"
	"cpq/backend/cpsync/pkg/logger"
)

type fakeRates struct {
	err error
}

func (f fakeRates) Get(ctx context.Context) (*pricing.RateTable, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pricing.RateTable{
		PriorityPricing: &pricing.PriorityPricing{Base500g: pricing.NewRate(40)},
	}, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	callbacks []model.QuoteBatchCallback
	err       error
}

func (p *fakePublisher) Publish(queue string, data []byte, ttl, delay uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	var cb model.QuoteBatchCallback
	if err := json.Unmarshal(data, &cb); err != nil {
		return err
	}
	p.callbacks = append(p.callbacks, cb)
	return nil
}

func newDeps(rates services.RateSource, pub services.Publisher, maxItems int) *business.Deps {
	log := logger.NewNop()
	return &business.Deps{
		Quoter:   services.NewBatchQuoter(rates, pricing.NewCalculator(nil, pricing.DefaultRules()), log),
		Callback: services.NewCallbackService(pub, "quote_batch_callback", log),
		Logger:   log,
		MaxItems: maxItems,
	}
}

func newHandler(t *testing.T, deps *business.Deps, batchID string, items []model.QuoteBatchItem) framework.BusinessHandler {
	t.Helper()
	raw, err := json.Marshal(model.NewQuoteBatchJob("req-1", batchID, items))
	require.NoError(t, err)

	base := &framework.BaseHandler{}
	require.NoError(t, base.ParseJob(context.Background(), raw))

	h, err := NewQuoteBatchHandler(context.Background(), base, deps)
	require.NoError(t, err)
	return h
}

func TestQuoteBatchHandler_Success(t *testing.T) {
	pub := &fakePublisher{}
	deps := newDeps(fakeRates{}, pub, 0)
	h := newHandler(t, deps, "b-1", []model.QuoteBatchItem{
		{Ref: "a", ServiceType: "priority", DestinationPincode: "781001", WeightKg: 0.5},
		{Ref: "b", ServiceType: "priority", DestinationPincode: "110001", WeightKg: 101},
	})

	data, err := h.Handle(context.Background())
	require.NoError(t, err)

	var resp framework.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.True(t, resp.Processed)
	assert.Nil(t, resp.Error)

	require.Len(t, pub.callbacks, 1)
	cb := pub.callbacks[0]
	assert.Equal(t, "b-1", cb.BatchID)
	assert.Equal(t, "req-1", cb.RequestID)
	assert.Equal(t, model.CallbackStatusSuccess, cb.Status)
	require.NotNil(t, cb.Summary)
	assert.Equal(t, model.BatchSummary{Total: 2, Quoted: 1, Failed: 1, TotalAmount: 40}, *cb.Summary)
	require.Len(t, cb.Results, 2)
	assert.Equal(t, pricing.KindExceedsPriorityLimit, cb.Results[1].Error.Kind)
}

func TestQuoteBatchHandler_EmptyItemsSendsFailure(t *testing.T) {
	pub := &fakePublisher{}
	h := newHandler(t, newDeps(fakeRates{}, pub, 0), "b-2", nil)

	_, err := h.Handle(context.Background())
	require.Error(t, err)
	assert.False(t, errorutil.IsRetryable(err))

	require.Len(t, pub.callbacks, 1)
	assert.Equal(t, model.CallbackStatusFailed, pub.callbacks[0].Status)
	assert.Equal(t, "items is empty", pub.callbacks[0].Error)
}

func TestQuoteBatchHandler_TooManyItems(t *testing.T) {
	pub := &fakePublisher{}
	items := make([]model.QuoteBatchItem, 3)
	h := newHandler(t, newDeps(fakeRates{}, pub, 2), "b-3", items)

	_, err := h.Handle(context.Background())
	require.Error(t, err)
	assert.False(t, errorutil.IsRetryable(err))
	require.Len(t, pub.callbacks, 1)
	assert.Contains(t, pub.callbacks[0].Error, "too many items")
}

func TestQuoteBatchHandler_RetryableFailureSkipsCallback(t *testing.T) {
	pub := &fakePublisher{}
	h := newHandler(t, newDeps(fakeRates{err: errors.New("timeout")}, pub, 0), "b-4",
		[]model.QuoteBatchItem{{ServiceType: "priority", DestinationPincode: "781001", WeightKg: 1}})

	data, err := h.Handle(context.Background())
	require.Error(t, err)
	assert.True(t, errorutil.IsRetryable(err))
	assert.Empty(t, pub.callbacks)

	var resp framework.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	require.NotNil(t, resp.Error)
	assert.True(t, resp.Error.Retryable)
}

func TestQuoteBatchHandler_CallbackPublishErrorIsRetryable(t *testing.T) {
	pub := &fakePublisher{err: errors.New("lmstfy down")}
	h := newHandler(t, newDeps(fakeRates{}, pub, 0), "b-5",
		[]model.QuoteBatchItem{{ServiceType: "priority", DestinationPincode: "781001", WeightKg: 1}})

	_, err := h.Handle(context.Background())
	require.Error(t, err)
	assert.True(t, errorutil.IsRetryable(err))
}
