package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"cpq/backend/common/model"
	"cpq/backend/cpmain/internal/app/infra/mq/lmstfy"
	"cpq/backend/cpmain/internal/app/pkg/errorx"
	"cpq/backend/cpmain/internal/app/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memQueue struct {
	mu    sync.Mutex
	msgs  []*lmstfy.Message
	acked []string
}

func (q *memQueue) Consume(ctx context.Context, _ string, _, _ int) (*lmstfy.Message, error) {
	q.mu.Lock()
	if len(q.msgs) > 0 {
		msg := q.msgs[0]
		q.msgs = q.msgs[1:]
		q.mu.Unlock()
		return msg, nil
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return nil, nil
	}
}

func (q *memQueue) Ack(_ context.Context, _ string, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, jobID)
	return nil
}

func (q *memQueue) ackedIDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.acked...)
}

type stubHandler struct {
	mu   sync.Mutex
	errs map[string]error
	seen []string
}

func (h *stubHandler) HandleCallback(_ context.Context, cb *model.QuoteBatchCallback) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, cb.BatchID)
	return h.errs[cb.BatchID]
}

func message(t *testing.T, jobID string, cb model.QuoteBatchCallback) *lmstfy.Message {
	t.Helper()
	data, err := json.Marshal(cb)
	require.NoError(t, err)
	return &lmstfy.Message{JobID: jobID, Data: data}
}

func TestCallbackConsumer_AckSemantics(t *testing.T) {
	q := &memQueue{msgs: []*lmstfy.Message{
		message(t, "job-ok", model.QuoteBatchCallback{BatchID: "b-ok", Status: model.CallbackStatusSuccess}),
		message(t, "job-retry", model.QuoteBatchCallback{BatchID: "b-retry", Status: model.CallbackStatusSuccess}),
		message(t, "job-gone", model.QuoteBatchCallback{BatchID: "b-gone", Status: model.CallbackStatusFailed}),
		{JobID: "job-garbage", Data: json.RawMessage(`{"status":"SUCCESS"}`)},
	}}
	h := &stubHandler{errs: map[string]error{
		"b-retry": errors.New("mysql: deadlock"),
		"b-gone":  errorx.ErrBatchNotFound,
	}}

	c := NewCallbackConsumer(q, h, &Config{QueueName: "quote_batch_callback", Timeout: 1, TTR: 30, PollInterval: time.Millisecond}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(q.ackedIDs()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.ElementsMatch(t, []string{"job-ok", "job-gone", "job-garbage"}, q.ackedIDs())
	assert.Equal(t, []string{"b-ok", "b-retry", "b-gone"}, h.seen)
}

func TestParseMessage(t *testing.T) {
	_, err := parseMessage(json.RawMessage(`not json`))
	assert.Error(t, err)

	_, err = parseMessage(json.RawMessage(`{"batch_id":"b-1"}`))
	assert.EqualError(t, err, "status is required")

	cb, err := parseMessage(json.RawMessage(`{"batch_id":"b-1","status":"FAILED","error":"boom"}`))
	require.NoError(t, err)
	assert.Equal(t, "boom", cb.Error)
}
