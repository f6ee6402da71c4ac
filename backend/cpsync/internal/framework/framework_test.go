package framework

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/goleak"

	"cpq/backend/common/tracing/tracingtest"
	"cpq/backend/cpsync/pkg/lmstfyx"
	"cpq/backend/cpsync/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSource 内存消息源
type fakeSource struct {
	mu      sync.Mutex
	pending []*Message
	acked   []string
	errs    int // 前 errs 次 Consume 返回错误
}

func (f *fakeSource) Consume(queue string, timeout, ttr time.Duration) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs > 0 {
		f.errs--
		return nil, errors.New("connection reset")
	}
	if len(f.pending) == 0 {
		// 模拟长轮询超时
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
		f.mu.Lock()
		return nil, nil
	}
	msg := f.pending[0]
	f.pending = f.pending[1:]
	return msg, nil
}

func (f *fakeSource) Ack(queue, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, jobID)
	return nil
}

func (f *fakeSource) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

func (f *fakeSource) remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func TestSubscriberProcessor_AckByAction(t *testing.T) {
	source := &fakeSource{
		errs: 1,
		pending: []*Message{
			{ID: "ok", Data: []byte("success")},
			{ID: "retry", Data: []byte("release")},
			{ID: "bad", Data: []byte("bury")},
		},
	}

	var mu sync.Mutex
	seen := map[string]string{}
	proc := func(ctx context.Context, job *client.Job) *lmstfyx.JobResp {
		mu.Lock()
		seen[job.ID] = job.Queue
		mu.Unlock()
		_, hasWorker := logger.WorkerID(ctx)
		assert.True(t, hasWorker)
		switch string(job.Data) {
		case "release":
			return lmstfyx.Release(nil)
		case "bury":
			return lmstfyx.Bury([]byte("malformed"))
		}
		return lmstfyx.Success(nil)
	}

	inputChan := make(chan *Message, 4)
	sub := NewSubscriber(&SubscriberConfig{QueueName: "quote_batch", Concurrency: 1, ErrorBackoff: time.Millisecond}, source, logger.NewNop())
	processor := NewProcessor(&ProcessorConfig{Concurrency: 2, Timeout: time.Second}, proc, source, logger.NewNop())

	ctx := context.Background()
	processor.Start(ctx, inputChan)
	sub.Start(ctx, inputChan)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, time.Millisecond)
	assert.Zero(t, source.remaining())

	sub.Stop()
	sub.Wait()
	processor.SignalShutdown()
	processor.SignalShutdown()
	processor.Wait()

	assert.ElementsMatch(t, []string{"ok", "bad"}, source.ackedIDs())
	assert.Equal(t, map[string]string{"ok": "quote_batch", "retry": "quote_batch", "bad": "quote_batch"}, seen)
}

func TestProcessor_DrainsBufferedMessages(t *testing.T) {
	source := &fakeSource{}
	inputChan := make(chan *Message, 3)
	for _, id := range []string{"a", "b", "c"} {
		inputChan <- &Message{ID: id, Queue: "q"}
	}

	processor := NewProcessor(&ProcessorConfig{Concurrency: 1, Timeout: time.Second},
		func(ctx context.Context, job *client.Job) *lmstfyx.JobResp { return lmstfyx.Success(nil) },
		source, logger.NewNop())

	// 先发退出信号再启动，处理协程只能走 Drain 分支或正常分支，两者都会清空缓冲
	processor.SignalShutdown()
	processor.Start(context.Background(), inputChan)
	processor.Wait()

	assert.ElementsMatch(t, []string{"a", "b", "c"}, source.ackedIDs())
}

func TestProcessor_NilResponseIsReleased(t *testing.T) {
	source := &fakeSource{}
	processor := NewProcessor(&ProcessorConfig{Concurrency: 1, Timeout: time.Second},
		func(ctx context.Context, job *client.Job) *lmstfyx.JobResp { return nil },
		source, logger.NewNop())

	processor.process(context.Background(), &Message{ID: "x", Queue: "q"}, 0)
	assert.Empty(t, source.ackedIDs())
}

func TestProcessor_SpanPerMessage(t *testing.T) {
	spans := tracingtest.Install(t)
	source := &fakeSource{}

	var seen trace.SpanContext
	processor := NewProcessor(&ProcessorConfig{Concurrency: 1, Timeout: time.Second},
		func(ctx context.Context, job *client.Job) *lmstfyx.JobResp {
			seen = trace.SpanContextFromContext(ctx)
			if job.ID == "bad" {
				return lmstfyx.Bury([]byte("malformed"))
			}
			return lmstfyx.Success(nil)
		},
		source, logger.NewNop())

	processor.process(context.Background(), &Message{ID: "ok", Queue: "quote_batch"}, 1)
	processor.process(context.Background(), &Message{ID: "bad", Queue: "quote_batch"}, 1)

	got := spans.GetSpans()
	require.Len(t, got, 2)
	assert.Equal(t, "framework.Processor.process", got[0].Name)
	assert.Equal(t, trace.SpanKindConsumer, got[0].SpanKind)
	assert.Equal(t, codes.Unset, got[0].Status.Code)
	assert.Equal(t, codes.Error, got[1].Status.Code)
	assert.Equal(t, got[1].SpanContext.TraceID(), seen.TraceID())
	assert.Equal(t, []string{"ok", "bad"}, source.ackedIDs())
}

func TestPreProcessor(t *testing.T) {
	var order []string
	step := func(name string, err error) Step {
		return Step{Name: name, Fn: func(ctx context.Context) error {
			order = append(order, name)
			return err
		}}
	}

	boom := errors.New("boom")
	err := NewPreProcessor(step("pre", nil), step("process", boom), step("post", nil)).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "process: boom")
	assert.Equal(t, []string{"pre", "process"}, order)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	order = nil
	err = NewPreProcessor(step("pre", nil)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, order)
}

func TestBaseHandler_ParseJob(t *testing.T) {
	var b BaseHandler
	raw := []byte(`{"payload":{"data":{"request_id":"r1","action_type":"quote_batch","org_id":"0","id":"b1","data":{"batch_id":"b1"}}}}`)
	require.NoError(t, b.ParseJob(context.Background(), raw))
	assert.Equal(t, &JobMeta{RequestID: "r1", ActionType: "quote_batch", OrgID: "0", ID: "b1"}, b.GetMeta())

	var payload struct {
		BatchID string `json:"batch_id"`
	}
	require.NoError(t, b.DecodePayload(&payload))
	assert.Equal(t, "b1", payload.BatchID)

	assert.ErrorIs(t, (&BaseHandler{}).ParseJob(context.Background(), []byte(`{"payload":{}}`)), ErrInvalidJob)
	assert.ErrorIs(t, (&BaseHandler{}).ParseJob(context.Background(), []byte(`{"payload":{"data":{"id":"x"}}}`)), ErrInvalidJob)
	assert.Error(t, (&BaseHandler{}).ParseJob(context.Background(), []byte(`not json`)))
	assert.Error(t, (&BaseHandler{}).DecodePayload(&payload))
}

func TestBaseHandler_WrapErrorResponse(t *testing.T) {
	var b BaseHandler
	cause := errors.New("publish failed")
	data, err := b.WrapErrorResponse(context.Background(), cause)
	assert.Same(t, cause, err)
	assert.JSONEq(t, `{"error":{"code":500,"message":"publish failed","retryable":false,"dev_details":"publish failed"},"result":null,"processed":false}`, string(data))
}
