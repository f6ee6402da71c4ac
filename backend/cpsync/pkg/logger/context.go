package logger

import "context"

type ctxKey int

const (
	keyTraceID ctxKey = iota
	keyWorkerID
	keyActionType
	keyBatchID
)

// WithTraceID 注入 trace_id（即 request_id）
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, keyTraceID, traceID)
}

// TraceID 读取 trace_id
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(keyTraceID).(string)
	return v
}

// WithWorkerID 注入处理协程编号
func WithWorkerID(ctx context.Context, workerID int) context.Context {
	return context.WithValue(ctx, keyWorkerID, workerID)
}

// WorkerID 读取处理协程编号
func WorkerID(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(keyWorkerID).(int)
	return v, ok
}

// WithActionType 注入 action_type
func WithActionType(ctx context.Context, actionType string) context.Context {
	return context.WithValue(ctx, keyActionType, actionType)
}

// ActionType 读取 action_type
func ActionType(ctx context.Context) string {
	v, _ := ctx.Value(keyActionType).(string)
	return v
}

// WithBatchID 注入批次 ID
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, keyBatchID, batchID)
}

// BatchID 读取批次 ID
func BatchID(ctx context.Context) string {
	v, _ := ctx.Value(keyBatchID).(string)
	return v
}
