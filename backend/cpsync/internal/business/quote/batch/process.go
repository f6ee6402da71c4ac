package batch

import (
	"context"
	"time"

	"cpq/backend/common/model"
	"cpq/backend/cpsync/internal/business"
	"cpq/backend/cpsync/internal/framework"
	"cpq/backend/cpsync/pkg/errorutil"
)

// QuoteBatchHandler 批量报价处理器
type QuoteBatchHandler struct {
	framework.BaseHandler

	deps     *business.Deps
	payload  *model.QuoteBatchBusinessData
	results  []model.QuoteItemResult
	resulter *BatchResulter
}

// NewQuoteBatchHandler 创建批量报价处理器
func NewQuoteBatchHandler(
	ctx context.Context,
	baseHandler *framework.BaseHandler,
	deps *business.Deps,
) (framework.BusinessHandler, error) {
	var payload model.QuoteBatchBusinessData
	if err := baseHandler.DecodePayload(&payload); err != nil {
		return nil, err
	}

	handler := &QuoteBatchHandler{
		BaseHandler: *baseHandler,
		deps:        deps,
		payload:     &payload,
		resulter:    NewBatchResulter(),
	}
	handler.SetResulter(handler.resulter)

	return handler, nil
}

// Handle 处理入口
func (h *QuoteBatchHandler) Handle(ctx context.Context) ([]byte, error) {
	preProcessor := framework.NewPreProcessor(
		framework.Step{Name: "PreProcess", Fn: h.PreProcess},
		framework.Step{Name: "Process", Fn: h.Process},
		framework.Step{Name: "PostProcess", Fn: h.PostProcess},
	)
	if err := preProcessor.Run(ctx); err != nil {
		h.notifyFailure(ctx, err)
		return h.WrapErrorResponse(ctx, err)
	}

	return h.WrapResponse(ctx, h.GetOutput())
}

// notifyFailure 不可重试的失败也要回调，避免批次一直停留在 QUOTING
// 可重试的失败等待重新投递，不回调
func (h *QuoteBatchHandler) notifyFailure(ctx context.Context, err error) {
	if errorutil.IsRetryable(err) {
		return
	}
	batchID := h.batchID()
	if batchID == "" {
		return
	}

	callback := &model.QuoteBatchCallback{
		RequestID:   h.GetMeta().RequestID,
		BatchID:     batchID,
		Status:      model.CallbackStatusFailed,
		Error:       errorutil.Wrap(err).Message,
		ProcessedAt: time.Now().Unix(),
	}
	if sendErr := h.deps.Callback.Send(ctx, callback); sendErr != nil {
		h.deps.Logger.Errorf(ctx, "[QuoteBatchHandler] failure callback not sent: %v", sendErr)
	}
}

// batchID 优先使用业务数据中的 batch_id，缺失时回退到 Job ID
func (h *QuoteBatchHandler) batchID() string {
	if h.payload != nil && h.payload.BatchID != "" {
		return h.payload.BatchID
	}
	if meta := h.GetMeta(); meta != nil {
		return meta.ID
	}
	return ""
}
