package batch

import (
	"context"
	"fmt"
	"time"

	"cpq/backend/common/model"
	"cpq/backend/cpsync/pkg/errorutil"
)

// PreProcess 预处理
func (h *QuoteBatchHandler) PreProcess(ctx context.Context) error {
	if h.batchID() == "" {
		return errorutil.NonRetriable("batch_id is required")
	}
	if len(h.payload.Items) == 0 {
		return errorutil.NonRetriable("items is empty")
	}
	if h.deps.MaxItems > 0 && len(h.payload.Items) > h.deps.MaxItems {
		return errorutil.NonRetriable(fmt.Sprintf("too many items: %d > %d", len(h.payload.Items), h.deps.MaxItems))
	}
	return nil
}

// Process 核心处理
func (h *QuoteBatchHandler) Process(ctx context.Context) error {
	results, err := h.deps.Quoter.QuoteAll(ctx, h.payload.Items)
	if err != nil {
		return err
	}
	h.results = results
	return nil
}

// PostProcess 后处理：汇总结果并回调
func (h *QuoteBatchHandler) PostProcess(ctx context.Context) error {
	err := h.GetResulter().Set(ctx, &BatchResultData{
		BatchID:     h.batchID(),
		Results:     h.results,
		ProcessedAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	output := h.resulter.Output()
	h.SetOutput(output)

	summary := output.Summary
	return h.deps.Callback.Send(ctx, &model.QuoteBatchCallback{
		RequestID:   h.GetMeta().RequestID,
		BatchID:     output.BatchID,
		Status:      model.CallbackStatusSuccess,
		Results:     output.Results,
		Summary:     &summary,
		ProcessedAt: output.ProcessedAt,
	})
}
