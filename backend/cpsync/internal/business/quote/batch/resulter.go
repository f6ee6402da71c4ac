package batch

import (
	"context"
	"fmt"

	"cpq/backend/common/model"
)

// BatchResulter 批次结果处理器
type BatchResulter struct {
	dstData *BatchOutput
}

// NewBatchResulter 创建批次结果处理器
func NewBatchResulter() *BatchResulter {
	return &BatchResulter{}
}

// Set 设置业务结果数据并汇总
func (r *BatchResulter) Set(ctx context.Context, data interface{}) error {
	resultData, ok := data.(*BatchResultData)
	if !ok {
		return fmt.Errorf("unexpected result type %T", data)
	}

	r.dstData = &BatchOutput{
		BatchID:     resultData.BatchID,
		Summary:     model.Summarize(resultData.Results),
		Results:     resultData.Results,
		ProcessedAt: resultData.ProcessedAt,
	}
	return nil
}

// Get 获取格式化后的输出
func (r *BatchResulter) Get(ctx context.Context) interface{} {
	return r.dstData
}

// Output 获取类型化输出，未 Set 时为 nil
func (r *BatchResulter) Output() *BatchOutput {
	return r.dstData
}
