package framework

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cpq/backend/cpsync/pkg/errorutil"
)

// BaseHandler 抽象基类
// 提供 Job 解析、响应包装等基础设施方法，不包含业务流程控制
type BaseHandler struct {
	meta       *JobMeta        // Job 元信息
	rawData    []byte          // 原始 Job 数据（Lmstfy 消息原始 bytes）
	bizPayload json.RawMessage // 业务数据（payload.data.data 部分）
	output     interface{}     // 最终输出结果
	resulter   ResultCollector // 结果收集器（业务提供）
}

// Job 标准 Job 结构
type Job struct {
	Payload *JobPayload `json:"payload"`
}

// JobPayload Job 负载
type JobPayload struct {
	Data *JobPayloadData `json:"data"`
}

// JobPayloadData Job 数据
type JobPayloadData struct {
	RequestID  string          `json:"request_id"`
	ActionType string          `json:"action_type"`
	OrgID      string          `json:"org_id"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
}

// JobMeta Job 元信息
type JobMeta struct {
	RequestID  string `json:"request_id"`
	ActionType string `json:"action_type"`
	OrgID      string `json:"org_id"`
	ID         string `json:"id"`
}

// Response 标准响应结构
type Response struct {
	Error     *errorutil.Error `json:"error"`
	Result    interface{}      `json:"result"`
	Processed bool             `json:"processed"`
	Meta      *JobMeta         `json:"meta,omitempty"`
}

// ErrInvalidJob Job 结构不合法
var ErrInvalidJob = errors.New("invalid job structure")

// ParseJob 解析 lmstfy Job 标准结构
// 将解析后的数据存储到 BaseHandler 成员变量中
func (b *BaseHandler) ParseJob(ctx context.Context, rawData []byte) error {
	b.rawData = rawData

	var job Job
	if err := json.Unmarshal(rawData, &job); err != nil {
		return b.WrapError(err, "unmarshal job failed")
	}

	if job.Payload == nil || job.Payload.Data == nil {
		return ErrInvalidJob
	}

	data := job.Payload.Data
	if data.ActionType == "" {
		return fmt.Errorf("%w: action_type is empty", ErrInvalidJob)
	}
	b.meta = &JobMeta{
		RequestID:  data.RequestID,
		ActionType: data.ActionType,
		OrgID:      data.OrgID,
		ID:         data.ID,
	}
	b.bizPayload = data.Data

	return nil
}

// DecodePayload 解析业务数据
func (b *BaseHandler) DecodePayload(v interface{}) error {
	if len(b.bizPayload) == 0 {
		return errorutil.NonRetriable("job payload is empty")
	}
	if err := json.Unmarshal(b.bizPayload, v); err != nil {
		return errorutil.NonRetriableWithDetails("job payload is malformed", err.Error())
	}
	return nil
}

// WrapResponse 包装标准响应
func (b *BaseHandler) WrapResponse(ctx context.Context, output interface{}) ([]byte, error) {
	resp := &Response{
		Result:    output,
		Processed: true,
		Meta:      b.meta,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, b.WrapError(err, "marshal response failed")
	}

	return data, nil
}

// WrapErrorResponse 包装错误响应，原错误随响应一起返回
func (b *BaseHandler) WrapErrorResponse(ctx context.Context, err error) ([]byte, error) {
	resp := &Response{
		Error:     errorutil.Wrap(err),
		Processed: false,
		Meta:      b.meta,
	}

	data, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		return nil, b.WrapError(marshalErr, "marshal error response failed")
	}

	return data, err
}

// WrapError 统一包装错误
func (b *BaseHandler) WrapError(err error, msg string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return errors.New(msg)
}

// GetMeta 获取 meta
func (b *BaseHandler) GetMeta() *JobMeta {
	return b.meta
}

// SetMeta 覆盖 meta（补全 request_id 等）
func (b *BaseHandler) SetMeta(meta *JobMeta) {
	b.meta = meta
}

// GetRawData 获取原始数据
func (b *BaseHandler) GetRawData() []byte {
	return b.rawData
}

// SetOutput 设置输出
func (b *BaseHandler) SetOutput(output interface{}) {
	b.output = output
}

// GetOutput 获取输出
func (b *BaseHandler) GetOutput() interface{} {
	return b.output
}

// SetResulter 设置结果处理器
func (b *BaseHandler) SetResulter(resulter ResultCollector) {
	b.resulter = resulter
}

// GetResulter 获取结果处理器
func (b *BaseHandler) GetResulter() ResultCollector {
	return b.resulter
}
