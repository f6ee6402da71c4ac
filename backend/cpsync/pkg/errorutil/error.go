package errorutil

import (
	"errors"
	"fmt"

	"cpq/backend/common/pricing"
)

// Error 错误结构（包含可重试标记）
type Error struct {
	Code       int    `json:"code"`
	Kind       string `json:"kind,omitempty"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	DevDetails string `json:"dev_details,omitempty"`
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return e.Message
}

// Retriable 创建可重试错误（网络错误、临时故障等）
func Retriable(message string) *Error {
	return &Error{
		Code:      500,
		Message:   message,
		Retryable: true,
	}
}

// RetriableWithDetails 创建可重试错误（带详细信息）
func RetriableWithDetails(message string, details string) *Error {
	e := Retriable(message)
	e.DevDetails = details
	return e
}

// NonRetriable 创建不可重试错误（参数错误、业务规则错误等）
func NonRetriable(message string) *Error {
	return &Error{
		Code:      400,
		Message:   message,
		Retryable: false,
	}
}

// NonRetriableWithDetails 创建不可重试错误（带详细信息）
func NonRetriableWithDetails(message string, details string) *Error {
	e := NonRetriable(message)
	e.DevDetails = details
	return e
}

// FromQuoteError 报价错误转换
// 费率表不可用 → 503 可重试（重新拉取费率表后重试），其余均为 400 不可重试
func FromQuoteError(qe *pricing.QuoteError) *Error {
	if qe == nil {
		return nil
	}
	e := &Error{
		Code:      400,
		Kind:      string(qe.Kind),
		Message:   qe.Message,
		Retryable: qe.Retryable(),
	}
	if qe.Retryable() {
		e.Code = 503
	}
	return e
}

// Wrap 包装错误（自动判断是否可重试）
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var qe *pricing.QuoteError
	if errors.As(err, &qe) {
		return FromQuoteError(qe)
	}

	// 默认为不可重试错误
	return &Error{
		Code:       500,
		Message:    err.Error(),
		Retryable:  false,
		DevDetails: fmt.Sprintf("%+v", err),
	}
}

// IsRetryable 错误链中是否存在可重试标记
func IsRetryable(err error) bool {
	e := Wrap(err)
	return e != nil && e.Retryable
}
