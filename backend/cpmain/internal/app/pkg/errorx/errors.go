package errorx

import (
	"errors"
	"net/http"
)

// 业务错误
var (
	ErrRateCardNotFound = errors.New("rate card not found")
	ErrBatchNotFound    = errors.New("quote batch not found")
	ErrEmptyBatch       = errors.New("quote batch has no items")
	ErrTooManyItems     = errors.New("quote batch has too many items")
	ErrInvalidRateTable = errors.New("invalid rate table")
)

// BusinessError 业务错误结构
type BusinessError struct {
	Code    int
	Message string
	Details []ErrorDetail
	cause   error
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Path string
	Info string
}

// Error 实现 error 接口
func (e *BusinessError) Error() string {
	return e.Message
}

// Unwrap 支持 errors.Is(err, errorx.ErrXxx)
func (e *BusinessError) Unwrap() error {
	return e.cause
}

// NewBusinessError 创建业务错误
func NewBusinessError(code int, message string) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
	}
}

// Wrap 以哨兵错误为原因创建业务错误
func Wrap(cause error, code int, message string, details ...ErrorDetail) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Details: details,
		cause:   cause,
	}
}

// InvalidRateTable 费率表校验失败
func InvalidRateTable(reason string) *BusinessError {
	return Wrap(ErrInvalidRateTable, http.StatusBadRequest, "Invalid rate table",
		ErrorDetail{Path: "table", Info: reason})
}
