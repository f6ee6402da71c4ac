package pricing

import (
	"fmt"
	"strings"
)

// ErrorKind 报价错误类型
type ErrorKind string

const (
	KindRateTableUnavailable ErrorKind = "RATE_TABLE_UNAVAILABLE"
	KindInvalidDestination   ErrorKind = "INVALID_DESTINATION"
	KindInvalidWeight        ErrorKind = "INVALID_WEIGHT"
	KindExceedsPriorityLimit ErrorKind = "EXCEEDS_PRIORITY_LIMIT"
	KindModeUnavailable      ErrorKind = "MODE_UNAVAILABLE"
	KindInvalidOption        ErrorKind = "INVALID_OPTION"
)

// QuoteError 报价校验失败（可恢复，直接展示给用户）
type QuoteError struct {
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field,omitempty"` // 出错的输入字段
	Message string    `json:"message"`
}

// Error 实现 error 接口
func (e *QuoteError) Error() string {
	return e.Message
}

// Is 按 Kind 比较，支持 errors.Is(err, pricing.ErrModeUnavailable)
func (e *QuoteError) Is(target error) bool {
	t, ok := target.(*QuoteError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable 仅费率表不可用时可重试（调用方需先重新拉取费率表）
func (e *QuoteError) Retryable() bool {
	return e.Kind == KindRateTableUnavailable
}

// 各类错误的哨兵值，仅用于 errors.Is 比较
var (
	ErrRateTableUnavailable = &QuoteError{Kind: KindRateTableUnavailable}
	ErrInvalidDestination   = &QuoteError{Kind: KindInvalidDestination}
	ErrInvalidWeight        = &QuoteError{Kind: KindInvalidWeight}
	ErrExceedsPriorityLimit = &QuoteError{Kind: KindExceedsPriorityLimit}
	ErrModeUnavailable      = &QuoteError{Kind: KindModeUnavailable}
	ErrInvalidOption        = &QuoteError{Kind: KindInvalidOption}
)

// RateTableUnavailable 费率表不可用（拉取失败或尚未上传）
func RateTableUnavailable() *QuoteError {
	return newRateTableUnavailable()
}

func newRateTableUnavailable() *QuoteError {
	return &QuoteError{
		Kind:    KindRateTableUnavailable,
		Message: "Pricing data is not loaded yet. Please refresh the rate table and try again.",
	}
}

func newInvalidDestination(length int) *QuoteError {
	return &QuoteError{
		Kind:    KindInvalidDestination,
		Field:   "destination_pincode",
		Message: fmt.Sprintf("Please enter a valid %d-digit destination pincode.", length),
	}
}

func newInvalidWeight() *QuoteError {
	return &QuoteError{
		Kind:    KindInvalidWeight,
		Field:   "weight_kg",
		Message: "Please enter a valid weight greater than 0 kg.",
	}
}

func newExceedsPriorityLimit(limitKg float64) *QuoteError {
	return &QuoteError{
		Kind:  KindExceedsPriorityLimit,
		Field: "weight_kg",
		Message: fmt.Sprintf("Priority shipments above %g kg cannot be quoted online. "+
			"Please escalate to the operations desk for a manual quote.", limitKg),
	}
}

func newModeUnavailable(mode Mode, consignment ConsignmentType) *QuoteError {
	label := strings.ToUpper(string(mode))
	msg := fmt.Sprintf("%s pricing is not available.", label)
	if consignment != "" {
		msg = fmt.Sprintf("%s pricing is not available for %s consignments.", label, consignmentLabel(consignment))
	}
	return &QuoteError{
		Kind:    KindModeUnavailable,
		Field:   "mode",
		Message: msg,
	}
}

func newInvalidOption(field, value string) *QuoteError {
	return &QuoteError{
		Kind:    KindInvalidOption,
		Field:   field,
		Message: fmt.Sprintf("unsupported %s: %q", field, value),
	}
}
