package model

// Response 统一响应结构（cpmain 对外接口与内部拉取共用）
type Response struct {
	Meta MetaInfo    `json:"meta"`
	Data interface{} `json:"data,omitempty"`
}

// MetaInfo 响应元信息
type MetaInfo struct {
	Code    int           `json:"code"`
	Type    string        `json:"type,omitempty"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Path string `json:"path"`
	Info string `json:"info"`
}

// 响应码
const (
	CodeOK         = 200
	CodeProcessing = 3001 // Smart Wait 超时，需轮询
)

// 响应类型常量
const (
	ResponseTypeOK              = "OK"
	ResponseTypeValidationError = "ValidationError"
	ResponseTypeQuoteError      = "QuoteError"
	ResponseTypeNotFound        = "NotFound"
	ResponseTypeUnavailable     = "Unavailable"
	ResponseTypeInternalError   = "InternalError"
	ResponseTypeProcessing      = "Processing"
)
