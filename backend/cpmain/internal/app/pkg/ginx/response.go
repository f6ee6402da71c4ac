package ginx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"cpq/backend/common/model"
	"cpq/backend/common/pricing"
	"cpq/backend/cpmain/internal/app/pkg/errorx"
)

// Response 统一响应结构（与 worker 拉取费率表时解析的结构一致）
type Response = model.Response

// ErrorDetail 错误详情
type ErrorDetail = model.ErrorDetail

// ProcessingData Smart Wait 超时返回的数据
type ProcessingData struct {
	BatchID string `json:"batch_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	PollURL string `json:"poll_url" example:"/api/v1/quote-batches/550e8400-e29b-41d4-a716-446655440000"`
}

// Success 成功响应（200）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Meta: model.MetaInfo{
			Code:    model.CodeOK,
			Type:    model.ResponseTypeOK,
			Message: "OK",
		},
		Data: data,
	})
}

// Error 错误响应（400/500）
func Error(c *gin.Context, httpCode int, typ string, message string) {
	ErrorWithDetails(c, httpCode, typ, message, nil)
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpCode int, typ string, message string, details []ErrorDetail) {
	c.JSON(httpCode, Response{
		Meta: model.MetaInfo{
			Code:    httpCode,
			Type:    typ,
			Message: message,
			Details: details,
		},
	})
}

// Processing 处理中响应（3001），用于 Smart Wait 超时场景
func Processing(c *gin.Context, batchID string, pollURL string) {
	c.JSON(http.StatusOK, Response{
		Meta: model.MetaInfo{
			Code:    model.CodeProcessing,
			Type:    model.ResponseTypeProcessing,
			Message: "Batch is being quoted, please poll for results",
		},
		Data: ProcessingData{
			BatchID: batchID,
			PollURL: pollURL,
		},
	})
}

// BadRequest 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, model.ResponseTypeValidationError, message)
}

// BadRequestWithValidation 400 错误（带验证详情）
func BadRequestWithValidation(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]ErrorDetail, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, ErrorDetail{
				Path: fieldErr.Field(),
				Info: getValidationErrorMessage(fieldErr),
			})
		}
		ErrorWithDetails(c, http.StatusBadRequest, model.ResponseTypeValidationError, "Validation failed", details)
		return
	}

	BadRequest(c, err.Error())
}

// QuoteError 报价错误：费率表不可用 503，其余 400
func QuoteError(c *gin.Context, qe *pricing.QuoteError) {
	code := http.StatusBadRequest
	typ := model.ResponseTypeQuoteError
	if qe.Retryable() {
		code = http.StatusServiceUnavailable
		typ = model.ResponseTypeUnavailable
	}

	var details []ErrorDetail
	if qe.Field != "" {
		details = []ErrorDetail{{Path: qe.Field, Info: string(qe.Kind)}}
	}
	ErrorWithDetails(c, code, typ, qe.Message, details)
}

// NotFound 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, model.ResponseTypeNotFound, message)
}

// InternalError 500 错误
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, model.ResponseTypeInternalError, message)
}

// HandleError 按错误类型选择响应
// 未识别的错误统一返回 500，不透出内部细节
func HandleError(c *gin.Context, err error) {
	var qe *pricing.QuoteError
	if errors.As(err, &qe) {
		QuoteError(c, qe)
		return
	}

	var be *errorx.BusinessError
	if errors.As(err, &be) {
		details := make([]ErrorDetail, 0, len(be.Details))
		for _, d := range be.Details {
			details = append(details, ErrorDetail{Path: d.Path, Info: d.Info})
		}
		typ := model.ResponseTypeValidationError
		if be.Code == http.StatusNotFound {
			typ = model.ResponseTypeNotFound
		}
		ErrorWithDetails(c, be.Code, typ, be.Message, details)
		return
	}

	switch {
	case errors.Is(err, errorx.ErrBatchNotFound), errors.Is(err, errorx.ErrRateCardNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, errorx.ErrEmptyBatch), errors.Is(err, errorx.ErrTooManyItems):
		BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		InternalError(c, "internal server error")
	}
}

// getValidationErrorMessage 根据验证错误类型返回友好的错误消息
func getValidationErrorMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "len":
		return fieldErr.Field() + " must be exactly " + fieldErr.Param() + " characters"
	case "gt":
		return fieldErr.Field() + " must be greater than " + fieldErr.Param()
	case "min":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "max":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	case "oneof":
		return fieldErr.Field() + " must be one of: " + fieldErr.Param()
	default:
		return fieldErr.Field() + " is invalid"
	}
}
