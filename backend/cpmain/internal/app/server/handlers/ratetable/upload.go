package ratetable

import (
	"github.com/gin-gonic/gin"

	"cpq/backend/cpmain/internal/app/domains/apimodel/request"
	"cpq/backend/cpmain/internal/app/domains/apimodel/response"
	"cpq/backend/cpmain/internal/app/pkg/ginx"
)

// Upload 上传新费率表，生成新版本并通知 worker 刷新
// PUT /api/v1/rate-table
func (h *RateTableHandler) Upload(c *gin.Context) {
	var req request.UploadRateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	card, err := h.rateCardService.Upload(c.Request.Context(), req.Table, req.Note, req.CreatedBy)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}

	c.Header(VersionHeader, card.Version)
	ginx.Success(c, response.FromRateCardEntity(card))
}
