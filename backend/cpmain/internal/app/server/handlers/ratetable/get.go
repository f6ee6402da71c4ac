package ratetable

import (
	"github.com/gin-gonic/gin"

	"cpq/backend/cpmain/internal/app/domains/entity/etratecard"
	"cpq/backend/cpmain/internal/app/pkg/ginx"
)

// Current godoc
// @Summary      获取当前费率表
// @Description  data 为费率表原文，cpsync 与 quotectl 从此接口拉取
// @Tags         rate-table
// @Produce      json
// @Success      200 {object} ginx.Response "当前费率表"
// @Failure      404 {object} ginx.Response "尚未上传费率表"
// @Router       /rate-table [get]
func (h *RateTableHandler) Current(c *gin.Context) {
	card, err := h.rateCardService.Current(c.Request.Context())
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	writeTable(c, card)
}

// Get 按版本号获取费率表
// GET /api/v1/rate-cards/:version
func (h *RateTableHandler) Get(c *gin.Context) {
	card, err := h.rateCardService.Get(c.Request.Context(), c.Param("version"))
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	writeTable(c, card)
}

func writeTable(c *gin.Context, card *etratecard.RateCard) {
	c.Header(VersionHeader, card.Version)
	ginx.Success(c, card.Raw)
}
