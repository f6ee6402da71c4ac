package ratetable

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"cpq/backend/cpmain/internal/app/domains/apimodel/response"
	"cpq/backend/cpmain/internal/app/pkg/ginx"
)

// List 费率表版本列表
// GET /api/v1/rate-cards?page=1&limit=20
func (h *RateTableHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	cards, p, err := h.rateCardService.List(c.Request.Context(), page, limit)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromRateCardList(cards, p))
}
