package quote

import (
	"github.com/gin-gonic/gin"

	"cpq/backend/cpmain/internal/app/domains/apimodel/request"
	"cpq/backend/cpmain/internal/app/domains/apimodel/response"
	"cpq/backend/cpmain/internal/app/pkg/ginx"
)

// Create godoc
// @Summary      计算单笔报价
// @Description  按当前费率表计算运费，返回金额、计费重量和展示文案
// @Description  费率表未上传时返回 503（RATE_TABLE_UNAVAILABLE）
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        request body request.CreateQuoteRequest true "报价输入"
// @Success      200 {object} ginx.Response{data=response.QuoteResponse} "报价成功"
// @Failure      400 {object} ginx.Response "输入不合法"
// @Failure      503 {object} ginx.Response "费率表不可用"
// @Router       /quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	var req request.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	out, err := h.quoteService.Quote(c.Request.Context(), req.ToItem())
	if err != nil {
		ginx.HandleError(c, err)
		return
	}

	ginx.Success(c, response.FromOutcome(out))
}
