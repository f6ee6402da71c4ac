package quote

import (
	"github.com/gin-gonic/gin"

	"cpq/backend/cpmain/internal/app/domains/apimodel/response"
	"cpq/backend/cpmain/internal/app/pkg/ginx"
)

// Route 查询邮编所属路线
// GET /api/v1/routes/:pincode
func (h *QuoteHandler) Route(c *gin.Context) {
	info, err := h.quoteService.Route(c.Param("pincode"))
	if err != nil {
		ginx.HandleError(c, err)
		return
	}
	ginx.Success(c, response.FromRouteInfo(info))
}
