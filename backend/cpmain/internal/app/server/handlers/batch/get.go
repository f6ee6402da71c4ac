package batch

import (
	"github.com/gin-gonic/gin"

	"cpq/backend/cpmain/internal/app/domains/apimodel/response"
	"cpq/backend/cpmain/internal/app/pkg/ginx"
)

// Get godoc
// @Summary      获取批量报价
// @Description  根据批次ID获取批次状态和逐条结果
// @Description
// @Description  使用场景：
// @Description  - 创建批次返回 code=3001 时，通过此接口轮询结果
// @Tags         quote-batches
// @Produce      json
// @Param        id path string true "批次ID（UUID）"
// @Success      200 {object} ginx.Response{data=response.QuoteBatchResponse} "查询成功"
// @Failure      404 {object} ginx.Response "批次不存在"
// @Failure      500 {object} ginx.Response "服务器错误"
// @Router       /quote-batches/{id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	batchID := c.Param("id")
	if batchID == "" {
		ginx.BadRequest(c, "batch id required")
		return
	}

	batch, err := h.batchService.Get(c.Request.Context(), batchID)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}

	ginx.Success(c, response.FromBatchEntity(batch))
}
