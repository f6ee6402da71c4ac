package batch

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cpq/backend/cpmain/internal/app/domains/apimodel/request"
	"cpq/backend/cpmain/internal/app/domains/apimodel/response"
	"cpq/backend/cpmain/internal/app/domains/entity/etbatch"
	"cpq/backend/cpmain/internal/app/pkg/ginx"
	"cpq/backend/cpmain/internal/app/pkg/idgen"
	"cpq/backend/cpmain/internal/app/pkg/logger"
)

// Create 创建批量报价
// POST /api/v1/quote-batches?wait=10
// 等待期内出结果返回 200，否则返回 3001 和轮询地址
func (h *BatchHandler) Create(c *gin.Context) {
	wait := time.Duration(-1)
	if waitStr := c.Query("wait"); waitStr != "" {
		if w, err := strconv.Atoi(waitStr); err == nil && w >= 0 {
			wait = time.Duration(w) * time.Second
		}
	}

	var req request.CreateQuoteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	ctx := c.Request.Context()
	requestID := logger.RequestID(ctx)
	if requestID == "" {
		requestID = idgen.NewRequestID()
	}

	batch, err := h.batchService.Create(ctx, requestID, req.ToItems(), wait)
	if err != nil {
		ginx.HandleError(c, err)
		return
	}

	if batch.Status == etbatch.BatchStatusQuoting {
		pollURL := fmt.Sprintf("/api/v1/quote-batches/%s", batch.ID)
		ginx.Processing(c, batch.ID, pollURL)
		return
	}
	ginx.Success(c, response.FromBatchEntity(batch))
}
