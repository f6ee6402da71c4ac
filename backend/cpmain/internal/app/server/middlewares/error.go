package middlewares

import (
	"github.com/gin-gonic/gin"

	"cpq/backend/cpmain/internal/app/pkg/ginx"
	"cpq/backend/cpmain/internal/app/pkg/logger"
)

// ErrorHandler 统一错误处理中间件
// 记录 handler 通过 c.Error 挂载的错误，未写响应时补 500
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		for _, e := range c.Errors {
			log.ErrorContext(c.Request.Context(), "Request failed",
				"path", c.FullPath(),
				"error", e.Err,
			)
		}
		if !c.Writer.Written() {
			ginx.InternalError(c, "internal server error")
		}
	}
}

// Recovery 捕获 panic，返回统一 500 响应
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.ErrorContext(c.Request.Context(), "Panic recovered",
					"path", c.Request.URL.Path,
					"panic", r,
				)
				c.Abort()
				if !c.Writer.Written() {
					ginx.InternalError(c, "internal server error")
				}
			}
		}()
		c.Next()
	}
}
