package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaushikmurali01/semi-portal-sub000/pkg/response"
)

// BodyLimit 请求体大小限制
//   - 声明的 Content-Length 超限时直接返回 413
//   - 未声明长度的请求由 MaxBytesReader 在读取时截断，handler 绑定失败后统一改写为 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			tooLarge(c)
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

		c.Next()

		if c.Writer.Written() {
			return
		}
		for _, e := range c.Errors {
			var maxErr *http.MaxBytesError
			if errors.As(e.Err, &maxErr) {
				tooLarge(c)
				return
			}
		}
	}
}

func tooLarge(c *gin.Context) {
	response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
}
