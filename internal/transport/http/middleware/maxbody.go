package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	resp "haiku-api/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小；超限时 handler 读 body 会拿到 *http.MaxBytesError
func MaxBodyBytes(n int64) gin.HandlerFunc {
	if n <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
