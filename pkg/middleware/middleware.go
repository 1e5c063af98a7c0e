// Package middleware 提供中间件
package middleware

import (
	"crypto/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid"
)

// requestIDHeader 请求标识头，缺失时生成 ULID 回填.
const requestIDHeader = "X-Request-Id"

// RequestIDMiddleware 为每个请求分配 ULID 标识并写回响应头.
// 熵源直接用 crypto/rand，请求间并发安全.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
		}

		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
