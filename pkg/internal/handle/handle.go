// Package handle 提供请求处理器的实现，用于处理HTTP请求.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/dropvault/pkg/internal/service"
)

// ownerContextKey 认证中间件写入 gin context 的请求方标识键.
// 认证关闭时键不存在，currentOwner 返回空串，所有请求落入匿名公共池.
const ownerContextKey = "owner"

func DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"message": "Not Implemented"})
}

// currentOwner 取当前请求方标识.
func currentOwner(c *gin.Context) string {
	return c.GetString(ownerContextKey)
}

// writeServiceError 将服务层错误映射为 HTTP 状态码.
func writeServiceError(c *gin.Context, l *zerolog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, service.ErrNotArchive):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "file is not a supported archive"})
	default:
		l.Error().Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
