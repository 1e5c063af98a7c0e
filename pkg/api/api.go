// Package api 定义对外的 HTTP 接口，并负责路由注册.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/router"
)

// RegisterRoutes 注册全部 HTTP 路由到传入的 gin 引擎.
func RegisterRoutes(e *gin.Engine) *gin.Engine {
	return router.Register(e)
}
