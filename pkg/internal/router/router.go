// Package router 管理路由配置，用于设置HTTP服务的路由规则.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/handle"
)

// Register 将全部业务路由绑定到 gin 引擎.
// API 统一挂在 /api/v1 下；站点根路径处理 ?share= 分享链接.
func Register(e *gin.Engine) *gin.Engine {
	e.GET("/", handle.RootShare)

	v1 := e.Group("/api/v1")
	{
		RegisterFilesRoutes(v1)
		RegisterSharesRoutes(v1)
		RegisterAuthRoutes(v1)
		RegisterStatsRoutes(v1)
		RegisterHealthCheckRoute(v1)
		RegisterSchedulerRoutes(v1)
	}

	return e
}
