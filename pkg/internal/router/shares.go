package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/handle"
)

// RegisterSharesRoutes 注册文件分享相关路由.分享路由不经过认证，令牌即凭证.
func RegisterSharesRoutes(g *gin.RouterGroup) {
	sharesRoutes := g.Group("/shares")
	{
		// 解析分享令牌为文件元数据
		sharesRoutes.GET("/:token", handle.ResolveShare)
		// 匿名下载分享文件
		sharesRoutes.GET("/:token/download", handle.DownloadShared)
		// 分享归档的内部条目
		sharesRoutes.GET("/:token/entries", handle.SharedEntries)
	}
}
