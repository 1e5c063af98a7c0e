package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/handle"
)

// RegisterFilesRoutes 注册文件操作相关路由.
func RegisterFilesRoutes(g *gin.RouterGroup) {
	filesRoutes := g.Group("/files")
	{
		// 上传（multipart，支持批量）
		filesRoutes.POST("", handle.UploadFiles)
		// 列表快照
		filesRoutes.GET("", handle.ListFiles)
		// 清空当前请求方的全部文件
		filesRoutes.DELETE("", handle.ClearFiles)

		// 批量删除
		filesRoutes.POST("/batch/delete", handle.BatchDeleteFiles)

		// 单个文件操作
		singleGroup := filesRoutes.Group("/:id")
		{
			// 删除文件
			singleGroup.DELETE("", handle.DeleteFile)
			// 直传下载
			singleGroup.GET("/download", handle.DownloadFile)
			// 获取限时预签名访问 URL
			singleGroup.POST("/url", handle.GetFileURL)
			// 归档内部条目
			singleGroup.GET("/entries", handle.FileEntries)
			// 发放分享令牌
			singleGroup.POST("/share", handle.CreateShare)
		}
	}
}
