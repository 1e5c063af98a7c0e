package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/configs"
	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/log"
)

// CreateShare 为文件发放分享令牌，重复调用幂等返回已有令牌.
func CreateShare(c *gin.Context) {
	l := log.Logger()

	id, ok := pathID(c)
	if !ok {
		return
	}

	svc := service.NewShareService(c.Request.Context())

	resp, err := svc.CreateShare(c.Request.Context(), currentOwner(c), id)
	if err != nil {
		writeServiceError(c, l, err, "create share failed")

		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}

	c.JSON(status, resp)
}

// ResolveShare 解析分享令牌为文件元数据.令牌即能力凭证，不做身份校验.
func ResolveShare(c *gin.Context) {
	l := log.Logger()

	svc := service.NewShareService(c.Request.Context())

	resp, err := svc.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeServiceError(c, l, err, "resolve share failed")

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadShared 通过分享令牌直传下载.
func DownloadShared(c *gin.Context) {
	l := log.Logger()

	svc := service.NewShareService(c.Request.Context())

	rd, info, err := svc.OpenShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeServiceError(c, l, err, "open shared file failed")

		return
	}
	defer rd.Close()

	streamBlob(c, rd, info.OriginalName, info.ContentType, info.Size)
}

// SharedEntries 通过分享令牌列出归档文件的内部条目.
func SharedEntries(c *gin.Context) {
	l := log.Logger()

	svc := service.NewArchiveService(c.Request.Context())

	resp, err := svc.EntriesByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeServiceError(c, l, err, "list shared archive entries failed")

		return
	}

	c.JSON(http.StatusOK, resp)
}

// RootShare 处理站点根路径：带 share 查询参数时解析分享，否则返回服务信息.
// 分享链接形如 {public_base_url}/?share={token}.
func RootShare(c *gin.Context) {
	token := c.Query("share")
	if token == "" {
		c.JSON(http.StatusOK, gin.H{
			"service": "dropvault",
			"version": configs.AppVersion,
		})

		return
	}

	l := log.Logger()
	svc := service.NewShareService(c.Request.Context())

	resp, err := svc.Resolve(c.Request.Context(), token)
	if err != nil {
		writeServiceError(c, l, err, "resolve share failed")

		return
	}

	c.JSON(http.StatusOK, resp)
}
