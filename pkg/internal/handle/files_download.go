package handle

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/log"
)

// DownloadFile 直传下载当前请求方拥有的文件.
func DownloadFile(c *gin.Context) {
	l := log.Logger()

	id, ok := pathID(c)
	if !ok {
		return
	}

	svc := service.NewFileService(c.Request.Context())

	rd, rec, err := svc.OpenFile(c.Request.Context(), currentOwner(c), id)
	if err != nil {
		writeServiceError(c, l, err, "open file failed")

		return
	}
	defer rd.Close()

	streamBlob(c, rd, rec.OriginalName, rec.ContentType, rec.Size)
}

// GetFileURL 为文件生成限时预签名下载链接，expires 查询参数为秒.
func GetFileURL(c *gin.Context) {
	l := log.Logger()

	id, ok := pathID(c)
	if !ok {
		return
	}

	var expiry time.Duration

	if raw := c.Query("expires"); raw != "" {
		secs, parseErr := strconv.Atoi(raw)
		if parseErr != nil || secs <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires value"})

			return
		}

		expiry = time.Duration(secs) * time.Second
	}

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.PresignedGetURL(c.Request.Context(), currentOwner(c), id, expiry)
	if err != nil {
		writeServiceError(c, l, err, "presign url failed")

		return
	}

	c.JSON(http.StatusOK, resp)
}

// FileEntries 列出归档文件（zip/tar/tar.gz/gz）的内部条目.
func FileEntries(c *gin.Context) {
	l := log.Logger()

	id, ok := pathID(c)
	if !ok {
		return
	}

	svc := service.NewArchiveService(c.Request.Context())

	resp, err := svc.Entries(c.Request.Context(), currentOwner(c), id)
	if err != nil {
		writeServiceError(c, l, err, "list archive entries failed")

		return
	}

	c.JSON(http.StatusOK, resp)
}

// streamBlob 以附件形式写出对象流.
func streamBlob(c *gin.Context, rd io.Reader, name, contentType string, size int64) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	if size > 0 {
		c.DataFromReader(http.StatusOK, size, contentType, rd, nil)

		return
	}

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rd)
}
