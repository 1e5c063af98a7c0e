package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/types"
	"github.com/yeisme/dropvault/pkg/log"
)

// UploadFiles 处理 multipart 批量上传，表单字段名为 files.
// 单个文件失败不影响其余文件，逐项返回结果.
func UploadFiles(c *gin.Context) {
	l := log.Logger()

	form, err := c.MultipartForm()
	if err != nil {
		l.Warn().Err(err).Msg("invalid multipart form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})

		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})

		return
	}

	inputs := make([]service.UploadInput, 0, len(headers))
	opened := make([]interface{ Close() error }, 0, len(headers))

	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, h := range headers {
		f, openErr := h.Open()
		if openErr != nil {
			l.Warn().Err(openErr).Str("file", h.Filename).Msg("open multipart part failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file part: " + h.Filename})

			return
		}

		opened = append(opened, f)
		inputs = append(inputs, service.UploadInput{
			FileName:    h.Filename,
			Size:        h.Size,
			ContentType: h.Header.Get("Content-Type"),
			Reader:      f,
		})
	}

	svc := service.NewFileService(c.Request.Context())
	resp := svc.Upload(c.Request.Context(), currentOwner(c), inputs)

	status := http.StatusOK
	if resp.Stored == 0 && resp.Failed > 0 {
		status = http.StatusBadRequest
	}

	c.JSON(status, resp)
}

// ListFiles 返回当前请求方的文件快照，按上传时间倒序.
func ListFiles(c *gin.Context) {
	l := log.Logger()

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.List(c.Request.Context(), currentOwner(c))
	if err != nil {
		writeServiceError(c, l, err, "list files failed")

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteFile 删除单个文件，id 不存在或不属于请求方时返回 404.
func DeleteFile(c *gin.Context) {
	l := log.Logger()

	id, ok := pathID(c)
	if !ok {
		return
	}

	svc := service.NewFileService(c.Request.Context())

	if err := svc.Delete(c.Request.Context(), currentOwner(c), id); err != nil {
		writeServiceError(c, l, err, "delete file failed")

		return
	}

	c.JSON(http.StatusOK, types.DeleteFileResponse{ID: id, Deleted: true})
}

// BatchDeleteFiles 并发删除一组文件，逐项返回结果.
func BatchDeleteFiles(c *gin.Context) {
	l := log.Logger()

	var req types.BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid batch delete request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	svc := service.NewFileService(c.Request.Context())
	resp := svc.BatchDelete(c.Request.Context(), currentOwner(c), req.IDs)

	c.JSON(http.StatusOK, resp)
}

// ClearFiles 删除当前请求方的全部文件.
func ClearFiles(c *gin.Context) {
	l := log.Logger()

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.ClearAll(c.Request.Context(), currentOwner(c))
	if err != nil {
		writeServiceError(c, l, err, "clear files failed")

		return
	}

	c.JSON(http.StatusOK, resp)
}

// pathID 解析 :id 路径参数，非法时写出 400 并返回 false.
func pathID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})

		return 0, false
	}

	return uint(id), true
}
