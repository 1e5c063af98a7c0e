package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/log"
)

// GetStats 返回当前请求方的文件库统计概览.
func GetStats(c *gin.Context) {
	l := log.Logger()

	svc := service.NewStatsService(c.Request.Context())

	resp, err := svc.Overview(c.Request.Context(), currentOwner(c))
	if err != nil {
		writeServiceError(c, l, err, "stats overview failed")

		return
	}

	c.JSON(http.StatusOK, resp)
}
