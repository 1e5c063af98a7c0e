package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/metrics"
)

// PrometheusMiddleware Prometheus监控中间件.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		metrics.ActiveConnections.Inc()

		c.Next()

		metrics.ActiveConnections.Dec()

		// 用路由模板而非原始路径，避免 :id/:token 撑爆标签基数
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RequestCounter.WithLabelValues(method, path).Inc()

		duration := time.Since(start).Seconds()
		metrics.RequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
