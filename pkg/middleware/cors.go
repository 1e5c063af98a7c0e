package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/configs"
)

// CORSMiddleware CORS中间件.浏览器内嵌分享组件需要跨域访问 API.
// 未配置白名单时放行所有来源.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowHeaders = append(config.AllowHeaders, "Authorization")
	config.AllowFiles = true

	if len(cfg.AllowedOrigins) > 0 && !cfg.Debug {
		config.AllowOrigins = cfg.AllowedOrigins
	} else {
		config.AllowAllOrigins = true
	}

	return cors.New(config)
}
