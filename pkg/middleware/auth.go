package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/configs"
	"github.com/yeisme/dropvault/pkg/internal/service"
)

// ownerContextKey 与 handle 包约定的请求方标识键.
const ownerContextKey = "owner"

// AuthMiddleware JWT Bearer 认证.
//   - 携带合法令牌的请求在 gin context 中写入请求方标识
//   - 配置的跳过路径（健康检查、分享解析、注册登录）不做强制校验
//   - Enabled=false 时不写入标识，所有请求落入匿名公共文件池.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !conf.Enabled {
			c.Next()
			return
		}

		// 无论路径是否跳过，先尝试解析令牌，便于可选认证的端点取到身份
		token := bearerToken(c)
		if token != "" {
			svc := service.NewAuthService(c.Request.Context())
			if claims, err := svc.ParseAccessToken(token); err == nil {
				c.Set(ownerContextKey, claims.UserID)
			}
		}

		// 本地调试后门，生产配置保持关闭
		if conf.DevAllowQuery && c.GetString(ownerContextKey) == "" {
			if u := c.Query("user"); u != "" {
				c.Set(ownerContextKey, u)
			}
		}

		if isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		if c.GetString(ownerContextKey) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		c.Next()
	}
}

// bearerToken 从 Authorization 头提取 Bearer 令牌.
func bearerToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if auth == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
}

func isSkippedPath(path string, skips []string) bool {
	// 站点根路径承载 ?share= 分享解析，始终公开
	if path == "" || path == "/" {
		return true
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
