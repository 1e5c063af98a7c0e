package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/types"
	"github.com/yeisme/dropvault/pkg/log"
)

// Register 用户注册，成功时直接签发访问令牌.
func Register(c *gin.Context) {
	l := log.Logger()

	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	svc := service.NewAuthService(c.Request.Context())

	resp, err := svc.Register(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, l, err, "register failed")

		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login 校验凭证并签发访问令牌.
func Login(c *gin.Context) {
	l := log.Logger()

	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	svc := service.NewAuthService(c.Request.Context())

	resp, err := svc.Login(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, l, err, "login failed")

		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me 返回当前令牌对应的用户信息.
func Me(c *gin.Context) {
	l := log.Logger()

	owner := currentOwner(c)
	if owner == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

		return
	}

	svc := service.NewAuthService(c.Request.Context())

	info, err := svc.CurrentUser(c.Request.Context(), owner)
	if err != nil {
		writeServiceError(c, l, err, "load current user failed")

		return
	}

	c.JSON(http.StatusOK, info)
}
