package types

import "time"

// RegisterRequest 用户注册请求.
type RegisterRequest struct {
	Email       string `binding:"required,email"        json:"email"`
	Password    string `binding:"required,min=8,max=72" json:"password"`
	DisplayName string `binding:"max=255"               json:"display_name"`
}

// LoginRequest 用户登录请求.
type LoginRequest struct {
	Email    string `binding:"required,email" json:"email"`
	Password string `binding:"required"       json:"password"`
}

// UserInfo 用户公开信息.
type UserInfo struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthResponse 登录/注册成功响应.
type AuthResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int      `json:"expires_in"` // 秒
	User      UserInfo `json:"user"`
}
