package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeisme/dropvault/pkg/configs"
	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/storage/db"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

// AuthService 用户注册、登录与令牌校验.
// auth.enabled=false 时路由层绕过该服务，所有请求匿名共享全局文件池.
type AuthService struct {
	dbClient  *db.Client
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService 构造 AuthService.
func NewAuthService(c context.Context) *AuthService {
	cfg := configs.GetConfig().Auth

	return &AuthService{
		dbClient:  ctxPkg.GetDBClient(c),
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  cfg.TokenTTL(),
	}
}

// AccessClaims JWT 负载，uid 即 User.ID.
type AccessClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Register 创建用户并签发令牌，邮箱唯一.
func (as *AuthService) Register(ctx context.Context, req *types.RegisterRequest) (*types.AuthResponse, error) {
	var count int64
	if err := as.dbClient.GetDB().WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", req.Email).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}

	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
	}

	if err := as.dbClient.GetDB().WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return as.buildAuthResponse(&user)
}

// Login 校验凭证并签发令牌.凭证错误统一返回 ErrUnauthorized，不区分邮箱与密码.
func (as *AuthService) Login(ctx context.Context, req *types.LoginRequest) (*types.AuthResponse, error) {
	user, err := as.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}

	return as.buildAuthResponse(user)
}

// CurrentUser 按用户 ID 返回公开信息.
func (as *AuthService) CurrentUser(ctx context.Context, userID string) (*types.UserInfo, error) {
	var user model.User

	res := as.dbClient.GetDB().WithContext(ctx).
		Where("id = ?", userID).
		Limit(1).
		Find(&user)
	if res.Error != nil {
		return nil, fmt.Errorf("query user: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	info := toUserInfo(&user)

	return &info, nil
}

// ParseAccessToken 解析并校验 JWT，返回 claims.
func (as *AuthService) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	if tokenString == "" {
		return nil, ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return as.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || claims.UserID == "" {
		return nil, ErrUnauthorized
	}

	return claims, nil
}

// findByEmail 按邮箱取用户，不存在时同样返回 ErrUnauthorized 避免枚举.
func (as *AuthService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User

	res := as.dbClient.GetDB().WithContext(ctx).
		Where("email = ?", email).
		Limit(1).
		Find(&user)
	if res.Error != nil {
		return nil, fmt.Errorf("query user: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, ErrUnauthorized
	}

	return &user, nil
}

// buildAuthResponse 签发令牌并组装响应.
func (as *AuthService) buildAuthResponse(user *model.User) (*types.AuthResponse, error) {
	token, expiresIn, err := as.newAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &types.AuthResponse{
		Token:     token,
		ExpiresIn: expiresIn,
		User:      toUserInfo(user),
	}, nil
}

// newAccessToken 签发 HS256 JWT.
func (as *AuthService) newAccessToken(userID string) (string, int, error) {
	now := time.Now()

	claims := AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(as.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(as.jwtSecret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}

	return signed, int(as.tokenTTL.Seconds()), nil
}

// hashPassword bcrypt 哈希，密码不超过 72 字节由请求校验保证.
func hashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password required")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(bytes), nil
}

// toUserInfo 转换为公开 DTO.
func toUserInfo(user *model.User) types.UserInfo {
	return types.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}
