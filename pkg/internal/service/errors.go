package service

import "errors"

// 服务层哨兵错误，handler 据此映射 HTTP 状态码.
var (
	// ErrNotFound 记录或分享令牌不存在.
	ErrNotFound = errors.New("record not found")
	// ErrValidation 请求在任何后端调用前被拒绝.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized 凭证缺失或无效.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmailTaken 注册邮箱已存在.
	ErrEmailTaken = errors.New("email already registered")
	// ErrNotArchive 文件不是可识别的归档格式.
	ErrNotArchive = errors.New("not an archive")
)
