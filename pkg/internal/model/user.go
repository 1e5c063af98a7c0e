package model

import (
	"time"
)

// User 用户模型，启用认证时作为文件归属的主体.
type User struct {
	// ID 使用 UUID 字符串主键，注册时生成
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Email        string `gorm:"size:255;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:128" json:"-"`
	DisplayName  string `gorm:"size:255" json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName 指定表名.
func (User) TableName() string {
	return "users"
}
