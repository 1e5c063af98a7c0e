package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/dropvault/pkg/rule"
)

// UploadPolicy 用于测试 ValidateStruct.
type UploadPolicy struct {
	FileName string `rule:"required"`
	Size     int64  `rule:"gte=1"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对有效和无效结构体的验证.
func TestValidateStruct(t *testing.T) {
	// 有效结构体
	valid := UploadPolicy{FileName: "a.txt", Size: 10}

	err := rule.ValidateStruct(valid)
	if err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	// 无效结构体：缺少 FileName
	invalid1 := UploadPolicy{FileName: "", Size: 10}

	err = rule.ValidateStruct(invalid1)
	if err == nil {
		t.Error("Expected error for invalid struct (missing file name), got nil")
	}

	// 无效结构体：Size 为 0
	invalid2 := UploadPolicy{FileName: "a.txt", Size: 0}

	err = rule.ValidateStruct(invalid2)
	if err == nil {
		t.Error("Expected error for invalid struct (zero size), got nil")
	}
}

// TestValidateVar 测试 ValidateVar 对变量的验证.
func TestValidateVar(t *testing.T) {
	// 有效 email
	err := rule.ValidateVar("test@example.com", "required,email")
	if err != nil {
		t.Errorf("Expected no error for valid email, got %v", err)
	}

	// 无效 email
	err = rule.ValidateVar("invalid-email", "required,email")
	if err == nil {
		t.Error("Expected error for invalid email, got nil")
	}
}

// TestRegisterValidation 测试注册自定义验证.
func TestRegisterValidation(t *testing.T) {
	// 注册自定义验证：检查字符串是否不含路径分隔符
	err := rule.RegisterValidation("no_slash", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		for _, r := range str {
			if r == '/' || r == '\\' {
				return false
			}
		}

		return true
	})
	if err != nil {
		t.Fatalf("Failed to register validation: %v", err)
	}

	err = rule.ValidateVar("photo.png", "no_slash")
	if err != nil {
		t.Errorf("Expected no error for plain file name, got %v", err)
	}

	err = rule.ValidateVar("../etc/passwd", "no_slash")
	if err == nil {
		t.Error("Expected error for path-like name, got nil")
	}
}

// TestRegisterAlias 测试注册别名.
func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("share_token", "required,alphanum,min=16")

	err := rule.ValidateVar("AbC123xyzAbC123xyz", "share_token")
	if err != nil {
		t.Errorf("Expected no error for valid token, got %v", err)
	}

	err = rule.ValidateVar("short", "share_token")
	if err == nil {
		t.Error("Expected error for short token, got nil")
	}
}
