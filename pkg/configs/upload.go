package configs

import "github.com/spf13/viper"

const (
	// DefaultUploadMaxSizeBytes 默认单文件大小上限（100MB）.
	DefaultUploadMaxSizeBytes = 100 * 1024 * 1024
)

// UploadConfig 上传策略配置.
type UploadConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes" rule:"min=1"`
	// DeniedTypes 声明的 MIME 类型黑名单；命中即拒绝，不访问任何后端.
	DeniedTypes []string `mapstructure:"denied_types"`
}

// IsTypeDenied 判断声明的 MIME 类型是否在黑名单中.
func (c *UploadConfig) IsTypeDenied(contentType string) bool {
	for _, t := range c.DeniedTypes {
		if t == contentType {
			return true
		}
	}

	return false
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.max_size_bytes", DefaultUploadMaxSizeBytes)
	v.SetDefault("upload.denied_types", []string{
		"application/x-executable",
		"application/x-msdownload",
		"application/x-msi",
		"application/x-msdos-program",
	})
}
