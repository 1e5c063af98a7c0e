package configs

import "github.com/spf13/viper"

const (
	// DefaultShareTokenLength 分享令牌长度；低于16个字符视为可猜测.
	DefaultShareTokenLength = 22
)

// ShareConfig 分享链接配置.
type ShareConfig struct {
	// PublicBaseURL 分享页面与公开下载地址的基地址（如 https://files.example.com）.
	// 为空时回退到 S3 端点直连地址.
	PublicBaseURL string `mapstructure:"public_base_url"`
	TokenLength   int    `mapstructure:"token_length"    rule:"min=16,max=64"`
}

func (c *ShareConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("share.public_base_url", "")
	v.SetDefault("share.token_length", DefaultShareTokenLength)
}
