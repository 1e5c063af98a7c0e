package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
// 事件发布是尽力而为的：MQ 不可用或发布失败不影响用户操作本身.
type EventsConfig struct {
	Enabled bool             `mapstructure:"enabled"` // 总开关
	File    FileEventsConfig `mapstructure:"file"`
}

// FileEventsConfig 针对文件领域的事件开关。
type FileEventsConfig struct {
	Stored        bool `mapstructure:"stored"`
	Deleted       bool `mapstructure:"deleted"`
	ShareResolved bool `mapstructure:"share_resolved"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	v.SetDefault("events.file.stored", true)
	v.SetDefault("events.file.deleted", true)
	// 分享解析事件量可能很大，默认关闭
	v.SetDefault("events.file.share_resolved", false)
}
