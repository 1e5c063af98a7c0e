package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 文件生命周期领域 --------------------------

// ObjectRef 标识对象在对象存储中的位置与基础元数据.
type ObjectRef struct {
	Bucket      string `json:"bucket"`
	ObjectKey   string `json:"object_key"`
	ETag        string `json:"etag,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// FileStoredPayload 文件已写入对象存储且元数据已落库.
type FileStoredPayload struct {
	Object ObjectRef `json:"object"`
	// FileID 数据库记录主键.
	FileID uint `json:"file_id"`
	// Owner 上传者标识，匿名模式下为空.
	Owner    string `json:"owner,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// FileDeletedPayload 文件的对象与元数据均已删除.
type FileDeletedPayload struct {
	Object ObjectRef `json:"object"`
	FileID uint      `json:"file_id"`
	Owner  string    `json:"owner,omitempty"`
}

// -------------------------- 分享链接领域 --------------------------

// ShareResolvedPayload 分享令牌被成功解析.
type ShareResolvedPayload struct {
	Object ObjectRef `json:"object"`
	FileID uint      `json:"file_id"`
	// Token 被解析的分享令牌.
	Token string `json:"token"`
	// CacheHit 是否命中 KV 缓存.
	CacheHit bool `json:"cache_hit,omitempty"`
}

// -------------------------- 巡检领域 --------------------------

// OrphanFoundPayload 巡检发现只有对象、没有数据库记录的孤儿文件.
type OrphanFoundPayload struct {
	Object ObjectRef `json:"object"`
	// FoundAt 巡检发现时间.
	FoundAt time.Time `json:"found_at"`
}
