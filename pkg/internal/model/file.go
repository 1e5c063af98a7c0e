package model

import (
	"time"
)

// FileRecord 文件元数据模型，每行对应对象存储中的一个对象.
//
// 删除为硬删除：对象先删、记录后删，行消失即文件不可见.
// 上传顺序相反：对象先写、记录后插，插入失败会留下孤儿对象，由巡检任务观测.
type FileRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Owner 上传者标识（用户 ID），匿名模式下为空字符串，所有行共享全局池
	Owner string `gorm:"size:255;index" json:"owner"`
	// StorageKey 对象键（S3 key），格式 {unix毫秒}_{12位随机hex}.{扩展名}，全局唯一
	StorageKey string `gorm:"size:512;uniqueIndex" json:"storage_key"`
	// OriginalName 用户上传时的原始文件名，仅作展示，不参与寻址
	OriginalName string `gorm:"size:512;index" json:"original_name"`
	Size         int64  `gorm:"index"          json:"size"`
	ContentType  string `gorm:"size:255"       json:"content_type"`
	ETag         string `gorm:"size:64"        json:"etag"`
	Bucket       string `gorm:"size:255"       json:"bucket"`
	// UploadDate 上传完成时间，列表按此字段倒序
	UploadDate time.Time `gorm:"index" json:"upload_date"`
	// DownloadURL 可直接访问的下载地址（公共端点 + 对象键）
	DownloadURL string `gorm:"size:1024" json:"download_url"`
	// ShareToken 分享令牌，上传入库时生成；除非删除文件否则不变.
	// 唯一性由 128 位随机熵加发放前的碰撞检查保证，不用唯一索引以免空串互相冲突
	ShareToken string `gorm:"size:64;index" json:"share_token,omitempty"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// TableName 指定表名.
func (FileRecord) TableName() string {
	return "file_records"
}

// HasShare 是否已生成分享令牌.
func (f *FileRecord) HasShare() bool {
	return f.ShareToken != ""
}
