package types

import "time"

// FileInfo 文件元数据的对外表示，列表、上传响应与分享解析共用.
type FileInfo struct {
	ID           uint      `json:"id"`
	OriginalName string    `json:"original_name"`
	StorageKey   string    `json:"storage_key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	UploadDate   time.Time `json:"upload_date"`
	DownloadURL  string    `json:"download_url,omitempty"`
	// ShareToken 仅在文件属于请求者时返回
	ShareToken string `json:"share_token,omitempty"`
	// ShareURL 基于 PublicBaseURL 拼出的完整分享链接
	ShareURL string `json:"share_url,omitempty"`
}

// UploadFileResponse 单个文件上传结果.
type UploadFileResponse struct {
	File    *FileInfo `json:"file,omitempty"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

// UploadFilesResponse 批量上传结果.
type UploadFilesResponse struct {
	Results []UploadFileResponse `json:"results"`
	Stored  int                  `json:"stored"`
	Failed  int                  `json:"failed"`
}

// ListFilesResponse 文件列表结果，按上传时间倒序.快照语义，无分页.
type ListFilesResponse struct {
	Files []FileInfo `json:"files"`
	Total int64      `json:"total"`
}

// DeleteFileResponse 单个文件删除结果.
type DeleteFileResponse struct {
	ID      uint   `json:"id"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// BatchDeleteRequest 批量删除请求.
type BatchDeleteRequest struct {
	IDs []uint `binding:"required,min=1" json:"ids"`
}

// BatchDeleteResponse 批量删除结果，部分失败不会中断其余删除.
type BatchDeleteResponse struct {
	Results []DeleteFileResponse `json:"results"`
	Deleted int                  `json:"deleted"`
	Failed  int                  `json:"failed"`
}

// PresignedURLResponse 限时下载链接.
type PresignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"` // 秒
}
