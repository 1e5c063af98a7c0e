package types

// ArchiveEntry 压缩包内的单个条目.
type ArchiveEntry struct {
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	IsDir bool   `json:"is_dir,omitempty"`
}

// ArchiveEntriesResponse 压缩包内容列表.
type ArchiveEntriesResponse struct {
	// Format 识别出的归档格式：zip、tar、tar.gz、gzip
	Format  string         `json:"format"`
	Entries []ArchiveEntry `json:"entries"`
	Total   int            `json:"total"`
	// Truncated 条目数超过上限时为 true
	Truncated bool `json:"truncated,omitempty"`
}
