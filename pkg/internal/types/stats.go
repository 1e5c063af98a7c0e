package types

// StatsSummary 文件库总体统计（当前用户可见范围）.
type StatsSummary struct {
	TotalFiles  int64 `json:"total_files"`
	TotalSize   int64 `json:"total_size"`
	SharedFiles int64 `json:"shared_files"`
}

// StatsTypeItem 按 MIME 一级类型聚合.
type StatsTypeItem struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
	Size  int64  `json:"size"`
}

// StatsResponse 统计接口响应.
type StatsResponse struct {
	Summary StatsSummary    `json:"summary"`
	ByType  []StatsTypeItem `json:"by_type,omitempty"`
}
