package types

// CreateShareResponse 生成分享令牌的结果.
// 重复调用返回已存在的令牌，Created 标识本次是否新生成.
type CreateShareResponse struct {
	Token   string `json:"token"`
	URL     string `json:"url"`
	Created bool   `json:"created"`
}

// SharedFileResponse 分享令牌解析结果，剥离了所有者信息.
type SharedFileResponse struct {
	File FileInfo `json:"file"`
}
