package dto

// DateLayout 请求与响应中日期字段的统一格式
const DateLayout = "2006-01-02"

// ── 通用简要响应 ──

// ShortResponse 列表短格式：仅 id 与名称
type ShortResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
