package dto

// ── 学期模块 DTO ──

// CreateSemesterRequest 创建学期请求；日期格式 "2021-02-08"
type CreateSemesterRequest struct {
	StartOn       string `json:"start_on"         binding:"required,date"`
	TestWeekOn    string `json:"test_week_on"     binding:"required,date"`
	TestWeekEndOn string `json:"test_week_end_on" binding:"required,date"`
	SessionOn     string `json:"session_on"       binding:"required,date"`
	SessionEndOn  string `json:"session_end_on"   binding:"required,date"`
}

// UpdateSemesterRequest 更新学期请求（乐观锁：需携带读取时的 version）
type UpdateSemesterRequest struct {
	StartOn       *string `json:"start_on"         binding:"omitempty,date"`
	TestWeekOn    *string `json:"test_week_on"     binding:"omitempty,date"`
	TestWeekEndOn *string `json:"test_week_end_on" binding:"omitempty,date"`
	SessionOn     *string `json:"session_on"       binding:"omitempty,date"`
	SessionEndOn  *string `json:"session_end_on"   binding:"omitempty,date"`
	Version       int     `json:"version"          binding:"required,min=1"`
}

// SemesterResponse 学期信息响应
type SemesterResponse struct {
	ID            string `json:"id"`
	StartOn       string `json:"start_on"`
	TestWeekOn    string `json:"test_week_on"`
	TestWeekEndOn string `json:"test_week_end_on"`
	SessionOn     string `json:"session_on"`
	SessionEndOn  string `json:"session_end_on"`
	Version       int    `json:"version"`
}

// ── 节假日 DTO ──

// HolidayRequest 创建/更新节假日请求
type HolidayRequest struct {
	Date   string `json:"date"   binding:"required,date"`
	Reason string `json:"reason" binding:"required,max=100"`
}

// HolidayResponse 节假日响应
type HolidayResponse struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// ── 课时 DTO ──

// LessonTimingRequest 创建/更新课时请求；时间格式 "08:30"
type LessonTimingRequest struct {
	Start string `json:"start" binding:"required,clock"`
	End   string `json:"end"   binding:"required,clock"`
}

// LessonTimingResponse 课时响应
type LessonTimingResponse struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}
