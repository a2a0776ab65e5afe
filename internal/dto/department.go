package dto

// ── 院系模块 DTO ──

// CreateDepartmentRequest 创建院系请求
type CreateDepartmentRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// UpdateDepartmentRequest 更新院系请求
type UpdateDepartmentRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// DepartmentResponse 院系信息
type DepartmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ── 专业方向 DTO ──

// CreateCourseRequest 创建专业方向请求
type CreateCourseRequest struct {
	Name         string `json:"name"          binding:"required,min=1,max=255"`
	Description  string `json:"description"   binding:"omitempty,max=2000"`
	DepartmentID string `json:"department_id" binding:"required,uuid"`
}

// UpdateCourseRequest 更新专业方向请求
type UpdateCourseRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=255"`
	Description  *string `json:"description"   binding:"omitempty,max=2000"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
}

// CourseResponse 专业方向信息
type CourseResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Department  *ShortResponse `json:"department,omitempty"`
}
