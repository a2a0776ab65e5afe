package dto

// ── 科目 DTO ──

// CreateDisciplineRequest 创建科目请求
type CreateDisciplineRequest struct {
	Name        string   `json:"name"        binding:"required,min=1,max=255"`
	Description string   `json:"description" binding:"omitempty,max=2000"`
	TeacherIDs  []string `json:"teacher_ids" binding:"omitempty,dive,uuid"`
}

// UpdateDisciplineRequest 更新科目请求；teacher_ids 非空时整体替换
type UpdateDisciplineRequest struct {
	Name        *string   `json:"name"        binding:"omitempty,min=1,max=255"`
	Description *string   `json:"description" binding:"omitempty,max=2000"`
	TeacherIDs  *[]string `json:"teacher_ids" binding:"omitempty,dive,uuid"`
}

// DisciplineResponse 科目详情
type DisciplineResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Teachers    []ShortResponse `json:"teachers"`
}

// ── 教室 DTO ──

// CreateClassroomRequest 创建教室请求
type CreateClassroomRequest struct {
	Name          string `json:"name"           binding:"required,min=1,max=100"`
	ClassroomType int    `json:"classroom_type" binding:"classroom_type"`
	Comments      string `json:"comments"       binding:"omitempty,max=2000"`
}

// UpdateClassroomRequest 更新教室请求
type UpdateClassroomRequest struct {
	Name          *string `json:"name"           binding:"omitempty,min=1,max=100"`
	ClassroomType *int    `json:"classroom_type" binding:"omitempty,classroom_type"`
	Comments      *string `json:"comments"       binding:"omitempty,max=2000"`
}

// ClassroomResponse 教室详情
type ClassroomResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ClassroomType int    `json:"classroom_type"`
	Comments      string `json:"comments"`
}

// ── 作业 DTO ──

// CreateAssignmentRequest 创建作业请求
type CreateAssignmentRequest struct {
	DisciplineID string `json:"discipline_id" binding:"required,uuid"`
	Name         string `json:"name"          binding:"required,min=1,max=255"`
	Description  string `json:"description"   binding:"omitempty,max=2000"`
}

// UpdateAssignmentRequest 更新作业请求
type UpdateAssignmentRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// AssignmentResponse 作业信息
type AssignmentResponse struct {
	ID           string `json:"id"`
	DisciplineID string `json:"discipline_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
}
