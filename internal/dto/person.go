package dto

// ── 人员模块 DTO ──

// CreatePersonRequest 创建人员请求
type CreatePersonRequest struct {
	FirstName  string `json:"first_name"  binding:"required,max=100"`
	MiddleName string `json:"middle_name" binding:"omitempty,max=100"`
	LastName   string `json:"last_name"   binding:"required,max=100"`
}

// UpdatePersonRequest 更新人员请求
type UpdatePersonRequest struct {
	FirstName  *string `json:"first_name"  binding:"omitempty,min=1,max=100"`
	MiddleName *string `json:"middle_name" binding:"omitempty,max=100"`
	LastName   *string `json:"last_name"   binding:"omitempty,min=1,max=100"`
}

// PersonResponse 人员信息
type PersonResponse struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	FullName   string `json:"full_name"`
}

// PersonDetailResponse 人员详情：附带其学生、教师身份
type PersonDetailResponse struct {
	PersonResponse
	StudentIDs []string `json:"student_ids"`
	TeacherIDs []string `json:"teacher_ids"`
}

// ── 学生 DTO ──

// CreateStudentRequest 创建学生身份请求
type CreateStudentRequest struct {
	PersonID     string  `json:"person_id"      binding:"required,uuid"`
	ExpelledInID *string `json:"expelled_in_id" binding:"omitempty,uuid"`
}

// UpdateStudentRequest 更新学生请求；expelled_in_id 为空字符串表示撤销退学
type UpdateStudentRequest struct {
	ExpelledInID *string `json:"expelled_in_id"`
}

// StudentResponse 学生信息
type StudentResponse struct {
	ID           string          `json:"id"`
	Person       *PersonResponse `json:"person,omitempty"`
	ExpelledInID *string         `json:"expelled_in_id"`
	Expelled     bool            `json:"expelled"`
}

// StudentBrief 名单中的学生
type StudentBrief struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id"`
	Name     string `json:"name"`
	Expelled bool   `json:"expelled"`
}

// CompleteAssignmentRequest 记录已完成作业请求
type CompleteAssignmentRequest struct {
	AssignmentID string `json:"assignment_id" binding:"required,uuid"`
	CompletedOn  string `json:"completed_on"  binding:"required,date"`
}

// CompletedAssignmentResponse 已完成作业
type CompletedAssignmentResponse struct {
	ID           string `json:"id"`
	AssignmentID string `json:"assignment_id"`
	Assignment   string `json:"assignment"`
	CompletedOn  string `json:"completed_on"`
}

// ── 教师 DTO ──

// CreateTeacherRequest 创建教师身份请求
type CreateTeacherRequest struct {
	PersonID     string `json:"person_id"     binding:"required,uuid"`
	DepartmentID string `json:"department_id" binding:"required,uuid"`
}

// UpdateTeacherRequest 更新教师请求
type UpdateTeacherRequest struct {
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
}

// TeacherResponse 教师信息
type TeacherResponse struct {
	ID         string          `json:"id"`
	Person     *PersonResponse `json:"person,omitempty"`
	Department *ShortResponse  `json:"department,omitempty"`
}

// TeacherDetailResponse 教师详情：所授科目与所教班级
type TeacherDetailResponse struct {
	TeacherResponse
	Disciplines []ShortResponse `json:"disciplines"`
	Groups      []GroupRef      `json:"groups"`
}
