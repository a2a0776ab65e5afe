package dto

// ── 班级模块 DTO ──

// SubgroupInput 子组内容；用于创建状态、新增子组以及整体替换子组
type SubgroupInput struct {
	Name          string   `json:"name"           binding:"required,min=1,max=100"`
	Primary       bool     `json:"primary"`
	StudentIDs    []string `json:"student_ids"    binding:"omitempty,dive,uuid"`
	TeacherIDs    []string `json:"teacher_ids"    binding:"omitempty,dive,uuid"`
	DisciplineIDs []string `json:"discipline_ids" binding:"omitempty,dive,uuid"`
}

// CreateGroupStateRequest 创建学期状态请求：状态与子组在同一事务内创建
type CreateGroupStateRequest struct {
	SemesterID   string          `json:"semester_id"   binding:"required,uuid"`
	Name         string          `json:"name"          binding:"required,min=1,max=100"`
	PraepostorID *string         `json:"praepostor_id" binding:"omitempty,uuid"`
	Subgroups    []SubgroupInput `json:"subgroups"     binding:"required,min=1,dive"`
}

// CreateGroupRequest 创建班级请求；可同时创建首个学期状态
type CreateGroupRequest struct {
	CourseID     string                   `json:"course_id"     binding:"required,uuid"`
	InitialState *CreateGroupStateRequest `json:"initial_state"`
}

// GroupAsOfQuery 按日期查询当时生效的状态
type GroupAsOfQuery struct {
	Date string `form:"date" binding:"required,date"`
}

// GroupRef 班级引用；name 为最新状态名，零状态时为 null
type GroupRef struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
}

// GroupShortResponse 班级列表项
type GroupShortResponse struct {
	ID            string            `json:"id"`
	Name          *string           `json:"name"`
	Course        *ShortResponse    `json:"course,omitempty"`
	LastSemester  *SemesterResponse `json:"last_semester"`
	FirstSemester string            `json:"first_semester"`
}

// SubgroupRosterResponse 一个主子组的名单
type SubgroupRosterResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Students []StudentBrief `json:"students"`
}

// SubgroupResponse 子组详情
type SubgroupResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Primary     bool            `json:"primary"`
	Students    []StudentBrief  `json:"students"`
	Teachers    []ShortResponse `json:"teachers"`
	Disciplines []ShortResponse `json:"disciplines"`
}

// GroupStateResponse 班级学期状态详情
// roster_kind 为 single/empty 时给出 students；为 multi 时给出 primary_subgroups
type GroupStateResponse struct {
	ID               string                    `json:"id"`
	GroupID          string                    `json:"group_id"`
	Name             string                    `json:"name"`
	Semester         *SemesterResponse         `json:"semester"`
	Course           *ShortResponse            `json:"course,omitempty"`
	Praepostor       *StudentBrief             `json:"praepostor"`
	Year             int                       `json:"year"`
	RosterKind       string                    `json:"roster_kind"`
	Students         *[]StudentBrief           `json:"students,omitempty"`
	PrimarySubgroups *[]SubgroupRosterResponse `json:"primary_subgroups,omitempty"`
	Subgroups        []SubgroupResponse        `json:"subgroups"`
}
