package dto

// ── 课堂 DTO ──

// CreateLessonRequest 创建课堂请求
type CreateLessonRequest struct {
	Date          string   `json:"date"            binding:"required,date"`
	StartTimingID string   `json:"start_timing_id" binding:"required,uuid"`
	EndTimingID   string   `json:"end_timing_id"   binding:"required,uuid"`
	DisciplineID  string   `json:"discipline_id"   binding:"required,uuid"`
	TeacherID     string   `json:"teacher_id"      binding:"required,uuid"`
	ClassroomID   string   `json:"classroom_id"    binding:"required,uuid"`
	SubgroupIDs   []string `json:"subgroup_ids"    binding:"required,min=1,dive,uuid"`
	AssignmentIDs []string `json:"assignment_ids"  binding:"omitempty,dive,uuid"`
	State         int      `json:"state"           binding:"lesson_state"`
	Reason        string   `json:"reason"          binding:"omitempty,max=255"`
}

// UpdateLessonRequest 更新课堂请求；切片字段非空时整体替换
type UpdateLessonRequest struct {
	Date          *string   `json:"date"            binding:"omitempty,date"`
	StartTimingID *string   `json:"start_timing_id" binding:"omitempty,uuid"`
	EndTimingID   *string   `json:"end_timing_id"   binding:"omitempty,uuid"`
	DisciplineID  *string   `json:"discipline_id"   binding:"omitempty,uuid"`
	TeacherID     *string   `json:"teacher_id"      binding:"omitempty,uuid"`
	ClassroomID   *string   `json:"classroom_id"    binding:"omitempty,uuid"`
	SubgroupIDs   *[]string `json:"subgroup_ids"    binding:"omitempty,min=1,dive,uuid"`
	AssignmentIDs *[]string `json:"assignment_ids"  binding:"omitempty,dive,uuid"`
	State         *int      `json:"state"           binding:"omitempty,lesson_state"`
	Reason        *string   `json:"reason"          binding:"omitempty,max=255"`
}

// LessonResponse 课堂信息
type LessonResponse struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Start       string          `json:"start"`
	End         string          `json:"end"`
	Discipline  ShortResponse   `json:"discipline"`
	Teacher     ShortResponse   `json:"teacher"`
	Classroom   ShortResponse   `json:"classroom"`
	Subgroups   []ShortResponse `json:"subgroups"`
	Assignments []ShortResponse `json:"assignments"`
	State       int             `json:"state"`
	Reason      string          `json:"reason"`
}

// ── 课表模板 DTO ──

// CreatePrototypeRequest 创建课表模板请求
type CreatePrototypeRequest struct {
	DayOfWeek     int      `json:"day_of_week"     binding:"weekday"`
	WeekType      int      `json:"week_type"       binding:"weektype"`
	StartTimingID string   `json:"start_timing_id" binding:"required,uuid"`
	EndTimingID   string   `json:"end_timing_id"   binding:"required,uuid"`
	DisciplineID  string   `json:"discipline_id"   binding:"required,uuid"`
	TeacherID     string   `json:"teacher_id"      binding:"required,uuid"`
	ClassroomID   string   `json:"classroom_id"    binding:"required,uuid"`
	SubgroupIDs   []string `json:"subgroup_ids"    binding:"required,min=1,dive,uuid"`
}

// UpdatePrototypeRequest 更新课表模板请求
type UpdatePrototypeRequest struct {
	DayOfWeek     *int      `json:"day_of_week"     binding:"omitempty,weekday"`
	WeekType      *int      `json:"week_type"       binding:"omitempty,weektype"`
	StartTimingID *string   `json:"start_timing_id" binding:"omitempty,uuid"`
	EndTimingID   *string   `json:"end_timing_id"   binding:"omitempty,uuid"`
	DisciplineID  *string   `json:"discipline_id"   binding:"omitempty,uuid"`
	TeacherID     *string   `json:"teacher_id"      binding:"omitempty,uuid"`
	ClassroomID   *string   `json:"classroom_id"    binding:"omitempty,uuid"`
	SubgroupIDs   *[]string `json:"subgroup_ids"    binding:"omitempty,min=1,dive,uuid"`
}

// PrototypeResponse 课表模板信息
type PrototypeResponse struct {
	ID         string          `json:"id"`
	DayOfWeek  int             `json:"day_of_week"`
	WeekType   int             `json:"week_type"`
	Start      string          `json:"start"`
	End        string          `json:"end"`
	Discipline ShortResponse   `json:"discipline"`
	Teacher    ShortResponse   `json:"teacher"`
	Classroom  ShortResponse   `json:"classroom"`
	Subgroups  []ShortResponse `json:"subgroups"`
}

// GroupLessonsQuery 班级课堂查询；日期区间可选，两端包含
type GroupLessonsQuery struct {
	From string `form:"from" binding:"omitempty,date"`
	To   string `form:"to"   binding:"omitempty,date"`
}
