package model

import "time"

// 课堂状态
const (
	LessonScheduled = 0
	LessonOnTime    = 1
	LessonArrived   = 2
	LessonCancelled = 3
)

// 单双周
const (
	WeekTypeBoth = 0
	WeekTypeOdd  = 1
	WeekTypeEven = 2
)

// LessonPrototype 课表模板 — 对应 lesson_prototypes
type LessonPrototype struct {
	PrototypeID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"prototype_id"`
	DayOfWeek     int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0=周一 … 6=周日
	WeekType      int    `gorm:"type:smallint;not null;default:0"               json:"week_type"`
	StartTimingID string `gorm:"type:uuid;not null"                             json:"start_timing_id"`
	EndTimingID   string `gorm:"type:uuid;not null"                             json:"end_timing_id"`
	DisciplineID  string `gorm:"type:uuid;not null"                             json:"discipline_id"`
	TeacherID     string `gorm:"type:uuid;not null"                             json:"teacher_id"`
	ClassroomID   string `gorm:"type:uuid;not null"                             json:"classroom_id"`
	SoftDeleteModel

	// 关联
	StartTiming *LessonTiming `gorm:"foreignKey:StartTimingID;references:TimingID"    json:"start_timing,omitempty"`
	EndTiming   *LessonTiming `gorm:"foreignKey:EndTimingID;references:TimingID"      json:"end_timing,omitempty"`
	Discipline  *Discipline   `gorm:"foreignKey:DisciplineID;references:DisciplineID" json:"discipline,omitempty"`
	Teacher     *Teacher      `gorm:"foreignKey:TeacherID;references:TeacherID"       json:"teacher,omitempty"`
	Classroom   *Classroom    `gorm:"foreignKey:ClassroomID;references:ClassroomID"   json:"classroom,omitempty"`
	Subgroups   []Subgroup    `gorm:"many2many:lesson_prototype_subgroups;foreignKey:PrototypeID;joinForeignKey:PrototypeID;references:SubgroupID;joinReferences:SubgroupID" json:"subgroups,omitempty"`
}

// TableName 指定表名
func (LessonPrototype) TableName() string { return "lesson_prototypes" }

// Lesson 具体课堂 — 对应 lessons
type Lesson struct {
	LessonID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lesson_id"`
	Date          time.Time `gorm:"type:date;not null;index"                       json:"date"`
	StartTimingID string    `gorm:"type:uuid;not null"                             json:"start_timing_id"`
	EndTimingID   string    `gorm:"type:uuid;not null"                             json:"end_timing_id"`
	DisciplineID  string    `gorm:"type:uuid;not null"                             json:"discipline_id"`
	TeacherID     string    `gorm:"type:uuid;not null;index"                       json:"teacher_id"`
	ClassroomID   string    `gorm:"type:uuid;not null"                             json:"classroom_id"`
	State         int       `gorm:"type:smallint;not null;default:0"               json:"state"`
	Reason        string    `gorm:"type:varchar(255);not null;default:''"          json:"reason"`
	SoftDeleteModel

	// 关联
	StartTiming *LessonTiming `gorm:"foreignKey:StartTimingID;references:TimingID"    json:"start_timing,omitempty"`
	EndTiming   *LessonTiming `gorm:"foreignKey:EndTimingID;references:TimingID"      json:"end_timing,omitempty"`
	Discipline  *Discipline   `gorm:"foreignKey:DisciplineID;references:DisciplineID" json:"discipline,omitempty"`
	Teacher     *Teacher      `gorm:"foreignKey:TeacherID;references:TeacherID"       json:"teacher,omitempty"`
	Classroom   *Classroom    `gorm:"foreignKey:ClassroomID;references:ClassroomID"   json:"classroom,omitempty"`
	Subgroups   []Subgroup    `gorm:"many2many:lesson_subgroups;foreignKey:LessonID;joinForeignKey:LessonID;references:SubgroupID;joinReferences:SubgroupID"         json:"subgroups,omitempty"`
	Assignments []Assignment  `gorm:"many2many:lesson_assignments;foreignKey:LessonID;joinForeignKey:LessonID;references:AssignmentID;joinReferences:AssignmentID" json:"assignments,omitempty"`
}

// TableName 指定表名
func (Lesson) TableName() string { return "lessons" }
