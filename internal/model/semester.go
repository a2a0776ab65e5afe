package model

import "time"

// Semester 学期表 — 对应 semesters
// 创建后里程碑日期不再变动；按 start_on 全序排列
type Semester struct {
	SemesterID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"semester_id"`
	StartOn       time.Time `gorm:"type:date;not null"                             json:"start_on"`
	TestWeekOn    time.Time `gorm:"type:date;not null"                             json:"test_week_on"`
	TestWeekEndOn time.Time `gorm:"type:date;not null"                             json:"test_week_end_on"`
	SessionOn     time.Time `gorm:"type:date;not null"                             json:"session_on"`
	SessionEndOn  time.Time `gorm:"type:date;not null"                             json:"session_end_on"`
	VersionedModel
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }

// Overlaps 判断两个学期的 [start_on, session_end_on] 区间是否相交
func (s *Semester) Overlaps(other *Semester) bool {
	return !s.SessionEndOn.Before(other.StartOn) && !other.SessionEndOn.Before(s.StartOn)
}

// Holiday 节假日表 — 对应 holidays
type Holiday struct {
	HolidayID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"holiday_id"`
	Date      time.Time `gorm:"type:date;not null"                             json:"date"`
	Reason    string    `gorm:"type:varchar(100);not null"                     json:"reason"`
	SoftDeleteModel
}

// TableName 指定表名
func (Holiday) TableName() string { return "holidays" }

// LessonTiming 课时表 — 对应 lesson_timings
type LessonTiming struct {
	TimingID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timing_id"`
	StartTime string `gorm:"type:time;not null"                             json:"start"`
	EndTime   string `gorm:"type:time;not null"                             json:"end"`
	SoftDeleteModel
}

// TableName 指定表名
func (LessonTiming) TableName() string { return "lesson_timings" }
