package model

import "time"

// Discipline 课程科目 — 对应 disciplines
type Discipline struct {
	DisciplineID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"discipline_id"`
	Name         string `gorm:"type:varchar(255);not null"                     json:"name"`
	Description  string `gorm:"type:text;not null;default:''"                  json:"description"`
	SoftDeleteModel

	// 关联
	Teachers []Teacher `gorm:"many2many:discipline_teachers;foreignKey:DisciplineID;joinForeignKey:DisciplineID;references:TeacherID;joinReferences:TeacherID" json:"teachers,omitempty"`
}

// TableName 指定表名
func (Discipline) TableName() string { return "disciplines" }

// 教室类型
const (
	ClassroomTypeNA           = -1
	ClassroomTypeOther        = 0
	ClassroomTypeSmallLecture = 1
	ClassroomTypeSmallLab     = 2
	ClassroomTypeBigLecture   = 3
	ClassroomTypeTeachersRoom = 4
)

// Classroom 教室 — 对应 classrooms
type Classroom struct {
	ClassroomID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"classroom_id"`
	Name          string `gorm:"type:varchar(100);not null"                     json:"name"`
	ClassroomType int    `gorm:"type:smallint;not null;default:-1"              json:"classroom_type"`
	Comments      string `gorm:"type:text;not null;default:''"                  json:"comments"` // 例如：怎么走
	SoftDeleteModel
}

// TableName 指定表名
func (Classroom) TableName() string { return "classrooms" }

// Assignment 作业 — 对应 assignments
type Assignment struct {
	AssignmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	DisciplineID string `gorm:"type:uuid;not null;index"                       json:"discipline_id"`
	Name         string `gorm:"type:varchar(255);not null"                     json:"name"`
	Description  string `gorm:"type:text;not null;default:''"                  json:"description"`
	SoftDeleteModel

	// 关联
	Discipline *Discipline `gorm:"foreignKey:DisciplineID;references:DisciplineID" json:"discipline,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// CompletedAssignment 已完成作业 — 对应 completed_assignments
type CompletedAssignment struct {
	CompletionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"completion_id"`
	StudentID    string    `gorm:"type:uuid;not null;index"                       json:"student_id"`
	AssignmentID string    `gorm:"type:uuid;not null"                             json:"assignment_id"`
	CompletedOn  time.Time `gorm:"type:date;not null"                             json:"completed_on"`
	BaseModel

	// 关联
	Assignment *Assignment `gorm:"foreignKey:AssignmentID;references:AssignmentID" json:"assignment,omitempty"`
}

// TableName 指定表名
func (CompletedAssignment) TableName() string { return "completed_assignments" }
