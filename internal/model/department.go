package model

// Department 院系表 — 对应 departments
type Department struct {
	DepartmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Name         string `gorm:"type:varchar(255);not null"                     json:"name"`
	Description  string `gorm:"type:text;not null;default:''"                  json:"description"`
	SoftDeleteModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// Course 专业方向 — 对应 courses
type Course struct {
	CourseID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Name         string `gorm:"type:varchar(255);not null"                     json:"name"`
	Description  string `gorm:"type:text;not null;default:''"                  json:"description"`
	DepartmentID string `gorm:"type:uuid;not null"                             json:"department_id"`
	SoftDeleteModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
