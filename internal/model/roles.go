package model

// Student 学生身份 — 对应 students
// 与 Person 为多对一，便于追踪转专业等变动
type Student struct {
	StudentID    string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	PersonID     string  `gorm:"type:uuid;not null;index"                       json:"person_id"`
	ExpelledInID *string `gorm:"type:uuid"                                      json:"expelled_in_id,omitempty"`
	SoftDeleteModel

	// 关联
	Person     *Person   `gorm:"foreignKey:PersonID;references:PersonID"       json:"person,omitempty"`
	ExpelledIn *Semester `gorm:"foreignKey:ExpelledInID;references:SemesterID" json:"expelled_in,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// Expelled 是否已退学
func (s *Student) Expelled() bool { return s.ExpelledInID != nil }

// Teacher 教师身份 — 对应 teachers
// (person_id, department_id) 唯一；保留历史以追踪院系调动
type Teacher struct {
	TeacherID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	PersonID     string `gorm:"type:uuid;not null;index"                       json:"person_id"`
	DepartmentID string `gorm:"type:uuid;not null"                             json:"department_id"`
	SoftDeleteModel

	// 关联
	Person     *Person     `gorm:"foreignKey:PersonID;references:PersonID"         json:"person,omitempty"`
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }
