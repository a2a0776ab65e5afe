package model

// Group 班级 — 对应 groups
// 只承载稳定身份；名称、班长、成员均由最新的 GroupSemesterState 推导
type Group struct {
	GroupID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"group_id"`
	CourseID string `gorm:"type:uuid;not null"                             json:"course_id"`
	SoftDeleteModel

	// 关联
	Course *Course              `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
	States []GroupSemesterState `gorm:"foreignKey:GroupID;references:GroupID"   json:"states,omitempty"`
}

// TableName 指定表名
func (Group) TableName() string { return "groups" }

// GroupSemesterState 班级学期状态 — 对应 group_semester_states
// 每个 (班级, 学期) 一条历史记录，只追加
type GroupSemesterState struct {
	StateID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"state_id"`
	GroupID      string  `gorm:"type:uuid;not null;index"                       json:"group_id"`
	SemesterID   string  `gorm:"type:uuid;not null"                             json:"semester_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	PraepostorID *string `gorm:"type:uuid"                                      json:"praepostor_id,omitempty"`
	BaseModel

	// 关联
	Group      *Group     `gorm:"foreignKey:GroupID;references:GroupID"       json:"group,omitempty"`
	Semester   *Semester  `gorm:"foreignKey:SemesterID;references:SemesterID" json:"semester,omitempty"`
	Praepostor *Student   `gorm:"foreignKey:PraepostorID;references:StudentID" json:"praepostor,omitempty"`
	Subgroups  []Subgroup `gorm:"foreignKey:StateID;references:StateID"       json:"subgroups,omitempty"`
}

// TableName 指定表名
func (GroupSemesterState) TableName() string { return "group_semester_states" }

// Subgroup 子组 — 对应 subgroups
// Primary 表示代表整个班级（或主要划分）的子组
type Subgroup struct {
	SubgroupID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subgroup_id"`
	StateID    string `gorm:"type:uuid;not null;index"                       json:"state_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	Primary    bool   `gorm:"column:is_primary;not null;default:false"       json:"primary"`
	BaseModel

	// 关联
	Disciplines []Discipline `gorm:"many2many:subgroup_disciplines;foreignKey:SubgroupID;joinForeignKey:SubgroupID;references:DisciplineID;joinReferences:DisciplineID" json:"disciplines,omitempty"`
	Teachers    []Teacher    `gorm:"many2many:subgroup_teachers;foreignKey:SubgroupID;joinForeignKey:SubgroupID;references:TeacherID;joinReferences:TeacherID"          json:"teachers,omitempty"`
	Students    []Student    `gorm:"many2many:subgroup_students;foreignKey:SubgroupID;joinForeignKey:SubgroupID;references:StudentID;joinReferences:StudentID"          json:"students,omitempty"`
}

// TableName 指定表名
func (Subgroup) TableName() string { return "subgroups" }
