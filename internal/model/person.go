package model

import "time"

// Person 自然人 — 对应 persons
// 同一个人可以同时或先后拥有学生、教师身份
type Person struct {
	PersonID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"person_id"`
	FirstName  string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	MiddleName string `gorm:"type:varchar(100);not null;default:''"          json:"middle_name"`
	LastName   string `gorm:"type:varchar(100);not null"                     json:"last_name"`
	SoftDeleteModel

	// 关联
	Students []Student `gorm:"foreignKey:PersonID;references:PersonID" json:"students,omitempty"`
	Teachers []Teacher `gorm:"foreignKey:PersonID;references:PersonID" json:"teachers,omitempty"`
}

// TableName 指定表名
func (Person) TableName() string { return "persons" }

// FullName 姓 名 父称 的展示形式
func (p *Person) FullName() string {
	name := p.FirstName
	if p.MiddleName != "" {
		name += " " + p.MiddleName
	}
	return name + " " + p.LastName
}

// 账号角色
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Account 登录账号 — 对应 accounts，与 Person 一对一
// 本地账号使用 PasswordHash；外部身份提供方账号使用 ExternalSubject
type Account struct {
	AccountID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"account_id"`
	PersonID        string     `gorm:"type:uuid;not null;uniqueIndex"                 json:"person_id"`
	Username        string     `gorm:"type:varchar(150);not null;uniqueIndex"         json:"username"`
	PasswordHash    *string    `gorm:"type:varchar(255)"                              json:"-"`
	ExternalSubject *string    `gorm:"type:varchar(255);uniqueIndex"                  json:"-"`
	Role            string     `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	SoftDeleteModel

	// 关联
	Person *Person `gorm:"foreignKey:PersonID;references:PersonID" json:"person,omitempty"`
}

// TableName 指定表名
func (Account) TableName() string { return "accounts" }
