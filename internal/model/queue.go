package model

import "time"

// 排队原因
const (
	QueueReasonAutograph  = 0
	QueueReasonAssignment = 1
	QueueReasonQuestion   = 2
)

// QueueRecord 课堂排队记录 — 对应 queue_records（只追加）
type QueueRecord struct {
	RecordID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"record_id"`
	StudentID string    `gorm:"type:uuid;not null"                             json:"student_id"`
	LessonID  string    `gorm:"type:uuid;not null;index"                       json:"lesson_id"`
	Reason    int       `gorm:"type:smallint;not null"                         json:"reason"`
	AddedOn   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"added_on"`

	// 关联
	Student     *Student     `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Assignments []Assignment `gorm:"many2many:queue_record_assignments;foreignKey:RecordID;joinForeignKey:RecordID;references:AssignmentID;joinReferences:AssignmentID" json:"assignments,omitempty"`
}

// TableName 指定表名
func (QueueRecord) TableName() string { return "queue_records" }

// Measurement 排队计时 — 对应 measurements（只追加）
type Measurement struct {
	MeasurementID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"measurement_id"`
	PersonID      string    `gorm:"type:uuid;not null"                             json:"person_id"`
	LessonID      string    `gorm:"type:uuid;not null;index"                       json:"lesson_id"`
	RecordID      string    `gorm:"type:uuid;not null"                             json:"record_id"`
	Time          int       `gorm:"not null"                                       json:"time"` // 相对同科目同类型首节课开始的偏移（秒）
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"          json:"created_at"`
}

// TableName 指定表名
func (Measurement) TableName() string { return "measurements" }

// AdvisedQueue 建议排队顺序 — 对应 advised_queues
// (record_id, rank) 唯一；rank 由外部计算后写入
type AdvisedQueue struct {
	AdviceID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"advice_id"`
	RecordID  string    `gorm:"type:uuid;not null"                             json:"record_id"`
	Rank      int       `gorm:"not null"                                       json:"rank"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Record *QueueRecord `gorm:"foreignKey:RecordID;references:RecordID" json:"record,omitempty"`
}

// TableName 指定表名
func (AdvisedQueue) TableName() string { return "advised_queues" }
