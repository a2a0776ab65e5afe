package dto

// ── 排队模块 DTO ──

// CreateQueueRecordRequest 加入排队请求
type CreateQueueRecordRequest struct {
	StudentID     string   `json:"student_id"     binding:"required,uuid"`
	LessonID      string   `json:"lesson_id"      binding:"required,uuid"`
	Reason        int      `json:"reason"         binding:"queue_reason"`
	AssignmentIDs []string `json:"assignment_ids" binding:"omitempty,dive,uuid"`
}

// QueueRecordResponse 排队记录
type QueueRecordResponse struct {
	ID            string   `json:"id"`
	StudentID     string   `json:"student_id"`
	Student       string   `json:"student"`
	LessonID      string   `json:"lesson_id"`
	Reason        int      `json:"reason"`
	AddedOn       string   `json:"added_on"`
	AssignmentIDs []string `json:"assignment_ids"`
}

// CreateMeasurementRequest 记录计时请求
type CreateMeasurementRequest struct {
	PersonID string `json:"person_id" binding:"required,uuid"`
	LessonID string `json:"lesson_id" binding:"required,uuid"`
	RecordID string `json:"record_id" binding:"required,uuid"`
	Time     int    `json:"time"      binding:"min=0"`
}

// MeasurementResponse 计时记录
type MeasurementResponse struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id"`
	LessonID string `json:"lesson_id"`
	RecordID string `json:"record_id"`
	Time     int    `json:"time"`
}

// AdvisedItem 建议顺序中的一项
type AdvisedItem struct {
	RecordID string `json:"record_id" binding:"required,uuid"`
	Rank     int    `json:"rank"      binding:"min=0"`
}

// SetAdvisedQueueRequest 写入建议排队顺序请求
type SetAdvisedQueueRequest struct {
	Items []AdvisedItem `json:"items" binding:"required,min=1,dive"`
}

// AdvisedQueueResponse 建议顺序中的一项（按 rank 升序返回）
type AdvisedQueueResponse struct {
	RecordID  string `json:"record_id"`
	Rank      int    `json:"rank"`
	StudentID string `json:"student_id"`
	Reason    int    `json:"reason"`
}
