package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"klimr/backend/internal/model"
)

// QueueRepository 排队、计时与建议顺序数据访问接口（只追加）
type QueueRepository interface {
	// CreateRecord 写入排队记录及其作业关联（Assignments 只需 id）
	CreateRecord(ctx context.Context, record *model.QueueRecord) error
	GetRecord(ctx context.Context, id string) (*model.QueueRecord, error)
	// ListRecordsByLesson 按到达顺序
	ListRecordsByLesson(ctx context.Context, lessonID string) ([]model.QueueRecord, error)

	CreateMeasurement(ctx context.Context, m *model.Measurement) error
	ListMeasurementsByLesson(ctx context.Context, lessonID string) ([]model.Measurement, error)

	// CreateAdvice 批量写入建议顺序；(record_id, rank) 冲突时整体失败
	CreateAdvice(ctx context.Context, items []model.AdvisedQueue) error
	// ListAdviceByLesson 按 rank 升序
	ListAdviceByLesson(ctx context.Context, lessonID string) ([]model.AdvisedQueue, error)
}

type queueRepo struct {
	db *gorm.DB
}

// NewQueueRepo 创建 QueueRepository 实例
func NewQueueRepo(db *gorm.DB) QueueRepository {
	return &queueRepo{db: db}
}

func (r *queueRepo) CreateRecord(ctx context.Context, record *model.QueueRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
			return err
		}
		return insertLinks(tx, recordAssignments, record.RecordID, assignmentIDs(record.Assignments))
	})
}

func (r *queueRepo) GetRecord(ctx context.Context, id string) (*model.QueueRecord, error) {
	var record model.QueueRecord
	err := r.db.WithContext(ctx).
		Preload("Student.Person").
		Preload("Assignments").
		Where("record_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *queueRepo) ListRecordsByLesson(ctx context.Context, lessonID string) ([]model.QueueRecord, error) {
	var records []model.QueueRecord
	err := r.db.WithContext(ctx).
		Preload("Student.Person").
		Preload("Assignments").
		Where("lesson_id = ?", lessonID).
		Order("added_on ASC").
		Find(&records).Error
	return records, err
}

func (r *queueRepo) CreateMeasurement(ctx context.Context, m *model.Measurement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *queueRepo) ListMeasurementsByLesson(ctx context.Context, lessonID string) ([]model.Measurement, error) {
	var list []model.Measurement
	err := r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *queueRepo) CreateAdvice(ctx context.Context, items []model.AdvisedQueue) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *queueRepo) ListAdviceByLesson(ctx context.Context, lessonID string) ([]model.AdvisedQueue, error) {
	var list []model.AdvisedQueue
	err := r.db.WithContext(ctx).
		Preload("Record").
		Joins("JOIN queue_records qr ON qr.record_id = advised_queues.record_id").
		Where("qr.lesson_id = ?", lessonID).
		Order(`advised_queues."rank" ASC, advised_queues.created_at ASC`).
		Find(&list).Error
	return list, err
}
