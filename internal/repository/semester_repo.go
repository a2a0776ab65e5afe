package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"klimr/backend/internal/model"
	pkgerrors "klimr/backend/pkg/errors"
)

// SemesterRepository 学期数据访问接口
type SemesterRepository interface {
	Create(ctx context.Context, semester *model.Semester) error
	GetByID(ctx context.Context, id string) (*model.Semester, error)
	// List 按 start_on 升序
	List(ctx context.Context) ([]model.Semester, error)
	// Update 乐观锁更新：semester.Version 为读取时的版本，成功后自增
	Update(ctx context.Context, semester *model.Semester) error
	Delete(ctx context.Context, id string, deletedBy string) error
	// FindOverlapping 查找 [start, end] 区间与之相交的学期，excludeID 可为空
	FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]model.Semester, error)
}

type semesterRepo struct {
	db *gorm.DB
}

// NewSemesterRepo 创建 SemesterRepository 实例
func NewSemesterRepo(db *gorm.DB) SemesterRepository {
	return &semesterRepo{db: db}
}

func (r *semesterRepo) Create(ctx context.Context, semester *model.Semester) error {
	return r.db.WithContext(ctx).Create(semester).Error
}

func (r *semesterRepo) GetByID(ctx context.Context, id string) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", id).
		First(&semester).Error
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

func (r *semesterRepo) List(ctx context.Context) ([]model.Semester, error) {
	var semesters []model.Semester
	err := r.db.WithContext(ctx).
		Order("start_on ASC").
		Find(&semesters).Error
	return semesters, err
}

func (r *semesterRepo) Update(ctx context.Context, semester *model.Semester) error {
	expected := semester.Version
	result := r.db.WithContext(ctx).
		Model(&model.Semester{}).
		Where("semester_id = ? AND version = ?", semester.SemesterID, expected).
		Updates(map[string]interface{}{
			"start_on":         semester.StartOn,
			"test_week_on":     semester.TestWeekOn,
			"test_week_end_on": semester.TestWeekEndOn,
			"session_on":       semester.SessionOn,
			"session_end_on":   semester.SessionEndOn,
			"updated_by":       semester.UpdatedBy,
			"updated_at":       gorm.Expr("NOW()"),
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	semester.Version = expected + 1
	return nil
}

func (r *semesterRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Semester{}).
		Where("semester_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *semesterRepo) FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]model.Semester, error) {
	q := r.db.WithContext(ctx).
		Where("start_on <= ? AND session_end_on >= ?", end, start)
	if excludeID != "" {
		q = q.Where("semester_id <> ?", excludeID)
	}
	var semesters []model.Semester
	err := q.Order("start_on ASC").Find(&semesters).Error
	return semesters, err
}

// ── 节假日 ──

// HolidayRepository 节假日数据访问接口
type HolidayRepository interface {
	Create(ctx context.Context, holiday *model.Holiday) error
	GetByID(ctx context.Context, id string) (*model.Holiday, error)
	List(ctx context.Context) ([]model.Holiday, error)
	Update(ctx context.Context, holiday *model.Holiday) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type holidayRepo struct {
	db *gorm.DB
}

// NewHolidayRepo 创建 HolidayRepository 实例
func NewHolidayRepo(db *gorm.DB) HolidayRepository {
	return &holidayRepo{db: db}
}

func (r *holidayRepo) Create(ctx context.Context, holiday *model.Holiday) error {
	return r.db.WithContext(ctx).Create(holiday).Error
}

func (r *holidayRepo) GetByID(ctx context.Context, id string) (*model.Holiday, error) {
	var holiday model.Holiday
	err := r.db.WithContext(ctx).Where("holiday_id = ?", id).First(&holiday).Error
	if err != nil {
		return nil, err
	}
	return &holiday, nil
}

func (r *holidayRepo) List(ctx context.Context) ([]model.Holiday, error) {
	var holidays []model.Holiday
	err := r.db.WithContext(ctx).Order("date ASC").Find(&holidays).Error
	return holidays, err
}

func (r *holidayRepo) Update(ctx context.Context, holiday *model.Holiday) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(holiday).Error
}

func (r *holidayRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Holiday{}).
		Where("holiday_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── 课时 ──

// LessonTimingRepository 课时数据访问接口
type LessonTimingRepository interface {
	Create(ctx context.Context, timing *model.LessonTiming) error
	GetByID(ctx context.Context, id string) (*model.LessonTiming, error)
	// List 按开始时间升序
	List(ctx context.Context) ([]model.LessonTiming, error)
	Update(ctx context.Context, timing *model.LessonTiming) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type lessonTimingRepo struct {
	db *gorm.DB
}

// NewLessonTimingRepo 创建 LessonTimingRepository 实例
func NewLessonTimingRepo(db *gorm.DB) LessonTimingRepository {
	return &lessonTimingRepo{db: db}
}

func (r *lessonTimingRepo) Create(ctx context.Context, timing *model.LessonTiming) error {
	return r.db.WithContext(ctx).Create(timing).Error
}

func (r *lessonTimingRepo) GetByID(ctx context.Context, id string) (*model.LessonTiming, error) {
	var timing model.LessonTiming
	err := r.db.WithContext(ctx).Where("timing_id = ?", id).First(&timing).Error
	if err != nil {
		return nil, err
	}
	return &timing, nil
}

func (r *lessonTimingRepo) List(ctx context.Context) ([]model.LessonTiming, error) {
	var timings []model.LessonTiming
	err := r.db.WithContext(ctx).Order("start_time ASC").Find(&timings).Error
	return timings, err
}

func (r *lessonTimingRepo) Update(ctx context.Context, timing *model.LessonTiming) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(timing).Error
}

func (r *lessonTimingRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.LessonTiming{}).
		Where("timing_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
