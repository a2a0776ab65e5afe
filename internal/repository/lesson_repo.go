package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"klimr/backend/internal/model"
)

func preloadLesson(db *gorm.DB) *gorm.DB {
	return db.
		Preload("StartTiming").
		Preload("EndTiming").
		Preload("Discipline").
		Preload("Teacher.Person").
		Preload("Classroom").
		Preload("Subgroups").
		Preload("Assignments")
}

// orderLessons 按日期、开始时间排序
func orderLessons(db *gorm.DB) *gorm.DB {
	return db.
		Joins("JOIN lesson_timings st ON st.timing_id = lessons.start_timing_id").
		Order("lessons.date ASC, st.start_time ASC")
}

// LessonRepository 课堂数据访问接口
// Subgroups / Assignments 只需携带 id
type LessonRepository interface {
	Create(ctx context.Context, lesson *model.Lesson) error
	GetByID(ctx context.Context, id string) (*model.Lesson, error)
	List(ctx context.Context) ([]model.Lesson, error)
	// Update 更新字段并整体替换子组、作业关联
	Update(ctx context.Context, lesson *model.Lesson) error
	Delete(ctx context.Context, id string, deletedBy string) error
	// ListByGroup 挂在该班级任一学期状态任一子组上的课堂；from/to 为零值时不限
	ListByGroup(ctx context.Context, groupID string, from, to time.Time) ([]model.Lesson, error)
	// GroupIDsByTeacher 教师授课涉及的班级
	GroupIDsByTeacher(ctx context.Context, teacherID string) ([]string, error)
}

type lessonRepo struct {
	db *gorm.DB
}

// NewLessonRepo 创建 LessonRepository 实例
func NewLessonRepo(db *gorm.DB) LessonRepository {
	return &lessonRepo{db: db}
}

func (r *lessonRepo) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(lesson).Error; err != nil {
			return err
		}
		if err := insertLinks(tx, lessonSubgroups, lesson.LessonID, subgroupIDs(lesson.Subgroups)); err != nil {
			return err
		}
		return insertLinks(tx, lessonAssignments, lesson.LessonID, assignmentIDs(lesson.Assignments))
	})
}

func (r *lessonRepo) GetByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := preloadLesson(r.db.WithContext(ctx)).
		Where("lesson_id = ?", id).
		First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepo) List(ctx context.Context) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := orderLessons(preloadLesson(r.db.WithContext(ctx))).Find(&lessons).Error
	return lessons, err
}

func (r *lessonRepo) Update(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(lesson).Error; err != nil {
			return err
		}
		if err := replaceLinks(tx, lessonSubgroups, lesson.LessonID, subgroupIDs(lesson.Subgroups)); err != nil {
			return err
		}
		return replaceLinks(tx, lessonAssignments, lesson.LessonID, assignmentIDs(lesson.Assignments))
	})
}

func (r *lessonRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("lesson_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *lessonRepo) ListByGroup(ctx context.Context, groupID string, from, to time.Time) ([]model.Lesson, error) {
	db := r.db.WithContext(ctx)
	sub := db.Table("lesson_subgroups ls").
		Select("ls.lesson_id").
		Joins("JOIN subgroups sg ON sg.subgroup_id = ls.subgroup_id").
		Joins("JOIN group_semester_states gs ON gs.state_id = sg.state_id").
		Where("gs.group_id = ?", groupID)

	q := orderLessons(preloadLesson(db)).Where("lessons.lesson_id IN (?)", sub)
	if !from.IsZero() {
		q = q.Where("lessons.date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("lessons.date <= ?", to)
	}

	var lessons []model.Lesson
	err := q.Find(&lessons).Error
	return lessons, err
}

func (r *lessonRepo) GroupIDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("lessons l").
		Distinct().
		Joins("JOIN lesson_subgroups ls ON ls.lesson_id = l.lesson_id").
		Joins("JOIN subgroups sg ON sg.subgroup_id = ls.subgroup_id").
		Joins("JOIN group_semester_states gs ON gs.state_id = sg.state_id").
		Where("l.teacher_id = ? AND l.deleted_at IS NULL", teacherID).
		Pluck("gs.group_id", &ids).Error
	return ids, err
}

// ── 课表模板 ──

// PrototypeRepository 课表模板数据访问接口
type PrototypeRepository interface {
	Create(ctx context.Context, prototype *model.LessonPrototype) error
	GetByID(ctx context.Context, id string) (*model.LessonPrototype, error)
	// List 按星期、开始时间排序
	List(ctx context.Context) ([]model.LessonPrototype, error)
	Update(ctx context.Context, prototype *model.LessonPrototype) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type prototypeRepo struct {
	db *gorm.DB
}

// NewPrototypeRepo 创建 PrototypeRepository 实例
func NewPrototypeRepo(db *gorm.DB) PrototypeRepository {
	return &prototypeRepo{db: db}
}

func preloadPrototype(db *gorm.DB) *gorm.DB {
	return db.
		Preload("StartTiming").
		Preload("EndTiming").
		Preload("Discipline").
		Preload("Teacher.Person").
		Preload("Classroom").
		Preload("Subgroups")
}

func (r *prototypeRepo) Create(ctx context.Context, prototype *model.LessonPrototype) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(prototype).Error; err != nil {
			return err
		}
		return insertLinks(tx, prototypeSubgroups, prototype.PrototypeID, subgroupIDs(prototype.Subgroups))
	})
}

func (r *prototypeRepo) GetByID(ctx context.Context, id string) (*model.LessonPrototype, error) {
	var prototype model.LessonPrototype
	err := preloadPrototype(r.db.WithContext(ctx)).
		Where("prototype_id = ?", id).
		First(&prototype).Error
	if err != nil {
		return nil, err
	}
	return &prototype, nil
}

func (r *prototypeRepo) List(ctx context.Context) ([]model.LessonPrototype, error) {
	var prototypes []model.LessonPrototype
	err := preloadPrototype(r.db.WithContext(ctx)).
		Joins("JOIN lesson_timings st ON st.timing_id = lesson_prototypes.start_timing_id").
		Order("lesson_prototypes.day_of_week ASC, st.start_time ASC").
		Find(&prototypes).Error
	return prototypes, err
}

func (r *prototypeRepo) Update(ctx context.Context, prototype *model.LessonPrototype) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(prototype).Error; err != nil {
			return err
		}
		return replaceLinks(tx, prototypeSubgroups, prototype.PrototypeID, subgroupIDs(prototype.Subgroups))
	})
}

func (r *prototypeRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.LessonPrototype{}).
		Where("prototype_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
