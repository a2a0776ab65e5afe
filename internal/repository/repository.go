package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Semester   SemesterRepository
	Holiday    HolidayRepository
	Timing     LessonTimingRepository
	Person     PersonRepository
	Account    AccountRepository
	Department DepartmentRepository
	Course     CourseRepository
	Group      GroupRepository
	GroupState GroupStateRepository
	Subgroup   SubgroupRepository
	Student    StudentRepository
	Teacher    TeacherRepository
	Discipline DisciplineRepository
	Classroom  ClassroomRepository
	Assignment AssignmentRepository
	Lesson     LessonRepository
	Prototype  PrototypeRepository
	Queue      QueueRepository
	Refs       ReferenceRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		Semester:   NewSemesterRepo(db),
		Holiday:    NewHolidayRepo(db),
		Timing:     NewLessonTimingRepo(db),
		Person:     NewPersonRepo(db),
		Account:    NewAccountRepo(db),
		Department: NewDepartmentRepo(db),
		Course:     NewCourseRepo(db),
		Group:      NewGroupRepo(db),
		GroupState: NewGroupStateRepo(db),
		Subgroup:   NewSubgroupRepo(db),
		Student:    NewStudentRepo(db),
		Teacher:    NewTeacherRepo(db),
		Discipline: NewDisciplineRepo(db),
		Classroom:  NewClassroomRepo(db),
		Assignment: NewAssignmentRepo(db),
		Lesson:     NewLessonRepo(db),
		Prototype:  NewPrototypeRepo(db),
		Queue:      NewQueueRepo(db),
		Refs:       NewReferenceRepo(db),
	}
}

// WithTx 返回绑定到事务 tx 的 Repository 聚合
// tx 为 nil（例如单元测试中未连接数据库）时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// RunInTx 在单个数据库事务中执行 fn；fn 返回错误时整体回滚
// 未连接数据库时直接以自身调用 fn
func (r *Repository) RunInTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// Ping 检查数据库连通性（健康检查使用）
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
