package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RefKind 可被引用的实体类型
type RefKind string

const (
	RefSemester   RefKind = "semester"
	RefPerson     RefKind = "person"
	RefDepartment RefKind = "department"
	RefCourse     RefKind = "course"
	RefStudent    RefKind = "student"
	RefTeacher    RefKind = "teacher"
	RefDiscipline RefKind = "discipline"
	RefClassroom  RefKind = "classroom"
	RefAssignment RefKind = "assignment"
	RefTiming     RefKind = "timing"
	RefSubgroup   RefKind = "subgroup"
	RefLesson     RefKind = "lesson"
)

type refTable struct {
	table       string
	pk          string
	softDeleted bool
}

var refTables = map[RefKind]refTable{
	RefSemester:   {"semesters", "semester_id", true},
	RefPerson:     {"persons", "person_id", true},
	RefDepartment: {"departments", "department_id", true},
	RefCourse:     {"courses", "course_id", true},
	RefStudent:    {"students", "student_id", true},
	RefTeacher:    {"teachers", "teacher_id", true},
	RefDiscipline: {"disciplines", "discipline_id", true},
	RefClassroom:  {"classrooms", "classroom_id", true},
	RefAssignment: {"assignments", "assignment_id", true},
	RefTiming:     {"lesson_timings", "timing_id", true},
	RefSubgroup:   {"subgroups", "subgroup_id", false},
	RefLesson:     {"lessons", "lesson_id", true},
}

// ReferenceRepository 批量校验外部引用是否存在
type ReferenceRepository interface {
	// Missing 返回 ids 中不存在（或已软删除）的 id，保持输入顺序
	Missing(ctx context.Context, kind RefKind, ids []string) ([]string, error)
}

type referenceRepo struct {
	db *gorm.DB
}

// NewReferenceRepo 创建 ReferenceRepository 实例
func NewReferenceRepo(db *gorm.DB) ReferenceRepository {
	return &referenceRepo{db: db}
}

func (r *referenceRepo) Missing(ctx context.Context, kind RefKind, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rt, ok := refTables[kind]
	if !ok {
		return nil, fmt.Errorf("未知引用类型: %s", kind)
	}

	q := r.db.WithContext(ctx).Table(rt.table).Where(rt.pk+" IN ?", ids)
	if rt.softDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	var found []string
	if err := q.Pluck(rt.pk, &found).Error; err != nil {
		return nil, err
	}

	exists := make(map[string]bool, len(found))
	for _, id := range found {
		exists[id] = true
	}
	var missing []string
	for _, id := range ids {
		if !exists[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
