package repository

import (
	"gorm.io/gorm"

	"klimr/backend/internal/model"
)

// linkTable 多对多关联表
type linkTable struct {
	table    string
	ownerCol string
	otherCol string
}

var (
	subgroupStudents    = linkTable{"subgroup_students", "subgroup_id", "student_id"}
	subgroupTeachers    = linkTable{"subgroup_teachers", "subgroup_id", "teacher_id"}
	subgroupDisciplines = linkTable{"subgroup_disciplines", "subgroup_id", "discipline_id"}
	disciplineTeachers  = linkTable{"discipline_teachers", "discipline_id", "teacher_id"}
	lessonSubgroups     = linkTable{"lesson_subgroups", "lesson_id", "subgroup_id"}
	lessonAssignments   = linkTable{"lesson_assignments", "lesson_id", "assignment_id"}
	prototypeSubgroups  = linkTable{"lesson_prototype_subgroups", "prototype_id", "subgroup_id"}
	recordAssignments   = linkTable{"queue_record_assignments", "record_id", "assignment_id"}
)

// insertLinks 写入关联行；重复 id 只写一次
// 关联实体只通过 id 引用，不做 upsert
func insertLinks(tx *gorm.DB, lt linkTable, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	rows := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, map[string]interface{}{lt.ownerCol: ownerID, lt.otherCol: id})
	}
	return tx.Table(lt.table).Create(rows).Error
}

// replaceLinks 整体替换 ownerID 的关联行；调用方负责事务
func replaceLinks(tx *gorm.DB, lt linkTable, ownerID string, ids []string) error {
	if err := tx.Exec("DELETE FROM "+lt.table+" WHERE "+lt.ownerCol+" = ?", ownerID).Error; err != nil {
		return err
	}
	return insertLinks(tx, lt, ownerID, ids)
}

// ── 从只含 id 的关联切片中提取 id ──

func studentIDs(list []model.Student) []string {
	ids := make([]string, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.StudentID)
	}
	return ids
}

func teacherIDs(list []model.Teacher) []string {
	ids := make([]string, 0, len(list))
	for _, t := range list {
		ids = append(ids, t.TeacherID)
	}
	return ids
}

func disciplineIDs(list []model.Discipline) []string {
	ids := make([]string, 0, len(list))
	for _, d := range list {
		ids = append(ids, d.DisciplineID)
	}
	return ids
}

func subgroupIDs(list []model.Subgroup) []string {
	ids := make([]string, 0, len(list))
	for _, sg := range list {
		ids = append(ids, sg.SubgroupID)
	}
	return ids
}

func assignmentIDs(list []model.Assignment) []string {
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.AssignmentID)
	}
	return ids
}
