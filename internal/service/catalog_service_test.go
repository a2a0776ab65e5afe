package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"klimr/backend/internal/dto"
)

func setupTestCatalogService() (CatalogService, *memStore) {
	repo, m := newMockRepository()
	return NewCatalogService(repo, zap.NewNop()), m
}

func TestCatalogService_Discipline_Teachers(t *testing.T) {
	svc, m := setupTestCatalogService()
	ctx := context.Background()
	dept := m.addDepartment("数学学院")
	orlov := m.addTeacher("Pavel", "Orlov", dept.DepartmentID)
	petrova := m.addTeacher("Elena", "Petrova", dept.DepartmentID)

	created, err := svc.CreateDiscipline(ctx, &dto.CreateDisciplineRequest{Name: "线性代数", TeacherIDs: []string{orlov.TeacherID}}, "")
	if err != nil {
		t.Fatalf("CreateDiscipline 应成功: %v", err)
	}
	if len(created.Teachers) != 1 || created.Teachers[0].ID != orlov.TeacherID {
		t.Errorf("教师不正确: %+v", created.Teachers)
	}

	// 未提供 teacher_ids 时保留原有教师
	name := "高等代数"
	got, err := svc.UpdateDiscipline(ctx, created.ID, &dto.UpdateDisciplineRequest{Name: &name}, "")
	if err != nil {
		t.Fatalf("UpdateDiscipline 应成功: %v", err)
	}
	if got.Name != name || len(got.Teachers) != 1 {
		t.Errorf("期望保留 1 名教师，实际=%+v", got)
	}

	// 提供 teacher_ids 时整体替换
	ids := []string{petrova.TeacherID}
	got, err = svc.UpdateDiscipline(ctx, created.ID, &dto.UpdateDisciplineRequest{TeacherIDs: &ids}, "")
	if err != nil {
		t.Fatalf("UpdateDiscipline 应成功: %v", err)
	}
	if len(got.Teachers) != 1 || got.Teachers[0].ID != petrova.TeacherID {
		t.Errorf("期望替换为 Petrova，实际=%+v", got.Teachers)
	}

	bad := []string{"teacher-missing"}
	_, err = svc.UpdateDiscipline(ctx, created.ID, &dto.UpdateDisciplineRequest{TeacherIDs: &bad}, "")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["teacher_ids"] == "" {
		t.Errorf("期望 teacher_ids 字段错误，实际: %v", err)
	}
}

func TestCatalogService_ListDisciplines_Short(t *testing.T) {
	svc, m := setupTestCatalogService()
	m.addDiscipline("数学分析")
	m.addDiscipline("线性代数")

	list, err := svc.ListDisciplines(context.Background())
	if err != nil {
		t.Fatalf("ListDisciplines 应成功: %v", err)
	}
	if len(list) != 2 || list[0].Name != "数学分析" {
		t.Errorf("列表不正确: %+v", list)
	}
}

func TestCatalogService_Classroom(t *testing.T) {
	svc, _ := setupTestCatalogService()
	ctx := context.Background()

	room, err := svc.CreateClassroom(ctx, &dto.CreateClassroomRequest{Name: "A-301", ClassroomType: 1, Comments: "投影仪"}, "")
	if err != nil {
		t.Fatalf("CreateClassroom 应成功: %v", err)
	}
	if room.ClassroomType != 1 {
		t.Errorf("期望 classroom_type=1，实际=%d", room.ClassroomType)
	}
	if err := svc.DeleteClassroom(ctx, room.ID, ""); err != nil {
		t.Fatalf("DeleteClassroom 应成功: %v", err)
	}
	if _, err := svc.GetClassroom(ctx, room.ID); !errors.Is(err, ErrClassroomNotFound) {
		t.Errorf("期望 ErrClassroomNotFound，实际: %v", err)
	}
}

func TestCatalogService_Assignment(t *testing.T) {
	svc, m := setupTestCatalogService()
	ctx := context.Background()
	disc := m.addDiscipline("线性代数")

	a, err := svc.CreateAssignment(ctx, &dto.CreateAssignmentRequest{DisciplineID: disc.DisciplineID, Name: "作业 1"}, "")
	if err != nil {
		t.Fatalf("CreateAssignment 应成功: %v", err)
	}
	if a.DisciplineID != disc.DisciplineID {
		t.Errorf("期望 discipline_id=%s，实际=%s", disc.DisciplineID, a.DisciplineID)
	}

	_, err = svc.CreateAssignment(ctx, &dto.CreateAssignmentRequest{DisciplineID: "disc-missing", Name: "作业 2"}, "")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["discipline_id"] == "" {
		t.Errorf("期望 discipline_id 字段错误，实际: %v", err)
	}

	if _, err := svc.GetAssignment(ctx, "hw-missing"); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("期望 ErrAssignmentNotFound，实际: %v", err)
	}
}
