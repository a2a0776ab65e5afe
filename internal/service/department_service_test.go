package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestDepartmentService() (DepartmentService, *memStore) {
	repo, m := newMockRepository()
	return NewDepartmentService(repo, zap.NewNop()), m
}

// ── Create 测试 ──

func TestDepartmentService_Create_Success(t *testing.T) {
	svc, _ := setupTestDepartmentService()

	result, err := svc.Create(context.Background(), &dto.CreateDepartmentRequest{
		Name:        "计算机学院",
		Description: "计算机科学与技术",
	}, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Name != "计算机学院" {
		t.Errorf("期望Name=计算机学院，实际=%s", result.Name)
	}
	if result.ID == "" {
		t.Error("期望生成 ID")
	}
}

func TestDepartmentService_Create_NameExists(t *testing.T) {
	svc, m := setupTestDepartmentService()
	m.addDepartment("数学学院")

	_, err := svc.Create(context.Background(), &dto.CreateDepartmentRequest{Name: "数学学院"}, "admin-001")
	if !errors.Is(err, ErrDepartmentNameExists) {
		t.Errorf("期望 ErrDepartmentNameExists，实际: %v", err)
	}
}

// ── GetByID / Update 测试 ──

func TestDepartmentService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestDepartmentService()

	if _, err := svc.GetByID(context.Background(), "dept-missing"); !errors.Is(err, ErrDepartmentNotFound) {
		t.Errorf("期望 ErrDepartmentNotFound，实际: %v", err)
	}
}

func TestDepartmentService_Update(t *testing.T) {
	svc, m := setupTestDepartmentService()
	ctx := context.Background()
	math := m.addDepartment("数学学院")
	m.addDepartment("物理学院")

	taken := "物理学院"
	if _, err := svc.Update(ctx, math.DepartmentID, &dto.UpdateDepartmentRequest{Name: &taken}, ""); !errors.Is(err, ErrDepartmentNameExists) {
		t.Errorf("期望 ErrDepartmentNameExists，实际: %v", err)
	}

	// 名称不变时不做唯一性检查
	same := "数学学院"
	desc := "应用数学与统计"
	got, err := svc.Update(ctx, math.DepartmentID, &dto.UpdateDepartmentRequest{Name: &same, Description: &desc}, "")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if got.Description != desc {
		t.Errorf("期望Description=%s，实际=%s", desc, got.Description)
	}
}

// ── Delete 测试 ──

func TestDepartmentService_Delete_InUse(t *testing.T) {
	svc, m := setupTestDepartmentService()
	ctx := context.Background()
	dept := m.addDepartment("数学学院")
	teacher := m.addTeacher("Pavel", "Orlov", dept.DepartmentID)

	if err := svc.Delete(ctx, dept.DepartmentID, ""); !errors.Is(err, ErrDepartmentInUse) {
		t.Errorf("存在教师时期望 ErrDepartmentInUse，实际: %v", err)
	}

	delete(m.teachers, teacher.TeacherID)
	if err := svc.Delete(ctx, dept.DepartmentID, ""); err != nil {
		t.Fatalf("无引用时 Delete 应成功: %v", err)
	}
	if _, err := svc.GetByID(ctx, dept.DepartmentID); !errors.Is(err, ErrDepartmentNotFound) {
		t.Errorf("删除后期望 ErrDepartmentNotFound，实际: %v", err)
	}
}

// ── 专业方向 ──

func TestDepartmentService_CreateCourse(t *testing.T) {
	svc, m := setupTestDepartmentService()
	ctx := context.Background()
	dept := m.addDepartment("数学学院")

	got, err := svc.CreateCourse(ctx, &dto.CreateCourseRequest{Name: "应用数学", DepartmentID: dept.DepartmentID}, "")
	if err != nil {
		t.Fatalf("CreateCourse 应成功: %v", err)
	}
	if got.Department == nil || got.Department.Name != "数学学院" {
		t.Errorf("期望所属院系为 数学学院，实际=%+v", got.Department)
	}

	_, err = svc.CreateCourse(ctx, &dto.CreateCourseRequest{Name: "无院系", DepartmentID: "dept-missing"}, "")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["department_id"] == "" {
		t.Errorf("期望 department_id 字段错误，实际: %v", err)
	}
}

func TestDepartmentService_UpdateCourse_MoveDepartment(t *testing.T) {
	svc, m := setupTestDepartmentService()
	ctx := context.Background()
	math := m.addDepartment("数学学院")
	cs := m.addDepartment("计算机学院")
	course := m.addCourse("数据科学", math.DepartmentID)

	got, err := svc.UpdateCourse(ctx, course.CourseID, &dto.UpdateCourseRequest{DepartmentID: &cs.DepartmentID}, "")
	if err != nil {
		t.Fatalf("UpdateCourse 应成功: %v", err)
	}
	if got.Department == nil || got.Department.ID != cs.DepartmentID {
		t.Errorf("期望转入计算机学院，实际=%+v", got.Department)
	}

	if _, err := svc.UpdateCourse(ctx, "course-missing", &dto.UpdateCourseRequest{}, ""); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

func TestDepartmentService_DeleteCourse_InUse(t *testing.T) {
	svc, m := setupTestDepartmentService()
	ctx := context.Background()
	dept := m.addDepartment("数学学院")
	course := m.addCourse("应用数学", dept.DepartmentID)
	m.groups["group-x"] = &model.Group{GroupID: "group-x", CourseID: course.CourseID}

	if err := svc.DeleteCourse(ctx, course.CourseID, ""); !errors.Is(err, ErrCourseInUse) {
		t.Errorf("期望 ErrCourseInUse，实际: %v", err)
	}
	// 专业方向同样阻止院系删除
	if err := svc.Delete(ctx, dept.DepartmentID, ""); !errors.Is(err, ErrDepartmentInUse) {
		t.Errorf("期望 ErrDepartmentInUse，实际: %v", err)
	}

	delete(m.groups, "group-x")
	if err := svc.DeleteCourse(ctx, course.CourseID, ""); err != nil {
		t.Fatalf("DeleteCourse 应成功: %v", err)
	}
	list, _ := svc.ListCourses(ctx)
	if len(list) != 0 {
		t.Errorf("期望 0 个专业方向，实际=%d", len(list))
	}
}
