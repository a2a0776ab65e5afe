package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/model"
	"klimr/backend/internal/repository"
)

// ── 院系模块业务错误 ──

var (
	ErrDepartmentNotFound   = errors.New("院系不存在")
	ErrDepartmentNameExists = errors.New("院系名称已存在")
	ErrDepartmentInUse      = errors.New("院系下存在专业方向或教师，无法删除")
	ErrCourseNotFound       = errors.New("专业方向不存在")
	ErrCourseInUse          = errors.New("专业方向下存在班级，无法删除")
)

// DepartmentService 院系与专业方向业务接口
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DepartmentResponse, error)
	List(ctx context.Context) ([]dto.DepartmentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentResponse, error)
	Delete(ctx context.Context, id string, callerID string) error

	CreateCourse(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error)
	GetCourse(ctx context.Context, id string) (*dto.CourseResponse, error)
	ListCourses(ctx context.Context) ([]dto.CourseResponse, error)
	UpdateCourse(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error)
	DeleteCourse(ctx context.Context, id string, callerID string) error
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService 创建 DepartmentService 实例
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentResponse, error) {
	// 检查名称唯一性
	if err := s.checkNameFree(ctx, req.Name, ""); err != nil {
		return nil, err
	}

	dept := &model.Department{
		Name:        req.Name,
		Description: req.Description,
	}
	dept.Stamp(callerID)

	if err := s.repo.Department.Create(ctx, dept); err != nil {
		s.logger.Error("创建院系失败", zap.Error(err))
		return nil, err
	}
	return toDepartmentResponse(dept), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id string) (*dto.DepartmentResponse, error) {
	dept, err := s.getDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDepartmentResponse(dept), nil
}

// ────────────────────── List ──────────────────────

func (s *departmentService) List(ctx context.Context) ([]dto.DepartmentResponse, error) {
	depts, err := s.repo.Department.List(ctx)
	if err != nil {
		s.logger.Error("列出院系失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		result = append(result, *toDepartmentResponse(&depts[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentResponse, error) {
	dept, err := s.getDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != dept.Name {
		if err := s.checkNameFree(ctx, *req.Name, id); err != nil {
			return nil, err
		}
		dept.Name = *req.Name
	}
	if req.Description != nil {
		dept.Description = *req.Description
	}
	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Update(ctx, dept); err != nil {
		s.logger.Error("更新院系失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toDepartmentResponse(dept), nil
}

// ────────────────────── Delete ──────────────────────

func (s *departmentService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getDepartment(ctx, id); err != nil {
		return err
	}

	// 仍被专业方向或教师引用时不允许删除
	refs, err := s.repo.Department.CountReferences(ctx, id)
	if err != nil {
		s.logger.Error("统计院系引用失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if refs > 0 {
		return ErrDepartmentInUse
	}

	if err := s.repo.Department.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除院系失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *departmentService) getDepartment(ctx context.Context, id string) (*model.Department, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询院系失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return dept, nil
}

func (s *departmentService) checkNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.Department.GetByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询院系失败", zap.Error(err))
		return err
	}
	if existing != nil && existing.DepartmentID != selfID {
		return ErrDepartmentNameExists
	}
	return nil
}

func toDepartmentResponse(d *model.Department) *dto.DepartmentResponse {
	return &dto.DepartmentResponse{ID: d.DepartmentID, Name: d.Name, Description: d.Description}
}

// ────────────────────── 专业方向 ──────────────────────

func (s *departmentService) CreateCourse(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	var v validationCollector
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefDepartment, "department_id", req.DepartmentID); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	course := &model.Course{
		Name:         req.Name,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
	}
	course.Stamp(callerID)
	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建专业方向失败", zap.Error(err))
		return nil, err
	}
	return s.GetCourse(ctx, course.CourseID)
}

func (s *departmentService) GetCourse(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *departmentService) ListCourses(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("列出专业方向失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, nil
}

func (s *departmentService) UpdateCourse(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DepartmentID != nil && *req.DepartmentID != course.DepartmentID {
		var v validationCollector
		if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefDepartment, "department_id", *req.DepartmentID); err != nil {
			return nil, err
		}
		if err := v.err(); err != nil {
			return nil, err
		}
		course.DepartmentID = *req.DepartmentID
		course.Department = nil
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	course.UpdatedBy = &callerID

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("更新专业方向失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetCourse(ctx, id)
}

func (s *departmentService) DeleteCourse(ctx context.Context, id string, callerID string) error {
	if _, err := s.getCourse(ctx, id); err != nil {
		return err
	}
	groups, err := s.repo.Course.CountGroups(ctx, id)
	if err != nil {
		s.logger.Error("统计专业方向班级失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if groups > 0 {
		return ErrCourseInUse
	}
	if err := s.repo.Course.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除专业方向失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *departmentService) getCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询专业方向失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	resp := &dto.CourseResponse{ID: c.CourseID, Name: c.Name, Description: c.Description}
	if c.Department != nil {
		resp.Department = &dto.ShortResponse{ID: c.Department.DepartmentID, Name: c.Department.Name}
	}
	return resp
}
