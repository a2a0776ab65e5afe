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

// ── 科目、教室、作业业务错误 ──

var (
	ErrDisciplineNotFound = errors.New("科目不存在")
	ErrClassroomNotFound  = errors.New("教室不存在")
	ErrAssignmentNotFound = errors.New("作业不存在")
)

// CatalogService 科目、教室、作业业务接口
// 科目与教室列表只返回 id 与名称，详情返回完整信息
type CatalogService interface {
	CreateDiscipline(ctx context.Context, req *dto.CreateDisciplineRequest, callerID string) (*dto.DisciplineResponse, error)
	GetDiscipline(ctx context.Context, id string) (*dto.DisciplineResponse, error)
	ListDisciplines(ctx context.Context) ([]dto.ShortResponse, error)
	UpdateDiscipline(ctx context.Context, id string, req *dto.UpdateDisciplineRequest, callerID string) (*dto.DisciplineResponse, error)
	DeleteDiscipline(ctx context.Context, id string, callerID string) error

	CreateClassroom(ctx context.Context, req *dto.CreateClassroomRequest, callerID string) (*dto.ClassroomResponse, error)
	GetClassroom(ctx context.Context, id string) (*dto.ClassroomResponse, error)
	ListClassrooms(ctx context.Context) ([]dto.ShortResponse, error)
	UpdateClassroom(ctx context.Context, id string, req *dto.UpdateClassroomRequest, callerID string) (*dto.ClassroomResponse, error)
	DeleteClassroom(ctx context.Context, id string, callerID string) error

	CreateAssignment(ctx context.Context, req *dto.CreateAssignmentRequest, callerID string) (*dto.AssignmentResponse, error)
	GetAssignment(ctx context.Context, id string) (*dto.AssignmentResponse, error)
	ListAssignments(ctx context.Context) ([]dto.AssignmentResponse, error)
	UpdateAssignment(ctx context.Context, id string, req *dto.UpdateAssignmentRequest, callerID string) (*dto.AssignmentResponse, error)
	DeleteAssignment(ctx context.Context, id string, callerID string) error
}

type catalogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(repo *repository.Repository, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, logger: logger}
}

// ────────────────────── 科目 ──────────────────────

func (s *catalogService) CreateDiscipline(ctx context.Context, req *dto.CreateDisciplineRequest, callerID string) (*dto.DisciplineResponse, error) {
	var v validationCollector
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefTeacher, "teacher_ids", req.TeacherIDs...); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	d := &model.Discipline{
		Name:        req.Name,
		Description: req.Description,
		Teachers:    teacherRefs(req.TeacherIDs),
	}
	d.Stamp(callerID)
	if err := s.repo.Discipline.Create(ctx, d); err != nil {
		s.logger.Error("创建科目失败", zap.Error(err))
		return nil, err
	}
	return s.GetDiscipline(ctx, d.DisciplineID)
}

func (s *catalogService) GetDiscipline(ctx context.Context, id string) (*dto.DisciplineResponse, error) {
	d, err := s.getDiscipline(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.DisciplineResponse{
		ID:          d.DisciplineID,
		Name:        d.Name,
		Description: d.Description,
		Teachers:    teacherShorts(d.Teachers),
	}, nil
}

func (s *catalogService) ListDisciplines(ctx context.Context) ([]dto.ShortResponse, error) {
	list, err := s.repo.Discipline.List(ctx)
	if err != nil {
		s.logger.Error("列出科目失败", zap.Error(err))
		return nil, err
	}
	return disciplineShorts(list), nil
}

func (s *catalogService) UpdateDiscipline(ctx context.Context, id string, req *dto.UpdateDisciplineRequest, callerID string) (*dto.DisciplineResponse, error) {
	d, err := s.getDiscipline(ctx, id)
	if err != nil {
		return nil, err
	}

	// Teachers 为 nil 时仓储层不改动关联
	d.Teachers = nil
	if req.TeacherIDs != nil {
		var v validationCollector
		if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefTeacher, "teacher_ids", (*req.TeacherIDs)...); err != nil {
			return nil, err
		}
		if err := v.err(); err != nil {
			return nil, err
		}
		d.Teachers = teacherRefs(*req.TeacherIDs)
	}
	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	d.UpdatedBy = &callerID

	if err := s.repo.Discipline.Update(ctx, d); err != nil {
		s.logger.Error("更新科目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetDiscipline(ctx, id)
}

func (s *catalogService) DeleteDiscipline(ctx context.Context, id string, callerID string) error {
	if _, err := s.getDiscipline(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Discipline.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除科目失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *catalogService) getDiscipline(ctx context.Context, id string) (*model.Discipline, error) {
	d, err := s.repo.Discipline.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDisciplineNotFound
		}
		s.logger.Error("查询科目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return d, nil
}

// ────────────────────── 教室 ──────────────────────

func (s *catalogService) CreateClassroom(ctx context.Context, req *dto.CreateClassroomRequest, callerID string) (*dto.ClassroomResponse, error) {
	c := &model.Classroom{
		Name:          req.Name,
		ClassroomType: req.ClassroomType,
		Comments:      req.Comments,
	}
	c.Stamp(callerID)
	if err := s.repo.Classroom.Create(ctx, c); err != nil {
		s.logger.Error("创建教室失败", zap.Error(err))
		return nil, err
	}
	return toClassroomResponse(c), nil
}

func (s *catalogService) GetClassroom(ctx context.Context, id string) (*dto.ClassroomResponse, error) {
	c, err := s.getClassroom(ctx, id)
	if err != nil {
		return nil, err
	}
	return toClassroomResponse(c), nil
}

func (s *catalogService) ListClassrooms(ctx context.Context) ([]dto.ShortResponse, error) {
	list, err := s.repo.Classroom.List(ctx)
	if err != nil {
		s.logger.Error("列出教室失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.ShortResponse, 0, len(list))
	for _, c := range list {
		result = append(result, dto.ShortResponse{ID: c.ClassroomID, Name: c.Name})
	}
	return result, nil
}

func (s *catalogService) UpdateClassroom(ctx context.Context, id string, req *dto.UpdateClassroomRequest, callerID string) (*dto.ClassroomResponse, error) {
	c, err := s.getClassroom(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.ClassroomType != nil {
		c.ClassroomType = *req.ClassroomType
	}
	if req.Comments != nil {
		c.Comments = *req.Comments
	}
	c.UpdatedBy = &callerID
	if err := s.repo.Classroom.Update(ctx, c); err != nil {
		s.logger.Error("更新教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toClassroomResponse(c), nil
}

func (s *catalogService) DeleteClassroom(ctx context.Context, id string, callerID string) error {
	if _, err := s.getClassroom(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Classroom.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除教室失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *catalogService) getClassroom(ctx context.Context, id string) (*model.Classroom, error) {
	c, err := s.repo.Classroom.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return c, nil
}

func toClassroomResponse(c *model.Classroom) *dto.ClassroomResponse {
	return &dto.ClassroomResponse{
		ID:            c.ClassroomID,
		Name:          c.Name,
		ClassroomType: c.ClassroomType,
		Comments:      c.Comments,
	}
}

// ────────────────────── 作业 ──────────────────────

func (s *catalogService) CreateAssignment(ctx context.Context, req *dto.CreateAssignmentRequest, callerID string) (*dto.AssignmentResponse, error) {
	var v validationCollector
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefDiscipline, "discipline_id", req.DisciplineID); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	a := &model.Assignment{
		DisciplineID: req.DisciplineID,
		Name:         req.Name,
		Description:  req.Description,
	}
	a.Stamp(callerID)
	if err := s.repo.Assignment.Create(ctx, a); err != nil {
		s.logger.Error("创建作业失败", zap.Error(err))
		return nil, err
	}
	return toAssignmentResponse(a), nil
}

func (s *catalogService) GetAssignment(ctx context.Context, id string) (*dto.AssignmentResponse, error) {
	a, err := s.getAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAssignmentResponse(a), nil
}

func (s *catalogService) ListAssignments(ctx context.Context) ([]dto.AssignmentResponse, error) {
	list, err := s.repo.Assignment.List(ctx)
	if err != nil {
		s.logger.Error("列出作业失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, *toAssignmentResponse(&list[i]))
	}
	return result, nil
}

func (s *catalogService) UpdateAssignment(ctx context.Context, id string, req *dto.UpdateAssignmentRequest, callerID string) (*dto.AssignmentResponse, error) {
	a, err := s.getAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	a.UpdatedBy = &callerID
	if err := s.repo.Assignment.Update(ctx, a); err != nil {
		s.logger.Error("更新作业失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toAssignmentResponse(a), nil
}

func (s *catalogService) DeleteAssignment(ctx context.Context, id string, callerID string) error {
	if _, err := s.getAssignment(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Assignment.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除作业失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *catalogService) getAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	a, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return a, nil
}

func toAssignmentResponse(a *model.Assignment) *dto.AssignmentResponse {
	return &dto.AssignmentResponse{
		ID:           a.AssignmentID,
		DisciplineID: a.DisciplineID,
		Name:         a.Name,
		Description:  a.Description,
	}
}
