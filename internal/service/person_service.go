package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/model"
	"klimr/backend/internal/repository"
	pkgerrors "klimr/backend/pkg/errors"
)

// ── 人员模块业务错误 ──

var (
	ErrPersonNotFound           = errors.New("人员不存在")
	ErrStudentNotFound          = errors.New("学生不存在")
	ErrAssignmentAlreadyDone    = errors.New("该作业已记录为完成")
	ErrTeacherNotFound          = errors.New("教师不存在")
	ErrTeacherAlreadyDepartment = errors.New("该人员已是此院系的教师")
)

// PersonService 人员、学生与教师业务接口
type PersonService interface {
	Create(ctx context.Context, req *dto.CreatePersonRequest, callerID string) (*dto.PersonResponse, error)
	GetByID(ctx context.Context, id string) (*dto.PersonDetailResponse, error)
	List(ctx context.Context) ([]dto.PersonResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdatePersonRequest, callerID string) (*dto.PersonResponse, error)
	Delete(ctx context.Context, id string, callerID string) error

	CreateStudent(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error)
	GetStudent(ctx context.Context, id string) (*dto.StudentResponse, error)
	ListStudents(ctx context.Context) ([]dto.StudentResponse, error)
	UpdateStudent(ctx context.Context, id string, req *dto.UpdateStudentRequest, callerID string) (*dto.StudentResponse, error)
	DeleteStudent(ctx context.Context, id string, callerID string) error
	ListCompleted(ctx context.Context, studentID string) ([]dto.CompletedAssignmentResponse, error)
	CompleteAssignment(ctx context.Context, studentID string, req *dto.CompleteAssignmentRequest, callerID string) (*dto.CompletedAssignmentResponse, error)

	CreateTeacher(ctx context.Context, req *dto.CreateTeacherRequest, callerID string) (*dto.TeacherResponse, error)
	// GetTeacher 教师详情，附带所授科目与有课的班级
	GetTeacher(ctx context.Context, id string) (*dto.TeacherDetailResponse, error)
	ListTeachers(ctx context.Context) ([]dto.TeacherResponse, error)
	UpdateTeacher(ctx context.Context, id string, req *dto.UpdateTeacherRequest, callerID string) (*dto.TeacherResponse, error)
	DeleteTeacher(ctx context.Context, id string, callerID string) error
}

type personService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPersonService 创建 PersonService 实例
func NewPersonService(repo *repository.Repository, logger *zap.Logger) PersonService {
	return &personService{repo: repo, logger: logger}
}

// ────────────────────── 人员 ──────────────────────

func (s *personService) Create(ctx context.Context, req *dto.CreatePersonRequest, callerID string) (*dto.PersonResponse, error) {
	p := &model.Person{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
	}
	p.Stamp(callerID)
	if err := s.repo.Person.Create(ctx, p); err != nil {
		s.logger.Error("创建人员失败", zap.Error(err))
		return nil, err
	}
	return toPersonResponse(p), nil
}

func (s *personService) GetByID(ctx context.Context, id string) (*dto.PersonDetailResponse, error) {
	p, err := s.getPerson(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &dto.PersonDetailResponse{
		PersonResponse: *toPersonResponse(p),
		StudentIDs:     make([]string, 0, len(p.Students)),
		TeacherIDs:     make([]string, 0, len(p.Teachers)),
	}
	for _, st := range p.Students {
		detail.StudentIDs = append(detail.StudentIDs, st.StudentID)
	}
	for _, t := range p.Teachers {
		detail.TeacherIDs = append(detail.TeacherIDs, t.TeacherID)
	}
	return detail, nil
}

func (s *personService) List(ctx context.Context) ([]dto.PersonResponse, error) {
	persons, err := s.repo.Person.List(ctx)
	if err != nil {
		s.logger.Error("列出人员失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.PersonResponse, 0, len(persons))
	for i := range persons {
		result = append(result, *toPersonResponse(&persons[i]))
	}
	return result, nil
}

func (s *personService) Update(ctx context.Context, id string, req *dto.UpdatePersonRequest, callerID string) (*dto.PersonResponse, error) {
	p, err := s.getPerson(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.MiddleName != nil {
		p.MiddleName = *req.MiddleName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	p.UpdatedBy = &callerID
	if err := s.repo.Person.Update(ctx, p); err != nil {
		s.logger.Error("更新人员失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toPersonResponse(p), nil
}

func (s *personService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getPerson(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Person.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除人员失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *personService) getPerson(ctx context.Context, id string) (*model.Person, error) {
	p, err := s.repo.Person.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		s.logger.Error("查询人员失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// ────────────────────── 学生 ──────────────────────

func (s *personService) CreateStudent(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error) {
	var v validationCollector
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefPerson, "person_id", req.PersonID); err != nil {
		return nil, err
	}
	if req.ExpelledInID != nil {
		if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefSemester, "expelled_in_id", *req.ExpelledInID); err != nil {
			return nil, err
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	st := &model.Student{PersonID: req.PersonID, ExpelledInID: req.ExpelledInID}
	st.Stamp(callerID)
	if err := s.repo.Student.Create(ctx, st); err != nil {
		s.logger.Error("创建学生失败", zap.Error(err))
		return nil, err
	}
	return s.GetStudent(ctx, st.StudentID)
}

func (s *personService) GetStudent(ctx context.Context, id string) (*dto.StudentResponse, error) {
	st, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toStudentResponse(st)
	return &resp, nil
}

func (s *personService) ListStudents(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.repo.Student.List(ctx)
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, toStudentResponse(&students[i]))
	}
	return result, nil
}

func (s *personService) UpdateStudent(ctx context.Context, id string, req *dto.UpdateStudentRequest, callerID string) (*dto.StudentResponse, error) {
	st, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ExpelledInID != nil {
		if *req.ExpelledInID == "" {
			st.ExpelledInID = nil
		} else {
			var v validationCollector
			if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefSemester, "expelled_in_id", *req.ExpelledInID); err != nil {
				return nil, err
			}
			if err := v.err(); err != nil {
				return nil, err
			}
			st.ExpelledInID = req.ExpelledInID
		}
	}
	st.UpdatedBy = &callerID
	if err := s.repo.Student.Update(ctx, st); err != nil {
		s.logger.Error("更新学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toStudentResponse(st)
	return &resp, nil
}

func (s *personService) DeleteStudent(ctx context.Context, id string, callerID string) error {
	if _, err := s.getStudent(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Student.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除学生失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *personService) ListCompleted(ctx context.Context, studentID string) ([]dto.CompletedAssignmentResponse, error) {
	if _, err := s.getStudent(ctx, studentID); err != nil {
		return nil, err
	}
	completed, err := s.repo.Student.ListCompleted(ctx, studentID)
	if err != nil {
		s.logger.Error("列出已完成作业失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.CompletedAssignmentResponse, 0, len(completed))
	for i := range completed {
		result = append(result, toCompletedResponse(&completed[i]))
	}
	return result, nil
}

func (s *personService) CompleteAssignment(ctx context.Context, studentID string, req *dto.CompleteAssignmentRequest, callerID string) (*dto.CompletedAssignmentResponse, error) {
	if _, err := s.getStudent(ctx, studentID); err != nil {
		return nil, err
	}
	completedOn, err := parseDate("completed_on", req.CompletedOn)
	if err != nil {
		return nil, err
	}
	var v validationCollector
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefAssignment, "assignment_id", req.AssignmentID); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	done := &model.CompletedAssignment{
		StudentID:    studentID,
		AssignmentID: req.AssignmentID,
		CompletedOn:  completedOn,
	}
	done.Stamp(callerID)
	if err := s.repo.Student.AddCompleted(ctx, done); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrAssignmentAlreadyDone
		}
		s.logger.Error("记录已完成作业失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	resp := toCompletedResponse(done)
	return &resp, nil
}

func (s *personService) getStudent(ctx context.Context, id string) (*model.Student, error) {
	st, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return st, nil
}

func toCompletedResponse(c *model.CompletedAssignment) dto.CompletedAssignmentResponse {
	resp := dto.CompletedAssignmentResponse{
		ID:           c.CompletionID,
		AssignmentID: c.AssignmentID,
		CompletedOn:  formatDate(c.CompletedOn),
	}
	if c.Assignment != nil {
		resp.Assignment = c.Assignment.Name
	}
	return resp
}

// ────────────────────── 教师 ──────────────────────

func (s *personService) CreateTeacher(ctx context.Context, req *dto.CreateTeacherRequest, callerID string) (*dto.TeacherResponse, error) {
	var v validationCollector
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefPerson, "person_id", req.PersonID); err != nil {
		return nil, err
	}
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefDepartment, "department_id", req.DepartmentID); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	t := &model.Teacher{PersonID: req.PersonID, DepartmentID: req.DepartmentID}
	t.Stamp(callerID)
	if err := s.repo.Teacher.Create(ctx, t); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrTeacherAlreadyDepartment
		}
		s.logger.Error("创建教师失败", zap.Error(err))
		return nil, err
	}
	created, err := s.getTeacher(ctx, t.TeacherID)
	if err != nil {
		return nil, err
	}
	resp := toTeacherResponse(created)
	return &resp, nil
}

func (s *personService) GetTeacher(ctx context.Context, id string) (*dto.TeacherDetailResponse, error) {
	t, err := s.getTeacher(ctx, id)
	if err != nil {
		return nil, err
	}

	disciplines, err := s.repo.Teacher.ListDisciplines(ctx, id)
	if err != nil {
		s.logger.Error("查询教师科目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	detail := &dto.TeacherDetailResponse{
		TeacherResponse: toTeacherResponse(t),
		Disciplines:     disciplineShorts(disciplines),
		Groups:          []dto.GroupRef{},
	}

	groupIDs, err := s.repo.Lesson.GroupIDsByTeacher(ctx, id)
	if err != nil {
		s.logger.Error("查询教师班级失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if len(groupIDs) == 0 {
		return detail, nil
	}
	groups, err := s.repo.Group.ListWithStates(ctx, groupIDs)
	if err != nil {
		s.logger.Error("查询教师班级失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	for i := range groups {
		detail.Groups = append(detail.Groups, toGroupRef(&groups[i]))
	}
	return detail, nil
}

func (s *personService) ListTeachers(ctx context.Context) ([]dto.TeacherResponse, error) {
	teachers, err := s.repo.Teacher.List(ctx)
	if err != nil {
		s.logger.Error("列出教师失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.TeacherResponse, 0, len(teachers))
	for i := range teachers {
		result = append(result, toTeacherResponse(&teachers[i]))
	}
	return result, nil
}

func (s *personService) UpdateTeacher(ctx context.Context, id string, req *dto.UpdateTeacherRequest, callerID string) (*dto.TeacherResponse, error) {
	t, err := s.getTeacher(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DepartmentID != nil && *req.DepartmentID != t.DepartmentID {
		var v validationCollector
		if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefDepartment, "department_id", *req.DepartmentID); err != nil {
			return nil, err
		}
		if err := v.err(); err != nil {
			return nil, err
		}
		t.DepartmentID = *req.DepartmentID
		t.Department = nil
	}
	t.UpdatedBy = &callerID
	if err := s.repo.Teacher.Update(ctx, t); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrTeacherAlreadyDepartment
		}
		s.logger.Error("更新教师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	updated, err := s.getTeacher(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toTeacherResponse(updated)
	return &resp, nil
}

func (s *personService) DeleteTeacher(ctx context.Context, id string, callerID string) error {
	if _, err := s.getTeacher(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Teacher.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除教师失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *personService) getTeacher(ctx context.Context, id string) (*model.Teacher, error) {
	t, err := s.repo.Teacher.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return t, nil
}
