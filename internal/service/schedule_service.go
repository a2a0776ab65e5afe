package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/model"
	"klimr/backend/internal/repository"
)

// ── 课表模块业务错误 ──

var (
	ErrLessonNotFound    = errors.New("课堂不存在")
	ErrPrototypeNotFound = errors.New("课表模板不存在")
)

// ScheduleService 课堂与课表模板业务接口
type ScheduleService interface {
	CreateLesson(ctx context.Context, req *dto.CreateLessonRequest, callerID string) (*dto.LessonResponse, error)
	GetLesson(ctx context.Context, id string) (*dto.LessonResponse, error)
	ListLessons(ctx context.Context) ([]dto.LessonResponse, error)
	UpdateLesson(ctx context.Context, id string, req *dto.UpdateLessonRequest, callerID string) (*dto.LessonResponse, error)
	DeleteLesson(ctx context.Context, id string, callerID string) error
	// ListGroupLessons 班级任一学期状态下任一子组的课堂
	ListGroupLessons(ctx context.Context, groupID string, q *dto.GroupLessonsQuery) ([]dto.LessonResponse, error)

	CreatePrototype(ctx context.Context, req *dto.CreatePrototypeRequest, callerID string) (*dto.PrototypeResponse, error)
	GetPrototype(ctx context.Context, id string) (*dto.PrototypeResponse, error)
	ListPrototypes(ctx context.Context) ([]dto.PrototypeResponse, error)
	UpdatePrototype(ctx context.Context, id string, req *dto.UpdatePrototypeRequest, callerID string) (*dto.PrototypeResponse, error)
	DeletePrototype(ctx context.Context, id string, callerID string) error
}

type scheduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, logger: logger}
}

// slot 课堂与模板共有的引用字段
type slot struct {
	StartTimingID string
	EndTimingID   string
	DisciplineID  string
	TeacherID     string
	ClassroomID   string
	SubgroupIDs   []string
}

// checkSlot 校验引用存在，且开始课时早于结束课时
func (s *scheduleService) checkSlot(ctx context.Context, v *validationCollector, sl *slot) error {
	checks := []struct {
		kind  repository.RefKind
		field string
		ids   []string
	}{
		{repository.RefTiming, "start_timing_id", []string{sl.StartTimingID}},
		{repository.RefTiming, "end_timing_id", []string{sl.EndTimingID}},
		{repository.RefDiscipline, "discipline_id", []string{sl.DisciplineID}},
		{repository.RefTeacher, "teacher_id", []string{sl.TeacherID}},
		{repository.RefClassroom, "classroom_id", []string{sl.ClassroomID}},
		{repository.RefSubgroup, "subgroup_ids", sl.SubgroupIDs},
	}
	for _, c := range checks {
		if err := checkRefs(ctx, s.repo.Refs, v, c.kind, c.field, c.ids...); err != nil {
			return err
		}
	}
	if v.err() != nil {
		return nil
	}

	start, err := s.repo.Timing.GetByID(ctx, sl.StartTimingID)
	if err != nil {
		return err
	}
	end, err := s.repo.Timing.GetByID(ctx, sl.EndTimingID)
	if err != nil {
		return err
	}
	if normalizeClock(start.StartTime) >= normalizeClock(end.EndTime) {
		v.add("end_timing_id", "must end after the start timing begins")
	}
	return nil
}

// ────────────────────── 课堂 ──────────────────────

func (s *scheduleService) CreateLesson(ctx context.Context, req *dto.CreateLessonRequest, callerID string) (*dto.LessonResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	var v validationCollector
	sl := &slot{
		StartTimingID: req.StartTimingID,
		EndTimingID:   req.EndTimingID,
		DisciplineID:  req.DisciplineID,
		TeacherID:     req.TeacherID,
		ClassroomID:   req.ClassroomID,
		SubgroupIDs:   req.SubgroupIDs,
	}
	if err := s.checkSlot(ctx, &v, sl); err != nil {
		s.logger.Error("校验课堂引用失败", zap.Error(err))
		return nil, err
	}
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefAssignment, "assignment_ids", req.AssignmentIDs...); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		Date:          date,
		StartTimingID: req.StartTimingID,
		EndTimingID:   req.EndTimingID,
		DisciplineID:  req.DisciplineID,
		TeacherID:     req.TeacherID,
		ClassroomID:   req.ClassroomID,
		State:         req.State,
		Reason:        req.Reason,
		Subgroups:     subgroupRefs(req.SubgroupIDs),
		Assignments:   assignmentRefs(req.AssignmentIDs),
	}
	lesson.Stamp(callerID)
	if err := s.repo.Lesson.Create(ctx, lesson); err != nil {
		s.logger.Error("创建课堂失败", zap.Error(err))
		return nil, err
	}
	return s.GetLesson(ctx, lesson.LessonID)
}

func (s *scheduleService) GetLesson(ctx context.Context, id string) (*dto.LessonResponse, error) {
	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	return toLessonResponse(lesson), nil
}

func (s *scheduleService) ListLessons(ctx context.Context) ([]dto.LessonResponse, error) {
	lessons, err := s.repo.Lesson.List(ctx)
	if err != nil {
		s.logger.Error("列出课堂失败", zap.Error(err))
		return nil, err
	}
	return toLessonResponses(lessons), nil
}

func (s *scheduleService) UpdateLesson(ctx context.Context, id string, req *dto.UpdateLessonRequest, callerID string) (*dto.LessonResponse, error) {
	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			return nil, err
		}
		lesson.Date = date
	}
	setIfPresent(&lesson.StartTimingID, req.StartTimingID)
	setIfPresent(&lesson.EndTimingID, req.EndTimingID)
	setIfPresent(&lesson.DisciplineID, req.DisciplineID)
	setIfPresent(&lesson.TeacherID, req.TeacherID)
	setIfPresent(&lesson.ClassroomID, req.ClassroomID)
	setIfPresent(&lesson.Reason, req.Reason)
	if req.State != nil {
		lesson.State = *req.State
	}
	if req.SubgroupIDs != nil {
		lesson.Subgroups = subgroupRefs(*req.SubgroupIDs)
	}
	if req.AssignmentIDs != nil {
		lesson.Assignments = assignmentRefs(*req.AssignmentIDs)
	}

	var v validationCollector
	sl := &slot{
		StartTimingID: lesson.StartTimingID,
		EndTimingID:   lesson.EndTimingID,
		DisciplineID:  lesson.DisciplineID,
		TeacherID:     lesson.TeacherID,
		ClassroomID:   lesson.ClassroomID,
		SubgroupIDs:   subgroupIDList(lesson.Subgroups),
	}
	if err := s.checkSlot(ctx, &v, sl); err != nil {
		s.logger.Error("校验课堂引用失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if req.AssignmentIDs != nil {
		if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefAssignment, "assignment_ids", (*req.AssignmentIDs)...); err != nil {
			return nil, err
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	// 外键以 id 字段为准
	lesson.StartTiming, lesson.EndTiming = nil, nil
	lesson.Discipline, lesson.Teacher, lesson.Classroom = nil, nil, nil
	lesson.UpdatedBy = &callerID
	if err := s.repo.Lesson.Update(ctx, lesson); err != nil {
		s.logger.Error("更新课堂失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetLesson(ctx, id)
}

func (s *scheduleService) DeleteLesson(ctx context.Context, id string, callerID string) error {
	if _, err := s.getLesson(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Lesson.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除课堂失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *scheduleService) ListGroupLessons(ctx context.Context, groupID string, q *dto.GroupLessonsQuery) ([]dto.LessonResponse, error) {
	if _, err := s.repo.Group.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		s.logger.Error("查询班级失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}

	var from, to time.Time
	if q != nil && q.From != "" {
		t, err := parseDate("from", q.From)
		if err != nil {
			return nil, err
		}
		from = t
	}
	if q != nil && q.To != "" {
		t, err := parseDate("to", q.To)
		if err != nil {
			return nil, err
		}
		to = t
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, fieldError("to", "must not be before from")
	}

	lessons, err := s.repo.Lesson.ListByGroup(ctx, groupID, from, to)
	if err != nil {
		s.logger.Error("查询班级课堂失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}
	return toLessonResponses(lessons), nil
}

func (s *scheduleService) getLesson(ctx context.Context, id string) (*model.Lesson, error) {
	lesson, err := s.repo.Lesson.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课堂失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return lesson, nil
}

func toLessonResponse(l *model.Lesson) *dto.LessonResponse {
	resp := &dto.LessonResponse{
		ID:          l.LessonID,
		Date:        formatDate(l.Date),
		Discipline:  dto.ShortResponse{ID: l.DisciplineID},
		Teacher:     teacherShort(l.Teacher),
		Classroom:   dto.ShortResponse{ID: l.ClassroomID},
		Subgroups:   subgroupShorts(l.Subgroups),
		Assignments: assignmentShorts(l.Assignments),
		State:       l.State,
		Reason:      l.Reason,
	}
	if l.StartTiming != nil {
		resp.Start = formatClock(l.StartTiming.StartTime)
	}
	if l.EndTiming != nil {
		resp.End = formatClock(l.EndTiming.EndTime)
	}
	if l.Discipline != nil {
		resp.Discipline.Name = l.Discipline.Name
	}
	if l.Teacher == nil {
		resp.Teacher.ID = l.TeacherID
	}
	if l.Classroom != nil {
		resp.Classroom.Name = l.Classroom.Name
	}
	return resp
}

func toLessonResponses(lessons []model.Lesson) []dto.LessonResponse {
	result := make([]dto.LessonResponse, 0, len(lessons))
	for i := range lessons {
		result = append(result, *toLessonResponse(&lessons[i]))
	}
	return result
}

// ────────────────────── 课表模板 ──────────────────────

func (s *scheduleService) CreatePrototype(ctx context.Context, req *dto.CreatePrototypeRequest, callerID string) (*dto.PrototypeResponse, error) {
	var v validationCollector
	sl := &slot{
		StartTimingID: req.StartTimingID,
		EndTimingID:   req.EndTimingID,
		DisciplineID:  req.DisciplineID,
		TeacherID:     req.TeacherID,
		ClassroomID:   req.ClassroomID,
		SubgroupIDs:   req.SubgroupIDs,
	}
	if err := s.checkSlot(ctx, &v, sl); err != nil {
		s.logger.Error("校验课表模板引用失败", zap.Error(err))
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	p := &model.LessonPrototype{
		DayOfWeek:     req.DayOfWeek,
		WeekType:      req.WeekType,
		StartTimingID: req.StartTimingID,
		EndTimingID:   req.EndTimingID,
		DisciplineID:  req.DisciplineID,
		TeacherID:     req.TeacherID,
		ClassroomID:   req.ClassroomID,
		Subgroups:     subgroupRefs(req.SubgroupIDs),
	}
	p.Stamp(callerID)
	if err := s.repo.Prototype.Create(ctx, p); err != nil {
		s.logger.Error("创建课表模板失败", zap.Error(err))
		return nil, err
	}
	return s.GetPrototype(ctx, p.PrototypeID)
}

func (s *scheduleService) GetPrototype(ctx context.Context, id string) (*dto.PrototypeResponse, error) {
	p, err := s.getPrototype(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPrototypeResponse(p), nil
}

func (s *scheduleService) ListPrototypes(ctx context.Context) ([]dto.PrototypeResponse, error) {
	list, err := s.repo.Prototype.List(ctx)
	if err != nil {
		s.logger.Error("列出课表模板失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.PrototypeResponse, 0, len(list))
	for i := range list {
		result = append(result, *toPrototypeResponse(&list[i]))
	}
	return result, nil
}

func (s *scheduleService) UpdatePrototype(ctx context.Context, id string, req *dto.UpdatePrototypeRequest, callerID string) (*dto.PrototypeResponse, error) {
	p, err := s.getPrototype(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DayOfWeek != nil {
		p.DayOfWeek = *req.DayOfWeek
	}
	if req.WeekType != nil {
		p.WeekType = *req.WeekType
	}
	setIfPresent(&p.StartTimingID, req.StartTimingID)
	setIfPresent(&p.EndTimingID, req.EndTimingID)
	setIfPresent(&p.DisciplineID, req.DisciplineID)
	setIfPresent(&p.TeacherID, req.TeacherID)
	setIfPresent(&p.ClassroomID, req.ClassroomID)
	if req.SubgroupIDs != nil {
		p.Subgroups = subgroupRefs(*req.SubgroupIDs)
	}

	var v validationCollector
	sl := &slot{
		StartTimingID: p.StartTimingID,
		EndTimingID:   p.EndTimingID,
		DisciplineID:  p.DisciplineID,
		TeacherID:     p.TeacherID,
		ClassroomID:   p.ClassroomID,
		SubgroupIDs:   subgroupIDList(p.Subgroups),
	}
	if err := s.checkSlot(ctx, &v, sl); err != nil {
		s.logger.Error("校验课表模板引用失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	p.StartTiming, p.EndTiming = nil, nil
	p.Discipline, p.Teacher, p.Classroom = nil, nil, nil
	p.UpdatedBy = &callerID
	if err := s.repo.Prototype.Update(ctx, p); err != nil {
		s.logger.Error("更新课表模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetPrototype(ctx, id)
}

func (s *scheduleService) DeletePrototype(ctx context.Context, id string, callerID string) error {
	if _, err := s.getPrototype(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Prototype.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除课表模板失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *scheduleService) getPrototype(ctx context.Context, id string) (*model.LessonPrototype, error) {
	p, err := s.repo.Prototype.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrototypeNotFound
		}
		s.logger.Error("查询课表模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func toPrototypeResponse(p *model.LessonPrototype) *dto.PrototypeResponse {
	resp := &dto.PrototypeResponse{
		ID:         p.PrototypeID,
		DayOfWeek:  p.DayOfWeek,
		WeekType:   p.WeekType,
		Discipline: dto.ShortResponse{ID: p.DisciplineID},
		Teacher:    teacherShort(p.Teacher),
		Classroom:  dto.ShortResponse{ID: p.ClassroomID},
		Subgroups:  subgroupShorts(p.Subgroups),
	}
	if p.StartTiming != nil {
		resp.Start = formatClock(p.StartTiming.StartTime)
	}
	if p.EndTiming != nil {
		resp.End = formatClock(p.EndTiming.EndTime)
	}
	if p.Discipline != nil {
		resp.Discipline.Name = p.Discipline.Name
	}
	if p.Teacher == nil {
		resp.Teacher.ID = p.TeacherID
	}
	if p.Classroom != nil {
		resp.Classroom.Name = p.Classroom.Name
	}
	return resp
}

// ── 小工具 ──

func setIfPresent(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func subgroupIDList(list []model.Subgroup) []string {
	ids := make([]string, 0, len(list))
	for _, sg := range list {
		ids = append(ids, sg.SubgroupID)
	}
	return ids
}
