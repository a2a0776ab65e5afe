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
	pkgerrors "klimr/backend/pkg/errors"
)

// ── 排队模块业务错误 ──

var (
	ErrQueueRecordNotFound = errors.New("排队记录不存在")
	ErrRecordNotInLesson   = errors.New("排队记录不属于该课堂")
	ErrDuplicateRank       = errors.New("建议顺序中存在重复名次")
	ErrQueueForOtherPerson = errors.New("学生只能为本人加入排队")
)

// QueueService 课堂排队业务接口
// 排队记录与计时只追加，不提供修改与删除
type QueueService interface {
	// AddRecord 学生角色只能为本人排队；教职工可代任意学生加入
	AddRecord(ctx context.Context, req *dto.CreateQueueRecordRequest, caller Caller) (*dto.QueueRecordResponse, error)
	// ListRecords 按加入时间返回课堂的排队记录
	ListRecords(ctx context.Context, lessonID string) ([]dto.QueueRecordResponse, error)

	AddMeasurement(ctx context.Context, req *dto.CreateMeasurementRequest) (*dto.MeasurementResponse, error)
	ListMeasurements(ctx context.Context, lessonID string) ([]dto.MeasurementResponse, error)

	// SetAdvice 写入建议顺序；记录必须属于该课堂，名次不得重复
	SetAdvice(ctx context.Context, lessonID string, req *dto.SetAdvisedQueueRequest) ([]dto.AdvisedQueueResponse, error)
	ListAdvice(ctx context.Context, lessonID string) ([]dto.AdvisedQueueResponse, error)
}

// Caller 发起请求的账号（取自 access token）
type Caller struct {
	PersonID string
	Role     string
}

type queueService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewQueueService 创建 QueueService 实例
func NewQueueService(repo *repository.Repository, logger *zap.Logger) QueueService {
	return &queueService{repo: repo, logger: logger}
}

// ────────────────────── 排队记录 ──────────────────────

func (s *queueService) AddRecord(ctx context.Context, req *dto.CreateQueueRecordRequest, caller Caller) (*dto.QueueRecordResponse, error) {
	var v validationCollector
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefStudent, "student_id", req.StudentID); err != nil {
		return nil, err
	}
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefLesson, "lesson_id", req.LessonID); err != nil {
		return nil, err
	}
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefAssignment, "assignment_ids", req.AssignmentIDs...); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if caller.Role == model.RoleStudent {
		student, err := s.repo.Student.GetByID(ctx, req.StudentID)
		if err != nil {
			s.logger.Error("查询学生失败", zap.String("student_id", req.StudentID), zap.Error(err))
			return nil, err
		}
		if student.PersonID != caller.PersonID {
			return nil, ErrQueueForOtherPerson
		}
	}

	record := &model.QueueRecord{
		StudentID:   req.StudentID,
		LessonID:    req.LessonID,
		Reason:      req.Reason,
		AddedOn:     time.Now(),
		Assignments: assignmentRefs(req.AssignmentIDs),
	}
	if err := s.repo.Queue.CreateRecord(ctx, record); err != nil {
		s.logger.Error("创建排队记录失败", zap.String("lesson_id", req.LessonID), zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Queue.GetRecord(ctx, record.RecordID)
	if err != nil {
		s.logger.Error("查询排队记录失败", zap.String("record_id", record.RecordID), zap.Error(err))
		return nil, err
	}
	resp := toQueueRecordResponse(created)
	return &resp, nil
}

func (s *queueService) ListRecords(ctx context.Context, lessonID string) ([]dto.QueueRecordResponse, error) {
	if err := s.ensureLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	records, err := s.repo.Queue.ListRecordsByLesson(ctx, lessonID)
	if err != nil {
		s.logger.Error("列出排队记录失败", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.QueueRecordResponse, 0, len(records))
	for i := range records {
		result = append(result, toQueueRecordResponse(&records[i]))
	}
	return result, nil
}

// ────────────────────── 计时 ──────────────────────

func (s *queueService) AddMeasurement(ctx context.Context, req *dto.CreateMeasurementRequest) (*dto.MeasurementResponse, error) {
	var v validationCollector
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefPerson, "person_id", req.PersonID); err != nil {
		return nil, err
	}
	if err := checkRefs(ctx, s.repo.Refs, &v, repository.RefLesson, "lesson_id", req.LessonID); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	if _, err := s.recordOfLesson(ctx, req.RecordID, req.LessonID); err != nil {
		return nil, err
	}

	m := &model.Measurement{
		PersonID:  req.PersonID,
		LessonID:  req.LessonID,
		RecordID:  req.RecordID,
		Time:      req.Time,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Queue.CreateMeasurement(ctx, m); err != nil {
		s.logger.Error("创建计时记录失败", zap.String("lesson_id", req.LessonID), zap.Error(err))
		return nil, err
	}
	resp := toMeasurementResponse(m)
	return &resp, nil
}

func (s *queueService) ListMeasurements(ctx context.Context, lessonID string) ([]dto.MeasurementResponse, error) {
	if err := s.ensureLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	list, err := s.repo.Queue.ListMeasurementsByLesson(ctx, lessonID)
	if err != nil {
		s.logger.Error("列出计时记录失败", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.MeasurementResponse, 0, len(list))
	for i := range list {
		result = append(result, toMeasurementResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── 建议顺序 ──────────────────────

func (s *queueService) SetAdvice(ctx context.Context, lessonID string, req *dto.SetAdvisedQueueRequest) ([]dto.AdvisedQueueResponse, error) {
	if err := s.ensureLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	ranks := make(map[int]bool, len(req.Items))
	for _, item := range req.Items {
		if ranks[item.Rank] {
			return nil, ErrDuplicateRank
		}
		ranks[item.Rank] = true
	}

	items := make([]model.AdvisedQueue, 0, len(req.Items))
	now := time.Now()
	for _, item := range req.Items {
		if _, err := s.recordOfLesson(ctx, item.RecordID, lessonID); err != nil {
			return nil, err
		}
		items = append(items, model.AdvisedQueue{RecordID: item.RecordID, Rank: item.Rank, CreatedAt: now})
	}

	if err := s.repo.Queue.CreateAdvice(ctx, items); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrDuplicateRank
		}
		s.logger.Error("写入建议顺序失败", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("建议顺序已写入", zap.String("lesson_id", lessonID), zap.Int("items", len(items)))
	return s.ListAdvice(ctx, lessonID)
}

func (s *queueService) ListAdvice(ctx context.Context, lessonID string) ([]dto.AdvisedQueueResponse, error) {
	if err := s.ensureLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	list, err := s.repo.Queue.ListAdviceByLesson(ctx, lessonID)
	if err != nil {
		s.logger.Error("列出建议顺序失败", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.AdvisedQueueResponse, 0, len(list))
	for _, a := range list {
		item := dto.AdvisedQueueResponse{RecordID: a.RecordID, Rank: a.Rank}
		if a.Record != nil {
			item.StudentID = a.Record.StudentID
			item.Reason = a.Record.Reason
		}
		result = append(result, item)
	}
	return result, nil
}

// ── 内部辅助 ──

func (s *queueService) ensureLesson(ctx context.Context, lessonID string) error {
	missing, err := s.repo.Refs.Missing(ctx, repository.RefLesson, []string{lessonID})
	if err != nil {
		s.logger.Error("查询课堂失败", zap.String("lesson_id", lessonID), zap.Error(err))
		return err
	}
	if len(missing) > 0 {
		return ErrLessonNotFound
	}
	return nil
}

// recordOfLesson 读取排队记录并确认其属于该课堂
func (s *queueService) recordOfLesson(ctx context.Context, recordID, lessonID string) (*model.QueueRecord, error) {
	record, err := s.repo.Queue.GetRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQueueRecordNotFound
		}
		s.logger.Error("查询排队记录失败", zap.String("record_id", recordID), zap.Error(err))
		return nil, err
	}
	if record.LessonID != lessonID {
		return nil, ErrRecordNotInLesson
	}
	return record, nil
}

func toQueueRecordResponse(r *model.QueueRecord) dto.QueueRecordResponse {
	resp := dto.QueueRecordResponse{
		ID:            r.RecordID,
		StudentID:     r.StudentID,
		LessonID:      r.LessonID,
		Reason:        r.Reason,
		AddedOn:       r.AddedOn.Format(time.RFC3339),
		AssignmentIDs: make([]string, 0, len(r.Assignments)),
	}
	if r.Student != nil && r.Student.Person != nil {
		resp.Student = r.Student.Person.FullName()
	}
	for _, a := range r.Assignments {
		resp.AssignmentIDs = append(resp.AssignmentIDs, a.AssignmentID)
	}
	return resp
}

func toMeasurementResponse(m *model.Measurement) dto.MeasurementResponse {
	return dto.MeasurementResponse{
		ID:       m.MeasurementID,
		PersonID: m.PersonID,
		LessonID: m.LessonID,
		RecordID: m.RecordID,
		Time:     m.Time,
	}
}
