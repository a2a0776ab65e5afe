package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/model"
	"klimr/backend/internal/repository"
	pkgerrors "klimr/backend/pkg/errors"
)

// ── 学期模块业务错误 ──

var (
	ErrSemesterNotFound   = errors.New("学期不存在")
	ErrSemesterOverlap    = errors.New("学期时间与已有学期重叠")
	ErrSemesterInUse      = errors.New("学期已被班级状态引用，无法修改日期或删除")
	ErrHolidayNotFound    = errors.New("节假日不存在")
	ErrHolidayExists      = errors.New("该日期已登记节假日")
	ErrTimingNotFound     = errors.New("课时不存在")
	ErrTimingExists       = errors.New("相同起止时间的课时已存在")
	ErrHolidayImportEmpty = errors.New("日历中没有可导入的节假日")
)

// SemesterService 学期、节假日与课时业务接口
type SemesterService interface {
	Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SemesterResponse, error)
	List(ctx context.Context) ([]dto.SemesterResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSemesterRequest, callerID string) (*dto.SemesterResponse, error)
	Delete(ctx context.Context, id string, callerID string) error

	CreateHoliday(ctx context.Context, req *dto.HolidayRequest, callerID string) (*dto.HolidayResponse, error)
	GetHoliday(ctx context.Context, id string) (*dto.HolidayResponse, error)
	ListHolidays(ctx context.Context) ([]dto.HolidayResponse, error)
	UpdateHoliday(ctx context.Context, id string, req *dto.HolidayRequest, callerID string) (*dto.HolidayResponse, error)
	DeleteHoliday(ctx context.Context, id string, callerID string) error
	// ImportHolidays 从 iCalendar 文件导入节假日，已存在的日期跳过
	ImportHolidays(ctx context.Context, r io.Reader, callerID string) ([]dto.HolidayResponse, error)

	CreateTiming(ctx context.Context, req *dto.LessonTimingRequest, callerID string) (*dto.LessonTimingResponse, error)
	GetTiming(ctx context.Context, id string) (*dto.LessonTimingResponse, error)
	ListTimings(ctx context.Context) ([]dto.LessonTimingResponse, error)
	UpdateTiming(ctx context.Context, id string, req *dto.LessonTimingRequest, callerID string) (*dto.LessonTimingResponse, error)
	DeleteTiming(ctx context.Context, id string, callerID string) error
}

type semesterService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(repo *repository.Repository, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, logger: logger}
}

// ────────────────────── 学期 ──────────────────────

func (s *semesterService) Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error) {
	sem := &model.Semester{}
	if err := applySemesterDates(sem, &req.StartOn, &req.TestWeekOn, &req.TestWeekEndOn, &req.SessionOn, &req.SessionEndOn); err != nil {
		return nil, err
	}
	if err := s.checkSemester(ctx, sem); err != nil {
		return nil, err
	}

	sem.Stamp(callerID)
	if err := s.repo.Semester.Create(ctx, sem); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrSemesterOverlap
		}
		s.logger.Error("创建学期失败", zap.Error(err))
		return nil, err
	}
	return toSemesterResponse(sem), nil
}

func (s *semesterService) GetByID(ctx context.Context, id string) (*dto.SemesterResponse, error) {
	sem, err := s.getSemester(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSemesterResponse(sem), nil
}

func (s *semesterService) List(ctx context.Context) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.Semester.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.SemesterResponse, 0, len(semesters))
	for i := range semesters {
		result = append(result, *toSemesterResponse(&semesters[i]))
	}
	return result, nil
}

func (s *semesterService) Update(ctx context.Context, id string, req *dto.UpdateSemesterRequest, callerID string) (*dto.SemesterResponse, error) {
	sem, err := s.getSemester(ctx, id)
	if err != nil {
		return nil, err
	}
	if sem.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	before := *sem
	if err := applySemesterDates(sem, req.StartOn, req.TestWeekOn, req.TestWeekEndOn, req.SessionOn, req.SessionEndOn); err != nil {
		return nil, err
	}
	// 已被班级状态引用的学期日期不可再改，否则既有班级历史的排序与学年编号会随之变化
	if semesterDatesChanged(&before, sem) {
		count, err := s.repo.GroupState.CountBySemester(ctx, id)
		if err != nil {
			s.logger.Error("统计学期引用失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
		if count > 0 {
			return nil, ErrSemesterInUse
		}
	}
	if err := s.checkSemester(ctx, sem); err != nil {
		return nil, err
	}

	sem.UpdatedBy = &callerID
	if err := s.repo.Semester.Update(ctx, sem); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("更新学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toSemesterResponse(sem), nil
}

func semesterDatesChanged(a, b *model.Semester) bool {
	return !a.StartOn.Equal(b.StartOn) ||
		!a.TestWeekOn.Equal(b.TestWeekOn) ||
		!a.TestWeekEndOn.Equal(b.TestWeekEndOn) ||
		!a.SessionOn.Equal(b.SessionOn) ||
		!a.SessionEndOn.Equal(b.SessionEndOn)
}

func (s *semesterService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getSemester(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.GroupState.CountBySemester(ctx, id)
	if err != nil {
		s.logger.Error("统计学期引用失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrSemesterInUse
	}

	if err := s.repo.Semester.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除学期失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *semesterService) getSemester(ctx context.Context, id string) (*model.Semester, error) {
	sem, err := s.repo.Semester.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSemesterNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return sem, nil
}

// applySemesterDates 把非 nil 的日期写入学期
func applySemesterDates(sem *model.Semester, startOn, testWeekOn, testWeekEndOn, sessionOn, sessionEndOn *string) error {
	fields := []struct {
		name   string
		value  *string
		target *time.Time
	}{
		{"start_on", startOn, &sem.StartOn},
		{"test_week_on", testWeekOn, &sem.TestWeekOn},
		{"test_week_end_on", testWeekEndOn, &sem.TestWeekEndOn},
		{"session_on", sessionOn, &sem.SessionOn},
		{"session_end_on", sessionEndOn, &sem.SessionEndOn},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		t, err := parseDate(f.name, *f.value)
		if err != nil {
			return err
		}
		*f.target = t
	}
	return nil
}

// checkSemester 校验里程碑顺序以及与其他学期不重叠
func (s *semesterService) checkSemester(ctx context.Context, sem *model.Semester) error {
	var v validationCollector
	if !sem.StartOn.Before(sem.TestWeekOn) {
		v.add("test_week_on", "must be after start_on")
	}
	if sem.TestWeekEndOn.Before(sem.TestWeekOn) {
		v.add("test_week_end_on", "must not be before test_week_on")
	}
	if !sem.TestWeekEndOn.Before(sem.SessionOn) {
		v.add("session_on", "must be after test_week_end_on")
	}
	if sem.SessionEndOn.Before(sem.SessionOn) {
		v.add("session_end_on", "must not be before session_on")
	}
	if err := v.err(); err != nil {
		return err
	}

	overlapping, err := s.repo.Semester.FindOverlapping(ctx, sem.StartOn, sem.SessionEndOn, sem.SemesterID)
	if err != nil {
		s.logger.Error("查询重叠学期失败", zap.Error(err))
		return err
	}
	if len(overlapping) > 0 {
		return ErrSemesterOverlap
	}
	return nil
}

// ────────────────────── 节假日 ──────────────────────

func (s *semesterService) CreateHoliday(ctx context.Context, req *dto.HolidayRequest, callerID string) (*dto.HolidayResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	h := &model.Holiday{Date: date, Reason: req.Reason}
	h.Stamp(callerID)
	if err := s.repo.Holiday.Create(ctx, h); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrHolidayExists
		}
		s.logger.Error("创建节假日失败", zap.Error(err))
		return nil, err
	}
	return toHolidayResponse(h), nil
}

func (s *semesterService) GetHoliday(ctx context.Context, id string) (*dto.HolidayResponse, error) {
	h, err := s.getHoliday(ctx, id)
	if err != nil {
		return nil, err
	}
	return toHolidayResponse(h), nil
}

func (s *semesterService) ListHolidays(ctx context.Context) ([]dto.HolidayResponse, error) {
	holidays, err := s.repo.Holiday.List(ctx)
	if err != nil {
		s.logger.Error("列出节假日失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.HolidayResponse, 0, len(holidays))
	for i := range holidays {
		result = append(result, *toHolidayResponse(&holidays[i]))
	}
	return result, nil
}

func (s *semesterService) UpdateHoliday(ctx context.Context, id string, req *dto.HolidayRequest, callerID string) (*dto.HolidayResponse, error) {
	h, err := s.getHoliday(ctx, id)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	h.Date = date
	h.Reason = req.Reason
	h.UpdatedBy = &callerID
	if err := s.repo.Holiday.Update(ctx, h); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrHolidayExists
		}
		s.logger.Error("更新节假日失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toHolidayResponse(h), nil
}

func (s *semesterService) DeleteHoliday(ctx context.Context, id string, callerID string) error {
	if _, err := s.getHoliday(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Holiday.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除节假日失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *semesterService) ImportHolidays(ctx context.Context, r io.Reader, callerID string) ([]dto.HolidayResponse, error) {
	parsed, err := ParseHolidayCalendar(r)
	if err != nil {
		return nil, fieldError("file", err.Error())
	}
	if len(parsed) == 0 {
		return nil, ErrHolidayImportEmpty
	}

	existing, err := s.repo.Holiday.List(ctx)
	if err != nil {
		s.logger.Error("列出节假日失败", zap.Error(err))
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, h := range existing {
		known[formatDate(h.Date)] = true
	}

	created := make([]dto.HolidayResponse, 0, len(parsed))
	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		for i := range parsed {
			h := parsed[i]
			if known[formatDate(h.Date)] {
				continue
			}
			known[formatDate(h.Date)] = true
			h.Stamp(callerID)
			if err := txRepo.Holiday.Create(ctx, &h); err != nil {
				return err
			}
			created = append(created, *toHolidayResponse(&h))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("导入节假日失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("节假日导入完成", zap.Int("parsed", len(parsed)), zap.Int("created", len(created)))
	return created, nil
}

func (s *semesterService) getHoliday(ctx context.Context, id string) (*model.Holiday, error) {
	h, err := s.repo.Holiday.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHolidayNotFound
		}
		s.logger.Error("查询节假日失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return h, nil
}

func toHolidayResponse(h *model.Holiday) *dto.HolidayResponse {
	return &dto.HolidayResponse{ID: h.HolidayID, Date: formatDate(h.Date), Reason: h.Reason}
}

// ────────────────────── 课时 ──────────────────────

func (s *semesterService) CreateTiming(ctx context.Context, req *dto.LessonTimingRequest, callerID string) (*dto.LessonTimingResponse, error) {
	if err := checkTimingOrder(req); err != nil {
		return nil, err
	}
	t := &model.LessonTiming{StartTime: normalizeClock(req.Start), EndTime: normalizeClock(req.End)}
	t.Stamp(callerID)
	if err := s.repo.Timing.Create(ctx, t); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrTimingExists
		}
		s.logger.Error("创建课时失败", zap.Error(err))
		return nil, err
	}
	return toTimingResponse(t), nil
}

func (s *semesterService) GetTiming(ctx context.Context, id string) (*dto.LessonTimingResponse, error) {
	t, err := s.getTiming(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTimingResponse(t), nil
}

func (s *semesterService) ListTimings(ctx context.Context) ([]dto.LessonTimingResponse, error) {
	timings, err := s.repo.Timing.List(ctx)
	if err != nil {
		s.logger.Error("列出课时失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.LessonTimingResponse, 0, len(timings))
	for i := range timings {
		result = append(result, *toTimingResponse(&timings[i]))
	}
	return result, nil
}

func (s *semesterService) UpdateTiming(ctx context.Context, id string, req *dto.LessonTimingRequest, callerID string) (*dto.LessonTimingResponse, error) {
	t, err := s.getTiming(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTimingOrder(req); err != nil {
		return nil, err
	}
	t.StartTime = normalizeClock(req.Start)
	t.EndTime = normalizeClock(req.End)
	t.UpdatedBy = &callerID
	if err := s.repo.Timing.Update(ctx, t); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrTimingExists
		}
		s.logger.Error("更新课时失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toTimingResponse(t), nil
}

func (s *semesterService) DeleteTiming(ctx context.Context, id string, callerID string) error {
	if _, err := s.getTiming(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Timing.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除课时失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *semesterService) getTiming(ctx context.Context, id string) (*model.LessonTiming, error) {
	t, err := s.repo.Timing.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimingNotFound
		}
		s.logger.Error("查询课时失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func checkTimingOrder(req *dto.LessonTimingRequest) error {
	if normalizeClock(req.Start) >= normalizeClock(req.End) {
		return fieldError("end", "must be after start")
	}
	return nil
}

func toTimingResponse(t *model.LessonTiming) *dto.LessonTimingResponse {
	return &dto.LessonTimingResponse{ID: t.TimingID, Start: formatClock(t.StartTime), End: formatClock(t.EndTime)}
}
