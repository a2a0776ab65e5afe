package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/model"
	pkgerrors "klimr/backend/pkg/errors"
)

// ── 测试辅助 ──

func setupTestSemesterService() (SemesterService, *memStore) {
	repo, m := newMockRepository()
	return NewSemesterService(repo, zap.NewNop()), m
}

func springReq() *dto.CreateSemesterRequest {
	return &dto.CreateSemesterRequest{
		StartOn:       "2021-02-08",
		TestWeekOn:    "2021-04-05",
		TestWeekEndOn: "2021-04-11",
		SessionOn:     "2021-06-01",
		SessionEndOn:  "2021-06-30",
	}
}

// ── 学期 ──

func TestSemesterService_Create_Success(t *testing.T) {
	svc, _ := setupTestSemesterService()

	result, err := svc.Create(context.Background(), springReq(), "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.StartOn != "2021-02-08" || result.SessionEndOn != "2021-06-30" {
		t.Errorf("日期不正确: %+v", result)
	}
	if result.Version != 1 {
		t.Errorf("期望 Version=1，实际=%d", result.Version)
	}
}

func TestSemesterService_Create_MilestoneOrder(t *testing.T) {
	svc, _ := setupTestSemesterService()

	tests := []struct {
		name   string
		mutate func(r *dto.CreateSemesterRequest)
		field  string
	}{
		{"测试周早于开学", func(r *dto.CreateSemesterRequest) { r.TestWeekOn = "2021-02-01" }, "test_week_on"},
		{"测试周结束早于开始", func(r *dto.CreateSemesterRequest) { r.TestWeekEndOn = "2021-04-04" }, "test_week_end_on"},
		{"考试周不晚于测试周", func(r *dto.CreateSemesterRequest) { r.SessionOn = "2021-04-11" }, "session_on"},
		{"考试周结束早于开始", func(r *dto.CreateSemesterRequest) { r.SessionEndOn = "2021-05-31" }, "session_end_on"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := springReq()
			tt.mutate(req)
			_, err := svc.Create(context.Background(), req, "")
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("期望 ValidationError，实际: %v", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("期望字段 %s 出错，实际=%v", tt.field, ve.Fields)
			}
		})
	}
}

func TestSemesterService_Create_BadDateFormat(t *testing.T) {
	svc, _ := setupTestSemesterService()
	req := springReq()
	req.StartOn = "08.02.2021"

	_, err := svc.Create(context.Background(), req, "")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["start_on"] == "" {
		t.Errorf("期望 start_on 格式错误，实际: %v", err)
	}
}

func TestSemesterService_Create_Overlap(t *testing.T) {
	svc, _ := setupTestSemesterService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, springReq(), ""); err != nil {
		t.Fatalf("第一个学期应创建成功: %v", err)
	}

	overlapping := &dto.CreateSemesterRequest{
		StartOn:       "2021-06-15",
		TestWeekOn:    "2021-08-01",
		TestWeekEndOn: "2021-08-07",
		SessionOn:     "2021-10-01",
		SessionEndOn:  "2021-10-31",
	}
	if _, err := svc.Create(ctx, overlapping, ""); !errors.Is(err, ErrSemesterOverlap) {
		t.Errorf("期望 ErrSemesterOverlap，实际: %v", err)
	}
}

func TestSemesterService_Update_OptimisticLock(t *testing.T) {
	svc, _ := setupTestSemesterService()
	ctx := context.Background()
	created, err := svc.Create(ctx, springReq(), "")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	newEnd := "2021-07-02"
	updated, err := svc.Update(ctx, created.ID, &dto.UpdateSemesterRequest{SessionEndOn: &newEnd, Version: created.Version}, "")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.SessionEndOn != newEnd || updated.Version != 2 {
		t.Errorf("期望 session_end_on=%s version=2，实际=%+v", newEnd, updated)
	}

	// 使用过期版本号
	_, err = svc.Update(ctx, created.ID, &dto.UpdateSemesterRequest{SessionEndOn: &newEnd, Version: created.Version}, "")
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestSemesterService_Update_DoesNotOverlapItself(t *testing.T) {
	svc, _ := setupTestSemesterService()
	ctx := context.Background()
	created, err := svc.Create(ctx, springReq(), "")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	start := "2021-02-09"
	if _, err := svc.Update(ctx, created.ID, &dto.UpdateSemesterRequest{StartOn: &start, Version: 1}, ""); err != nil {
		t.Errorf("更新自身不应判为重叠: %v", err)
	}
}

func TestSemesterService_Update_InUseRejected(t *testing.T) {
	svc, m := setupTestSemesterService()
	ctx := context.Background()
	sem := m.addSemester("2021-02-08")
	m.states["state-x"] = &model.GroupSemesterState{StateID: "state-x", GroupID: "g", SemesterID: sem.SemesterID, Name: "CS-101"}

	start := "2021-02-01"
	if _, err := svc.Update(ctx, sem.SemesterID, &dto.UpdateSemesterRequest{StartOn: &start, Version: 1}, ""); !errors.Is(err, ErrSemesterInUse) {
		t.Errorf("被引用学期修改日期期望 ErrSemesterInUse，实际: %v", err)
	}
	got, err := svc.GetByID(ctx, sem.SemesterID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if got.StartOn != "2021-02-08" {
		t.Errorf("被拒绝的修改不应生效，start_on=%s", got.StartOn)
	}

	// 日期不变的提交不受限制
	same := "2021-02-08"
	if _, err := svc.Update(ctx, sem.SemesterID, &dto.UpdateSemesterRequest{StartOn: &same, Version: 1}, ""); err != nil {
		t.Errorf("日期未变化时 Update 应成功: %v", err)
	}

	delete(m.states, "state-x")
	if _, err := svc.Update(ctx, sem.SemesterID, &dto.UpdateSemesterRequest{StartOn: &start, Version: 2}, ""); err != nil {
		t.Errorf("未被引用时 Update 应成功: %v", err)
	}
}

func TestSemesterService_Delete_InUse(t *testing.T) {
	svc, m := setupTestSemesterService()
	ctx := context.Background()
	sem := m.addSemester("2021-02-08")
	m.states["state-x"] = &model.GroupSemesterState{StateID: "state-x", GroupID: "g", SemesterID: sem.SemesterID, Name: "CS-101"}

	if err := svc.Delete(ctx, sem.SemesterID, ""); !errors.Is(err, ErrSemesterInUse) {
		t.Errorf("期望 ErrSemesterInUse，实际: %v", err)
	}

	delete(m.states, "state-x")
	if err := svc.Delete(ctx, sem.SemesterID, ""); err != nil {
		t.Fatalf("未被引用时 Delete 应成功: %v", err)
	}
	if _, err := svc.GetByID(ctx, sem.SemesterID); !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("期望 ErrSemesterNotFound，实际: %v", err)
	}
}

func TestSemesterService_List_SortedByStart(t *testing.T) {
	svc, m := setupTestSemesterService()
	m.addSemester("2021-09-01")
	m.addSemester("2020-09-01")
	m.addSemester("2021-02-08")

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	var starts []string
	for _, s := range list {
		starts = append(starts, s.StartOn)
	}
	if strings.Join(starts, ",") != "2020-09-01,2021-02-08,2021-09-01" {
		t.Errorf("学期应按开始日期升序，实际=%v", starts)
	}
}

// ── 节假日 ──

func TestSemesterService_Holiday_DuplicateDate(t *testing.T) {
	svc, _ := setupTestSemesterService()
	ctx := context.Background()
	if _, err := svc.CreateHoliday(ctx, &dto.HolidayRequest{Date: "2021-05-01", Reason: "劳动节"}, ""); err != nil {
		t.Fatalf("CreateHoliday 应成功: %v", err)
	}
	if _, err := svc.CreateHoliday(ctx, &dto.HolidayRequest{Date: "2021-05-01", Reason: "重复"}, ""); !errors.Is(err, ErrHolidayExists) {
		t.Errorf("期望 ErrHolidayExists，实际: %v", err)
	}
	if _, err := svc.GetHoliday(ctx, "missing"); !errors.Is(err, ErrHolidayNotFound) {
		t.Errorf("期望 ErrHolidayNotFound，实际: %v", err)
	}
}

const testHolidayICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//holidays//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:may-day@test\r\n" +
	"DTSTART;VALUE=DATE:20210501\r\n" +
	"DTEND;VALUE=DATE:20210504\r\n" +
	"SUMMARY:劳动节\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:victory@test\r\n" +
	"DTSTART;VALUE=DATE:20210509\r\n" +
	"SUMMARY:胜利日\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestSemesterService_ImportHolidays(t *testing.T) {
	svc, _ := setupTestSemesterService()
	ctx := context.Background()
	if _, err := svc.CreateHoliday(ctx, &dto.HolidayRequest{Date: "2021-05-02", Reason: "已登记"}, ""); err != nil {
		t.Fatalf("CreateHoliday 应成功: %v", err)
	}

	created, err := svc.ImportHolidays(ctx, strings.NewReader(testHolidayICS), "admin-001")
	if err != nil {
		t.Fatalf("ImportHolidays 应成功: %v", err)
	}
	var dates []string
	for _, h := range created {
		dates = append(dates, h.Date)
	}
	// 05-02 已存在被跳过；DTEND 不含当天
	if strings.Join(dates, ",") != "2021-05-01,2021-05-03,2021-05-09" {
		t.Errorf("导入日期不正确: %v", dates)
	}

	all, _ := svc.ListHolidays(ctx)
	if len(all) != 4 {
		t.Errorf("期望共 4 个节假日，实际=%d", len(all))
	}
}

func TestSemesterService_ImportHolidays_Empty(t *testing.T) {
	svc, _ := setupTestSemesterService()
	empty := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\nEND:VCALENDAR\r\n"
	if _, err := svc.ImportHolidays(context.Background(), strings.NewReader(empty), ""); !errors.Is(err, ErrHolidayImportEmpty) {
		t.Errorf("期望 ErrHolidayImportEmpty，实际: %v", err)
	}
}

// ── 课时 ──

func TestSemesterService_Timing(t *testing.T) {
	svc, _ := setupTestSemesterService()
	ctx := context.Background()

	created, err := svc.CreateTiming(ctx, &dto.LessonTimingRequest{Start: "8:30", End: "10:00"}, "")
	if err != nil {
		t.Fatalf("CreateTiming 应成功: %v", err)
	}
	if created.Start != "08:30" || created.End != "10:00" {
		t.Errorf("期望 08:30-10:00，实际=%s-%s", created.Start, created.End)
	}

	if _, err := svc.CreateTiming(ctx, &dto.LessonTimingRequest{Start: "08:30", End: "10:00"}, ""); !errors.Is(err, ErrTimingExists) {
		t.Errorf("期望 ErrTimingExists，实际: %v", err)
	}

	_, err = svc.CreateTiming(ctx, &dto.LessonTimingRequest{Start: "12:00", End: "11:00"}, "")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["end"] == "" {
		t.Errorf("结束早于开始应返回 end 字段错误，实际: %v", err)
	}

	if err := svc.DeleteTiming(ctx, created.ID, ""); err != nil {
		t.Fatalf("DeleteTiming 应成功: %v", err)
	}
	if _, err := svc.GetTiming(ctx, created.ID); !errors.Is(err, ErrTimingNotFound) {
		t.Errorf("期望 ErrTimingNotFound，实际: %v", err)
	}
}
