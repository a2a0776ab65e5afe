package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"klimr/backend/internal/model"
	"klimr/backend/internal/registry"
	"klimr/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 名单导出为 Excel (.xlsx)，取班级最新学期状态
//   - 课堂导出为 iCalendar (.ics)，覆盖班级全部学期状态下的子组
//   - 文件内容以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportRoster 导出班级最新状态的名单
	ExportRoster(ctx context.Context, groupID string) (*bytes.Buffer, string, error)
	// ExportGroupCalendar 导出班级课堂日历
	ExportGroupCalendar(ctx context.Context, groupID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
// loc 为课时所在时区，课堂起止时间按该时区换算
func NewExportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{repo: repo, loc: loc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportRoster — 导出名单为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "名单"：标题行为班级名称与学期；
//     单主子组时平铺学生，多主子组时按子组名分段
//   - Sheet "子组"：全部子组及其成员、教师、科目
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportRoster(ctx context.Context, groupID string) (*bytes.Buffer, string, error) {
	group, err := s.repo.Group.GetWithStates(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrGroupNotFound
		}
		s.logger.Error("查询班级状态失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, "", err
	}
	latest, err := registry.NewTimeline(group.GroupID, group.States).Latest()
	if err != nil {
		return nil, "", ErrGroupHasNoState
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "名单"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 20)
	f.SetColWidth(sheetName, "C", "C", 36)
	f.SetColWidth(sheetName, "D", "D", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s (%s)", latest.Name, formatDate(latest.Semester.StartOn)))
	f.MergeCell(sheetName, "A1", "D1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "序号")
	f.SetCellValue(sheetName, cell("B", row), "子组")
	f.SetCellValue(sheetName, cell("C", row), "学生")
	f.SetCellValue(sheetName, cell("D", row), "已退学")

	// 数据行
	row = 3
	writeStudents := func(subgroup string, students []model.Student) {
		for i := range students {
			f.SetCellValue(sheetName, cell("A", row), row-2)
			f.SetCellValue(sheetName, cell("B", row), subgroup)
			name := students[i].StudentID
			if students[i].Person != nil {
				name = students[i].Person.FullName()
			}
			f.SetCellValue(sheetName, cell("C", row), name)
			if students[i].Expelled() {
				f.SetCellValue(sheetName, cell("D", row), "是")
			}
			row++
		}
	}

	roster := registry.BuildRoster(latest)
	switch roster.Kind {
	case registry.RosterMulti:
		for _, sg := range roster.Subgroups {
			writeStudents(sg.Name, sg.Students)
		}
	default:
		writeStudents("", roster.Students)
	}

	if err := s.writeSubgroupSheet(f, latest); err != nil {
		s.logger.Error("写入子组 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("roster_%s_%s.xlsx", safeFilename(latest.Name), formatDate(latest.Semester.StartOn))
	return buf, filename, nil
}

func (s *exportService) writeSubgroupSheet(f *excelize.File, state *model.GroupSemesterState) error {
	sheetName := "子组"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}
	headers := []string{"子组", "主子组", "学生", "教师", "科目"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}

	row := 2
	for _, sg := range state.Subgroups {
		f.SetCellValue(sheetName, cell("A", row), sg.Name)
		if sg.Primary {
			f.SetCellValue(sheetName, cell("B", row), "是")
		}
		students := make([]string, 0, len(sg.Students))
		for _, b := range toStudentBriefs(sg.Students) {
			students = append(students, b.Name)
		}
		teachers := make([]string, 0, len(sg.Teachers))
		for _, t := range teacherShorts(sg.Teachers) {
			teachers = append(teachers, t.Name)
		}
		disciplines := make([]string, 0, len(sg.Disciplines))
		for _, d := range sg.Disciplines {
			disciplines = append(disciplines, d.Name)
		}
		f.SetCellValue(sheetName, cell("C", row), strings.Join(students, ", "))
		f.SetCellValue(sheetName, cell("D", row), strings.Join(teachers, ", "))
		f.SetCellValue(sheetName, cell("E", row), strings.Join(disciplines, ", "))
		row++
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// ExportGroupCalendar — 导出班级课堂为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每节课一个 VEVENT：UID 为课堂 id，SUMMARY 为科目名，
// LOCATION 为教室名，已取消的课堂 STATUS 为 CANCELLED

func (s *exportService) ExportGroupCalendar(ctx context.Context, groupID string) (*bytes.Buffer, string, error) {
	group, err := s.repo.Group.GetWithStates(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrGroupNotFound
		}
		s.logger.Error("查询班级失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, "", err
	}

	lessons, err := s.repo.Lesson.ListByGroup(ctx, groupID, time.Time{}, time.Time{})
	if err != nil {
		s.logger.Error("查询班级课堂失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//klimr//schedule//EN")

	now := time.Now().UTC()
	for i := range lessons {
		l := &lessons[i]
		if l.StartTiming == nil || l.EndTiming == nil {
			continue
		}
		start, err := s.lessonTime(l.Date, l.StartTiming.StartTime)
		if err != nil {
			s.logger.Warn("课时格式无法解析，已跳过", zap.String("lesson_id", l.LessonID), zap.Error(err))
			continue
		}
		end, err := s.lessonTime(l.Date, l.EndTiming.EndTime)
		if err != nil {
			s.logger.Warn("课时格式无法解析，已跳过", zap.String("lesson_id", l.LessonID), zap.Error(err))
			continue
		}

		evt := cal.AddEvent(l.LessonID + "@klimr")
		evt.SetDtStampTime(now)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		summary := l.DisciplineID
		if l.Discipline != nil {
			summary = l.Discipline.Name
		}
		evt.SetSummary(summary)
		if l.Classroom != nil {
			evt.SetLocation(l.Classroom.Name)
		}
		if l.Teacher != nil && l.Teacher.Person != nil {
			evt.SetDescription(l.Teacher.Person.FullName())
		}
		if l.State == model.LessonCancelled {
			evt.SetStatus(ics.ObjectStatusCancelled)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	name := groupID
	if n := groupName(registry.NewTimeline(group.GroupID, group.States)); n != nil {
		name = *n
	}
	return buf, fmt.Sprintf("schedule_%s.ics", safeFilename(name)), nil
}

// lessonTime 课堂日期 + 课时时刻（HH:MM[:SS]）
func (s *exportService) lessonTime(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04:05", normalizeClock(formatClock(clock)))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, s.loc), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// safeFilename 去掉文件名中不安全的字符
func safeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
