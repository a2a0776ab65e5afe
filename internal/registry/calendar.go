package registry

import (
	"sort"
	"time"

	"klimr/backend/internal/model"
)

// Calendar 全部学期开始日期的有序序列，用于计算学年编号
type Calendar struct {
	starts []time.Time
}

// NewCalendar 由学期列表构建日历
func NewCalendar(semesters []model.Semester) *Calendar {
	starts := make([]time.Time, 0, len(semesters))
	for i := range semesters {
		starts = append(starts, semesters[i].StartOn)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	return &Calendar{starts: starts}
}

// PriorCount 开始日期严格早于 start 的学期数
func (c *Calendar) PriorCount(start time.Time) int {
	return sort.Search(len(c.starts), func(i int) bool {
		return !c.starts[i].Before(start)
	})
}

// YearNumber 状态所在学期对应的学年编号（从 1 开始）
func (c *Calendar) YearNumber(state *model.GroupSemesterState) int {
	if state == nil || state.Semester == nil {
		return 1
	}
	return c.PriorCount(state.Semester.StartOn)/2 + 1
}
