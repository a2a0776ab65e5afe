package registry

import (
	"errors"
	"sort"
	"time"

	"klimr/backend/internal/model"
)

// ErrNoState 班级没有任何学期状态
var ErrNoState = errors.New("班级尚无学期状态")

// NoSubgroupLabel 新建班级尚无任何状态时的占位展示
const NoSubgroupLabel = "NO SUBGROUP"

// Timeline 单个班级按学期排序的状态序列
// 排序键为 semester.start_on；同一学期多条状态时按 created_at 保持写入顺序
type Timeline struct {
	groupID string
	states  []*model.GroupSemesterState
}

// NewTimeline 由状态集合构建时间线
// 每条状态必须预加载 Semester，缺失的会被忽略
func NewTimeline(groupID string, states []model.GroupSemesterState) *Timeline {
	sorted := make([]*model.GroupSemesterState, 0, len(states))
	for i := range states {
		if states[i].Semester == nil {
			continue
		}
		sorted = append(sorted, &states[i])
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Semester.StartOn.Equal(b.Semester.StartOn) {
			return a.Semester.StartOn.Before(b.Semester.StartOn)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return &Timeline{groupID: groupID, states: sorted}
}

// GroupID 所属班级
func (t *Timeline) GroupID() string { return t.groupID }

// Len 状态数量
func (t *Timeline) Len() int { return len(t.states) }

// Empty 是否为零状态的退化班级
func (t *Timeline) Empty() bool { return len(t.states) == 0 }

// States 按学期升序返回全部状态
func (t *Timeline) States() []*model.GroupSemesterState {
	out := make([]*model.GroupSemesterState, len(t.states))
	copy(out, t.states)
	return out
}

// Latest 学期开始日期最大的状态；零状态时返回 ErrNoState
func (t *Timeline) Latest() (*model.GroupSemesterState, error) {
	if len(t.states) == 0 {
		return nil, ErrNoState
	}
	return t.states[len(t.states)-1], nil
}

// First 最早的状态；零状态时 ok=false，调用方展示 NoSubgroupLabel
func (t *Timeline) First() (state *model.GroupSemesterState, ok bool) {
	if len(t.states) == 0 {
		return nil, false
	}
	return t.states[0], true
}

// Name 班级当前名称，即最新状态的名称
func (t *Timeline) Name() (string, error) {
	latest, err := t.Latest()
	if err != nil {
		return "", err
	}
	return latest.Name, nil
}

// AsOf 在 date 当天生效的状态：学期开始日期不晚于 date 的最后一条
func (t *Timeline) AsOf(date time.Time) (*model.GroupSemesterState, error) {
	// 第一个开始日期晚于 date 的下标
	idx := sort.Search(len(t.states), func(i int) bool {
		return t.states[i].Semester.StartOn.After(date)
	})
	if idx == 0 {
		return nil, ErrNoState
	}
	return t.states[idx-1], nil
}

// Find 按 ID 查找时间线上的状态
func (t *Timeline) Find(stateID string) (*model.GroupSemesterState, bool) {
	for _, s := range t.states {
		if s.StateID == stateID {
			return s, true
		}
	}
	return nil, false
}

// HasSemester 时间线上是否已有该学期的状态
func (t *Timeline) HasSemester(semesterID string) bool {
	for _, s := range t.states {
		if s.SemesterID == semesterID {
			return true
		}
	}
	return false
}

// FirstSemesterLabel 最早学期的开始日期，零状态时为 NoSubgroupLabel
func (t *Timeline) FirstSemesterLabel() string {
	first, ok := t.First()
	if !ok {
		return NoSubgroupLabel
	}
	return first.Semester.StartOn.Format("2006-01-02")
}
