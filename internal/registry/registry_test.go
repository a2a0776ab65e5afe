package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klimr/backend/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func semester(id string, start time.Time) model.Semester {
	return model.Semester{
		SemesterID:    id,
		StartOn:       start,
		TestWeekOn:    start.AddDate(0, 2, 0),
		TestWeekEndOn: start.AddDate(0, 2, 6),
		SessionOn:     start.AddDate(0, 4, 0),
		SessionEndOn:  start.AddDate(0, 4, 20),
	}
}

func state(id, name string, sem model.Semester) model.GroupSemesterState {
	s := sem
	return model.GroupSemesterState{StateID: id, GroupID: "g-1", SemesterID: sem.SemesterID, Name: name, Semester: &s}
}

func TestTimeline_LatestAndFirst(t *testing.T) {
	fall := semester("fall-2020", date(2020, 9, 1))
	spring := semester("spring-2021", date(2021, 2, 8))
	fall21 := semester("fall-2021", date(2021, 9, 1))

	// 乱序传入，时间线应按学期开始日期排序
	tl := NewTimeline("g-1", []model.GroupSemesterState{
		state("s-2", "CS-101b", spring),
		state("s-3", "CS-201", fall21),
		state("s-1", "CS-101a", fall),
	})

	latest, err := tl.Latest()
	require.NoError(t, err)
	assert.Equal(t, "s-3", latest.StateID)

	first, ok := tl.First()
	require.True(t, ok)
	assert.Equal(t, "s-1", first.StateID)

	ids := make([]string, 0, tl.Len())
	for _, s := range tl.States() {
		ids = append(ids, s.StateID)
	}
	assert.Equal(t, []string{"s-1", "s-2", "s-3"}, ids)
}

func TestTimeline_ZeroStates(t *testing.T) {
	tl := NewTimeline("g-empty", nil)

	_, err := tl.Latest()
	assert.ErrorIs(t, err, ErrNoState)

	first, ok := tl.First()
	assert.False(t, ok)
	assert.Nil(t, first)
	assert.Equal(t, NoSubgroupLabel, tl.FirstSemesterLabel())

	_, err = tl.Name()
	assert.ErrorIs(t, err, ErrNoState)
	assert.True(t, tl.Empty())
}

func TestTimeline_CS101Scenario(t *testing.T) {
	fall := semester("fall-2020", date(2020, 9, 1))
	spring := semester("spring-2021", date(2021, 2, 8))

	tl := NewTimeline("g-1", []model.GroupSemesterState{
		state("s-1", "CS-101a", fall),
		state("s-2", "CS-101b", spring),
	})

	name, err := tl.Name()
	require.NoError(t, err)
	assert.Equal(t, "CS-101b", name)

	cal := NewCalendar([]model.Semester{spring, fall})
	latest, _ := tl.Latest()
	assert.Equal(t, 1, cal.YearNumber(latest))
}

func TestTimeline_RoundTrip(t *testing.T) {
	fall := semester("fall-2020", date(2020, 9, 1))
	spring := semester("spring-2021", date(2021, 2, 8))

	states := []model.GroupSemesterState{state("s-1", "A", fall)}
	created := state("s-2", "B", spring)
	states = append(states, created)

	latest, err := NewTimeline("g-1", states).Latest()
	require.NoError(t, err)
	assert.Equal(t, created.StateID, latest.StateID)
}

func TestTimeline_AsOf(t *testing.T) {
	fall := semester("fall-2020", date(2020, 9, 1))
	spring := semester("spring-2021", date(2021, 2, 8))
	tl := NewTimeline("g-1", []model.GroupSemesterState{
		state("s-1", "A", fall),
		state("s-2", "B", spring),
	})

	_, err := tl.AsOf(date(2020, 8, 31))
	assert.ErrorIs(t, err, ErrNoState)

	s, err := tl.AsOf(date(2020, 9, 1))
	require.NoError(t, err)
	assert.Equal(t, "s-1", s.StateID)

	s, err = tl.AsOf(date(2021, 2, 7))
	require.NoError(t, err)
	assert.Equal(t, "s-1", s.StateID)

	s, err = tl.AsOf(date(2030, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "s-2", s.StateID)
}

func TestTimeline_DuplicateSemesterKeepsWriteOrder(t *testing.T) {
	fall := semester("fall-2020", date(2020, 9, 1))
	draft := state("s-draft", "draft", fall)
	draft.CreatedAt = date(2020, 8, 1)
	final := state("s-final", "final", fall)
	final.CreatedAt = date(2020, 8, 2)

	tl := NewTimeline("g-1", []model.GroupSemesterState{final, draft})
	latest, err := tl.Latest()
	require.NoError(t, err)
	assert.Equal(t, "s-final", latest.StateID)
	assert.True(t, tl.HasSemester("fall-2020"))
}

func TestCalendar_YearNumber(t *testing.T) {
	var semesters []model.Semester
	for i := 0; i < 5; i++ {
		semesters = append(semesters, semester("sem", date(2020+i/2, time.Month(2+(i%2)*7), 1)))
	}
	cal := NewCalendar(semesters)

	want := []int{1, 1, 2, 2, 3}
	prev := 0
	for i, sem := range semesters {
		s := sem
		got := cal.YearNumber(&model.GroupSemesterState{Semester: &s})
		assert.Equal(t, want[i], got, "学期下标 %d", i)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestCalendar_OddCountRoundsDown(t *testing.T) {
	cal := NewCalendar([]model.Semester{
		semester("a", date(2019, 9, 1)),
		semester("b", date(2020, 2, 1)),
		semester("c", date(2020, 9, 1)),
	})
	// 之前有 3 个学期：3/2+1 = 2
	assert.Equal(t, 3, cal.PriorCount(date(2021, 2, 1)))
	s := semester("d", date(2021, 2, 1))
	assert.Equal(t, 2, cal.YearNumber(&model.GroupSemesterState{Semester: &s}))
}

func students(ids ...string) []model.Student {
	out := make([]model.Student, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Student{StudentID: id})
	}
	return out
}

func studentIDs(list []model.Student) []string {
	ids := make([]string, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.StudentID)
	}
	return ids
}

func TestBuildRoster_MultiPrimaryNeverMerged(t *testing.T) {
	st := &model.GroupSemesterState{Subgroups: []model.Subgroup{
		{SubgroupID: "a", Name: "Lab-A", Primary: true, Students: students("1", "2")},
		{SubgroupID: "b", Name: "Lab-B", Primary: true, Students: students("3")},
	}}

	r := BuildRoster(st)
	require.Equal(t, RosterMulti, r.Kind)
	assert.Nil(t, r.Students)
	require.Len(t, r.Subgroups, 2)
	assert.Equal(t, "Lab-A", r.Subgroups[0].Name)
	assert.Equal(t, []string{"1", "2"}, studentIDs(r.Subgroups[0].Students))
	assert.Equal(t, "Lab-B", r.Subgroups[1].Name)
	assert.Equal(t, []string{"3"}, studentIDs(r.Subgroups[1].Students))
	assert.ElementsMatch(t, []string{"1", "2", "3"}, studentIDs(r.Members()))
}

func TestBuildRoster_SinglePrimaryIsFlat(t *testing.T) {
	st := &model.GroupSemesterState{Subgroups: []model.Subgroup{
		{SubgroupID: "main", Name: "whole", Primary: true, Students: students("4", "5")},
		{SubgroupID: "opt", Name: "elective", Primary: false, Students: students("4")},
	}}

	r := BuildRoster(st)
	require.Equal(t, RosterSingle, r.Kind)
	assert.Equal(t, []string{"4", "5"}, studentIDs(r.Students))
	assert.Empty(t, r.Subgroups)
}

func TestBuildRoster_NoPrimaryIsEmptyNotError(t *testing.T) {
	r := BuildRoster(&model.GroupSemesterState{Subgroups: []model.Subgroup{
		{SubgroupID: "opt", Name: "elective", Primary: false, Students: students("7")},
	}})
	assert.Equal(t, RosterEmpty, r.Kind)
	assert.NotNil(t, r.Students)
	assert.Empty(t, r.Students)
}
