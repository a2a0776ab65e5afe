package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"klimr/backend/internal/model"
	"klimr/backend/internal/repository"
	pkgerrors "klimr/backend/pkg/errors"
)

// ── 内存数据集 ──
//
// memStore 同时充当全部 Repository 的后端；写入保存 id 关联，
// 读取时按数据库预加载的样子组装关联对象

type memStore struct {
	seq int

	semesters   map[string]*model.Semester
	holidays    map[string]*model.Holiday
	timings     map[string]*model.LessonTiming
	persons     map[string]*model.Person
	accounts    map[string]*model.Account
	departments map[string]*model.Department
	courses     map[string]*model.Course
	groups      map[string]*model.Group
	states      map[string]*model.GroupSemesterState
	subgroups   map[string]*model.Subgroup
	students    map[string]*model.Student
	teachers    map[string]*model.Teacher
	disciplines map[string]*model.Discipline
	classrooms  map[string]*model.Classroom
	assignments map[string]*model.Assignment
	completed   map[string]*model.CompletedAssignment
	lessons     map[string]*model.Lesson
	prototypes  map[string]*model.LessonPrototype
	records     map[string]*model.QueueRecord
	measures    []model.Measurement
	advice      []model.AdvisedQueue

	// failSubgroup 非空时，创建同名子组返回错误
	failSubgroup string
	// onLockGroup 在取得班级行锁时调用，模拟锁等待期间其他事务已提交的写入
	onLockGroup func(groupID string)
}

func newMemStore() *memStore {
	return &memStore{
		semesters:   make(map[string]*model.Semester),
		holidays:    make(map[string]*model.Holiday),
		timings:     make(map[string]*model.LessonTiming),
		persons:     make(map[string]*model.Person),
		accounts:    make(map[string]*model.Account),
		departments: make(map[string]*model.Department),
		courses:     make(map[string]*model.Course),
		groups:      make(map[string]*model.Group),
		states:      make(map[string]*model.GroupSemesterState),
		subgroups:   make(map[string]*model.Subgroup),
		students:    make(map[string]*model.Student),
		teachers:    make(map[string]*model.Teacher),
		disciplines: make(map[string]*model.Discipline),
		classrooms:  make(map[string]*model.Classroom),
		assignments: make(map[string]*model.Assignment),
		completed:   make(map[string]*model.CompletedAssignment),
		lessons:     make(map[string]*model.Lesson),
		prototypes:  make(map[string]*model.LessonPrototype),
		records:     make(map[string]*model.QueueRecord),
	}
}

// newMockRepository 以同一个 memStore 组装 Repository 聚合（无数据库）
func newMockRepository() (*repository.Repository, *memStore) {
	m := newMemStore()
	return &repository.Repository{
		Semester:   &memSemesterRepo{m},
		Holiday:    &memHolidayRepo{m},
		Timing:     &memTimingRepo{m},
		Person:     &memPersonRepo{m},
		Account:    &memAccountRepo{m},
		Department: &memDepartmentRepo{m},
		Course:     &memCourseRepo{m},
		Group:      &memGroupRepo{m},
		GroupState: &memGroupStateRepo{m},
		Subgroup:   &memSubgroupRepo{m},
		Student:    &memStudentRepo{m},
		Teacher:    &memTeacherRepo{m},
		Discipline: &memDisciplineRepo{m},
		Classroom:  &memClassroomRepo{m},
		Assignment: &memAssignmentRepo{m},
		Lesson:     &memLessonRepo{m},
		Prototype:  &memPrototypeRepo{m},
		Queue:      &memQueueRepo{m},
		Refs:       &memRefRepo{m},
	}, m
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%03d", prefix, m.seq)
}

// tick 单调递增的创建时间，保证同学期多状态的写入顺序
func (m *memStore) tick() time.Time {
	m.seq++
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ── 测试夹具 ──

func (m *memStore) addSemester(start string) *model.Semester {
	st := day(start)
	sem := &model.Semester{
		SemesterID:    m.nextID("sem"),
		StartOn:       st,
		TestWeekOn:    st.AddDate(0, 2, 0),
		TestWeekEndOn: st.AddDate(0, 2, 6),
		SessionOn:     st.AddDate(0, 4, 0),
		SessionEndOn:  st.AddDate(0, 5, 0),
	}
	sem.Version = 1
	m.semesters[sem.SemesterID] = sem
	return sem
}

func (m *memStore) addPerson(first, last string) *model.Person {
	p := &model.Person{PersonID: m.nextID("person"), FirstName: first, LastName: last}
	m.persons[p.PersonID] = p
	return p
}

func (m *memStore) addStudent(first, last string) *model.Student {
	p := m.addPerson(first, last)
	st := &model.Student{StudentID: m.nextID("student"), PersonID: p.PersonID}
	m.students[st.StudentID] = st
	return st
}

func (m *memStore) addDepartment(name string) *model.Department {
	d := &model.Department{DepartmentID: m.nextID("dept"), Name: name}
	m.departments[d.DepartmentID] = d
	return d
}

func (m *memStore) addTeacher(first, last, departmentID string) *model.Teacher {
	p := m.addPerson(first, last)
	t := &model.Teacher{TeacherID: m.nextID("teacher"), PersonID: p.PersonID, DepartmentID: departmentID}
	m.teachers[t.TeacherID] = t
	return t
}

func (m *memStore) addCourse(name, departmentID string) *model.Course {
	c := &model.Course{CourseID: m.nextID("course"), Name: name, DepartmentID: departmentID}
	m.courses[c.CourseID] = c
	return c
}

func (m *memStore) addDiscipline(name string) *model.Discipline {
	d := &model.Discipline{DisciplineID: m.nextID("disc"), Name: name}
	m.disciplines[d.DisciplineID] = d
	return d
}

func (m *memStore) addClassroom(name string) *model.Classroom {
	c := &model.Classroom{ClassroomID: m.nextID("room"), Name: name}
	m.classrooms[c.ClassroomID] = c
	return c
}

func (m *memStore) addTiming(start, end string) *model.LessonTiming {
	t := &model.LessonTiming{TimingID: m.nextID("timing"), StartTime: start, EndTime: end}
	m.timings[t.TimingID] = t
	return t
}

// ── 组装关联 ──

func (m *memStore) person(id string) *model.Person {
	if p, ok := m.persons[id]; ok {
		c := *p
		c.Students, c.Teachers = nil, nil
		return &c
	}
	return nil
}

func (m *memStore) student(id string) *model.Student {
	st, ok := m.students[id]
	if !ok {
		return nil
	}
	c := *st
	c.Person = m.person(st.PersonID)
	return &c
}

func (m *memStore) teacher(id string) *model.Teacher {
	t, ok := m.teachers[id]
	if !ok {
		return nil
	}
	c := *t
	c.Person = m.person(t.PersonID)
	if d, ok := m.departments[t.DepartmentID]; ok {
		dc := *d
		c.Department = &dc
	}
	return &c
}

func (m *memStore) hydrateSubgroup(sg *model.Subgroup) model.Subgroup {
	c := *sg
	c.Students = make([]model.Student, 0, len(sg.Students))
	for _, ref := range sg.Students {
		if st := m.student(ref.StudentID); st != nil {
			c.Students = append(c.Students, *st)
		}
	}
	c.Teachers = make([]model.Teacher, 0, len(sg.Teachers))
	for _, ref := range sg.Teachers {
		if t := m.teacher(ref.TeacherID); t != nil {
			c.Teachers = append(c.Teachers, *t)
		}
	}
	c.Disciplines = make([]model.Discipline, 0, len(sg.Disciplines))
	for _, ref := range sg.Disciplines {
		if d, ok := m.disciplines[ref.DisciplineID]; ok {
			c.Disciplines = append(c.Disciplines, *d)
		}
	}
	return c
}

func (m *memStore) hydrateState(st *model.GroupSemesterState) model.GroupSemesterState {
	c := *st
	if sem, ok := m.semesters[st.SemesterID]; ok {
		sc := *sem
		c.Semester = &sc
	}
	if st.PraepostorID != nil {
		c.Praepostor = m.student(*st.PraepostorID)
	}
	c.Subgroups = nil
	for _, sg := range m.sortedSubgroups(st.StateID) {
		c.Subgroups = append(c.Subgroups, m.hydrateSubgroup(sg))
	}
	return c
}

func (m *memStore) sortedSubgroups(stateID string) []*model.Subgroup {
	var list []*model.Subgroup
	for _, sg := range m.subgroups {
		if sg.StateID == stateID {
			list = append(list, sg)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SubgroupID < list[j].SubgroupID })
	return list
}

func (m *memStore) hydrateGroup(g *model.Group) model.Group {
	c := *g
	if course, ok := m.courses[g.CourseID]; ok {
		cc := *course
		c.Course = &cc
	}
	c.States = nil
	for _, st := range m.states {
		if st.GroupID == g.GroupID {
			c.States = append(c.States, m.hydrateState(st))
		}
	}
	sort.Slice(c.States, func(i, j int) bool { return c.States[i].StateID < c.States[j].StateID })
	return c
}

func (m *memStore) hydrateLesson(l *model.Lesson) model.Lesson {
	c := *l
	if t, ok := m.timings[l.StartTimingID]; ok {
		tc := *t
		c.StartTiming = &tc
	}
	if t, ok := m.timings[l.EndTimingID]; ok {
		tc := *t
		c.EndTiming = &tc
	}
	if d, ok := m.disciplines[l.DisciplineID]; ok {
		dc := *d
		c.Discipline = &dc
	}
	c.Teacher = m.teacher(l.TeacherID)
	if r, ok := m.classrooms[l.ClassroomID]; ok {
		rc := *r
		c.Classroom = &rc
	}
	c.Subgroups = make([]model.Subgroup, 0, len(l.Subgroups))
	for _, ref := range l.Subgroups {
		if sg, ok := m.subgroups[ref.SubgroupID]; ok {
			c.Subgroups = append(c.Subgroups, *sg)
		}
	}
	c.Assignments = make([]model.Assignment, 0, len(l.Assignments))
	for _, ref := range l.Assignments {
		if a, ok := m.assignments[ref.AssignmentID]; ok {
			c.Assignments = append(c.Assignments, *a)
		}
	}
	return c
}

func (m *memStore) hydrateRecord(r *model.QueueRecord) model.QueueRecord {
	c := *r
	c.Student = m.student(r.StudentID)
	return c
}

// ── Mock SemesterRepository ──

type memSemesterRepo struct{ m *memStore }

func (r *memSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	if semester.SemesterID == "" {
		semester.SemesterID = r.m.nextID("sem")
	}
	semester.Version = 1
	c := *semester
	r.m.semesters[semester.SemesterID] = &c
	return nil
}

func (r *memSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := r.m.semesters[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	result := make([]model.Semester, 0, len(r.m.semesters))
	for _, s := range r.m.semesters {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartOn.Before(result[j].StartOn) })
	return result, nil
}

func (r *memSemesterRepo) Update(_ context.Context, semester *model.Semester) error {
	stored, ok := r.m.semesters[semester.SemesterID]
	if !ok || stored.Version != semester.Version {
		return pkgerrors.ErrOptimisticLock
	}
	semester.Version++
	c := *semester
	r.m.semesters[semester.SemesterID] = &c
	return nil
}

func (r *memSemesterRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.semesters, id)
	return nil
}

func (r *memSemesterRepo) FindOverlapping(_ context.Context, start, end time.Time, excludeID string) ([]model.Semester, error) {
	span := &model.Semester{StartOn: start, SessionEndOn: end}
	var result []model.Semester
	for id, s := range r.m.semesters {
		if id != excludeID && s.Overlaps(span) {
			result = append(result, *s)
		}
	}
	return result, nil
}

// ── Mock HolidayRepository ──

type memHolidayRepo struct{ m *memStore }

func (r *memHolidayRepo) Create(_ context.Context, holiday *model.Holiday) error {
	for _, h := range r.m.holidays {
		if h.Date.Equal(holiday.Date) {
			return gorm.ErrDuplicatedKey
		}
	}
	if holiday.HolidayID == "" {
		holiday.HolidayID = r.m.nextID("holiday")
	}
	c := *holiday
	r.m.holidays[holiday.HolidayID] = &c
	return nil
}

func (r *memHolidayRepo) GetByID(_ context.Context, id string) (*model.Holiday, error) {
	if h, ok := r.m.holidays[id]; ok {
		c := *h
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memHolidayRepo) List(_ context.Context) ([]model.Holiday, error) {
	result := make([]model.Holiday, 0, len(r.m.holidays))
	for _, h := range r.m.holidays {
		result = append(result, *h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (r *memHolidayRepo) Update(_ context.Context, holiday *model.Holiday) error {
	for id, h := range r.m.holidays {
		if id != holiday.HolidayID && h.Date.Equal(holiday.Date) {
			return gorm.ErrDuplicatedKey
		}
	}
	c := *holiday
	r.m.holidays[holiday.HolidayID] = &c
	return nil
}

func (r *memHolidayRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.holidays, id)
	return nil
}

// ── Mock LessonTimingRepository ──

type memTimingRepo struct{ m *memStore }

func (r *memTimingRepo) Create(_ context.Context, timing *model.LessonTiming) error {
	for _, t := range r.m.timings {
		if t.StartTime == timing.StartTime && t.EndTime == timing.EndTime {
			return gorm.ErrDuplicatedKey
		}
	}
	if timing.TimingID == "" {
		timing.TimingID = r.m.nextID("timing")
	}
	c := *timing
	r.m.timings[timing.TimingID] = &c
	return nil
}

func (r *memTimingRepo) GetByID(_ context.Context, id string) (*model.LessonTiming, error) {
	if t, ok := r.m.timings[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memTimingRepo) List(_ context.Context) ([]model.LessonTiming, error) {
	result := make([]model.LessonTiming, 0, len(r.m.timings))
	for _, t := range r.m.timings {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime < result[j].StartTime })
	return result, nil
}

func (r *memTimingRepo) Update(_ context.Context, timing *model.LessonTiming) error {
	c := *timing
	r.m.timings[timing.TimingID] = &c
	return nil
}

func (r *memTimingRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.timings, id)
	return nil
}

// ── Mock PersonRepository ──

type memPersonRepo struct{ m *memStore }

func (r *memPersonRepo) Create(_ context.Context, person *model.Person) error {
	if person.PersonID == "" {
		person.PersonID = r.m.nextID("person")
	}
	c := *person
	r.m.persons[person.PersonID] = &c
	return nil
}

func (r *memPersonRepo) GetByID(_ context.Context, id string) (*model.Person, error) {
	p := r.m.person(id)
	if p == nil {
		return nil, gorm.ErrRecordNotFound
	}
	for _, st := range r.m.students {
		if st.PersonID == id {
			p.Students = append(p.Students, *st)
		}
	}
	for _, t := range r.m.teachers {
		if t.PersonID == id {
			p.Teachers = append(p.Teachers, *t)
		}
	}
	return p, nil
}

func (r *memPersonRepo) List(_ context.Context) ([]model.Person, error) {
	result := make([]model.Person, 0, len(r.m.persons))
	for _, p := range r.m.persons {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PersonID < result[j].PersonID })
	return result, nil
}

func (r *memPersonRepo) Update(_ context.Context, person *model.Person) error {
	c := *person
	r.m.persons[person.PersonID] = &c
	return nil
}

func (r *memPersonRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.persons, id)
	return nil
}

// ── Mock AccountRepository ──

type memAccountRepo struct{ m *memStore }

func (r *memAccountRepo) Create(_ context.Context, account *model.Account) error {
	for _, a := range r.m.accounts {
		if a.Username == account.Username || a.PersonID == account.PersonID {
			return gorm.ErrDuplicatedKey
		}
	}
	if account.AccountID == "" {
		account.AccountID = r.m.nextID("account")
	}
	c := *account
	r.m.accounts[account.AccountID] = &c
	return nil
}

func (r *memAccountRepo) find(match func(*model.Account) bool) (*model.Account, error) {
	for _, a := range r.m.accounts {
		if match(a) {
			c := *a
			c.Person = r.m.person(a.PersonID)
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAccountRepo) GetByID(_ context.Context, id string) (*model.Account, error) {
	return r.find(func(a *model.Account) bool { return a.AccountID == id })
}

func (r *memAccountRepo) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	return r.find(func(a *model.Account) bool { return a.Username == username })
}

func (r *memAccountRepo) GetByExternalSubject(_ context.Context, subject string) (*model.Account, error) {
	return r.find(func(a *model.Account) bool { return a.ExternalSubject != nil && *a.ExternalSubject == subject })
}

func (r *memAccountRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	a, ok := r.m.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.LastLoginAt = &at
	return nil
}

func (r *memAccountRepo) SetPassword(_ context.Context, id string, hash string) error {
	a, ok := r.m.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.PasswordHash = &hash
	return nil
}

func (r *memAccountRepo) SetExternalSubject(_ context.Context, id string, subject *string) error {
	a, ok := r.m.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if subject != nil {
		for _, other := range r.m.accounts {
			if other.AccountID != id && other.ExternalSubject != nil && *other.ExternalSubject == *subject {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	a.ExternalSubject = subject
	return nil
}

// ── Mock DepartmentRepository / CourseRepository ──

type memDepartmentRepo struct{ m *memStore }

func (r *memDepartmentRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.DepartmentID == "" {
		dept.DepartmentID = r.m.nextID("dept")
	}
	c := *dept
	r.m.departments[dept.DepartmentID] = &c
	return nil
}

func (r *memDepartmentRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := r.m.departments[id]; ok {
		c := *d
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memDepartmentRepo) GetByName(_ context.Context, name string) (*model.Department, error) {
	for _, d := range r.m.departments {
		if d.Name == name {
			c := *d
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memDepartmentRepo) List(_ context.Context) ([]model.Department, error) {
	result := make([]model.Department, 0, len(r.m.departments))
	for _, d := range r.m.departments {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memDepartmentRepo) Update(_ context.Context, dept *model.Department) error {
	c := *dept
	r.m.departments[dept.DepartmentID] = &c
	return nil
}

func (r *memDepartmentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.departments, id)
	return nil
}

func (r *memDepartmentRepo) CountReferences(_ context.Context, departmentID string) (int64, error) {
	var n int64
	for _, c := range r.m.courses {
		if c.DepartmentID == departmentID {
			n++
		}
	}
	for _, t := range r.m.teachers {
		if t.DepartmentID == departmentID {
			n++
		}
	}
	return n, nil
}

type memCourseRepo struct{ m *memStore }

func (r *memCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == "" {
		course.CourseID = r.m.nextID("course")
	}
	c := *course
	r.m.courses[course.CourseID] = &c
	return nil
}

func (r *memCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	course, ok := r.m.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *course
	if d, ok := r.m.departments[course.DepartmentID]; ok {
		dc := *d
		c.Department = &dc
	}
	return &c, nil
}

func (r *memCourseRepo) List(_ context.Context) ([]model.Course, error) {
	result := make([]model.Course, 0, len(r.m.courses))
	for id := range r.m.courses {
		c, _ := r.GetByID(context.Background(), id)
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memCourseRepo) Update(_ context.Context, course *model.Course) error {
	c := *course
	c.Department = nil
	r.m.courses[course.CourseID] = &c
	return nil
}

func (r *memCourseRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.courses, id)
	return nil
}

func (r *memCourseRepo) CountGroups(_ context.Context, courseID string) (int64, error) {
	var n int64
	for _, g := range r.m.groups {
		if g.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

// ── Mock GroupRepository / GroupStateRepository / SubgroupRepository ──

type memGroupRepo struct{ m *memStore }

func (r *memGroupRepo) Create(_ context.Context, group *model.Group) error {
	if group.GroupID == "" {
		group.GroupID = r.m.nextID("group")
	}
	c := *group
	c.States = nil
	r.m.groups[group.GroupID] = &c
	return nil
}

func (r *memGroupRepo) GetByID(_ context.Context, id string) (*model.Group, error) {
	if g, ok := r.m.groups[id]; ok {
		c := *g
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memGroupRepo) GetWithStates(_ context.Context, id string) (*model.Group, error) {
	g, ok := r.m.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := r.m.hydrateGroup(g)
	return &c, nil
}

func (r *memGroupRepo) ListWithStates(_ context.Context, ids []string) ([]model.Group, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var result []model.Group
	for id, g := range r.m.groups {
		if len(ids) > 0 && !want[id] {
			continue
		}
		result = append(result, r.m.hydrateGroup(g))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].GroupID < result[j].GroupID })
	return result, nil
}

func (r *memGroupRepo) LockForUpdate(_ context.Context, id string) error {
	if _, ok := r.m.groups[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	if r.m.onLockGroup != nil {
		r.m.onLockGroup(id)
	}
	return nil
}

func (r *memGroupRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.groups, id)
	return nil
}

type memGroupStateRepo struct{ m *memStore }

func (r *memGroupStateRepo) Create(_ context.Context, state *model.GroupSemesterState) error {
	if state.StateID == "" {
		state.StateID = r.m.nextID("state")
	}
	state.CreatedAt = r.m.tick()
	c := *state
	c.Subgroups = nil
	r.m.states[state.StateID] = &c
	return nil
}

func (r *memGroupStateRepo) GetByID(_ context.Context, id string) (*model.GroupSemesterState, error) {
	st, ok := r.m.states[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := r.m.hydrateState(st)
	return &c, nil
}

func (r *memGroupStateRepo) ExistsForSemester(_ context.Context, groupID, semesterID string) (bool, error) {
	for _, st := range r.m.states {
		if st.GroupID == groupID && st.SemesterID == semesterID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memGroupStateRepo) CountBySemester(_ context.Context, semesterID string) (int64, error) {
	var n int64
	for _, st := range r.m.states {
		if st.SemesterID == semesterID {
			n++
		}
	}
	return n, nil
}

func (r *memGroupStateRepo) DeleteByGroup(_ context.Context, groupID string) error {
	for id, st := range r.m.states {
		if st.GroupID != groupID {
			continue
		}
		for sgID, sg := range r.m.subgroups {
			if sg.StateID == id {
				delete(r.m.subgroups, sgID)
			}
		}
		delete(r.m.states, id)
	}
	return nil
}

type memSubgroupRepo struct{ m *memStore }

var errInjectedSubgroup = errors.New("injected subgroup failure")

func (r *memSubgroupRepo) Create(_ context.Context, subgroup *model.Subgroup) error {
	if r.m.failSubgroup != "" && subgroup.Name == r.m.failSubgroup {
		return errInjectedSubgroup
	}
	if subgroup.SubgroupID == "" {
		subgroup.SubgroupID = r.m.nextID("subgroup")
	}
	c := *subgroup
	r.m.subgroups[subgroup.SubgroupID] = &c
	return nil
}

func (r *memSubgroupRepo) GetByID(_ context.Context, id string) (*model.Subgroup, error) {
	sg, ok := r.m.subgroups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := r.m.hydrateSubgroup(sg)
	return &c, nil
}

func (r *memSubgroupRepo) Replace(_ context.Context, subgroup *model.Subgroup) error {
	if _, ok := r.m.subgroups[subgroup.SubgroupID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *subgroup
	r.m.subgroups[subgroup.SubgroupID] = &c
	return nil
}

// ── Mock StudentRepository / TeacherRepository ──

type memStudentRepo struct{ m *memStore }

func (r *memStudentRepo) Create(_ context.Context, student *model.Student) error {
	if student.StudentID == "" {
		student.StudentID = r.m.nextID("student")
	}
	c := *student
	r.m.students[student.StudentID] = &c
	return nil
}

func (r *memStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if st := r.m.student(id); st != nil {
		return st, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memStudentRepo) List(_ context.Context) ([]model.Student, error) {
	result := make([]model.Student, 0, len(r.m.students))
	for id := range r.m.students {
		result = append(result, *r.m.student(id))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (r *memStudentRepo) Update(_ context.Context, student *model.Student) error {
	c := *student
	c.Person = nil
	r.m.students[student.StudentID] = &c
	return nil
}

func (r *memStudentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.students, id)
	return nil
}

func (r *memStudentRepo) ListCompleted(_ context.Context, studentID string) ([]model.CompletedAssignment, error) {
	var result []model.CompletedAssignment
	for _, c := range r.m.completed {
		if c.StudentID == studentID {
			item := *c
			if a, ok := r.m.assignments[c.AssignmentID]; ok {
				ac := *a
				item.Assignment = &ac
			}
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CompletedOn.Before(result[j].CompletedOn) })
	return result, nil
}

func (r *memStudentRepo) AddCompleted(_ context.Context, completed *model.CompletedAssignment) error {
	for _, c := range r.m.completed {
		if c.StudentID == completed.StudentID && c.AssignmentID == completed.AssignmentID {
			return gorm.ErrDuplicatedKey
		}
	}
	if completed.CompletionID == "" {
		completed.CompletionID = r.m.nextID("completion")
	}
	c := *completed
	r.m.completed[completed.CompletionID] = &c
	return nil
}

type memTeacherRepo struct{ m *memStore }

func (r *memTeacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	for _, t := range r.m.teachers {
		if t.PersonID == teacher.PersonID && t.DepartmentID == teacher.DepartmentID {
			return gorm.ErrDuplicatedKey
		}
	}
	if teacher.TeacherID == "" {
		teacher.TeacherID = r.m.nextID("teacher")
	}
	c := *teacher
	r.m.teachers[teacher.TeacherID] = &c
	return nil
}

func (r *memTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t := r.m.teacher(id); t != nil {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memTeacherRepo) List(_ context.Context) ([]model.Teacher, error) {
	result := make([]model.Teacher, 0, len(r.m.teachers))
	for id := range r.m.teachers {
		result = append(result, *r.m.teacher(id))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TeacherID < result[j].TeacherID })
	return result, nil
}

func (r *memTeacherRepo) Update(_ context.Context, teacher *model.Teacher) error {
	for id, t := range r.m.teachers {
		if id != teacher.TeacherID && t.PersonID == teacher.PersonID && t.DepartmentID == teacher.DepartmentID {
			return gorm.ErrDuplicatedKey
		}
	}
	c := *teacher
	c.Person, c.Department = nil, nil
	r.m.teachers[teacher.TeacherID] = &c
	return nil
}

func (r *memTeacherRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.teachers, id)
	return nil
}

func (r *memTeacherRepo) ListDisciplines(_ context.Context, teacherID string) ([]model.Discipline, error) {
	var result []model.Discipline
	for _, d := range r.m.disciplines {
		for _, t := range d.Teachers {
			if t.TeacherID == teacherID {
				result = append(result, *d)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock DisciplineRepository / ClassroomRepository / AssignmentRepository ──

type memDisciplineRepo struct{ m *memStore }

func (r *memDisciplineRepo) Create(_ context.Context, discipline *model.Discipline) error {
	if discipline.DisciplineID == "" {
		discipline.DisciplineID = r.m.nextID("disc")
	}
	c := *discipline
	r.m.disciplines[discipline.DisciplineID] = &c
	return nil
}

func (r *memDisciplineRepo) GetByID(_ context.Context, id string) (*model.Discipline, error) {
	d, ok := r.m.disciplines[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *d
	c.Teachers = make([]model.Teacher, 0, len(d.Teachers))
	for _, ref := range d.Teachers {
		if t := r.m.teacher(ref.TeacherID); t != nil {
			c.Teachers = append(c.Teachers, *t)
		}
	}
	return &c, nil
}

func (r *memDisciplineRepo) List(_ context.Context) ([]model.Discipline, error) {
	result := make([]model.Discipline, 0, len(r.m.disciplines))
	for _, d := range r.m.disciplines {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memDisciplineRepo) Update(_ context.Context, discipline *model.Discipline) error {
	stored, ok := r.m.disciplines[discipline.DisciplineID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c := *discipline
	if discipline.Teachers == nil {
		c.Teachers = stored.Teachers
	}
	r.m.disciplines[discipline.DisciplineID] = &c
	return nil
}

func (r *memDisciplineRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.disciplines, id)
	return nil
}

type memClassroomRepo struct{ m *memStore }

func (r *memClassroomRepo) Create(_ context.Context, classroom *model.Classroom) error {
	if classroom.ClassroomID == "" {
		classroom.ClassroomID = r.m.nextID("room")
	}
	c := *classroom
	r.m.classrooms[classroom.ClassroomID] = &c
	return nil
}

func (r *memClassroomRepo) GetByID(_ context.Context, id string) (*model.Classroom, error) {
	if c, ok := r.m.classrooms[id]; ok {
		cc := *c
		return &cc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memClassroomRepo) List(_ context.Context) ([]model.Classroom, error) {
	result := make([]model.Classroom, 0, len(r.m.classrooms))
	for _, c := range r.m.classrooms {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memClassroomRepo) Update(_ context.Context, classroom *model.Classroom) error {
	c := *classroom
	r.m.classrooms[classroom.ClassroomID] = &c
	return nil
}

func (r *memClassroomRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.classrooms, id)
	return nil
}

type memAssignmentRepo struct{ m *memStore }

func (r *memAssignmentRepo) Create(_ context.Context, assignment *model.Assignment) error {
	if assignment.AssignmentID == "" {
		assignment.AssignmentID = r.m.nextID("assignment")
	}
	c := *assignment
	r.m.assignments[assignment.AssignmentID] = &c
	return nil
}

func (r *memAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	a, ok := r.m.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *a
	if d, ok := r.m.disciplines[a.DisciplineID]; ok {
		dc := *d
		c.Discipline = &dc
	}
	return &c, nil
}

func (r *memAssignmentRepo) List(_ context.Context) ([]model.Assignment, error) {
	result := make([]model.Assignment, 0, len(r.m.assignments))
	for _, a := range r.m.assignments {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memAssignmentRepo) Update(_ context.Context, assignment *model.Assignment) error {
	c := *assignment
	c.Discipline = nil
	r.m.assignments[assignment.AssignmentID] = &c
	return nil
}

func (r *memAssignmentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.assignments, id)
	return nil
}

// ── Mock LessonRepository / PrototypeRepository ──

type memLessonRepo struct{ m *memStore }

func (r *memLessonRepo) Create(_ context.Context, lesson *model.Lesson) error {
	if lesson.LessonID == "" {
		lesson.LessonID = r.m.nextID("lesson")
	}
	c := *lesson
	r.m.lessons[lesson.LessonID] = &c
	return nil
}

func (r *memLessonRepo) GetByID(_ context.Context, id string) (*model.Lesson, error) {
	l, ok := r.m.lessons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := r.m.hydrateLesson(l)
	return &c, nil
}

func (r *memLessonRepo) List(_ context.Context) ([]model.Lesson, error) {
	result := make([]model.Lesson, 0, len(r.m.lessons))
	for _, l := range r.m.lessons {
		result = append(result, r.m.hydrateLesson(l))
	}
	sortLessons(result)
	return result, nil
}

func (r *memLessonRepo) Update(_ context.Context, lesson *model.Lesson) error {
	if _, ok := r.m.lessons[lesson.LessonID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *lesson
	r.m.lessons[lesson.LessonID] = &c
	return nil
}

func (r *memLessonRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.lessons, id)
	return nil
}

func (r *memLessonRepo) ListByGroup(_ context.Context, groupID string, from, to time.Time) ([]model.Lesson, error) {
	var result []model.Lesson
	for _, l := range r.m.lessons {
		if !from.IsZero() && l.Date.Before(from) {
			continue
		}
		if !to.IsZero() && l.Date.After(to) {
			continue
		}
		if r.m.lessonGroup(l) == groupID {
			result = append(result, r.m.hydrateLesson(l))
		}
	}
	sortLessons(result)
	return result, nil
}

func (r *memLessonRepo) GroupIDsByTeacher(_ context.Context, teacherID string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	for _, l := range r.m.lessons {
		if l.TeacherID != teacherID {
			continue
		}
		if g := r.m.lessonGroup(l); g != "" && !seen[g] {
			seen[g] = true
			result = append(result, g)
		}
	}
	sort.Strings(result)
	return result, nil
}

// lessonGroup 课堂子组所属的班级
func (m *memStore) lessonGroup(l *model.Lesson) string {
	for _, ref := range l.Subgroups {
		sg, ok := m.subgroups[ref.SubgroupID]
		if !ok {
			continue
		}
		if st, ok := m.states[sg.StateID]; ok {
			return st.GroupID
		}
	}
	return ""
}

func sortLessons(list []model.Lesson) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].LessonID < list[j].LessonID
	})
}

type memPrototypeRepo struct{ m *memStore }

func (r *memPrototypeRepo) Create(_ context.Context, prototype *model.LessonPrototype) error {
	if prototype.PrototypeID == "" {
		prototype.PrototypeID = r.m.nextID("proto")
	}
	c := *prototype
	r.m.prototypes[prototype.PrototypeID] = &c
	return nil
}

func (r *memPrototypeRepo) GetByID(_ context.Context, id string) (*model.LessonPrototype, error) {
	p, ok := r.m.prototypes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *p
	if t, ok := r.m.timings[p.StartTimingID]; ok {
		tc := *t
		c.StartTiming = &tc
	}
	if t, ok := r.m.timings[p.EndTimingID]; ok {
		tc := *t
		c.EndTiming = &tc
	}
	if d, ok := r.m.disciplines[p.DisciplineID]; ok {
		dc := *d
		c.Discipline = &dc
	}
	c.Teacher = r.m.teacher(p.TeacherID)
	return &c, nil
}

func (r *memPrototypeRepo) List(_ context.Context) ([]model.LessonPrototype, error) {
	result := make([]model.LessonPrototype, 0, len(r.m.prototypes))
	for id := range r.m.prototypes {
		p, _ := r.GetByID(context.Background(), id)
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].PrototypeID < result[j].PrototypeID
	})
	return result, nil
}

func (r *memPrototypeRepo) Update(_ context.Context, prototype *model.LessonPrototype) error {
	if _, ok := r.m.prototypes[prototype.PrototypeID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *prototype
	r.m.prototypes[prototype.PrototypeID] = &c
	return nil
}

func (r *memPrototypeRepo) Delete(_ context.Context, id string, _ string) error {
	delete(r.m.prototypes, id)
	return nil
}

// ── Mock QueueRepository ──

type memQueueRepo struct{ m *memStore }

func (r *memQueueRepo) CreateRecord(_ context.Context, record *model.QueueRecord) error {
	if record.RecordID == "" {
		record.RecordID = r.m.nextID("record")
	}
	c := *record
	r.m.records[record.RecordID] = &c
	return nil
}

func (r *memQueueRepo) GetRecord(_ context.Context, id string) (*model.QueueRecord, error) {
	rec, ok := r.m.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := r.m.hydrateRecord(rec)
	return &c, nil
}

func (r *memQueueRepo) ListRecordsByLesson(_ context.Context, lessonID string) ([]model.QueueRecord, error) {
	var result []model.QueueRecord
	for _, rec := range r.m.records {
		if rec.LessonID == lessonID {
			result = append(result, r.m.hydrateRecord(rec))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AddedOn.Equal(result[j].AddedOn) {
			return result[i].AddedOn.Before(result[j].AddedOn)
		}
		return result[i].RecordID < result[j].RecordID
	})
	return result, nil
}

func (r *memQueueRepo) CreateMeasurement(_ context.Context, m *model.Measurement) error {
	if m.MeasurementID == "" {
		m.MeasurementID = r.m.nextID("measure")
	}
	r.m.measures = append(r.m.measures, *m)
	return nil
}

func (r *memQueueRepo) ListMeasurementsByLesson(_ context.Context, lessonID string) ([]model.Measurement, error) {
	var result []model.Measurement
	for _, m := range r.m.measures {
		if m.LessonID == lessonID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *memQueueRepo) CreateAdvice(_ context.Context, items []model.AdvisedQueue) error {
	for _, item := range items {
		for _, a := range r.m.advice {
			if a.RecordID == item.RecordID && a.Rank == item.Rank {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	for _, item := range items {
		item.AdviceID = r.m.nextID("advice")
		r.m.advice = append(r.m.advice, item)
	}
	return nil
}

func (r *memQueueRepo) ListAdviceByLesson(_ context.Context, lessonID string) ([]model.AdvisedQueue, error) {
	var result []model.AdvisedQueue
	for _, a := range r.m.advice {
		rec, ok := r.m.records[a.RecordID]
		if !ok || rec.LessonID != lessonID {
			continue
		}
		item := a
		hydrated := r.m.hydrateRecord(rec)
		item.Record = &hydrated
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Rank < result[j].Rank })
	return result, nil
}

// ── Mock ReferenceRepository ──

type memRefRepo struct{ m *memStore }

func (r *memRefRepo) Missing(_ context.Context, kind repository.RefKind, ids []string) ([]string, error) {
	exists := func(id string) bool {
		switch kind {
		case repository.RefSemester:
			_, ok := r.m.semesters[id]
			return ok
		case repository.RefPerson:
			_, ok := r.m.persons[id]
			return ok
		case repository.RefDepartment:
			_, ok := r.m.departments[id]
			return ok
		case repository.RefCourse:
			_, ok := r.m.courses[id]
			return ok
		case repository.RefStudent:
			_, ok := r.m.students[id]
			return ok
		case repository.RefTeacher:
			_, ok := r.m.teachers[id]
			return ok
		case repository.RefDiscipline:
			_, ok := r.m.disciplines[id]
			return ok
		case repository.RefClassroom:
			_, ok := r.m.classrooms[id]
			return ok
		case repository.RefAssignment:
			_, ok := r.m.assignments[id]
			return ok
		case repository.RefTiming:
			_, ok := r.m.timings[id]
			return ok
		case repository.RefSubgroup:
			_, ok := r.m.subgroups[id]
			return ok
		case repository.RefLesson:
			_, ok := r.m.lessons[id]
			return ok
		}
		return false
	}
	var missing []string
	for _, id := range ids {
		if !exists(id) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
