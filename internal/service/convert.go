package service

import (
	"klimr/backend/internal/dto"
	"klimr/backend/internal/model"
)

// ── 模型 → 响应 DTO ──

func toPersonResponse(p *model.Person) *dto.PersonResponse {
	if p == nil {
		return nil
	}
	return &dto.PersonResponse{
		ID:         p.PersonID,
		FirstName:  p.FirstName,
		MiddleName: p.MiddleName,
		LastName:   p.LastName,
		FullName:   p.FullName(),
	}
}

func toStudentBrief(s *model.Student) dto.StudentBrief {
	brief := dto.StudentBrief{
		ID:       s.StudentID,
		PersonID: s.PersonID,
		Expelled: s.Expelled(),
	}
	if s.Person != nil {
		brief.Name = s.Person.FullName()
	}
	return brief
}

func toStudentBriefs(list []model.Student) []dto.StudentBrief {
	out := make([]dto.StudentBrief, 0, len(list))
	for i := range list {
		out = append(out, toStudentBrief(&list[i]))
	}
	return out
}

func toStudentResponse(s *model.Student) dto.StudentResponse {
	return dto.StudentResponse{
		ID:           s.StudentID,
		Person:       toPersonResponse(s.Person),
		ExpelledInID: s.ExpelledInID,
		Expelled:     s.Expelled(),
	}
}

func toTeacherResponse(t *model.Teacher) dto.TeacherResponse {
	resp := dto.TeacherResponse{
		ID:     t.TeacherID,
		Person: toPersonResponse(t.Person),
	}
	if t.Department != nil {
		resp.Department = &dto.ShortResponse{ID: t.Department.DepartmentID, Name: t.Department.Name}
	}
	return resp
}

// teacherShort 教师简要：名称取人员全名
func teacherShort(t *model.Teacher) dto.ShortResponse {
	if t == nil {
		return dto.ShortResponse{}
	}
	short := dto.ShortResponse{ID: t.TeacherID}
	if t.Person != nil {
		short.Name = t.Person.FullName()
	}
	return short
}

func teacherShorts(list []model.Teacher) []dto.ShortResponse {
	out := make([]dto.ShortResponse, 0, len(list))
	for i := range list {
		out = append(out, teacherShort(&list[i]))
	}
	return out
}

func disciplineShorts(list []model.Discipline) []dto.ShortResponse {
	out := make([]dto.ShortResponse, 0, len(list))
	for _, d := range list {
		out = append(out, dto.ShortResponse{ID: d.DisciplineID, Name: d.Name})
	}
	return out
}

func subgroupShorts(list []model.Subgroup) []dto.ShortResponse {
	out := make([]dto.ShortResponse, 0, len(list))
	for _, sg := range list {
		out = append(out, dto.ShortResponse{ID: sg.SubgroupID, Name: sg.Name})
	}
	return out
}

func assignmentShorts(list []model.Assignment) []dto.ShortResponse {
	out := make([]dto.ShortResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.ShortResponse{ID: a.AssignmentID, Name: a.Name})
	}
	return out
}

func toSemesterResponse(s *model.Semester) *dto.SemesterResponse {
	if s == nil {
		return nil
	}
	return &dto.SemesterResponse{
		ID:            s.SemesterID,
		StartOn:       formatDate(s.StartOn),
		TestWeekOn:    formatDate(s.TestWeekOn),
		TestWeekEndOn: formatDate(s.TestWeekEndOn),
		SessionOn:     formatDate(s.SessionOn),
		SessionEndOn:  formatDate(s.SessionEndOn),
		Version:       s.Version,
	}
}

func toCourseShort(c *model.Course) *dto.ShortResponse {
	if c == nil {
		return nil
	}
	return &dto.ShortResponse{ID: c.CourseID, Name: c.Name}
}

// ── 请求 id → 只含 id 的关联切片 ──

func studentRefs(ids []string) []model.Student {
	out := make([]model.Student, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Student{StudentID: id})
	}
	return out
}

func teacherRefs(ids []string) []model.Teacher {
	out := make([]model.Teacher, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Teacher{TeacherID: id})
	}
	return out
}

func disciplineRefs(ids []string) []model.Discipline {
	out := make([]model.Discipline, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Discipline{DisciplineID: id})
	}
	return out
}

func subgroupRefs(ids []string) []model.Subgroup {
	out := make([]model.Subgroup, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Subgroup{SubgroupID: id})
	}
	return out
}

func assignmentRefs(ids []string) []model.Assignment {
	out := make([]model.Assignment, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Assignment{AssignmentID: id})
	}
	return out
}
