package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/service"
	"klimr/backend/pkg/response"
)

// PersonHandler 人员、学生、教师 HTTP 处理器
type PersonHandler struct {
	personSvc service.PersonService
}

// NewPersonHandler 创建 PersonHandler
func NewPersonHandler(personSvc service.PersonService) *PersonHandler {
	return &PersonHandler{personSvc: personSvc}
}

// ────────────────────── 人员 ──────────────────────

// ListPersons GET /api/v1/info/person
func (h *PersonHandler) ListPersons(c *gin.Context) {
	persons, err := h.personSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, persons)
}

// GetPerson 人员详情，附带学生与教师身份
// GET /api/v1/info/person/:id
func (h *PersonHandler) GetPerson(c *gin.Context) {
	person, err := h.personSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, person)
}

// CreatePerson POST /api/v1/info/person
func (h *PersonHandler) CreatePerson(c *gin.Context) {
	var req dto.CreatePersonRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	person, err := h.personSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.Created(c, person)
}

// UpdatePerson PUT /api/v1/info/person/:id
func (h *PersonHandler) UpdatePerson(c *gin.Context) {
	var req dto.UpdatePersonRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	person, err := h.personSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, person)
}

// DeletePerson DELETE /api/v1/info/person/:id
func (h *PersonHandler) DeletePerson(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.personSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, nil)
}

// ────────────────────── 学生 ──────────────────────

// ListStudents GET /api/v1/info/student
func (h *PersonHandler) ListStudents(c *gin.Context) {
	students, err := h.personSvc.ListStudents(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, students)
}

// GetStudent GET /api/v1/info/student/:id
func (h *PersonHandler) GetStudent(c *gin.Context) {
	student, err := h.personSvc.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, student)
}

// CreateStudent POST /api/v1/info/student
func (h *PersonHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	student, err := h.personSvc.CreateStudent(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.Created(c, student)
}

// UpdateStudent 更新学生；expelled_in_id 传空字符串表示撤销开除
// PUT /api/v1/info/student/:id
func (h *PersonHandler) UpdateStudent(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	student, err := h.personSvc.UpdateStudent(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, student)
}

// DeleteStudent DELETE /api/v1/info/student/:id
func (h *PersonHandler) DeleteStudent(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.personSvc.DeleteStudent(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListCompleted 学生已完成的作业
// GET /api/v1/info/student/:id/completed
func (h *PersonHandler) ListCompleted(c *gin.Context) {
	list, err := h.personSvc.ListCompleted(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.List(c, list)
}

// CompleteAssignment 记录学生完成作业
// POST /api/v1/info/student/:id/completed
func (h *PersonHandler) CompleteAssignment(c *gin.Context) {
	var req dto.CompleteAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	done, err := h.personSvc.CompleteAssignment(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.Created(c, done)
}

// ────────────────────── 教师 ──────────────────────

// ListTeachers GET /api/v1/info/teacher
func (h *PersonHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.personSvc.ListTeachers(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, teachers)
}

// GetTeacher 教师详情，附带所授科目与有课的班级
// GET /api/v1/info/teacher/:id
func (h *PersonHandler) GetTeacher(c *gin.Context) {
	teacher, err := h.personSvc.GetTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, teacher)
}

// CreateTeacher POST /api/v1/info/teacher
func (h *PersonHandler) CreateTeacher(c *gin.Context) {
	var req dto.CreateTeacherRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	teacher, err := h.personSvc.CreateTeacher(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.Created(c, teacher)
}

// UpdateTeacher PUT /api/v1/info/teacher/:id
func (h *PersonHandler) UpdateTeacher(c *gin.Context) {
	var req dto.UpdateTeacherRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	teacher, err := h.personSvc.UpdateTeacher(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, teacher)
}

// DeleteTeacher DELETE /api/v1/info/teacher/:id
func (h *PersonHandler) DeleteTeacher(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.personSvc.DeleteTeacher(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handlePersonError(c, err)
		return
	}
	response.OK(c, nil)
}

// handlePersonError 统一处理人员模块业务错误
func (h *PersonHandler) handlePersonError(c *gin.Context, err error) {
	if handleValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrPersonNotFound):
		response.NotFound(c, 16001, "人员不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 16011, "学生不存在")
	case errors.Is(err, service.ErrAssignmentAlreadyDone):
		response.Conflict(c, 16012, "该作业已记录为完成")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 16021, "教师不存在")
	case errors.Is(err, service.ErrTeacherAlreadyDepartment):
		response.Conflict(c, 16022, "该人员已是此院系的教师")
	default:
		response.InternalError(c)
	}
}
