package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/service"
	"klimr/backend/pkg/response"
)

// DepartmentHandler 院系与专业方向 HTTP 处理器
type DepartmentHandler struct {
	deptSvc service.DepartmentService
}

// NewDepartmentHandler 创建 DepartmentHandler
func NewDepartmentHandler(deptSvc service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{deptSvc: deptSvc}
}

// ListDepartments 获取院系列表
// GET /api/v1/info/department
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	depts, err := h.deptSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.List(c, depts)
}

// GetDepartment 获取院系详情
// GET /api/v1/info/department/:id
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	dept, err := h.deptSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDeptError(c, err)
		return
	}

	response.OK(c, dept)
}

// CreateDepartment 创建院系
// POST /api/v1/info/department
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	dept, err := h.deptSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleDeptError(c, err)
		return
	}

	response.Created(c, dept)
}

// UpdateDepartment 更新院系
// PUT /api/v1/info/department/:id
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	var req dto.UpdateDepartmentRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	dept, err := h.deptSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleDeptError(c, err)
		return
	}

	response.OK(c, dept)
}

// DeleteDepartment 删除院系
// DELETE /api/v1/info/department/:id
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	if err := h.deptSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleDeptError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 专业方向 ──────────────────────

// ListCourses GET /api/v1/info/course
func (h *DepartmentHandler) ListCourses(c *gin.Context) {
	courses, err := h.deptSvc.ListCourses(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, courses)
}

// GetCourse GET /api/v1/info/course/:id
func (h *DepartmentHandler) GetCourse(c *gin.Context) {
	course, err := h.deptSvc.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDeptError(c, err)
		return
	}
	response.OK(c, course)
}

// CreateCourse POST /api/v1/info/course
func (h *DepartmentHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	course, err := h.deptSvc.CreateCourse(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleDeptError(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse PUT /api/v1/info/course/:id
func (h *DepartmentHandler) UpdateCourse(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	course, err := h.deptSvc.UpdateCourse(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleDeptError(c, err)
		return
	}
	response.OK(c, course)
}

// DeleteCourse DELETE /api/v1/info/course/:id
func (h *DepartmentHandler) DeleteCourse(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.deptSvc.DeleteCourse(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleDeptError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleDeptError 统一处理院系模块业务错误
func (h *DepartmentHandler) handleDeptError(c *gin.Context, err error) {
	if handleValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 13001, "院系不存在")
	case errors.Is(err, service.ErrDepartmentNameExists):
		response.Conflict(c, 13002, "院系名称已存在")
	case errors.Is(err, service.ErrDepartmentInUse):
		response.Conflict(c, 13003, "院系下存在专业方向或教师，无法删除")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 13011, "专业方向不存在")
	case errors.Is(err, service.ErrCourseInUse):
		response.Conflict(c, 13012, "专业方向下存在班级，无法删除")
	default:
		response.InternalError(c)
	}
}
