package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/service"
	"klimr/backend/pkg/response"
)

// CatalogHandler 科目、教室、作业 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ── 科目 ──

// ListDisciplines 列表只返回 id 与名称
// GET /api/v1/info/discipline
func (h *CatalogHandler) ListDisciplines(c *gin.Context) {
	list, err := h.catalogSvc.ListDisciplines(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, list)
}

// GetDiscipline GET /api/v1/info/discipline/:id
func (h *CatalogHandler) GetDiscipline(c *gin.Context) {
	d, err := h.catalogSvc.GetDiscipline(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, d)
}

// CreateDiscipline POST /api/v1/info/discipline
func (h *CatalogHandler) CreateDiscipline(c *gin.Context) {
	var req dto.CreateDisciplineRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	d, err := h.catalogSvc.CreateDiscipline(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, d)
}

// UpdateDiscipline PUT /api/v1/info/discipline/:id
func (h *CatalogHandler) UpdateDiscipline(c *gin.Context) {
	var req dto.UpdateDisciplineRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	d, err := h.catalogSvc.UpdateDiscipline(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, d)
}

// DeleteDiscipline DELETE /api/v1/info/discipline/:id
func (h *CatalogHandler) DeleteDiscipline(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteDiscipline(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 教室 ──

// ListClassrooms GET /api/v1/info/classroom
func (h *CatalogHandler) ListClassrooms(c *gin.Context) {
	list, err := h.catalogSvc.ListClassrooms(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, list)
}

// GetClassroom GET /api/v1/info/classroom/:id
func (h *CatalogHandler) GetClassroom(c *gin.Context) {
	room, err := h.catalogSvc.GetClassroom(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, room)
}

// CreateClassroom POST /api/v1/info/classroom
func (h *CatalogHandler) CreateClassroom(c *gin.Context) {
	var req dto.CreateClassroomRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	room, err := h.catalogSvc.CreateClassroom(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, room)
}

// UpdateClassroom PUT /api/v1/info/classroom/:id
func (h *CatalogHandler) UpdateClassroom(c *gin.Context) {
	var req dto.UpdateClassroomRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	room, err := h.catalogSvc.UpdateClassroom(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, room)
}

// DeleteClassroom DELETE /api/v1/info/classroom/:id
func (h *CatalogHandler) DeleteClassroom(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteClassroom(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 作业 ──

// ListAssignments GET /api/v1/info/assignment
func (h *CatalogHandler) ListAssignments(c *gin.Context) {
	list, err := h.catalogSvc.ListAssignments(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, list)
}

// GetAssignment GET /api/v1/info/assignment/:id
func (h *CatalogHandler) GetAssignment(c *gin.Context) {
	a, err := h.catalogSvc.GetAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, a)
}

// CreateAssignment POST /api/v1/info/assignment
func (h *CatalogHandler) CreateAssignment(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	a, err := h.catalogSvc.CreateAssignment(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, a)
}

// UpdateAssignment PUT /api/v1/info/assignment/:id
func (h *CatalogHandler) UpdateAssignment(c *gin.Context) {
	var req dto.UpdateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	a, err := h.catalogSvc.UpdateAssignment(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, a)
}

// DeleteAssignment DELETE /api/v1/info/assignment/:id
func (h *CatalogHandler) DeleteAssignment(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteAssignment(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	if handleValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrDisciplineNotFound):
		response.NotFound(c, 17001, "科目不存在")
	case errors.Is(err, service.ErrClassroomNotFound):
		response.NotFound(c, 17011, "教室不存在")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 17021, "作业不存在")
	default:
		response.InternalError(c)
	}
}
