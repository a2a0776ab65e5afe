package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/service"
	"klimr/backend/pkg/response"
)

// ScheduleHandler 课堂与课表模板 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// ── 课堂 ──

// ListLessons GET /api/v1/schedule/lesson
func (h *ScheduleHandler) ListLessons(c *gin.Context) {
	lessons, err := h.scheduleSvc.ListLessons(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, lessons)
}

// GetLesson GET /api/v1/schedule/lesson/:id
func (h *ScheduleHandler) GetLesson(c *gin.Context) {
	lesson, err := h.scheduleSvc.GetLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, lesson)
}

// CreateLesson POST /api/v1/schedule/lesson
func (h *ScheduleHandler) CreateLesson(c *gin.Context) {
	var req dto.CreateLessonRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	lesson, err := h.scheduleSvc.CreateLesson(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.Created(c, lesson)
}

// UpdateLesson 更新课堂；state 可标记取消或调课
// PUT /api/v1/schedule/lesson/:id
func (h *ScheduleHandler) UpdateLesson(c *gin.Context) {
	var req dto.UpdateLessonRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	lesson, err := h.scheduleSvc.UpdateLesson(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, lesson)
}

// DeleteLesson DELETE /api/v1/schedule/lesson/:id
func (h *ScheduleHandler) DeleteLesson(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.scheduleSvc.DeleteLesson(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListGroupLessons 班级的课堂，可按日期区间过滤
// GET /api/v1/schedule/group/:group_id?from=&to=
func (h *ScheduleHandler) ListGroupLessons(c *gin.Context) {
	var q dto.GroupLessonsQuery
	if !bindQuery(c, &q) {
		return
	}

	lessons, err := h.scheduleSvc.ListGroupLessons(c.Request.Context(), c.Param("group_id"), &q)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.List(c, lessons)
}

// ── 课表模板 ──

// ListPrototypes GET /api/v1/schedule/prototype
func (h *ScheduleHandler) ListPrototypes(c *gin.Context) {
	list, err := h.scheduleSvc.ListPrototypes(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, list)
}

// GetPrototype GET /api/v1/schedule/prototype/:id
func (h *ScheduleHandler) GetPrototype(c *gin.Context) {
	p, err := h.scheduleSvc.GetPrototype(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, p)
}

// CreatePrototype POST /api/v1/schedule/prototype
func (h *ScheduleHandler) CreatePrototype(c *gin.Context) {
	var req dto.CreatePrototypeRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	p, err := h.scheduleSvc.CreatePrototype(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.Created(c, p)
}

// UpdatePrototype PUT /api/v1/schedule/prototype/:id
func (h *ScheduleHandler) UpdatePrototype(c *gin.Context) {
	var req dto.UpdatePrototypeRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	p, err := h.scheduleSvc.UpdatePrototype(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, p)
}

// DeletePrototype DELETE /api/v1/schedule/prototype/:id
func (h *ScheduleHandler) DeletePrototype(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.scheduleSvc.DeletePrototype(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	if handleValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		response.NotFound(c, 18001, "课堂不存在")
	case errors.Is(err, service.ErrPrototypeNotFound):
		response.NotFound(c, 18011, "课表模板不存在")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 15001, "班级不存在")
	default:
		response.InternalError(c)
	}
}
