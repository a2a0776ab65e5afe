package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/service"
	"klimr/backend/pkg/response"
)

// QueueHandler 课堂排队 HTTP 处理器
type QueueHandler struct {
	queueSvc service.QueueService
}

// NewQueueHandler 创建 QueueHandler
func NewQueueHandler(queueSvc service.QueueService) *QueueHandler {
	return &QueueHandler{queueSvc: queueSvc}
}

// AddRecord 加入排队（只增不改）
// POST /api/v1/queue
func (h *QueueHandler) AddRecord(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}
	var req dto.CreateQueueRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	caller := service.Caller{PersonID: claims.PersonID, Role: claims.Role}
	record, err := h.queueSvc.AddRecord(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleQueueError(c, err)
		return
	}
	response.Created(c, record)
}

// ListRecords 课堂排队记录，按加入时间排序
// GET /api/v1/queue/lesson/:lesson_id
func (h *QueueHandler) ListRecords(c *gin.Context) {
	records, err := h.queueSvc.ListRecords(c.Request.Context(), c.Param("lesson_id"))
	if err != nil {
		h.handleQueueError(c, err)
		return
	}
	response.List(c, records)
}

// AddMeasurement 记录一次答疑计时
// POST /api/v1/queue/measurement
func (h *QueueHandler) AddMeasurement(c *gin.Context) {
	var req dto.CreateMeasurementRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.queueSvc.AddMeasurement(c.Request.Context(), &req)
	if err != nil {
		h.handleQueueError(c, err)
		return
	}
	response.Created(c, m)
}

// ListMeasurements GET /api/v1/queue/lesson/:lesson_id/measurement
func (h *QueueHandler) ListMeasurements(c *gin.Context) {
	list, err := h.queueSvc.ListMeasurements(c.Request.Context(), c.Param("lesson_id"))
	if err != nil {
		h.handleQueueError(c, err)
		return
	}
	response.List(c, list)
}

// SetAdvice 写入建议顺序
// POST /api/v1/queue/lesson/:lesson_id/advised
func (h *QueueHandler) SetAdvice(c *gin.Context) {
	var req dto.SetAdvisedQueueRequest
	if !bindJSON(c, &req) {
		return
	}

	advice, err := h.queueSvc.SetAdvice(c.Request.Context(), c.Param("lesson_id"), &req)
	if err != nil {
		h.handleQueueError(c, err)
		return
	}
	response.Created(c, gin.H{"list": advice})
}

// ListAdvice 建议顺序，按名次排序
// GET /api/v1/queue/lesson/:lesson_id/advised
func (h *QueueHandler) ListAdvice(c *gin.Context) {
	advice, err := h.queueSvc.ListAdvice(c.Request.Context(), c.Param("lesson_id"))
	if err != nil {
		h.handleQueueError(c, err)
		return
	}
	response.List(c, advice)
}

func (h *QueueHandler) handleQueueError(c *gin.Context, err error) {
	if handleValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		response.NotFound(c, 18001, "课堂不存在")
	case errors.Is(err, service.ErrQueueRecordNotFound):
		response.NotFound(c, 19002, "排队记录不存在")
	case errors.Is(err, service.ErrRecordNotInLesson):
		response.BadRequest(c, 19003, "排队记录不属于该课堂")
	case errors.Is(err, service.ErrDuplicateRank):
		response.Conflict(c, 19004, "建议顺序中存在重复名次")
	case errors.Is(err, service.ErrQueueForOtherPerson):
		response.Forbidden(c, 19005, "学生只能为本人加入排队")
	default:
		response.InternalError(c)
	}
}
