package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/service"
	pkgerrors "klimr/backend/pkg/errors"
	"klimr/backend/pkg/response"
)

// SemesterHandler 学期、节假日、课时 HTTP 处理器
type SemesterHandler struct {
	semesterSvc service.SemesterService
}

// NewSemesterHandler 创建 SemesterHandler
func NewSemesterHandler(semesterSvc service.SemesterService) *SemesterHandler {
	return &SemesterHandler{semesterSvc: semesterSvc}
}

// ListSemesters 获取学期列表
// GET /api/v1/info/semester
func (h *SemesterHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.semesterSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.List(c, semesters)
}

// GetSemester 获取学期详情
// GET /api/v1/info/semester/:id
func (h *SemesterHandler) GetSemester(c *gin.Context) {
	semester, err := h.semesterSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, semester)
}

// CreateSemester 创建学期
// POST /api/v1/info/semester
func (h *SemesterHandler) CreateSemester(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	semester, err := h.semesterSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.Created(c, semester)
}

// UpdateSemester 更新学期（乐观锁）
// PUT /api/v1/info/semester/:id
func (h *SemesterHandler) UpdateSemester(c *gin.Context) {
	var req dto.UpdateSemesterRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	semester, err := h.semesterSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, semester)
}

// DeleteSemester 删除学期
// DELETE /api/v1/info/semester/:id
func (h *SemesterHandler) DeleteSemester(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	if err := h.semesterSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 节假日 ──────────────────────

// ListHolidays GET /api/v1/info/holiday
func (h *SemesterHandler) ListHolidays(c *gin.Context) {
	holidays, err := h.semesterSvc.ListHolidays(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, holidays)
}

// GetHoliday GET /api/v1/info/holiday/:id
func (h *SemesterHandler) GetHoliday(c *gin.Context) {
	holiday, err := h.semesterSvc.GetHoliday(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}
	response.OK(c, holiday)
}

// CreateHoliday POST /api/v1/info/holiday
func (h *SemesterHandler) CreateHoliday(c *gin.Context) {
	var req dto.HolidayRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	holiday, err := h.semesterSvc.CreateHoliday(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}
	response.Created(c, holiday)
}

// UpdateHoliday PUT /api/v1/info/holiday/:id
func (h *SemesterHandler) UpdateHoliday(c *gin.Context) {
	var req dto.HolidayRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	holiday, err := h.semesterSvc.UpdateHoliday(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}
	response.OK(c, holiday)
}

// DeleteHoliday DELETE /api/v1/info/holiday/:id
func (h *SemesterHandler) DeleteHoliday(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.semesterSvc.DeleteHoliday(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleSemesterError(c, err)
		return
	}
	response.OK(c, nil)
}

// ImportHolidays 从上传的 iCalendar 文件导入节假日
// POST /api/v1/info/holiday/import（multipart，字段 file）
func (h *SemesterHandler) ImportHolidays(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.ValidationFailed(c, map[string]string{"file": "file is a required field"})
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	created, err := h.semesterSvc.ImportHolidays(c.Request.Context(), f, callerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}
	response.Created(c, gin.H{"list": created})
}

// ────────────────────── 课时 ──────────────────────

// ListTimings GET /api/v1/info/lesson-timing
func (h *SemesterHandler) ListTimings(c *gin.Context) {
	timings, err := h.semesterSvc.ListTimings(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.List(c, timings)
}

// GetTiming GET /api/v1/info/lesson-timing/:id
func (h *SemesterHandler) GetTiming(c *gin.Context) {
	timing, err := h.semesterSvc.GetTiming(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}
	response.OK(c, timing)
}

// CreateTiming POST /api/v1/info/lesson-timing
func (h *SemesterHandler) CreateTiming(c *gin.Context) {
	var req dto.LessonTimingRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	timing, err := h.semesterSvc.CreateTiming(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}
	response.Created(c, timing)
}

// UpdateTiming PUT /api/v1/info/lesson-timing/:id
func (h *SemesterHandler) UpdateTiming(c *gin.Context) {
	var req dto.LessonTimingRequest
	if !bindJSON(c, &req) {
		return
	}
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	timing, err := h.semesterSvc.UpdateTiming(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}
	response.OK(c, timing)
}

// DeleteTiming DELETE /api/v1/info/lesson-timing/:id
func (h *SemesterHandler) DeleteTiming(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}
	if err := h.semesterSvc.DeleteTiming(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleSemesterError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleSemesterError 统一处理学期模块业务错误
func (h *SemesterHandler) handleSemesterError(c *gin.Context, err error) {
	if handleValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 14001, "学期不存在")
	case errors.Is(err, service.ErrSemesterOverlap):
		response.Conflict(c, 14002, "学期时间与已有学期重叠")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 14003, "学期已被其他人修改，请刷新后重试")
	case errors.Is(err, service.ErrSemesterInUse):
		response.Conflict(c, 14004, "学期已被班级状态引用，无法修改日期或删除")
	case errors.Is(err, service.ErrHolidayNotFound):
		response.NotFound(c, 14011, "节假日不存在")
	case errors.Is(err, service.ErrHolidayExists):
		response.Conflict(c, 14012, "该日期已登记节假日")
	case errors.Is(err, service.ErrTimingNotFound):
		response.NotFound(c, 14021, "课时不存在")
	case errors.Is(err, service.ErrTimingExists):
		response.Conflict(c, 14022, "相同起止时间的课时已存在")
	case errors.Is(err, service.ErrHolidayImportEmpty):
		response.BadRequest(c, 14031, "日历中没有可导入的节假日")
	default:
		response.InternalError(c)
	}
}
