package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"klimr/backend/internal/service"
	"klimr/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRoster 导出班级最新状态名单
// GET /api/v1/info/group/:id/roster.xlsx
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	sendFile(c, buf, filename, contentTypeXLSX)
}

// ExportGroupCalendar 导出班级课堂日历
// GET /api/v1/schedule/group/:group_id/calendar.ics
func (h *ExportHandler) ExportGroupCalendar(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportGroupCalendar(c.Request.Context(), c.Param("group_id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	sendFile(c, buf, filename, contentTypeICS)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 15001, "班级不存在")
	case errors.Is(err, service.ErrGroupHasNoState):
		response.NotFound(c, 15002, "班级尚无学期状态")
	default:
		response.InternalError(c)
	}
}
