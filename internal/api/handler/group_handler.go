package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/service"
	"klimr/backend/pkg/response"
)

// GroupHandler 班级及其学期状态 HTTP 处理器
type GroupHandler struct {
	groupSvc service.GroupService
}

// NewGroupHandler 创建 GroupHandler
func NewGroupHandler(groupSvc service.GroupService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc}
}

// ListGroups 班级列表；零状态班级的 name 为 null
// GET /api/v1/info/group
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groupSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.List(c, groups)
}

// CreateGroup 创建班级，可同时创建首个学期状态
// POST /api/v1/info/group
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req dto.CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	group, err := h.groupSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.Created(c, group)
}

// GetGroup 班级最新状态详情
// GET /api/v1/info/group/:id
func (h *GroupHandler) GetGroup(c *gin.Context) {
	state, err := h.groupSvc.GetLatest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, state)
}

// DeleteGroup 删除班级及其全部状态与子组
// DELETE /api/v1/info/group/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	if err := h.groupSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListStates 按学期顺序返回全部状态
// GET /api/v1/info/group/:id/state
func (h *GroupHandler) ListStates(c *gin.Context) {
	states, err := h.groupSvc.ListStates(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.List(c, states)
}

// GetState 某一历史状态
// GET /api/v1/info/group/:id/state/:state_id
func (h *GroupHandler) GetState(c *gin.Context) {
	state, err := h.groupSvc.GetState(c.Request.Context(), c.Param("id"), c.Param("state_id"))
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, state)
}

// GetStateAsOf 某日生效的状态
// GET /api/v1/info/group/:id/state/as-of?date=YYYY-MM-DD
func (h *GroupHandler) GetStateAsOf(c *gin.Context) {
	var q dto.GroupAsOfQuery
	if !bindQuery(c, &q) {
		return
	}

	state, err := h.groupSvc.AsOf(c.Request.Context(), c.Param("id"), q.Date)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, state)
}

// CreateState 创建学期状态及其子组（单事务）
// POST /api/v1/info/group/:id/state
func (h *GroupHandler) CreateState(c *gin.Context) {
	var req dto.CreateGroupStateRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	state, err := h.groupSvc.CreateState(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.Created(c, state)
}

// AddSubgroup 为已有状态新增子组
// POST /api/v1/info/group/:id/state/:state_id/subgroup
func (h *GroupHandler) AddSubgroup(c *gin.Context) {
	var req dto.SubgroupInput
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	sg, err := h.groupSvc.AddSubgroup(c.Request.Context(), c.Param("id"), c.Param("state_id"), &req, callerID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.Created(c, sg)
}

// ReplaceSubgroup 整体替换子组的成员、教师与科目
// PUT /api/v1/info/group/:id/state/:state_id/subgroup/:subgroup_id
func (h *GroupHandler) ReplaceSubgroup(c *gin.Context) {
	var req dto.SubgroupInput
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetAccountID(c)
	if !ok {
		return
	}

	sg, err := h.groupSvc.ReplaceSubgroup(c.Request.Context(), c.Param("id"), c.Param("state_id"), c.Param("subgroup_id"), &req, callerID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, sg)
}

// handleGroupError 统一处理班级模块业务错误
func (h *GroupHandler) handleGroupError(c *gin.Context, err error) {
	if handleValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 15001, "班级不存在")
	case errors.Is(err, service.ErrGroupHasNoState):
		response.NotFound(c, 15002, "班级尚无学期状态")
	case errors.Is(err, service.ErrGroupStateNotFound):
		response.NotFound(c, 15003, "班级学期状态不存在")
	case errors.Is(err, service.ErrDuplicateSemesterState):
		response.Conflict(c, 15004, "该班级在此学期已有状态")
	case errors.Is(err, service.ErrPraepostorNotMember):
		response.BadRequest(c, 15005, "班长必须是本学期子组成员")
	case errors.Is(err, service.ErrSubgroupNotFound):
		response.NotFound(c, 15006, "子组不存在")
	case errors.Is(err, service.ErrNoStateOnDate):
		response.NotFound(c, 15007, "该日期没有生效的班级状态")
	default:
		response.InternalError(c)
	}
}
