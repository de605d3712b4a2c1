package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/response"
	"github.com/qs3c/academy_server/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// ops 取得管理员操作句柄，失败时已写入响应
func (h *AdminHandler) ops(c *gin.Context) (service.AdminOperations, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		response.AuthError(c, "")
		return nil, false
	}
	ops, err := h.adminService.For(actor)
	if err != nil {
		response.PermissionError(c, "需要管理员权限")
		return nil, false
	}
	return ops, true
}

// CreateSession 创建课程
// POST /api/v1/admin/sessions
func (h *AdminHandler) CreateSession(c *gin.Context) {
	ops, ok := h.ops(c)
	if !ok {
		return
	}

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := ops.CreateSession(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "创建成功", item)
}

// DeleteSession 删除课程及其报名
// DELETE /api/v1/admin/sessions/:id
func (h *AdminHandler) DeleteSession(c *gin.Context) {
	ops, ok := h.ops(c)
	if !ok {
		return
	}

	sessionID, ok := paramID(c, "id")
	if !ok {
		response.ParamError(c, "无效的课程ID")
		return
	}

	if err := ops.DeleteSession(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// Roster 课程名单
// GET /api/v1/admin/sessions/:id/roster
func (h *AdminHandler) Roster(c *gin.Context) {
	ops, ok := h.ops(c)
	if !ok {
		return
	}

	sessionID, ok := paramID(c, "id")
	if !ok {
		response.ParamError(c, "无效的课程ID")
		return
	}

	roster, err := ops.Roster(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, roster)
}

// AddToRoster 手动加入名单（不校验订阅与配额）
// POST /api/v1/admin/sessions/:id/roster
func (h *AdminHandler) AddToRoster(c *gin.Context) {
	ops, ok := h.ops(c)
	if !ok {
		return
	}

	sessionID, ok := paramID(c, "id")
	if !ok {
		response.ParamError(c, "无效的课程ID")
		return
	}

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := ops.AddToRoster(c.Request.Context(), sessionID, req.AthleteID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已加入名单", result)
}

// RemoveFromRoster 移出名单
// DELETE /api/v1/admin/sessions/:id/roster/:athlete_id
func (h *AdminHandler) RemoveFromRoster(c *gin.Context) {
	ops, ok := h.ops(c)
	if !ok {
		return
	}

	sessionID, ok := paramID(c, "id")
	if !ok {
		response.ParamError(c, "无效的课程ID")
		return
	}
	athleteID, ok := paramID(c, "athlete_id")
	if !ok {
		response.ParamError(c, "无效的运动员ID")
		return
	}

	result, err := ops.RemoveFromRoster(c.Request.Context(), sessionID, athleteID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已移出名单", result)
}

// CheckIn 扫码签到；失败时 data 仍携带签到结果（含运动员姓名）
// POST /api/v1/admin/sessions/:id/check-in
func (h *AdminHandler) CheckIn(c *gin.Context) {
	ops, ok := h.ops(c)
	if !ok {
		return
	}

	sessionID, ok := paramID(c, "id")
	if !ok {
		response.ParamError(c, "无效的课程ID")
		return
	}

	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := ops.CheckIn(c.Request.Context(), sessionID, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		if result == nil {
			response.ServerError(c, "")
			return
		}
		response.ErrorWithData(c, response.CodeCheckInFailed, result.Message, result)
		return
	}

	response.SuccessWithMessage(c, result.Message, result)
}

// ListUsers 用户列表
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	ops, ok := h.ops(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	items, total, err := ops.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// ListAthletes 运动员列表
// GET /api/v1/admin/athletes
func (h *AdminHandler) ListAthletes(c *gin.Context) {
	ops, ok := h.ops(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	items, total, err := ops.ListAthletes(c.Request.Context(), page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// SyncSubscription 手动同步订阅状态
// POST /api/v1/admin/billing/sync
func (h *AdminHandler) SyncSubscription(c *gin.Context) {
	ops, ok := h.ops(c)
	if !ok {
		return
	}

	var req dto.SyncSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	sub, err := ops.SyncSubscription(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "同步成功", sub)
}
