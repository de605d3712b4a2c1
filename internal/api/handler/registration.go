package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/response"
	"github.com/qs3c/academy_server/internal/service"
)

type RegistrationHandler struct {
	registrationService *service.RegistrationService
}

func NewRegistrationHandler(registrationService *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
	}
}

// Register 为运动员报名
// POST /api/v1/sessions/:id/registrations
func (h *RegistrationHandler) Register(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.AuthError(c, "")
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

	result, err := h.registrationService.Register(c.Request.Context(), actor, sessionID, req.AthleteID)
	if err != nil {
		writeError(c, err)
		return
	}

	message := "报名成功"
	if result.Waitlisted {
		message = "课程已满，已加入候补"
	}
	response.SuccessWithMessage(c, message, result)
}

// Unregister 取消报名（幂等）
// DELETE /api/v1/sessions/:id/registrations/:athlete_id
func (h *RegistrationHandler) Unregister(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.AuthError(c, "")
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

	result, err := h.registrationService.Unregister(c.Request.Context(), actor, sessionID, athleteID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已取消报名", result)
}

// Eligibility 报名资格预检（不产生任何写入）
// GET /api/v1/athletes/:id/eligibility?session_id=
func (h *RegistrationHandler) Eligibility(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	athleteID, ok := paramID(c, "id")
	if !ok {
		response.ParamError(c, "无效的运动员ID")
		return
	}
	var query struct {
		SessionID int64 `form:"session_id" binding:"required,min=1"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ParamError(c, "缺少 session_id")
		return
	}

	resp, err := h.registrationService.CheckEligibility(c.Request.Context(), actor, query.SessionID, athleteID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, resp)
}

// ListForAthlete 运动员的报名记录
// GET /api/v1/athletes/:id/registrations
func (h *RegistrationHandler) ListForAthlete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	athleteID, ok := paramID(c, "id")
	if !ok {
		response.ParamError(c, "无效的运动员ID")
		return
	}

	items, err := h.registrationService.ListForAthlete(c.Request.Context(), actor, athleteID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, items)
}
