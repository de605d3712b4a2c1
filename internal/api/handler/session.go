package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/academy_server/internal/pkg/response"
	"github.com/qs3c/academy_server/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// List 课程列表
// GET /api/v1/sessions?from=&to=
func (h *SessionHandler) List(c *gin.Context) {
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		response.ParamError(c, "from 需为 RFC3339 时间")
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		response.ParamError(c, "to 需为 RFC3339 时间")
		return
	}

	items, err := h.sessionService.List(c.Request.Context(), from, to)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// Get 课程详情（含名额）
// GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, ok := paramID(c, "id")
	if !ok {
		response.ParamError(c, "无效的课程ID")
		return
	}

	item, err := h.sessionService.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, item)
}

func parseTimeQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
