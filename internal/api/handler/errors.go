package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/academy_server/internal/api/middleware"
	"github.com/qs3c/academy_server/internal/pkg/response"
	"github.com/qs3c/academy_server/internal/service"
)

// actorFrom 从认证上下文构造调用方
func actorFrom(c *gin.Context) (service.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: middleware.GetRole(c)}, true
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// writeError 将业务错误映射为响应码
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMonthlyQuotaExceeded),
		errors.Is(err, service.ErrSessionFull):
		response.QuotaError(c, err.Error())
	case service.IsEligibilityError(err):
		response.NotEligibleError(c, err.Error())
	case errors.Is(err, service.ErrAlreadyRegistered):
		response.DuplicateError(c, err.Error())
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrAthleteNotFound),
		errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		response.PermissionError(c, err.Error())
	case errors.Is(err, service.ErrInvalidSessionTime),
		errors.Is(err, service.ErrInvalidAgeRange),
		errors.Is(err, service.ErrInvalidBirthDate),
		errors.Is(err, service.ErrInvalidBillingEvent),
		errors.Is(err, service.ErrInvalidPhotoFormat),
		errors.Is(err, service.ErrPhotoTooLarge):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrStorageConflict):
		response.ConflictError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
