package service

import (
	"errors"

	"github.com/qs3c/academy_server/internal/catalog"
)

// 报名资格
var (
	ErrNoActiveSubscription = errors.New("athlete has no active subscription")
	ErrUnknownPlan          = catalog.ErrUnknownPlan
	ErrMonthlyQuotaExceeded = errors.New("monthly session limit reached for this plan")
	ErrAgeOutOfRange        = errors.New("athlete age is outside this session's age range")
)

// 报名与签到
var (
	ErrAlreadyRegistered    = errors.New("athlete is already registered for this session")
	ErrSessionFull          = errors.New("session is full")
	ErrInvalidCode          = errors.New("invalid QR code")
	ErrRegistrationNotFound = errors.New("athlete is not registered for this session")
	ErrAlreadyCheckedIn     = errors.New("athlete is already checked in")
	ErrStorageConflict      = errors.New("conflicting write, please retry")
)

// 资源与权限
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrAthleteNotFound     = errors.New("athlete not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidSessionTime  = errors.New("session must end after it starts")
	ErrInvalidAgeRange     = errors.New("min age cannot exceed max age")
	ErrInvalidBirthDate    = errors.New("date of birth must be YYYY-MM-DD and in the past")
	ErrInvalidBillingEvent = errors.New("billing event is missing subscription or athlete reference")
	ErrPhotoStorageOff     = errors.New("photo storage is not configured")
	ErrPhotoTooLarge       = errors.New("photo exceeds the size limit")
	ErrInvalidPhotoFormat  = errors.New("photo must be jpg, png, gif or webp")
)

// IsEligibilityError 是否为报名资格类错误
func IsEligibilityError(err error) bool {
	return errors.Is(err, ErrNoActiveSubscription) ||
		errors.Is(err, ErrUnknownPlan) ||
		errors.Is(err, ErrMonthlyQuotaExceeded) ||
		errors.Is(err, ErrAgeOutOfRange)
}
