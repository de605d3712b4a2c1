package dto

import "time"

// RegisterRequest 报名请求
type RegisterRequest struct {
	AthleteID int64 `json:"athlete_id" binding:"required"`
}

// UsageStats 当月使用情况
type UsageStats struct {
	Used     int    `json:"used"`
	Limit    int    `json:"limit"`
	PlanName string `json:"plan_name"`
}

// RegistrationResult 报名/取消报名后重新读取的状态
type RegistrationResult struct {
	SessionID  int64        `json:"session_id"`
	AthleteID  int64        `json:"athlete_id"`
	Registered bool         `json:"registered"`
	Waitlisted bool         `json:"waitlisted"`
	Capacity   CapacityInfo `json:"capacity"`
	Usage      *UsageStats  `json:"usage,omitempty"`
}

// EligibilityResponse 报名资格
type EligibilityResponse struct {
	Allowed  bool   `json:"allowed"`
	Reason   string `json:"reason,omitempty"`
	Used     int    `json:"used"`
	Limit    int    `json:"limit"`
	PlanName string `json:"plan_name,omitempty"`
}

// AthleteRegistrationItem 运动员的报名列表项
type AthleteRegistrationItem struct {
	SessionID    int64      `json:"session_id"`
	Title        string     `json:"title"`
	StartsAt     time.Time  `json:"starts_at"`
	Location     string     `json:"location"`
	CheckedIn    bool       `json:"checked_in"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// CheckInRequest 扫码签到请求
type CheckInRequest struct {
	Code string `json:"code" binding:"required"`
}

// CheckInResult 签到结果，失败时 Success 为 false
type CheckInResult struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	AthleteName string     `json:"athlete_name,omitempty"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}
