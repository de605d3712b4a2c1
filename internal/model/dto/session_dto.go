package dto

import "time"

// CapacityInfo 由报名记录实时计算的名额信息
type CapacityInfo struct {
	MaxSlots       int  `json:"max_slots"`
	BookedSlots    int  `json:"booked_slots"`
	CheckedInCount int  `json:"checked_in_count"`
	IsFull         bool `json:"is_full"`
	WaitlistCount  int  `json:"waitlist_count"`
}

// SessionItem 课程列表项
type SessionItem struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	StartsAt    time.Time    `json:"starts_at"`
	EndsAt      time.Time    `json:"ends_at"`
	Location    string       `json:"location"`
	MinAge      *int         `json:"min_age,omitempty"`
	MaxAge      *int         `json:"max_age,omitempty"`
	Capacity    CapacityInfo `json:"capacity"`
}

// CreateSessionRequest 创建课程请求（管理员）
type CreateSessionRequest struct {
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
	Location    string    `json:"location" binding:"max=200"`
	MaxSlots    int       `json:"max_slots" binding:"required,min=1"`
	MinAge      *int      `json:"min_age" binding:"omitempty,min=0"`
	MaxAge      *int      `json:"max_age" binding:"omitempty,min=0"`
}

// RosterEntry 课程名单
type RosterEntry struct {
	RegistrationID int64      `json:"registration_id"`
	AthleteID      int64      `json:"athlete_id"`
	AthleteName    string     `json:"athlete_name"`
	CheckedIn      bool       `json:"checked_in"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	Source         string     `json:"source"`
	RegisteredAt   time.Time  `json:"registered_at"`
}

// RosterResponse 课程名单及名额
type RosterResponse struct {
	Session  *SessionItem   `json:"session"`
	Athletes []*RosterEntry `json:"athletes"`
}
