package model

import (
	"time"
)

// Session 训练课程
type Session struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	StartsAt    time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt      time.Time `gorm:"not null" json:"ends_at"`
	Location    string    `gorm:"size:200" json:"location"`
	MaxSlots    int       `gorm:"not null" json:"max_slots"`
	MinAge      *int      `json:"min_age,omitempty"`
	MaxAge      *int      `json:"max_age,omitempty"`
	CreatedBy   int64     `gorm:"index" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) HasAgeRange() bool {
	return s.MinAge != nil || s.MaxAge != nil
}
