package model

import (
	"time"
)

// Registration 报名记录，(session_id, athlete_id) 唯一
type Registration struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	SessionID   int64      `gorm:"not null;uniqueIndex:ux_registrations_session_athlete,priority:1" json:"session_id"`
	AthleteID   int64      `gorm:"not null;uniqueIndex:ux_registrations_session_athlete,priority:2;index" json:"athlete_id"`
	CheckedIn   bool       `gorm:"default:false;not null" json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	Source      string     `gorm:"size:20;default:self" json:"source"` // self, admin
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`

	Athlete *Athlete `gorm:"foreignKey:AthleteID" json:"athlete,omitempty"`
	Session *Session `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

func (Registration) TableName() string {
	return "registrations"
}

const (
	RegistrationSourceSelf  = "self"
	RegistrationSourceAdmin = "admin"
)
