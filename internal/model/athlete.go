package model

import (
	"strings"
	"time"
)

type Athlete struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	GuardianID      int64      `gorm:"not null;index" json:"guardian_id"`
	FirstName       string     `gorm:"size:50;not null" json:"first_name"`
	LastName        string     `gorm:"size:50" json:"last_name"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Interests       string     `gorm:"size:500" json:"-"` // comma separated
	QRCode          string     `gorm:"column:qr_code;size:64;uniqueIndex;not null" json:"qr_code"`
	ProfileImageURL string     `gorm:"size:500" json:"profile_image_url,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Guardian *User `gorm:"foreignKey:GuardianID" json:"-"`
}

func (Athlete) TableName() string {
	return "athletes"
}

// FullName 展示用姓名
func (a *Athlete) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a *Athlete) InterestTags() []string {
	if a.Interests == "" {
		return []string{}
	}
	return strings.Split(a.Interests, ",")
}

// AgeAt returns whole years at t, counting a birthday only once its month/day is reached.
func (a *Athlete) AgeAt(t time.Time) (int, bool) {
	if a.DateOfBirth == nil {
		return 0, false
	}
	dob := *a.DateOfBirth
	age := t.Year() - dob.Year()
	if t.Month() < dob.Month() || (t.Month() == dob.Month() && t.Day() < dob.Day()) {
		age--
	}
	return age, true
}
