package model

import (
	"time"
)

const (
	RoleAdmin    = "ADMIN"
	RoleGuardian = "PARENT"
)

// User 账户持有人：家长或教练管理员
type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FullName  string    `gorm:"size:100" json:"full_name"`
	Phone     string    `gorm:"size:30" json:"phone,omitempty"`
	Role      string    `gorm:"size:20;default:PARENT;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
