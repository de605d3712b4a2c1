package dto

import "time"

// CreateAthleteRequest 家长添加运动员
type CreateAthleteRequest struct {
	FirstName   string   `json:"first_name" binding:"required,max=50"`
	LastName    string   `json:"last_name" binding:"max=50"`
	DateOfBirth string   `json:"date_of_birth"` // YYYY-MM-DD
	Interests   []string `json:"interests"`
}

// AthleteInfo 运动员信息（含订阅状态与当月用量）
type AthleteInfo struct {
	ID                 int64      `json:"id"`
	GuardianID         int64      `json:"guardian_id"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	FullName           string     `json:"full_name"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	Interests          []string   `json:"interests"`
	QRCode             string     `json:"qr_code"`
	ProfileImageURL    string     `json:"profile_image_url,omitempty"`
	SubscriptionStatus string     `json:"subscription_status"`
	Usage              UsageStats `json:"usage"`
}

// PhotoResponse 头像上传结果
type PhotoResponse struct {
	ProfileImageURL string `json:"profile_image_url"`
}
