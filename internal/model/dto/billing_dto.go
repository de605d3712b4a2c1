package dto

import "time"

// PackageItem 套餐展示
type PackageItem struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	MonthlyPrice        float64  `json:"monthly_price"`
	BillingInterval     string   `json:"billing_interval"`
	MaxSessions         int      `json:"max_sessions"`
	Features            []string `json:"features"`
	SiblingDiscountTier string   `json:"sibling_discount_tier,omitempty"`
}

// SyncSubscriptionRequest 手动同步订阅（管理员）
type SyncSubscriptionRequest struct {
	ProcessorSubscriptionID string    `json:"processor_subscription_id" binding:"required"`
	ProcessorCustomerID     string    `json:"processor_customer_id"`
	GuardianID              int64     `json:"guardian_id"`
	AthleteID               int64     `json:"athlete_id" binding:"required"`
	PackageID               string    `json:"package_id" binding:"required"`
	Status                  string    `json:"status" binding:"required"`
	CurrentPeriodEnd        time.Time `json:"current_period_end"`
}

// WebhookAck webhook 处理结果
type WebhookAck struct {
	EventID string `json:"event_id"`
	Queued  bool   `json:"queued"`
	Applied bool   `json:"applied"`
}

// UserItem 用户列表项（管理员）
type UserItem struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	AthleteCount int       `json:"athlete_count"`
	CreatedAt    time.Time `json:"created_at"`
}
