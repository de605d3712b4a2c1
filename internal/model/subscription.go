package model

import (
	"time"
)

const (
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionPaused   = "paused"
	SubscriptionCanceled = "canceled"
)

// Subscription 由支付方 webhook 同步，processor_subscription_id 唯一
type Subscription struct {
	ID                      int64     `gorm:"primaryKey" json:"id"`
	ProcessorSubscriptionID string    `gorm:"size:100;uniqueIndex;not null" json:"processor_subscription_id"`
	ProcessorCustomerID     string    `gorm:"size:100;index" json:"processor_customer_id,omitempty"`
	GuardianID              int64     `gorm:"index" json:"guardian_id"`
	AthleteID               int64     `gorm:"not null;index" json:"athlete_id"`
	PackageID               string    `gorm:"size:100;not null" json:"package_id"`
	Status                  string    `gorm:"size:20;not null;index" json:"status"` // active, trialing, paused, canceled
	CurrentPeriodEnd        time.Time `json:"current_period_end"`
	LastEventAt             time.Time `json:"last_event_at"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// BillingEvent 已处理的支付事件，用于去重
type BillingEvent struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"size:100;uniqueIndex;not null" json:"event_id"`
	Type        string    `gorm:"size:60;index" json:"type"`
	ProcessedAt time.Time `gorm:"index" json:"processed_at"`
}

func (BillingEvent) TableName() string {
	return "billing_events"
}
