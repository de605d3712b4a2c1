package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/academy_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *SubscriptionRepository) WithTx(tx *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: tx}
}

// Transaction runs fn with repositories bound to a single transaction.
func (r *SubscriptionRepository) Transaction(ctx context.Context, fn func(subs *SubscriptionRepository, events *BillingEventRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx), NewBillingEventRepository(tx))
	})
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	return translateError(r.db.WithContext(ctx).Create(sub).Error)
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *SubscriptionRepository) GetByProcessorID(ctx context.Context, processorID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Where("processor_subscription_id = ?", processorID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActiveByAthlete 返回最新的 active 订阅
func (r *SubscriptionRepository) GetActiveByAthlete(ctx context.Context, athleteID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("athlete_id = ? AND status = ?", athleteID, model.SubscriptionActive).
		Order("current_period_end DESC, id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) ListByAthlete(ctx context.Context, athleteID int64) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.WithContext(ctx).Where("athlete_id = ?", athleteID).
		Order("updated_at DESC, id DESC").
		Find(&subs).Error
	return subs, err
}

type BillingEventRepository struct {
	db *gorm.DB
}

func NewBillingEventRepository(db *gorm.DB) *BillingEventRepository {
	return &BillingEventRepository{db: db}
}

// Record 记录已处理事件；重复投递返回 ErrDuplicate
func (r *BillingEventRepository) Record(ctx context.Context, eventID, eventType string, at time.Time) error {
	event := &model.BillingEvent{
		EventID:     eventID,
		Type:        eventType,
		ProcessedAt: at.UTC(),
	}
	return translateError(r.db.WithContext(ctx).Create(event).Error)
}

func (r *BillingEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BillingEvent{}).Where("event_id = ?", eventID).Count(&count).Error
	return count > 0, err
}

// PruneBefore 删除早于 cutoff 的去重记录
func (r *BillingEventRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("processed_at < ?", cutoff.UTC()).Delete(&model.BillingEvent{})
	return result.RowsAffected, result.Error
}

// CountBefore 统计早于 cutoff 的去重记录
func (r *BillingEventRepository) CountBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BillingEvent{}).Where("processed_at < ?", cutoff.UTC()).Count(&count).Error
	return count, err
}
