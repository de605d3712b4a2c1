package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/queue"
	"github.com/qs3c/academy_server/internal/repository"
)

var errDuplicateEvent = errors.New("billing event already processed")

// BillingService applies subscription state pushed by the payment processor.
// Every write is an upsert keyed by the processor subscription id, so webhook
// retries, duplicates and manual syncs converge on one row.
type BillingService struct {
	subRepo   *repository.SubscriptionRepository
	eventRepo *repository.BillingEventRepository
	logger    *zap.Logger

	Now func() time.Time
}

func NewBillingService(
	subRepo *repository.SubscriptionRepository,
	eventRepo *repository.BillingEventRepository,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		subRepo:   subRepo,
		eventRepo: eventRepo,
		logger:    logger,
	}
}

// NormalizeStatus 将支付方状态映射到 active/trialing/paused/canceled
func NormalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active":
		return model.SubscriptionActive
	case "trialing", "incomplete":
		return model.SubscriptionTrialing
	case "paused", "past_due", "unpaid":
		return model.SubscriptionPaused
	default:
		// canceled, cancelled, incomplete_expired 及未知状态
		return model.SubscriptionCanceled
	}
}

// ApplySubscriptionEvent upserts the subscription described by event. It returns false
// when the event was a duplicate delivery or older than the stored state.
func (s *BillingService) ApplySubscriptionEvent(ctx context.Context, event *queue.BillingEvent) (bool, error) {
	if event.SubscriptionID == "" {
		return false, ErrInvalidBillingEvent
	}
	receivedAt := event.ReceivedAt.UTC()
	if event.ReceivedAt.IsZero() {
		receivedAt = nowFrom(s.Now).UTC()
	}
	status := NormalizeStatus(event.Status)

	applied := false
	err := s.subRepo.Transaction(ctx, func(subs *repository.SubscriptionRepository, events *repository.BillingEventRepository) error {
		if event.EventID != "" {
			if err := events.Record(ctx, event.EventID, event.Type, nowFrom(s.Now)); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return errDuplicateEvent
				}
				return err
			}
		}

		existing, err := subs.GetByProcessorID(ctx, event.SubscriptionID)
		if err != nil && !repository.IsNotFound(err) {
			return err
		}

		if existing == nil {
			if event.AthleteID == 0 || event.PackageID == "" {
				return ErrInvalidBillingEvent
			}
			sub := &model.Subscription{
				ProcessorSubscriptionID: event.SubscriptionID,
				ProcessorCustomerID:     event.CustomerID,
				GuardianID:              event.GuardianID,
				AthleteID:               event.AthleteID,
				PackageID:               event.PackageID,
				Status:                  status,
				CurrentPeriodEnd:        event.CurrentPeriodEnd.UTC(),
				LastEventAt:             receivedAt,
			}
			if err := subs.Create(ctx, sub); err != nil {
				// 并发创建同一订阅：整个事务回滚，事件记录一并撤销，由调用方重试
				if errors.Is(err, repository.ErrDuplicate) {
					return ErrStorageConflict
				}
				return err
			}
			applied = true
			return nil
		}

		// 按接收顺序后写覆盖，较早接收的事件不覆盖较新的状态
		if existing.LastEventAt.After(receivedAt) {
			return nil
		}

		existing.Status = status
		existing.LastEventAt = receivedAt
		if event.PackageID != "" {
			existing.PackageID = event.PackageID
		}
		if !event.CurrentPeriodEnd.IsZero() {
			existing.CurrentPeriodEnd = event.CurrentPeriodEnd.UTC()
		}
		if event.CustomerID != "" {
			existing.ProcessorCustomerID = event.CustomerID
		}
		if event.AthleteID != 0 {
			existing.AthleteID = event.AthleteID
		}
		if event.GuardianID != 0 {
			existing.GuardianID = event.GuardianID
		}
		if err := subs.Update(ctx, existing); err != nil {
			return err
		}
		applied = true
		return nil
	})

	if errors.Is(err, errDuplicateEvent) {
		s.logger.Info("billing event skipped: duplicate delivery",
			zap.String("event_id", event.EventID),
			zap.String("subscription_id", event.SubscriptionID))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info("billing event processed",
		zap.String("event_id", event.EventID),
		zap.String("type", event.Type),
		zap.String("subscription_id", event.SubscriptionID),
		zap.String("status", status),
		zap.Bool("applied", applied))
	return applied, nil
}

// Sync 手动同步订阅快照（等价于一次新接收的事件）
func (s *BillingService) Sync(ctx context.Context, req *dto.SyncSubscriptionRequest) (*model.Subscription, error) {
	event := &queue.BillingEvent{
		Type:             "manual.sync",
		SubscriptionID:   req.ProcessorSubscriptionID,
		CustomerID:       req.ProcessorCustomerID,
		GuardianID:       req.GuardianID,
		AthleteID:        req.AthleteID,
		PackageID:        req.PackageID,
		Status:           req.Status,
		CurrentPeriodEnd: req.CurrentPeriodEnd,
		ReceivedAt:       nowFrom(s.Now).UTC(),
	}
	if _, err := s.ApplySubscriptionEvent(ctx, event); err != nil {
		return nil, err
	}
	return s.subRepo.GetByProcessorID(ctx, req.ProcessorSubscriptionID)
}

// GetActiveSubscription 无有效订阅时返回 nil, nil
func (s *BillingService) GetActiveSubscription(ctx context.Context, athleteID int64) (*model.Subscription, error) {
	sub, err := s.subRepo.GetActiveByAthlete(ctx, athleteID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// SubscriptionStatus active > paused > canceled > none；trialing 不计入
func (s *BillingService) SubscriptionStatus(ctx context.Context, athleteID int64) (string, error) {
	subs, err := s.subRepo.ListByAthlete(ctx, athleteID)
	if err != nil {
		return "", err
	}

	status := "none"
	rank := map[string]int{"none": 0, model.SubscriptionCanceled: 1, model.SubscriptionPaused: 2, model.SubscriptionActive: 3}
	for _, sub := range subs {
		if r, ok := rank[sub.Status]; ok && r > rank[status] {
			status = sub.Status
		}
	}
	return status, nil
}

// PruneEvents 清理早于保留期的去重记录
func (s *BillingService) PruneEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := nowFrom(s.Now).Add(-retention)
	return s.eventRepo.PruneBefore(ctx, cutoff)
}
