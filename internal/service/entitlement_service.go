package service

import (
	"context"
	"errors"
	"time"

	"github.com/qs3c/academy_server/config"
	"github.com/qs3c/academy_server/internal/catalog"
	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/repository"
)

// SubscriptionSource 订阅状态来源（支付方同步的数据）
type SubscriptionSource interface {
	GetActiveSubscription(ctx context.Context, athleteID int64) (*model.Subscription, error)
	SubscriptionStatus(ctx context.Context, athleteID int64) (string, error)
}

// Eligibility 报名资格检查结果，Reason 为不允许的原因
type Eligibility struct {
	Allowed      bool
	Reason       error
	Plan         *catalog.Plan
	Subscription *model.Subscription
	Used         int
	Limit        int
}

// EntitlementService decides whether an athlete may take a session. It has no
// side effects; callers still perform the capacity check and the insert.
type EntitlementService struct {
	subs     SubscriptionSource
	regRepo  *repository.RegistrationRepository
	catalog  *catalog.Catalog
	location *time.Location

	// Now 可注入，用于测试月初边界与年龄计算
	Now func() time.Time
}

func NewEntitlementService(
	subs SubscriptionSource,
	regRepo *repository.RegistrationRepository,
	cat *catalog.Catalog,
	cfg *config.Config,
) *EntitlementService {
	loc, err := time.LoadLocation(cfg.Registration.Timezone)
	if err != nil || cfg.Registration.Timezone == "" {
		loc = time.UTC
	}
	return &EntitlementService{
		subs:     subs,
		regRepo:  regRepo,
		catalog:  cat,
		location: loc,
	}
}

// MonthStart 当月第一天 00:00（业务时区），以 UTC 返回
func (s *EntitlementService) MonthStart(now time.Time) time.Time {
	local := now.In(s.location)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.location).UTC()
}

// CheckEligibility 检查报名资格：有效订阅 -> 套餐 -> 当月用量 -> 年龄
func (s *EntitlementService) CheckEligibility(ctx context.Context, athlete *model.Athlete, session *model.Session) (*Eligibility, error) {
	now := nowFrom(s.Now)
	result := &Eligibility{}

	sub, err := s.subs.GetActiveSubscription(ctx, athlete.ID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		result.Reason = ErrNoActiveSubscription
		return result, nil
	}
	result.Subscription = sub

	plan, err := s.catalog.Lookup(sub.PackageID)
	if err != nil {
		result.Reason = ErrUnknownPlan
		return result, nil
	}
	result.Plan = &plan
	result.Limit = plan.MaxSessions

	// 每次实时统计，不维护计数列
	used, err := s.regRepo.CountSince(ctx, athlete.ID, s.MonthStart(now))
	if err != nil {
		return nil, err
	}
	result.Used = used
	if used >= plan.MaxSessions {
		result.Reason = ErrMonthlyQuotaExceeded
		return result, nil
	}

	if session != nil && session.HasAgeRange() {
		if age, ok := athlete.AgeAt(now.In(s.location)); ok {
			if session.MinAge != nil && age < *session.MinAge {
				result.Reason = ErrAgeOutOfRange
				return result, nil
			}
			if session.MaxAge != nil && age > *session.MaxAge {
				result.Reason = ErrAgeOutOfRange
				return result, nil
			}
		}
	}

	result.Allowed = true
	return result, nil
}

// UsageStats 当月用量与套餐上限；无有效订阅时 Limit 为 0
func (s *EntitlementService) UsageStats(ctx context.Context, athleteID int64) (*dto.UsageStats, error) {
	used, err := s.regRepo.CountSince(ctx, athleteID, s.MonthStart(nowFrom(s.Now)))
	if err != nil {
		return nil, err
	}

	stats := &dto.UsageStats{Used: used}

	sub, err := s.subs.GetActiveSubscription(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return stats, nil
	}

	plan, err := s.catalog.Lookup(sub.PackageID)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownPlan) {
			return stats, nil
		}
		return nil, err
	}
	stats.Limit = plan.MaxSessions
	stats.PlanName = plan.Name
	return stats, nil
}

// SubscriptionStatus 运动员的订阅展示状态 none/active/paused/canceled
func (s *EntitlementService) SubscriptionStatus(ctx context.Context, athleteID int64) (string, error) {
	return s.subs.SubscriptionStatus(ctx, athleteID)
}
