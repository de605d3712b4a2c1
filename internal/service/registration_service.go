package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/academy_server/config"
	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/pubsub"
	"github.com/qs3c/academy_server/internal/repository"
)

// RegistrationOperations 家长端报名操作
type RegistrationOperations interface {
	Register(ctx context.Context, actor Actor, sessionID, athleteID int64) (*dto.RegistrationResult, error)
	Unregister(ctx context.Context, actor Actor, sessionID, athleteID int64) (*dto.RegistrationResult, error)
	CheckEligibility(ctx context.Context, actor Actor, sessionID, athleteID int64) (*dto.EligibilityResponse, error)
}

var _ RegistrationOperations = (*RegistrationService)(nil)

// RegistrationService runs the entitlement check and the registration insert.
// The quota check and the insert are separate statements: two concurrent
// registrations for one athlete can both pass the check. Only the
// (session_id, athlete_id) unique index is enforced by the store.
type RegistrationService struct {
	sessionRepo     *repository.SessionRepository
	athleteRepo     *repository.AthleteRepository
	regRepo         *repository.RegistrationRepository
	entitlement     *EntitlementService
	sessions        *SessionService
	notifier        RosterNotifier
	logger          *zap.Logger
	enforceCapacity bool

	Now func() time.Time
}

func NewRegistrationService(
	sessionRepo *repository.SessionRepository,
	athleteRepo *repository.AthleteRepository,
	regRepo *repository.RegistrationRepository,
	entitlement *EntitlementService,
	notifier RosterNotifier,
	logger *zap.Logger,
	cfg *config.Config,
) *RegistrationService {
	return &RegistrationService{
		sessionRepo:     sessionRepo,
		athleteRepo:     athleteRepo,
		regRepo:         regRepo,
		entitlement:     entitlement,
		sessions:        NewSessionService(sessionRepo, regRepo),
		notifier:        notifier,
		logger:          logger,
		enforceCapacity: cfg.Registration.EnforceCapacity,
	}
}

// Register 报名：重新读取订阅与用量，通过资格检查后插入报名记录
func (s *RegistrationService) Register(ctx context.Context, actor Actor, sessionID, athleteID int64) (*dto.RegistrationResult, error) {
	athlete, err := s.ownedAthlete(ctx, actor, athleteID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	eligibility, err := s.entitlement.CheckEligibility(ctx, athlete, session)
	if err != nil {
		return nil, err
	}
	if !eligibility.Allowed {
		s.logger.Info("registration rejected",
			zap.Int64("session_id", sessionID),
			zap.Int64("athlete_id", athleteID),
			zap.Error(eligibility.Reason))
		return nil, eligibility.Reason
	}

	return s.insert(ctx, session, athlete, model.RegistrationSourceSelf, pubsub.EventRegistered)
}

// Unregister 取消报名，记录不存在时视为成功
func (s *RegistrationService) Unregister(ctx context.Context, actor Actor, sessionID, athleteID int64) (*dto.RegistrationResult, error) {
	athlete, err := s.ownedAthlete(ctx, actor, athleteID)
	if err != nil {
		return nil, err
	}
	return s.remove(ctx, sessionID, athlete, pubsub.EventUnregistered)
}

// CheckEligibility 预检报名资格（不写入）
func (s *RegistrationService) CheckEligibility(ctx context.Context, actor Actor, sessionID, athleteID int64) (*dto.EligibilityResponse, error) {
	athlete, err := s.ownedAthlete(ctx, actor, athleteID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	eligibility, err := s.entitlement.CheckEligibility(ctx, athlete, session)
	if err != nil {
		return nil, err
	}

	resp := &dto.EligibilityResponse{
		Allowed: eligibility.Allowed,
		Used:    eligibility.Used,
		Limit:   eligibility.Limit,
	}
	if eligibility.Plan != nil {
		resp.PlanName = eligibility.Plan.Name
	}
	if eligibility.Reason != nil {
		resp.Reason = eligibility.Reason.Error()
	}
	return resp, nil
}

// ListForAthlete 运动员的报名记录（按课程时间）
func (s *RegistrationService) ListForAthlete(ctx context.Context, actor Actor, athleteID int64) ([]*dto.AthleteRegistrationItem, error) {
	if _, err := s.ownedAthlete(ctx, actor, athleteID); err != nil {
		return nil, err
	}

	regs, err := s.regRepo.ListByAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.AthleteRegistrationItem, 0, len(regs))
	for _, reg := range regs {
		item := &dto.AthleteRegistrationItem{
			SessionID:    reg.SessionID,
			CheckedIn:    reg.CheckedIn,
			CheckedInAt:  reg.CheckedInAt,
			RegisteredAt: reg.CreatedAt,
		}
		if reg.Session != nil {
			item.Title = reg.Session.Title
			item.StartsAt = reg.Session.StartsAt
			item.Location = reg.Session.Location
		}
		items = append(items, item)
	}
	return items, nil
}

// insert 写入报名记录；名额仅作提示，除非开启 enforce_capacity
func (s *RegistrationService) insert(ctx context.Context, session *model.Session, athlete *model.Athlete, source, event string) (*dto.RegistrationResult, error) {
	before, err := s.sessions.Capacity(ctx, session)
	if err != nil {
		return nil, err
	}
	// 管理员直接加入名单不受名额限制
	if before.IsFull && s.enforceCapacity && source == model.RegistrationSourceSelf {
		return nil, ErrSessionFull
	}

	reg := &model.Registration{
		SessionID: session.ID,
		AthleteID: athlete.ID,
		Source:    source,
		CreatedAt: nowFrom(s.Now).UTC(),
	}
	if err := s.regRepo.Create(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}

	result, err := s.reload(ctx, session, athlete.ID)
	if err != nil {
		return nil, err
	}
	result.Registered = true
	result.Waitlisted = result.Capacity.BookedSlots > session.MaxSlots

	s.logger.Info("athlete registered",
		zap.Int64("session_id", session.ID),
		zap.Int64("athlete_id", athlete.ID),
		zap.String("source", source),
		zap.Bool("waitlisted", result.Waitlisted))
	s.publish(ctx, event, session, athlete, result.Capacity)
	return result, nil
}

func (s *RegistrationService) remove(ctx context.Context, sessionID int64, athlete *model.Athlete, event string) (*dto.RegistrationResult, error) {
	deleted, err := s.regRepo.Delete(ctx, sessionID, athlete.ID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return &dto.RegistrationResult{SessionID: sessionID, AthleteID: athlete.ID}, nil
		}
		return nil, err
	}

	result, err := s.reload(ctx, session, athlete.ID)
	if err != nil {
		return nil, err
	}

	if deleted {
		s.logger.Info("athlete unregistered",
			zap.Int64("session_id", sessionID),
			zap.Int64("athlete_id", athlete.ID))
		s.publish(ctx, event, session, athlete, result.Capacity)
	}
	return result, nil
}

// reload 变更后重新从报名记录读取名额与用量
func (s *RegistrationService) reload(ctx context.Context, session *model.Session, athleteID int64) (*dto.RegistrationResult, error) {
	capacity, err := s.sessions.Capacity(ctx, session)
	if err != nil {
		return nil, err
	}
	usage, err := s.entitlement.UsageStats(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	return &dto.RegistrationResult{
		SessionID: session.ID,
		AthleteID: athleteID,
		Capacity:  capacity,
		Usage:     usage,
	}, nil
}

func (s *RegistrationService) ownedAthlete(ctx context.Context, actor Actor, athleteID int64) (*model.Athlete, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, athleteID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}
	if !actor.owns(athlete) {
		return nil, ErrPermissionDenied
	}
	return athlete, nil
}

func (s *RegistrationService) publish(ctx context.Context, event string, session *model.Session, athlete *model.Athlete, capacity dto.CapacityInfo) {
	if s.notifier == nil {
		return
	}
	msg := &pubsub.RosterMessage{
		Event:          event,
		SessionID:      session.ID,
		AthleteID:      athlete.ID,
		AthleteName:    athlete.FullName(),
		BookedSlots:    capacity.BookedSlots,
		CheckedInCount: capacity.CheckedInCount,
		MaxSlots:       capacity.MaxSlots,
		OccurredAt:     nowFrom(s.Now).UTC(),
	}
	if err := s.notifier.PublishRoster(ctx, msg); err != nil {
		s.logger.Warn("failed to publish roster update",
			zap.Int64("session_id", session.ID),
			zap.String("event", event),
			zap.Error(err))
	}
}
