package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/pubsub"
	"github.com/qs3c/academy_server/internal/repository"
)

// CheckInService resolves a scanned QR code and flips the registration to
// checked in exactly once.
type CheckInService struct {
	athleteRepo *repository.AthleteRepository
	regRepo     *repository.RegistrationRepository
	sessions    *SessionService
	notifier    RosterNotifier
	logger      *zap.Logger

	Now func() time.Time
}

func NewCheckInService(
	sessionRepo *repository.SessionRepository,
	athleteRepo *repository.AthleteRepository,
	regRepo *repository.RegistrationRepository,
	notifier RosterNotifier,
	logger *zap.Logger,
) *CheckInService {
	return &CheckInService{
		athleteRepo: athleteRepo,
		regRepo:     regRepo,
		sessions:    NewSessionService(sessionRepo, regRepo),
		notifier:    notifier,
		logger:      logger,
	}
}

// CheckIn 扫码签到。结果始终非空，失败时 Success=false 且 err 为对应错误
func (s *CheckInService) CheckIn(ctx context.Context, sessionID int64, code string) (*dto.CheckInResult, error) {
	session, err := s.sessions.getSession(ctx, sessionID)
	if err != nil {
		return failedCheckIn(err, ""), err
	}

	athlete, err := s.athleteRepo.GetByQRCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return failedCheckIn(ErrInvalidCode, ""), ErrInvalidCode
		}
		return failedCheckIn(err, ""), err
	}
	name := athlete.FullName()

	reg, err := s.regRepo.Get(ctx, sessionID, athlete.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return failedCheckIn(ErrRegistrationNotFound, name), ErrRegistrationNotFound
		}
		return failedCheckIn(err, name), err
	}
	if reg.CheckedIn {
		return failedCheckIn(ErrAlreadyCheckedIn, name), ErrAlreadyCheckedIn
	}

	at := nowFrom(s.Now).UTC()
	flipped, err := s.regRepo.MarkCheckedIn(ctx, reg.ID, at)
	if err != nil {
		return failedCheckIn(err, name), err
	}
	if !flipped {
		// 并发扫码，另一请求已完成签到
		return failedCheckIn(ErrAlreadyCheckedIn, name), ErrAlreadyCheckedIn
	}

	s.logger.Info("athlete checked in",
		zap.Int64("session_id", sessionID),
		zap.Int64("athlete_id", athlete.ID))

	if s.notifier != nil {
		capacity, err := s.sessions.Capacity(ctx, session)
		if err == nil {
			err = s.notifier.PublishRoster(ctx, &pubsub.RosterMessage{
				Event:          pubsub.EventCheckedIn,
				SessionID:      sessionID,
				AthleteID:      athlete.ID,
				AthleteName:    name,
				BookedSlots:    capacity.BookedSlots,
				CheckedInCount: capacity.CheckedInCount,
				MaxSlots:       capacity.MaxSlots,
				OccurredAt:     at,
			})
		}
		if err != nil {
			s.logger.Warn("failed to publish check-in", zap.Int64("session_id", sessionID), zap.Error(err))
		}
	}

	return &dto.CheckInResult{
		Success:     true,
		Message:     name + " checked in",
		AthleteName: name,
		CheckedInAt: &at,
	}, nil
}

func failedCheckIn(err error, athleteName string) *dto.CheckInResult {
	return &dto.CheckInResult{
		Success:     false,
		Message:     err.Error(),
		AthleteName: athleteName,
	}
}
