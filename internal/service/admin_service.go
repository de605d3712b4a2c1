package service

import (
	"context"

	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/pubsub"
	"github.com/qs3c/academy_server/internal/repository"
)

// AdminOperations 管理员操作，只能通过 AdminService.For 获得
type AdminOperations interface {
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionItem, error)
	DeleteSession(ctx context.Context, sessionID int64) error
	Roster(ctx context.Context, sessionID int64) (*dto.RosterResponse, error)
	AddToRoster(ctx context.Context, sessionID, athleteID int64) (*dto.RegistrationResult, error)
	RemoveFromRoster(ctx context.Context, sessionID, athleteID int64) (*dto.RegistrationResult, error)
	CheckIn(ctx context.Context, sessionID int64, code string) (*dto.CheckInResult, error)
	ListUsers(ctx context.Context, page, pageSize int) ([]*dto.UserItem, int64, error)
	ListAthletes(ctx context.Context, page, pageSize int) ([]*dto.AthleteInfo, int64, error)
	SyncSubscription(ctx context.Context, req *dto.SyncSubscriptionRequest) (*model.Subscription, error)
}

type AdminService struct {
	userRepo      *repository.UserRepository
	athleteRepo   *repository.AthleteRepository
	sessions      *SessionService
	registrations *RegistrationService
	checkIns      *CheckInService
	athletes      *AthleteService
	billing       *BillingService
}

func NewAdminService(
	userRepo *repository.UserRepository,
	athleteRepo *repository.AthleteRepository,
	sessions *SessionService,
	registrations *RegistrationService,
	checkIns *CheckInService,
	athletes *AthleteService,
	billing *BillingService,
) *AdminService {
	return &AdminService{
		userRepo:      userRepo,
		athleteRepo:   athleteRepo,
		sessions:      sessions,
		registrations: registrations,
		checkIns:      checkIns,
		athletes:      athletes,
		billing:       billing,
	}
}

// For 仅管理员可获得操作句柄
func (s *AdminService) For(actor Actor) (AdminOperations, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return &adminOps{AdminService: s, actor: actor}, nil
}

type adminOps struct {
	*AdminService
	actor Actor
}

func (o *adminOps) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionItem, error) {
	return o.sessions.Create(ctx, o.actor.UserID, req)
}

// DeleteSession 删除课程及其报名记录
func (o *adminOps) DeleteSession(ctx context.Context, sessionID int64) error {
	return o.sessions.Delete(ctx, sessionID)
}

func (o *adminOps) Roster(ctx context.Context, sessionID int64) (*dto.RosterResponse, error) {
	return o.sessions.Roster(ctx, sessionID)
}

// AddToRoster 直接加入名单，跳过订阅与用量检查
func (o *adminOps) AddToRoster(ctx context.Context, sessionID, athleteID int64) (*dto.RegistrationResult, error) {
	athlete, err := o.registrations.ownedAthlete(ctx, o.actor, athleteID)
	if err != nil {
		return nil, err
	}
	session, err := o.sessions.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return o.registrations.insert(ctx, session, athlete, model.RegistrationSourceAdmin, pubsub.EventRosterAdded)
}

func (o *adminOps) RemoveFromRoster(ctx context.Context, sessionID, athleteID int64) (*dto.RegistrationResult, error) {
	athlete, err := o.registrations.ownedAthlete(ctx, o.actor, athleteID)
	if err != nil {
		return nil, err
	}
	return o.registrations.remove(ctx, sessionID, athlete, pubsub.EventRosterRemove)
}

func (o *adminOps) CheckIn(ctx context.Context, sessionID int64, code string) (*dto.CheckInResult, error) {
	return o.checkIns.CheckIn(ctx, sessionID, code)
}

func (o *adminOps) ListUsers(ctx context.Context, page, pageSize int) ([]*dto.UserItem, int64, error) {
	users, total, err := o.userRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, len(users))
	for i, user := range users {
		ids[i] = user.ID
	}
	counts, err := o.athleteRepo.CountByGuardians(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.UserItem, len(users))
	for i, user := range users {
		items[i] = &dto.UserItem{
			ID:           user.ID,
			Email:        user.Email,
			FullName:     user.FullName,
			Role:         user.Role,
			AthleteCount: counts[user.ID],
			CreatedAt:    user.CreatedAt,
		}
	}
	return items, total, nil
}

func (o *adminOps) ListAthletes(ctx context.Context, page, pageSize int) ([]*dto.AthleteInfo, int64, error) {
	return o.athletes.List(ctx, page, pageSize)
}

// SyncSubscription 手动同步，与 webhook 相同的幂等写入
func (o *adminOps) SyncSubscription(ctx context.Context, req *dto.SyncSubscriptionRequest) (*model.Subscription, error) {
	return o.billing.Sync(ctx, req)
}
