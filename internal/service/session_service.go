package service

import (
	"context"
	"time"

	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/repository"
)

// DeriveCapacity 由报名行计数推导名额状态
func DeriveCapacity(maxSlots int, counts repository.SessionCounts) dto.CapacityInfo {
	info := dto.CapacityInfo{
		MaxSlots:       maxSlots,
		BookedSlots:    counts.Booked,
		CheckedInCount: counts.CheckedIn,
		IsFull:         counts.Booked >= maxSlots,
	}
	if counts.Booked > maxSlots {
		info.WaitlistCount = counts.Booked - maxSlots
	}
	return info
}

// SessionService is the read side of the capacity ledger plus session writes.
type SessionService struct {
	sessionRepo *repository.SessionRepository
	regRepo     *repository.RegistrationRepository
}

func NewSessionService(sessionRepo *repository.SessionRepository, regRepo *repository.RegistrationRepository) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		regRepo:     regRepo,
	}
}

// List 课程列表（按开始时间升序）及实时名额
func (s *SessionService) List(ctx context.Context, from, to time.Time) ([]*dto.SessionItem, error) {
	sessions, err := s.sessionRepo.List(ctx, from, to)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}
	counts, err := s.regRepo.CountsForSessions(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.SessionItem, len(sessions))
	for i, session := range sessions {
		items[i] = buildSessionItem(session, counts[session.ID])
	}
	return items, nil
}

func (s *SessionService) Get(ctx context.Context, id int64) (*dto.SessionItem, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	capacity, err := s.Capacity(ctx, session)
	if err != nil {
		return nil, err
	}
	item := buildSessionItem(session, repository.SessionCounts{})
	item.Capacity = capacity
	return item, nil
}

// Capacity 重新从报名记录读取名额
func (s *SessionService) Capacity(ctx context.Context, session *model.Session) (dto.CapacityInfo, error) {
	counts, err := s.regRepo.CountsForSession(ctx, session.ID)
	if err != nil {
		return dto.CapacityInfo{}, err
	}
	return DeriveCapacity(session.MaxSlots, counts), nil
}

// Roster 课程名单
func (s *SessionService) Roster(ctx context.Context, id int64) (*dto.RosterResponse, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	regs, err := s.regRepo.ListBySession(ctx, id)
	if err != nil {
		return nil, err
	}

	entries := make([]*dto.RosterEntry, 0, len(regs))
	for _, reg := range regs {
		entry := &dto.RosterEntry{
			RegistrationID: reg.ID,
			AthleteID:      reg.AthleteID,
			CheckedIn:      reg.CheckedIn,
			CheckedInAt:    reg.CheckedInAt,
			Source:         reg.Source,
			RegisteredAt:   reg.CreatedAt,
		}
		if reg.Athlete != nil {
			entry.AthleteName = reg.Athlete.FullName()
		}
		entries = append(entries, entry)
	}

	return &dto.RosterResponse{Session: item, Athletes: entries}, nil
}

func (s *SessionService) Create(ctx context.Context, createdBy int64, req *dto.CreateSessionRequest) (*dto.SessionItem, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidSessionTime
	}
	if req.MinAge != nil && req.MaxAge != nil && *req.MinAge > *req.MaxAge {
		return nil, ErrInvalidAgeRange
	}

	session := &model.Session{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		Location:    req.Location,
		MaxSlots:    req.MaxSlots,
		MinAge:      req.MinAge,
		MaxAge:      req.MaxAge,
		CreatedBy:   createdBy,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return buildSessionItem(session, repository.SessionCounts{}), nil
}

func (s *SessionService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.sessionRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SessionService) getSession(ctx context.Context, id int64) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func buildSessionItem(session *model.Session, counts repository.SessionCounts) *dto.SessionItem {
	return &dto.SessionItem{
		ID:          session.ID,
		Title:       session.Title,
		Description: session.Description,
		StartsAt:    session.StartsAt,
		EndsAt:      session.EndsAt,
		Location:    session.Location,
		MinAge:      session.MinAge,
		MaxAge:      session.MaxAge,
		Capacity:    DeriveCapacity(session.MaxSlots, counts),
	}
}
