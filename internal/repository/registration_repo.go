package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/academy_server/internal/model"
)

// SessionCounts 由报名行聚合得到，不单独存计数列
type SessionCounts struct {
	Booked    int
	CheckedIn int
}

type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create 单条插入；(session_id, athlete_id) 已存在时返回 ErrDuplicate
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	return translateError(r.db.WithContext(ctx).Create(reg).Error)
}

func (r *RegistrationRepository) Get(ctx context.Context, sessionID, athleteID int64) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND athlete_id = ?", sessionID, athleteID).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Delete 按匹配删除，返回是否删除了记录
func (r *RegistrationRepository) Delete(ctx context.Context, sessionID, athleteID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("session_id = ? AND athlete_id = ?", sessionID, athleteID).
		Delete(&model.Registration{})
	return result.RowsAffected > 0, result.Error
}

// CountSince 统计运动员自 since 起创建的报名数
func (r *RegistrationRepository) CountSince(ctx context.Context, athleteID int64, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("athlete_id = ? AND created_at >= ?", athleteID, since.UTC()).
		Count(&count).Error
	return int(count), err
}

func (r *RegistrationRepository) CountsForSession(ctx context.Context, sessionID int64) (SessionCounts, error) {
	counts, err := r.CountsForSessions(ctx, []int64{sessionID})
	if err != nil {
		return SessionCounts{}, err
	}
	return counts[sessionID], nil
}

// CountsForSessions 一次查询多个课程的报名数与签到数
func (r *RegistrationRepository) CountsForSessions(ctx context.Context, sessionIDs []int64) (map[int64]SessionCounts, error) {
	counts := make(map[int64]SessionCounts, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SessionID int64
		Booked    int
		CheckedIn int
	}
	err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Select("session_id, COUNT(*) AS booked, SUM(CASE WHEN checked_in THEN 1 ELSE 0 END) AS checked_in").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SessionID] = SessionCounts{Booked: row.Booked, CheckedIn: row.CheckedIn}
	}
	return counts, nil
}

// MarkCheckedIn flips checked_in false->true once. Returns false when the
// row was already checked in (or vanished), so concurrent scans cannot both win.
func (r *RegistrationRepository) MarkCheckedIn(ctx context.Context, id int64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("id = ? AND checked_in = ?", id, false).
		Updates(map[string]interface{}{
			"checked_in":    true,
			"checked_in_at": at.UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// ListBySession 课程名单，按报名先后
func (r *RegistrationRepository) ListBySession(ctx context.Context, sessionID int64) ([]*model.Registration, error) {
	var regs []*model.Registration
	err := r.db.WithContext(ctx).Preload("Athlete").
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&regs).Error
	return regs, err
}

// ListByAthlete 运动员的报名，按课程开始时间
func (r *RegistrationRepository) ListByAthlete(ctx context.Context, athleteID int64) ([]*model.Registration, error) {
	var regs []*model.Registration
	err := r.db.WithContext(ctx).Preload("Session").
		Select("registrations.*").
		Joins("JOIN sessions ON sessions.id = registrations.session_id").
		Where("registrations.athlete_id = ?", athleteID).
		Order("sessions.starts_at ASC").
		Find(&regs).Error
	return regs, err
}
