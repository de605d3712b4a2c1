package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/academy_server/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// List 按开始时间升序；from/to 为零值时不限制
func (r *SessionRepository) List(ctx context.Context, from, to time.Time) ([]*model.Session, error) {
	var sessions []*model.Session
	query := r.db.WithContext(ctx).Model(&model.Session{})
	if !from.IsZero() {
		query = query.Where("starts_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		query = query.Where("starts_at < ?", to.UTC())
	}
	err := query.Order("starts_at ASC, id ASC").Find(&sessions).Error
	return sessions, err
}

// Delete 删除课程及其报名记录
func (r *SessionRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.Registration{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Session{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}
