package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/academy_server/internal/model"
)

type AthleteRepository struct {
	db *gorm.DB
}

func NewAthleteRepository(db *gorm.DB) *AthleteRepository {
	return &AthleteRepository{db: db}
}

func (r *AthleteRepository) Create(ctx context.Context, athlete *model.Athlete) error {
	return translateError(r.db.WithContext(ctx).Create(athlete).Error)
}

func (r *AthleteRepository) GetByID(ctx context.Context, id int64) (*model.Athlete, error) {
	var athlete model.Athlete
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&athlete).Error
	if err != nil {
		return nil, err
	}
	return &athlete, nil
}

// GetByQRCode 精确匹配二维码（区分大小写）
func (r *AthleteRepository) GetByQRCode(ctx context.Context, code string) (*model.Athlete, error) {
	var athlete model.Athlete
	err := r.db.WithContext(ctx).Where("qr_code = ?", code).First(&athlete).Error
	if err != nil {
		return nil, err
	}
	// MySQL 默认排序规则不区分大小写
	if athlete.QRCode != code {
		return nil, gorm.ErrRecordNotFound
	}
	return &athlete, nil
}

func (r *AthleteRepository) ListByGuardian(ctx context.Context, guardianID int64) ([]*model.Athlete, error) {
	var athletes []*model.Athlete
	err := r.db.WithContext(ctx).Where("guardian_id = ?", guardianID).
		Order("id ASC").
		Find(&athletes).Error
	return athletes, err
}

func (r *AthleteRepository) List(ctx context.Context, page, pageSize int) ([]*model.Athlete, int64, error) {
	var athletes []*model.Athlete
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Athlete{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("id ASC").Offset(offset).Limit(pageSize).Find(&athletes).Error
	return athletes, total, err
}

// CountByGuardians 每个家长名下的运动员数量
func (r *AthleteRepository) CountByGuardians(ctx context.Context, guardianIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(guardianIDs))
	if len(guardianIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		GuardianID int64
		Total      int
	}
	err := r.db.WithContext(ctx).Model(&model.Athlete{}).
		Select("guardian_id, COUNT(*) AS total").
		Where("guardian_id IN ?", guardianIDs).
		Group("guardian_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.GuardianID] = row.Total
	}
	return counts, nil
}

// UpdateProfileImage 只更新头像，身份字段（qr_code 等）不可变
func (r *AthleteRepository) UpdateProfileImage(ctx context.Context, id int64, url string) error {
	return r.db.WithContext(ctx).Model(&model.Athlete{}).Where("id = ?", id).
		Update("profile_image_url", url).Error
}
