package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qs3c/academy_server/config"
	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/oss"
	"github.com/qs3c/academy_server/internal/repository"
)

const birthDateLayout = "2006-01-02"

// PhotoStorage 头像存储（OSS）
type PhotoStorage interface {
	UploadAthletePhoto(athleteID int64, data []byte, ext string) (string, error)
	DeleteByURL(url string) error
}

type AthleteService struct {
	athleteRepo  *repository.AthleteRepository
	entitlement  *EntitlementService
	storage      PhotoStorage
	maxPhotoSize int64

	Now func() time.Time
	// NewCode 生成签到码，默认 uuid
	NewCode func() string
}

// NewAthleteService storage 为 nil 时头像上传不可用
func NewAthleteService(
	athleteRepo *repository.AthleteRepository,
	entitlement *EntitlementService,
	storage PhotoStorage,
	cfg *config.Config,
) *AthleteService {
	maxSize := cfg.OSS.MaxPhotoSize
	if maxSize <= 0 {
		maxSize = 5 << 20
	}
	return &AthleteService{
		athleteRepo:  athleteRepo,
		entitlement:  entitlement,
		storage:      storage,
		maxPhotoSize: maxSize,
	}
}

// Create 家长添加运动员，签到二维码在创建时生成且不再变更
func (s *AthleteService) Create(ctx context.Context, actor Actor, req *dto.CreateAthleteRequest) (*dto.AthleteInfo, error) {
	athlete := &model.Athlete{
		GuardianID: actor.UserID,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Interests:  joinInterests(req.Interests),
		QRCode:     s.newCode(),
	}

	if req.DateOfBirth != "" {
		dob, err := time.ParseInLocation(birthDateLayout, req.DateOfBirth, time.UTC)
		if err != nil || !dob.Before(nowFrom(s.Now)) {
			return nil, ErrInvalidBirthDate
		}
		athlete.DateOfBirth = &dob
	}

	if err := s.athleteRepo.Create(ctx, athlete); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrStorageConflict
		}
		return nil, err
	}
	return s.Info(ctx, athlete)
}

func (s *AthleteService) newCode() string {
	if s.NewCode != nil {
		return s.NewCode()
	}
	return uuid.NewString()
}

// ListMine 当前家长的运动员
func (s *AthleteService) ListMine(ctx context.Context, actor Actor) ([]*dto.AthleteInfo, error) {
	athletes, err := s.athleteRepo.ListByGuardian(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.infos(ctx, athletes)
}

func (s *AthleteService) Get(ctx context.Context, actor Actor, id int64) (*dto.AthleteInfo, error) {
	athlete, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.Info(ctx, athlete)
}

// List 全部运动员（管理员）
func (s *AthleteService) List(ctx context.Context, page, pageSize int) ([]*dto.AthleteInfo, int64, error) {
	athletes, total, err := s.athleteRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.infos(ctx, athletes)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UploadPhoto 上传头像并替换旧文件
func (s *AthleteService) UploadPhoto(ctx context.Context, actor Actor, id int64, filename string, data []byte) (*dto.PhotoResponse, error) {
	if s.storage == nil {
		return nil, ErrPhotoStorageOff
	}
	athlete, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !oss.IsImageExt(ext) {
		return nil, ErrInvalidPhotoFormat
	}
	if int64(len(data)) > s.maxPhotoSize {
		return nil, ErrPhotoTooLarge
	}

	url, err := s.storage.UploadAthletePhoto(athlete.ID, data, ext)
	if err != nil {
		return nil, err
	}
	if err := s.athleteRepo.UpdateProfileImage(ctx, athlete.ID, url); err != nil {
		return nil, err
	}

	if athlete.ProfileImageURL != "" {
		// 旧文件删除失败不影响结果
		_ = s.storage.DeleteByURL(athlete.ProfileImageURL)
	}
	return &dto.PhotoResponse{ProfileImageURL: url}, nil
}

// Info 运动员信息，附带订阅状态与当月用量
func (s *AthleteService) Info(ctx context.Context, athlete *model.Athlete) (*dto.AthleteInfo, error) {
	status, err := s.entitlement.SubscriptionStatus(ctx, athlete.ID)
	if err != nil {
		return nil, err
	}
	usage, err := s.entitlement.UsageStats(ctx, athlete.ID)
	if err != nil {
		return nil, err
	}

	return &dto.AthleteInfo{
		ID:                 athlete.ID,
		GuardianID:         athlete.GuardianID,
		FirstName:          athlete.FirstName,
		LastName:           athlete.LastName,
		FullName:           athlete.FullName(),
		DateOfBirth:        athlete.DateOfBirth,
		Interests:          athlete.InterestTags(),
		QRCode:             athlete.QRCode,
		ProfileImageURL:    athlete.ProfileImageURL,
		SubscriptionStatus: status,
		Usage:              *usage,
	}, nil
}

func (s *AthleteService) infos(ctx context.Context, athletes []*model.Athlete) ([]*dto.AthleteInfo, error) {
	items := make([]*dto.AthleteInfo, 0, len(athletes))
	for _, athlete := range athletes {
		info, err := s.Info(ctx, athlete)
		if err != nil {
			return nil, err
		}
		items = append(items, info)
	}
	return items, nil
}

func (s *AthleteService) owned(ctx context.Context, actor Actor, id int64) (*model.Athlete, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, id)
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

func joinInterests(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.ReplaceAll(tag, ",", " "))
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return strings.Join(cleaned, ",")
}
