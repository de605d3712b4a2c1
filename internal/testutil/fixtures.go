package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/academy_server/internal/model"
)

var seq int64

func next() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestUser 创建测试家长
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := next()
	user := &model.User{
		Email:    fmt.Sprintf("guardian_%d@example.com", n),
		FullName: fmt.Sprintf("Guardian %d", n),
		Role:     model.RoleGuardian,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// AsAdmin 设置为管理员
func AsAdmin() func(*model.User) {
	return func(u *model.User) {
		u.Role = model.RoleAdmin
	}
}

// TestAthlete 创建测试运动员
func TestAthlete(t *testing.T, db *gorm.DB, guardianID int64, opts ...func(*model.Athlete)) *model.Athlete {
	t.Helper()

	n := next()
	athlete := &model.Athlete{
		GuardianID: guardianID,
		FirstName:  "Athlete",
		LastName:   fmt.Sprintf("No%d", n),
		QRCode:     uuid.NewString(),
	}

	for _, opt := range opts {
		opt(athlete)
	}

	if err := db.Create(athlete).Error; err != nil {
		t.Fatalf("Failed to create test athlete: %v", err)
	}

	return athlete
}

// WithName 设置姓名
func WithName(first, last string) func(*model.Athlete) {
	return func(a *model.Athlete) {
		a.FirstName = first
		a.LastName = last
	}
}

// WithBirthDate 设置出生日期
func WithBirthDate(dob time.Time) func(*model.Athlete) {
	return func(a *model.Athlete) {
		a.DateOfBirth = &dob
	}
}

// WithQRCode 设置二维码
func WithQRCode(code string) func(*model.Athlete) {
	return func(a *model.Athlete) {
		a.QRCode = code
	}
}

// BornYearsAgo returns a birth date making the athlete exactly years old at now
// (birthday already passed this year).
func BornYearsAgo(now time.Time, years int) time.Time {
	d := now.AddDate(-years, 0, -1)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// TestSession 创建测试课程
func TestSession(t *testing.T, db *gorm.DB, opts ...func(*model.Session)) *model.Session {
	t.Helper()

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	session := &model.Session{
		Title:    fmt.Sprintf("Speed & Agility %d", next()),
		StartsAt: start,
		EndsAt:   start.Add(90 * time.Minute),
		Location: "Field House A",
		MaxSlots: 20,
	}

	for _, opt := range opts {
		opt(session)
	}

	if err := db.Create(session).Error; err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return session
}

// WithTitle 设置课程标题
func WithTitle(title string) func(*model.Session) {
	return func(s *model.Session) {
		s.Title = title
	}
}

// WithMaxSlots 设置名额
func WithMaxSlots(n int) func(*model.Session) {
	return func(s *model.Session) {
		s.MaxSlots = n
	}
}

// WithAgeRange 设置年龄范围（闭区间）
func WithAgeRange(min, max int) func(*model.Session) {
	return func(s *model.Session) {
		s.MinAge = &min
		s.MaxAge = &max
	}
}

// WithStartsAt 设置开始时间
func WithStartsAt(start time.Time) func(*model.Session) {
	return func(s *model.Session) {
		s.StartsAt = start.UTC()
		s.EndsAt = start.UTC().Add(90 * time.Minute)
	}
}

// TestSubscription 创建测试订阅
func TestSubscription(t *testing.T, db *gorm.DB, athleteID int64, packageID, status string) *model.Subscription {
	t.Helper()

	now := time.Now().UTC()
	sub := &model.Subscription{
		ProcessorSubscriptionID: fmt.Sprintf("sub_test_%d", next()),
		AthleteID:               athleteID,
		PackageID:               packageID,
		Status:                  status,
		CurrentPeriodEnd:        now.AddDate(0, 1, 0),
		LastEventAt:             now,
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// TestRegistration 创建测试报名记录
func TestRegistration(t *testing.T, db *gorm.DB, sessionID, athleteID int64, createdAt time.Time) *model.Registration {
	t.Helper()

	reg := &model.Registration{
		SessionID: sessionID,
		AthleteID: athleteID,
		Source:    model.RegistrationSourceSelf,
		CreatedAt: createdAt.UTC(),
	}

	if err := db.Create(reg).Error; err != nil {
		t.Fatalf("Failed to create test registration: %v", err)
	}

	return reg
}

// TestRegistrations 在 n 个新课程上为运动员创建报名
func TestRegistrations(t *testing.T, db *gorm.DB, athleteID int64, n int, createdAt time.Time) {
	t.Helper()

	for i := 0; i < n; i++ {
		session := TestSession(t, db)
		TestRegistration(t, db, session.ID, athleteID, createdAt)
	}
}
