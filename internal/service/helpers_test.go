package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs3c/academy_server/config"
	"github.com/qs3c/academy_server/internal/catalog"
	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/pkg/pubsub"
	"github.com/qs3c/academy_server/internal/repository"
	"github.com/qs3c/academy_server/internal/testutil"
)

// testNow 月中，避免月初边界影响
var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Registration: config.RegistrationConfig{Timezone: "UTC"},
		Catalog: config.CatalogConfig{
			Plans: []config.PlanConfig{
				{ID: "foundation", Name: "Foundation", MaxSessions: 4, PriceIDs: []string{"price_foundation_monthly"}},
				{ID: "performance", Name: "Performance", MaxSessions: 8, PriceIDs: []string{"price_performance_monthly"}},
				{ID: "elite", Name: "Elite", MaxSessions: 12, PriceIDs: []string{"price_elite_monthly"}},
			},
		},
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []*pubsub.RosterMessage
}

func (n *recordingNotifier) PublishRoster(ctx context.Context, msg *pubsub.RosterMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	events := make([]string, len(n.messages))
	for i, msg := range n.messages {
		events[i] = msg.Event
	}
	return events
}

type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	notifier *recordingNotifier

	billing       *BillingService
	entitlement   *EntitlementService
	sessions      *SessionService
	registrations *RegistrationService
	checkIns      *CheckInService
	athletes      *AthleteService
	admin         *AdminService
}

func setupEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := zap.NewNop()
	clock := func() time.Time { return testNow }
	notifier := &recordingNotifier{}

	userRepo := repository.NewUserRepository(db)
	athleteRepo := repository.NewAthleteRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	eventRepo := repository.NewBillingEventRepository(db)

	billing := NewBillingService(subRepo, eventRepo, logger)
	billing.Now = clock

	entitlement := NewEntitlementService(billing, regRepo, catalog.New(cfg.Catalog), cfg)
	entitlement.Now = clock

	sessions := NewSessionService(sessionRepo, regRepo)

	registrations := NewRegistrationService(sessionRepo, athleteRepo, regRepo, entitlement, notifier, logger, cfg)
	registrations.Now = clock

	checkIns := NewCheckInService(sessionRepo, athleteRepo, regRepo, notifier, logger)
	checkIns.Now = clock

	athletes := NewAthleteService(athleteRepo, entitlement, nil, cfg)
	athletes.Now = clock

	return &testEnv{
		db:            db,
		cfg:           cfg,
		notifier:      notifier,
		billing:       billing,
		entitlement:   entitlement,
		sessions:      sessions,
		registrations: registrations,
		checkIns:      checkIns,
		athletes:      athletes,
		admin:         NewAdminService(userRepo, athleteRepo, sessions, registrations, checkIns, athletes, billing),
	}
}

// guardianWithAthlete 创建家长及其运动员，packageID 非空时附带有效订阅
func (e *testEnv) guardianWithAthlete(t *testing.T, packageID string, opts ...func(*model.Athlete)) (Actor, *model.Athlete) {
	t.Helper()

	guardian := testutil.TestUser(t, e.db)
	athlete := testutil.TestAthlete(t, e.db, guardian.ID, opts...)
	if packageID != "" {
		testutil.TestSubscription(t, e.db, athlete.ID, packageID, model.SubscriptionActive)
	}
	return Actor{UserID: guardian.ID, Role: guardian.Role}, athlete
}

func (e *testEnv) adminActor(t *testing.T) Actor {
	t.Helper()

	admin := testutil.TestUser(t, e.db, testutil.AsAdmin())
	return Actor{UserID: admin.ID, Role: admin.Role}
}

func (e *testEnv) countRegistrations(t *testing.T, sessionID int64) int64 {
	t.Helper()

	var n int64
	if err := e.db.Model(&model.Registration{}).Where("session_id = ?", sessionID).Count(&n).Error; err != nil {
		t.Fatalf("count registrations: %v", err)
	}
	return n
}
