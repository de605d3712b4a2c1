package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs3c/academy_server/config"
	"github.com/qs3c/academy_server/internal/api/middleware"
	"github.com/qs3c/academy_server/internal/catalog"
	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/pkg/pubsub"
	"github.com/qs3c/academy_server/internal/pkg/response"
	"github.com/qs3c/academy_server/internal/repository"
	"github.com/qs3c/academy_server/internal/service"
	"github.com/qs3c/academy_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testWebhookSecret = "whsec_test_secret"

func testConfig() *config.Config {
	return &config.Config{
		JWT:          config.JWTConfig{Secret: "test-secret", ExpireHours: 24},
		Registration: config.RegistrationConfig{Timezone: "UTC"},
		Billing:      config.BillingConfig{WebhookSecret: testWebhookSecret},
		Catalog: config.CatalogConfig{
			Plans: []config.PlanConfig{
				{ID: "foundation", Name: "Foundation", MonthlyPrice: 129, MaxSessions: 4, PriceIDs: []string{"price_foundation_monthly"}},
				{ID: "elite", Name: "Elite", MonthlyPrice: 299, MaxSessions: 12, PriceIDs: []string{"price_elite_monthly"}},
			},
		},
	}
}

type nopNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *nopNotifier) PublishRoster(ctx context.Context, msg *pubsub.RosterMessage) error {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
	return nil
}

type photoStore struct {
	uploads int
}

func (p *photoStore) UploadAthletePhoto(athleteID int64, data []byte, ext string) (string, error) {
	p.uploads++
	return fmt.Sprintf("https://cdn.example.com/athletes/%d/%d%s", athleteID, p.uploads, ext), nil
}

func (p *photoStore) DeleteByURL(url string) error {
	return nil
}

// testContext 本地测试上下文
type testContext struct {
	DB  *gorm.DB
	Cfg *config.Config

	Billing *service.BillingService

	Sessions      *SessionHandler
	Registrations *RegistrationHandler
	Athletes      *AthleteHandler
	Admin         *AdminHandler
	Packages      *PackageHandler
}

func setupHandlers(t *testing.T, storage service.PhotoStorage) *testContext {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := testConfig()
	logger := zap.NewNop()
	plans := catalog.New(cfg.Catalog)
	notifier := &nopNotifier{}

	userRepo := repository.NewUserRepository(db)
	athleteRepo := repository.NewAthleteRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	regRepo := repository.NewRegistrationRepository(db)

	billing := service.NewBillingService(repository.NewSubscriptionRepository(db), repository.NewBillingEventRepository(db), logger)
	entitlement := service.NewEntitlementService(billing, regRepo, plans, cfg)
	sessions := service.NewSessionService(sessionRepo, regRepo)
	registrations := service.NewRegistrationService(sessionRepo, athleteRepo, regRepo, entitlement, notifier, logger, cfg)
	checkIns := service.NewCheckInService(sessionRepo, athleteRepo, regRepo, notifier, logger)
	athletes := service.NewAthleteService(athleteRepo, entitlement, storage, cfg)
	admin := service.NewAdminService(userRepo, athleteRepo, sessions, registrations, checkIns, athletes, billing)

	return &testContext{
		DB:            db,
		Cfg:           cfg,
		Billing:       billing,
		Sessions:      NewSessionHandler(sessions),
		Registrations: NewRegistrationHandler(registrations),
		Athletes:      NewAthleteHandler(athletes, 0),
		Admin:         NewAdminHandler(admin),
		Packages:      NewPackageHandler(plans),
	}
}

// guardianWithAthlete 家长及其运动员，packageID 非空时附带有效订阅
func (tc *testContext) guardianWithAthlete(t *testing.T, packageID string) (*model.User, *model.Athlete) {
	t.Helper()

	guardian := testutil.TestUser(t, tc.DB)
	athlete := testutil.TestAthlete(t, tc.DB, guardian.ID)
	if packageID != "" {
		testutil.TestSubscription(t, tc.DB, athlete.ID, packageID, model.SubscriptionActive)
	}
	return guardian, athlete
}

// mockAuth 模拟认证中间件
func mockAuth(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, user.ID)
		c.Set(middleware.RoleKey, user.Role)
		c.Next()
	}
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// decodeData 将 data 字段解码到 out
func decodeData(t *testing.T, resp response.Response, out interface{}) {
	t.Helper()

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}
