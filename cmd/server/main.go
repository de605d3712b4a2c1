package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/academy_server/config"
	"github.com/qs3c/academy_server/internal/api"
	"github.com/qs3c/academy_server/internal/api/handler"
	"github.com/qs3c/academy_server/internal/catalog"
	"github.com/qs3c/academy_server/internal/database"
	"github.com/qs3c/academy_server/internal/pkg/cron"
	"github.com/qs3c/academy_server/internal/pkg/logger"
	"github.com/qs3c/academy_server/internal/pkg/oss"
	"github.com/qs3c/academy_server/internal/pkg/pubsub"
	"github.com/qs3c/academy_server/internal/pkg/queue"
	"github.com/qs3c/academy_server/internal/pkg/ws"
	"github.com/qs3c/academy_server/internal/repository"
	"github.com/qs3c/academy_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect database", zap.Error(err))
	}
	zlog.Info("database connected")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			zlog.Fatal("failed to migrate database", zap.Error(err))
		}
		zlog.Info("database migrated")
	}

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		zlog.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	zlog.Info("redis connected")

	// 初始化 OSS（可选，未配置时头像上传不可用）
	var photoStorage service.PhotoStorage
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			zlog.Warn("failed to init OSS client", zap.Error(err))
		} else {
			photoStorage = ossClient
			zlog.Info("OSS client initialized")
		}
	}

	// 计费事件：配置了队列则交给 worker，否则请求内直接写入
	var billingQueue handler.BillingEventQueue
	if cfg.Queue.BillingQueue != "" {
		billingQueue = queue.NewQueue(rdb, cfg.Queue.BillingQueue)
	}

	plans := catalog.New(cfg.Catalog)
	publisher := pubsub.NewPublisher(rdb)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	athleteRepo := repository.NewAthleteRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	eventRepo := repository.NewBillingEventRepository(db)

	// 初始化 Service
	billingService := service.NewBillingService(subRepo, eventRepo, zlog)
	entitlementService := service.NewEntitlementService(billingService, regRepo, plans, cfg)
	sessionService := service.NewSessionService(sessionRepo, regRepo)
	registrationService := service.NewRegistrationService(sessionRepo, athleteRepo, regRepo, entitlementService, publisher, zlog, cfg)
	checkInService := service.NewCheckInService(sessionRepo, athleteRepo, regRepo, publisher, zlog)
	athleteService := service.NewAthleteService(athleteRepo, entitlementService, photoStorage, cfg)
	adminService := service.NewAdminService(userRepo, athleteRepo, sessionService, registrationService, checkInService, athleteService, billingService)

	// WebSocket Hub 订阅名单变化
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsHub := ws.NewHub(zlog)
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		if err := subscriber.Subscribe(ctx, wsHub.HandleRoster); err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error("roster subscription stopped", zap.Error(err))
		}
	}()

	cronService := cron.NewService(billingService, cfg.Billing.EventRetentionDay, zlog)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(api.Handlers{
		Session:      handler.NewSessionHandler(sessionService),
		Registration: handler.NewRegistrationHandler(registrationService),
		Athlete:      handler.NewAthleteHandler(athleteService, cfg.OSS.MaxPhotoSize),
		Admin:        handler.NewAdminHandler(adminService),
		Package:      handler.NewPackageHandler(plans),
		Billing:      handler.NewBillingHandler(billingService, billingQueue, cfg.Billing.WebhookSecret, zlog),
		WebSocket:    handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins, zlog),
	}, cfg, zlog)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Setup(),
	}

	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
}
