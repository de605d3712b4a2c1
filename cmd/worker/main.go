package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/qs3c/academy_server/config"
	"github.com/qs3c/academy_server/internal/database"
	"github.com/qs3c/academy_server/internal/pkg/logger"
	"github.com/qs3c/academy_server/internal/pkg/queue"
	"github.com/qs3c/academy_server/internal/repository"
	"github.com/qs3c/academy_server/internal/service"
	"github.com/qs3c/academy_server/internal/worker"
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

	if cfg.Queue.BillingQueue == "" {
		zlog.Fatal("queue.billing_queue is not configured; webhooks are applied inline")
	}

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

	billingQueue := queue.NewQueue(rdb, cfg.Queue.BillingQueue)
	billingService := service.NewBillingService(
		repository.NewSubscriptionRepository(db),
		repository.NewBillingEventRepository(db),
		zlog,
	)
	processor := worker.NewProcessor(billingQueue, billingService, zlog)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		zlog.Info("received shutdown signal")
		cancel()
	}()

	zlog.Info("worker started",
		zap.String("queue", cfg.Queue.BillingQueue),
		zap.Int("max_workers", cfg.Queue.MaxWorkers))

	processor.Run(ctx, cfg.Queue.MaxWorkers)
	zlog.Info("worker shutdown complete")
}
