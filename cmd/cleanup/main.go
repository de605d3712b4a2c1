package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/academy_server/config"
	"github.com/qs3c/academy_server/internal/database"
	"github.com/qs3c/academy_server/internal/pkg/logger"
	"github.com/qs3c/academy_server/internal/repository"
)

var (
	dryRun        = flag.Bool("dry-run", true, "Dry run mode, only count rows that would be pruned")
	retentionDays = flag.Int("retention-days", 0, "Days to keep processed billing events (0 = config value)")
)

func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect database", zap.Error(err))
	}

	days := *retentionDays
	if days <= 0 {
		days = cfg.Billing.EventRetentionDay
	}
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	eventRepo := repository.NewBillingEventRepository(db)
	zlog.Info("starting billing event cleanup",
		zap.Bool("dry_run", *dryRun),
		zap.Int("retention_days", days),
		zap.Time("cutoff", cutoff))

	if *dryRun {
		count, err := eventRepo.CountBefore(ctx, cutoff)
		if err != nil {
			zlog.Fatal("count failed", zap.Error(err))
		}
		zlog.Info("dry run: nothing deleted, run with -dry-run=false to prune", zap.Int64("would_prune", count))
		return
	}

	pruned, err := eventRepo.PruneBefore(ctx, cutoff)
	if err != nil {
		zlog.Fatal("prune failed", zap.Error(err))
	}
	zlog.Info("cleanup completed", zap.Int64("pruned", pruned))
}
