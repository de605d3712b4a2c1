package cron

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/academy_server/internal/service"
)

type Service struct {
	billing   *service.BillingService
	retention time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
}

// NewService retentionDays <= 0 时按 30 天保留
func NewService(billing *service.BillingService, retentionDays int, logger *zap.Logger) *Service {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &Service{
		billing:   billing,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runDailyPrune()
	s.logger.Info("cron service started", zap.Duration("billing_event_retention", s.retention))
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	s.logger.Info("cron service stopped")
}

// runDailyPrune 每天 UTC 零点清理已处理的支付事件记录
func (s *Service) runDailyPrune() {
	now := time.Now().UTC()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	timer := time.NewTimer(nextMidnight.Sub(now))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.RunNow(context.Background()); err != nil {
				s.logger.Error("billing event prune failed", zap.Error(err))
			}
			timer.Reset(24 * time.Hour)
		}
	}
}

// RunNow 立即执行一次清理（cmd/cleanup 与测试使用）
func (s *Service) RunNow(ctx context.Context) (int64, error) {
	pruned, err := s.billing.PruneEvents(ctx, s.retention)
	if err != nil {
		return 0, err
	}
	s.logger.Info("billing events pruned", zap.Int64("count", pruned))
	return pruned, nil
}
