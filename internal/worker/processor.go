package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/academy_server/internal/pkg/queue"
	"github.com/qs3c/academy_server/internal/service"
)

// EventSource 计费事件队列
type EventSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.BillingEvent, error)
	Push(ctx context.Context, event *queue.BillingEvent) error
}

// EventApplier 写入订阅状态
type EventApplier interface {
	ApplySubscriptionEvent(ctx context.Context, event *queue.BillingEvent) (bool, error)
}

// Processor 消费 webhook 转发的计费事件。写入按事件 id 去重，
// 失败的事件重新入队，重复处理不会产生重复行。
type Processor struct {
	source  EventSource
	applier EventApplier
	logger  *zap.Logger

	PollTimeout  time.Duration
	RetryBackoff time.Duration
}

func NewProcessor(source EventSource, applier EventApplier, logger *zap.Logger) *Processor {
	return &Processor{
		source:       source,
		applier:      applier,
		logger:       logger,
		PollTimeout:  5 * time.Second,
		RetryBackoff: time.Second,
	}
}

// Process 处理单个事件；无效事件丢弃，其余错误返回给调用方
func (p *Processor) Process(ctx context.Context, event *queue.BillingEvent) error {
	applied, err := p.applier.ApplySubscriptionEvent(ctx, event)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBillingEvent) {
			p.logger.Warn("billing event dropped",
				zap.String("event_id", event.EventID),
				zap.String("subscription_id", event.SubscriptionID),
				zap.Error(err))
			return nil
		}
		return err
	}

	p.logger.Debug("billing event handled",
		zap.String("event_id", event.EventID),
		zap.Bool("applied", applied))
	return nil
}

// Run 启动 workers 个消费协程，ctx 取消后等待全部退出
func (p *Processor) Run(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.loop(ctx, workerID)
		}(i)
	}
	wg.Wait()
}

func (p *Processor) loop(ctx context.Context, workerID int) {
	logger := p.logger.With(zap.Int("worker", workerID))
	logger.Info("billing worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("billing worker shutting down")
			return
		default:
		}

		event, err := p.source.Pop(ctx, p.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to pop billing event", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if event == nil {
			continue // 超时，继续等待
		}

		if err := p.Process(ctx, event); err != nil {
			logger.Error("billing event failed, requeueing",
				zap.String("event_id", event.EventID),
				zap.Error(err))
			if pushErr := p.source.Push(context.Background(), event); pushErr != nil {
				logger.Error("requeue failed", zap.String("event_id", event.EventID), zap.Error(pushErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *Processor) sleep(ctx context.Context) {
	timer := time.NewTimer(p.RetryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
