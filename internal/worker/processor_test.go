package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/pkg/queue"
	"github.com/qs3c/academy_server/internal/repository"
	"github.com/qs3c/academy_server/internal/service"
	"github.com/qs3c/academy_server/internal/testutil"
)

type flakyApplier struct {
	mu       sync.Mutex
	failures int
	calls    int
	err      error
}

func (f *flakyApplier) ApplySubscriptionEvent(ctx context.Context, event *queue.BillingEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return false, f.err
	}
	return true, nil
}

func (f *flakyApplier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestQueue(t *testing.T) (*queue.Queue, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return queue.NewQueue(client, "billing_events_test"), client
}

func runProcessor(t *testing.T, p *Processor) (cancel func()) {
	t.Helper()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, 1)
		close(done)
	}()

	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("processor did not stop")
		}
	}
}

func TestProcessor_Process_DropsInvalidEvent(t *testing.T) {
	applier := &flakyApplier{failures: 1, err: service.ErrInvalidBillingEvent}
	p := NewProcessor(nil, applier, zap.NewNop())

	err := p.Process(context.Background(), &queue.BillingEvent{EventID: "evt_bad"})
	assert.NoError(t, err)
	assert.Equal(t, 1, applier.callCount())
}

func TestProcessor_Process_ReturnsTransientError(t *testing.T) {
	applier := &flakyApplier{failures: 1, err: errors.New("db down")}
	p := NewProcessor(nil, applier, zap.NewNop())

	err := p.Process(context.Background(), &queue.BillingEvent{EventID: "evt_1"})
	assert.Error(t, err)
}

func TestProcessor_Run_AppliesQueuedEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	billing := service.NewBillingService(repository.NewSubscriptionRepository(db), repository.NewBillingEventRepository(db), zap.NewNop())
	q, _ := newTestQueue(t)

	ctx := context.Background()
	event := &queue.BillingEvent{
		EventID:        "evt_worker_1",
		Type:           "customer.subscription.created",
		SubscriptionID: "sub_worker_1",
		AthleteID:      7,
		PackageID:      "elite",
		Status:         "active",
		ReceivedAt:     time.Now().UTC(),
	}
	require.NoError(t, q.Push(ctx, event))
	// 重复投递
	require.NoError(t, q.Push(ctx, event))

	p := NewProcessor(q, billing, zap.NewNop())
	p.PollTimeout = time.Second
	stop := runProcessor(t, p)

	require.Eventually(t, func() bool {
		var count int64
		db.Model(&model.Subscription{}).Count(&count)
		n, err := q.Length(ctx)
		return err == nil && n == 0 && count == 1
	}, 5*time.Second, 20*time.Millisecond)
	stop()

	var subs []model.Subscription
	require.NoError(t, db.Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, model.SubscriptionActive, subs[0].Status)

	var processed int64
	require.NoError(t, db.Model(&model.BillingEvent{}).Count(&processed).Error)
	assert.Equal(t, int64(1), processed)
}

func TestProcessor_Run_RequeuesOnFailure(t *testing.T) {
	q, _ := newTestQueue(t)
	applier := &flakyApplier{failures: 2, err: errors.New("deadlock")}

	require.NoError(t, q.Push(context.Background(), &queue.BillingEvent{EventID: "evt_retry", SubscriptionID: "sub_r"}))

	p := NewProcessor(q, applier, zap.NewNop())
	p.PollTimeout = time.Second
	p.RetryBackoff = 10 * time.Millisecond
	stop := runProcessor(t, p)
	defer stop()

	assert.Eventually(t, func() bool { return applier.callCount() == 3 }, 5*time.Second, 20*time.Millisecond)
}
