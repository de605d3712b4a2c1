package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// BillingEvent 规范化后的支付方订阅事件
type BillingEvent struct {
	EventID          string    `json:"event_id"`
	Type             string    `json:"type"`
	SubscriptionID   string    `json:"subscription_id"`
	CustomerID       string    `json:"customer_id,omitempty"`
	GuardianID       int64     `json:"guardian_id,omitempty"`
	AthleteID        int64     `json:"athlete_id,omitempty"`
	PackageID        string    `json:"package_id"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	ReceivedAt       time.Time `json:"received_at"`
}

type Queue struct {
	client    *redis.Client
	queueName string
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

// Push 将事件加入队列（按接收顺序）
func (q *Queue) Push(ctx context.Context, event *BillingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal billing event: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Pop 从队列获取事件（阻塞），超时返回 nil
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*BillingEvent, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var event BillingEvent
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal billing event: %w", err)
	}

	return &event, nil
}

// Length 获取队列长度
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
