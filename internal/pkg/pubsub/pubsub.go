package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelRosterUpdates = "roster_updates"
)

// 名单变化类型
const (
	EventRegistered   = "registered"
	EventUnregistered = "unregistered"
	EventCheckedIn    = "checked_in"
	EventRosterAdded  = "roster_added"
	EventRosterRemove = "roster_removed"
)

// RosterMessage 名单变化消息，附带变化后的名额
type RosterMessage struct {
	Type           string    `json:"type"`
	Event          string    `json:"event"`
	SessionID      int64     `json:"session_id"`
	AthleteID      int64     `json:"athlete_id"`
	AthleteName    string    `json:"athlete_name,omitempty"`
	BookedSlots    int       `json:"booked_slots"`
	CheckedInCount int       `json:"checked_in_count"`
	MaxSlots       int       `json:"max_slots"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishRoster 发布名单变化
func (p *Publisher) PublishRoster(ctx context.Context, msg *RosterMessage) error {
	msg.Type = "roster_update"
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal roster message: %w", err)
	}

	return p.client.Publish(ctx, ChannelRosterUpdates, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅名单变化，直到 ctx 取消
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*RosterMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelRosterUpdates)
	defer pubsub.Close()

	// 确认订阅建立后再消费
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var rosterMsg RosterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rosterMsg); err != nil {
				continue
			}

			handler(&rosterMsg)
		}
	}
}
