package service

import (
	"context"
	"time"

	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/pkg/pubsub"
)

// Actor 调用方身份，由认证中间件从 token 中解析
type Actor struct {
	UserID int64
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

func (a Actor) owns(athlete *model.Athlete) bool {
	return a.IsAdmin() || athlete.GuardianID == a.UserID
}

// RosterNotifier 名单变化通知（教练端实时刷新）
type RosterNotifier interface {
	PublishRoster(ctx context.Context, msg *pubsub.RosterMessage) error
}

func nowFrom(fn func() time.Time) time.Time {
	if fn == nil {
		return time.Now()
	}
	return fn()
}
