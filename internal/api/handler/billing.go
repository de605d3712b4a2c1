package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/model/dto"
	"github.com/qs3c/academy_server/internal/pkg/queue"
	"github.com/qs3c/academy_server/internal/pkg/response"
	"github.com/qs3c/academy_server/internal/service"
)

const maxWebhookBody = 64 * 1024

var errNotSubscriptionEvent = errors.New("not a subscription event")

// BillingEventQueue 事件转发到 worker 处理
type BillingEventQueue interface {
	Push(ctx context.Context, event *queue.BillingEvent) error
}

type BillingHandler struct {
	billingService *service.BillingService
	queue          BillingEventQueue
	secret         string
	logger         *zap.Logger

	Now func() time.Time
}

// NewBillingHandler queue 为 nil 时事件在请求内直接写入
func NewBillingHandler(billingService *service.BillingService, q BillingEventQueue, secret string, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		queue:          q,
		secret:         secret,
		logger:         logger,
		Now:            time.Now,
	}
}

// Webhook 接收支付方订阅事件
// POST /api/v1/billing/webhook
//
// 签名错误返回 400，写入失败返回 500 让支付方重试，其余情况返回 200。
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		abortWebhook(c, http.StatusRequestEntityTooLarge, response.CodeParamError, "请求体过大")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Warn("webhook signature rejected", zap.Error(err))
		abortWebhook(c, http.StatusBadRequest, response.CodeAuthFailed, "签名校验失败")
		return
	}

	ack := &dto.WebhookAck{EventID: event.ID}

	billingEvent, err := h.toBillingEvent(&event)
	if err != nil {
		if errors.Is(err, errNotSubscriptionEvent) {
			response.SuccessWithMessage(c, "ignored", ack)
			return
		}
		response.ParamError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if h.queue != nil {
		if err := h.queue.Push(ctx, billingEvent); err != nil {
			h.logger.Error("enqueue billing event failed", zap.String("event_id", event.ID), zap.Error(err))
			abortWebhook(c, http.StatusInternalServerError, response.CodeServerError, "")
			return
		}
		ack.Queued = true
		response.Success(c, ack)
		return
	}

	applied, err := h.billingService.ApplySubscriptionEvent(ctx, billingEvent)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBillingEvent) {
			response.ParamError(c, err.Error())
			return
		}
		h.logger.Error("apply billing event failed", zap.String("event_id", event.ID), zap.Error(err))
		abortWebhook(c, http.StatusInternalServerError, response.CodeServerError, "")
		return
	}
	ack.Applied = applied

	response.Success(c, ack)
}

func (h *BillingHandler) toBillingEvent(event *stripe.Event) (*queue.BillingEvent, error) {
	switch event.Type {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted",
		"customer.subscription.paused",
		"customer.subscription.resumed":
	default:
		return nil, errNotSubscriptionEvent
	}
	if event.Data == nil {
		return nil, service.ErrInvalidBillingEvent
	}

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, err
	}

	status := string(sub.Status)
	if event.Type == "customer.subscription.deleted" {
		status = model.SubscriptionCanceled
	}

	billingEvent := &queue.BillingEvent{
		EventID:        event.ID,
		Type:           string(event.Type),
		SubscriptionID: sub.ID,
		PackageID:      sub.Metadata["package_id"],
		Status:         status,
		AthleteID:      metadataID(sub.Metadata, "athlete_id"),
		GuardianID:     metadataID(sub.Metadata, "guardian_id"),
		ReceivedAt:     h.Now().UTC(),
	}
	if sub.Customer != nil {
		billingEvent.CustomerID = sub.Customer.ID
	}
	if billingEvent.PackageID == "" && sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		billingEvent.PackageID = sub.Items.Data[0].Price.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		billingEvent.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	return billingEvent, nil
}

func metadataID(metadata map[string]string, key string) int64 {
	id, _ := strconv.ParseInt(metadata[key], 10, 64)
	return id
}

func abortWebhook(c *gin.Context, status, code int, message string) {
	if message == "" {
		message = "服务器内部错误"
	}
	c.AbortWithStatusJSON(status, response.Response{Code: code, Message: message})
}
