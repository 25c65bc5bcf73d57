package notify

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TokenHeader     = "X-Tracker-Token"
	EventHeader     = "X-Tracker-Event"
	EventUUIDHeader = "X-Tracker-Event-UUID"
)

// WebhookNotifier posts each notification as JSON to a single endpoint.
type WebhookNotifier struct {
	client  *resty.Client
	address string
	token   string
	logger  *zap.Logger
}

func NewWebhookNotifier(config *Config, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		client:  resty.New().SetTimeout(config.Timeout),
		address: config.WebhookURL,
		token:   config.WebhookToken,
		logger:  logger,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, notification Notification) {
	eventID := uuid.New().String()

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader(TokenHeader, n.token).
		SetHeader(EventHeader, string(notification.Type)).
		SetHeader(EventUUIDHeader, eventID).
		SetBody(notification).
		Post(n.address)
	if err != nil {
		n.logger.Error("failed to send webhook notification",
			zap.String("url", n.address),
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return
	}

	if resp.IsError() {
		n.logger.Error("webhook notification rejected",
			zap.String("url", n.address),
			zap.String("event_id", eventID),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return
	}

	n.logger.Debug("webhook notification delivered",
		zap.String("event_id", eventID),
		zap.String("type", string(notification.Type)),
	)
}
