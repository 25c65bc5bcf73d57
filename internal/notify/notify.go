// Package notify delivers user-facing notices. Delivery is fire-and-forget:
// a sink logs its own failures and never reports them to the caller.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Type string

const (
	TypeSprintStarted    Type = "SPRINT_STARTED"
	TypeSprintCompleted  Type = "SPRINT_COMPLETED"
	TypeSprintCancelled  Type = "SPRINT_CANCELLED"
	TypeSprintEndingSoon Type = "SPRINT_ENDING_SOON"
	TypeCommitApproved   Type = "COMMIT_APPROVED"
	TypeCommitRejected   Type = "COMMIT_REJECTED"
)

type Notification struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	Type    Type   `json:"type"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

const (
	SinkLog     = "log"
	SinkWebhook = "webhook"
)

type Config struct {
	Sink         string        `env:"NOTIFY_SINK" env-default:"log"`
	WebhookURL   string        `env:"NOTIFY_WEBHOOK_URL"`
	WebhookToken string        `env:"NOTIFY_WEBHOOK_TOKEN"`
	Timeout      time.Duration `env:"NOTIFY_TIMEOUT" env-default:"5s"`
}

func New(config *Config, logger *zap.Logger) (Notifier, error) {
	switch config.Sink {
	case "", SinkLog:
		return NewLogNotifier(logger), nil
	case SinkWebhook:
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("webhook sink requires NOTIFY_WEBHOOK_URL")
		}
		return NewWebhookNotifier(config, logger), nil
	}
	return nil, fmt.Errorf("unknown notification sink %q", config.Sink)
}

// LogNotifier writes every notification to the service log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, notification Notification) {
	n.logger.Info("notification",
		zap.String("user_id", notification.UserID),
		zap.String("type", string(notification.Type)),
		zap.String("message", notification.Message),
	)
}
