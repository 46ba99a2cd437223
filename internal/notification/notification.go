package notification

import (
	"context"
	"log/slog"
)

const (
	// KindWatchReward indicates coins granted for watch time.
	KindWatchReward = "watch_reward"
	// KindAdReward indicates coins granted for a verified rewarded ad.
	KindAdReward = "ad_reward"
)

// Message describes a reward notification payload.
type Message struct {
	Kind   string
	UserID string
	Amount int64
}

// Notifier delivers grant notifications to downstream systems (push, e-mail).
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "user_id", message.UserID, "amount", message.Amount)
	return nil
}
