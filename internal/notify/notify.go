// Package notify delivers user-visible messages about clipping and
// auto-processing outcomes. Delivery is best effort: a notification that
// cannot be sent is logged and dropped, never surfaced as an operation error.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/domain"
)

// LogNotifier writes notifications to the structured log. It is the
// always-on channel and the default when no webhook is configured.
type LogNotifier struct{}

// NewLogNotifier creates the log-backed notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify records the message at info level
func (n *LogNotifier) Notify(ctx context.Context, title, message string) {
	log.Info().
		Str("title", title).
		Str("message", message).
		Msg("Notification")
}

// Multi fans a notification out to every configured channel
type Multi struct {
	channels []domain.Notifier
}

// NewMulti combines notifiers into one; nil entries are skipped
func NewMulti(channels ...domain.Notifier) *Multi {
	m := &Multi{}
	for _, c := range channels {
		if c != nil {
			m.channels = append(m.channels, c)
		}
	}
	return m
}

// Notify delivers to all channels in order
func (m *Multi) Notify(ctx context.Context, title, message string) {
	for _, c := range m.channels {
		c.Notify(ctx, title, message)
	}
}

// NewNotifier builds the notification stack for the given configuration:
// always the log channel, plus a webhook channel when a URL is set.
func NewNotifier(webhookURL string) domain.Notifier {
	if webhookURL == "" {
		return NewLogNotifier()
	}
	return NewMulti(NewLogNotifier(), NewWebhookNotifier(webhookURL, nil))
}
