package notification

import (
	"context"
	"log/slog"
)

var _ Sender = ConsoleSender{}

// ConsoleSender logs messages instead of delivering them. Default sender
// when no webhook transport is configured.
type ConsoleSender struct{}

func (ConsoleSender) Send(ctx context.Context, destination string, msg Message) error {
	slog.Info("notification", "destination", destination, "title", msg.Title, "body", msg.Body)
	return nil
}
