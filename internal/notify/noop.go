package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded messages. It backs
// dry runs, where the decision and state are exercised but nothing is posted.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards messages with a log line.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// Send logs and discards msg.
func (n *NoOpNotifier) Send(_ context.Context, msg Message) error {
	n.log.Info("notification discarded (dry run)",
		"channel", msg.Channel,
		"chars", len(msg.Text),
		"text", msg.Text,
	)
	return nil
}
