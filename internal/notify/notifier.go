// Package notify composes budget alert messages and delivers them to Slack.
package notify

import (
	"context"
)

// Message is one chat post.
type Message struct {
	Channel string
	Text    string
}

// Notifier delivers a composed message. Implementations return delivery
// errors; callers decide whether they matter.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
