package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"
)

// SlackNotifier implements Notifier via the Slack Web API chat.postMessage.
type SlackNotifier struct {
	client  *slack.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

type slackOptions struct {
	apiURL     string
	httpClient *http.Client
	perSecond  float64
	burst      int
}

// SlackOption configures a SlackNotifier.
type SlackOption func(*slackOptions)

// WithAPIURL points the client at another Slack API base URL.
func WithAPIURL(url string) SlackOption {
	return func(o *slackOptions) {
		o.apiURL = url
	}
}

// WithSlackHTTPClient sets the HTTP client used for API calls.
func WithSlackHTTPClient(c *http.Client) SlackOption {
	return func(o *slackOptions) {
		o.httpClient = c
	}
}

// WithRateLimit paces posts to perSecond with the given burst. A
// non-positive rate disables pacing.
func WithRateLimit(perSecond float64, burst int) SlackOption {
	return func(o *slackOptions) {
		o.perSecond = perSecond
		o.burst = burst
	}
}

// NewSlackNotifier creates a SlackNotifier authenticated with a bot token.
func NewSlackNotifier(token string, log *slog.Logger, opts ...SlackOption) *SlackNotifier {
	o := &slackOptions{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		perSecond:  1,
		burst:      1,
	}
	for _, opt := range opts {
		opt(o)
	}

	clientOpts := []slack.Option{slack.OptionHTTPClient(o.httpClient)}
	if o.apiURL != "" {
		clientOpts = append(clientOpts, slack.OptionAPIURL(withTrailingSlash(o.apiURL)))
	}

	limit := rate.Limit(o.perSecond)
	if o.perSecond <= 0 {
		limit = rate.Inf
	}
	burst := max(o.burst, 1)

	return &SlackNotifier{
		client:  slack.New(token, clientOpts...),
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}
}

// Send posts msg.Text to msg.Channel.
func (n *SlackNotifier) Send(ctx context.Context, msg Message) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for slack rate limiter: %w", err)
	}

	n.log.Debug("posting to slack", "channel", msg.Channel, "chars", len(msg.Text))

	channelID, ts, err := n.client.PostMessageContext(ctx, msg.Channel,
		slack.MsgOptionText(msg.Text, false),
	)
	if err != nil {
		return fmt.Errorf("posting to slack channel %s: %w", msg.Channel, err)
	}

	n.log.Debug("posted to slack", "channel_id", channelID, "ts", ts)

	return nil
}

func withTrailingSlash(url string) string {
	if url == "" || url[len(url)-1] == '/' {
		return url
	}
	return url + "/"
}
