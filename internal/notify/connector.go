package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/donaldgifford/gcp-budget-notifier/internal/config"
	"github.com/donaldgifford/gcp-budget-notifier/internal/metrics"
)

// ErrNoToken is returned when neither the configuration nor Secret Manager
// yields a Slack API token.
var ErrNoToken = errors.New("no slack api token available")

// TokenSource reads a secret value. *secrets.Manager satisfies it.
type TokenSource interface {
	AccessString(ctx context.Context, projectID, secretID string) (string, error)
}

// Connector lazily builds the process-wide Notifier. The first successful
// Connect is cached for the life of the process; failures are not, so a
// later invocation can pick up a token added after startup.
type Connector struct {
	cfg    config.SlackConfig
	tokens TokenSource
	log    *slog.Logger

	mu       sync.Mutex
	notifier Notifier
}

// NewConnector creates a Connector. tokens may be nil when no secret
// fallback is available.
func NewConnector(cfg config.SlackConfig, tokens TokenSource, log *slog.Logger) *Connector {
	return &Connector{cfg: cfg, tokens: tokens, log: log}
}

// NewStaticConnector returns a Connector that always yields n.
func NewStaticConnector(n Notifier) *Connector {
	return &Connector{notifier: n}
}

// Connect returns the cached Notifier, creating it on first use. projectID
// scopes the token secret lookup.
func (c *Connector) Connect(ctx context.Context, projectID string) (Notifier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.notifier != nil {
		return c.notifier, nil
	}

	httpClient := &http.Client{Timeout: c.cfg.Timeout}

	if c.cfg.WebhookURL != "" {
		c.log.Debug("using slack incoming webhook")
		c.notifier = NewWebhookNotifier(c.cfg.WebhookURL, WithHTTPClient(httpClient))
		return c.notifier, nil
	}

	token, err := c.ResolveToken(ctx, projectID)
	if err != nil {
		metrics.ChatConnectFailuresTotal.Inc()
		return nil, err
	}

	c.log.Debug("connecting to slack", "token", fingerprint(token))

	c.notifier = NewSlackNotifier(token, c.log,
		WithAPIURL(c.cfg.APIURL),
		WithSlackHTTPClient(httpClient),
		WithRateLimit(c.cfg.RateLimit.PerSecond, c.cfg.RateLimit.Burst),
	)

	return c.notifier, nil
}

// ResolveToken returns the configured token, or reads it from the token
// secret in projectID when none is configured.
func (c *Connector) ResolveToken(ctx context.Context, projectID string) (string, error) {
	if token := strings.TrimSpace(c.cfg.APIToken); token != "" {
		return token, nil
	}

	if c.tokens == nil || c.cfg.TokenSecret == "" {
		return "", ErrNoToken
	}

	token, err := c.tokens.AccessString(ctx, projectID, c.cfg.TokenSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoToken, err)
	}
	if token == "" {
		return "", fmt.Errorf("%w: secret %s is empty", ErrNoToken, c.cfg.TokenSecret)
	}

	return token, nil
}

// fingerprint shows the token type prefix and last four characters, enough
// to tell tokens apart in logs.
func fingerprint(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:4] + "..." + token[len(token)-4:]
}
