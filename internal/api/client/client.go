// Package client provides a thin HTTP client for the budget notifier push
// server, used by the CLI to replay recorded alerts and inspect state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/donaldgifford/gcp-budget-notifier/internal/api/handlers"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// Client is a thin HTTP client for the budget notifier API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client targeting the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// get performs a GET request and decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, path string, dst any) error {
	return c.do(ctx, http.MethodGet, path, nil, dst)
}

// post performs a POST request with a JSON body and decodes the response into dst.
func (c *Client) post(ctx context.Context, path string, body, dst any) error {
	return c.do(ctx, http.MethodPost, path, body, dst)
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	target := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnectionRefused(err) {
			return fmt.Errorf("API server not running at %s", c.baseURL)
		}
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	if dst != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, dst); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func isConnectionRefused(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connect: connection refused")
}

// Push delivers a Pub/Sub message to the push endpoint as if Pub/Sub had
// sent it. resource overrides the server's default topic when non-empty.
func (c *Client) Push(
	ctx context.Context,
	resource string,
	env *domain.PushEnvelope,
) (*handlers.PushResult, error) {
	path := "/api/v1/pubsub/push"
	if resource != "" {
		path += "?" + url.Values{"resource": {resource}}.Encode()
	}

	body := handlers.PushRequest{
		Message: handlers.PushMessage{
			Attributes:  env.Message.Attributes,
			Data:        env.Message.Data,
			MessageID:   env.Message.MessageID,
			PublishTime: env.Message.PublishTime,
		},
		Subscription: env.Subscription,
	}

	var res handlers.PushResult
	if err := c.post(ctx, path, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// State returns the stored throttle state for key.
func (c *Client) State(ctx context.Context, key domain.StateKey) (*handlers.StateBody, error) {
	q := url.Values{}
	for name, v := range map[string]string{
		"project_id":         key.ProjectID,
		"topic_id":           key.TopicID,
		"billing_account_id": key.BillingAccountID,
		"budget_id":          key.BudgetID,
	} {
		if v != "" {
			q.Set(name, v)
		}
	}

	path := "/api/v1/state"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var body handlers.StateBody
	if err := c.get(ctx, path, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// Healthz reports whether the server process is up.
func (c *Client) Healthz(ctx context.Context) error {
	return c.get(ctx, "/healthz", nil)
}
