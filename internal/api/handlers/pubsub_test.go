package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/gcp-budget-notifier/internal/api/handlers"
	"github.com/donaldgifford/gcp-budget-notifier/internal/engine"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

type fakeAlertHandler struct {
	got *engine.Invocation
	res *engine.Result
	err error
}

func (f *fakeAlertHandler) Handle(_ context.Context, inv *engine.Invocation) (*engine.Result, error) {
	f.got = inv
	return f.res, f.err
}

// pushBody mirrors what Pub/Sub posts, including the snake_case duplicates.
// data is base64 of {"a":1}.
const pushBody = `{
	"message": {
		"attributes": {"billingAccountId": "A", "budgetId": "B"},
		"data": "eyJhIjoxfQ==",
		"messageId": "136969346945",
		"message_id": "136969346945",
		"publishTime": "2024-03-01T08:00:00Z",
		"publish_time": "2024-03-01T08:00:00Z"
	},
	"subscription": "projects/my-project/subscriptions/billing-push",
	"deliveryAttempt": 1
}`

func TestPush_Notified(t *testing.T) {
	t.Parallel()

	interval := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	fake := &fakeAlertHandler{res: &engine.Result{
		InvocationID: "136969346945",
		Outcome:      engine.OutcomeNotified,
		Record:       "projects/my-project/secrets/gcp-slack-notifier-state_billing-alerts_BILLING-A_BUDGET-B",
		Version:      "projects/my-project/secrets/gcp-slack-notifier-state_billing-alerts_BILLING-A_BUDGET-B/versions/3",
		State:        domain.AlertState{LastInterval: interval, LastThreshold: 90},
		Delivered:    true,
	}}

	_, api := humatest.New(t)
	handlers.RegisterPushRoutes(api, handlers.NewPushHandler(fake, "projects/my-project/topics/billing-alerts"))

	resp := api.Post("/api/v1/pubsub/push", "Content-Type: application/json", strings.NewReader(pushBody))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	require.NotNil(t, fake.got)
	assert.Equal(t, "136969346945", fake.got.ID)
	assert.Equal(t, domain.Resource{ProjectID: "my-project", TopicID: "billing-alerts"}, fake.got.Resource)
	assert.Equal(t, map[string]string{"billingAccountId": "A", "budgetId": "B"}, fake.got.Message.Attributes)
	assert.JSONEq(t, `{"a":1}`, string(fake.got.Message.Data))
	require.NotNil(t, fake.got.Message.PublishTime)
	assert.True(t, interval.Equal(*fake.got.Message.PublishTime))

	body := resp.Body.String()
	assert.Contains(t, body, `"outcome":"notified"`)
	assert.Contains(t, body, `"delivered":true`)
	assert.Contains(t, body, `/versions/3"`)
	assert.Contains(t, body, `"last_threshold":90`)
}

func TestPush_ResourceOverride(t *testing.T) {
	t.Parallel()

	fake := &fakeAlertHandler{res: &engine.Result{Outcome: engine.OutcomeSkipped}}

	_, api := humatest.New(t)
	handlers.RegisterPushRoutes(api, handlers.NewPushHandler(fake, "projects/my-project/topics/billing-alerts"))

	resp := api.Post("/api/v1/pubsub/push?resource=projects/other/topics/budgets",
		"Content-Type: application/json", strings.NewReader(pushBody))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	assert.Equal(t, domain.Resource{ProjectID: "other", TopicID: "budgets"}, fake.got.Resource)
	assert.Contains(t, resp.Body.String(), `"outcome":"skipped"`)
	assert.NotContains(t, resp.Body.String(), `"state"`)
}

func TestPush_NoResourceConfigured(t *testing.T) {
	t.Parallel()

	fake := &fakeAlertHandler{res: &engine.Result{Outcome: engine.OutcomeSuppressed}}

	_, api := humatest.New(t)
	handlers.RegisterPushRoutes(api, handlers.NewPushHandler(fake, ""))

	resp := api.Post("/api/v1/pubsub/push", "Content-Type: application/json", strings.NewReader(pushBody))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, domain.Resource{ProjectID: domain.Unknown, TopicID: domain.Unknown}, fake.got.Resource)
}

func TestPush_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "malformed alert",
			err:        fmt.Errorf("%w: missing [costAmount]", engine.ErrMalformedEvent),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "engine failure",
			err:        errors.New("connecting to slack: no slack token"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterPushRoutes(api, handlers.NewPushHandler(&fakeAlertHandler{err: tt.err}, ""))

			resp := api.Post("/api/v1/pubsub/push", "Content-Type: application/json", strings.NewReader(pushBody))
			assert.Equal(t, tt.wantStatus, resp.Code)
		})
	}
}

func TestPush_MissingMessage(t *testing.T) {
	t.Parallel()

	fake := &fakeAlertHandler{}

	_, api := humatest.New(t)
	handlers.RegisterPushRoutes(api, handlers.NewPushHandler(fake, ""))

	resp := api.Post("/api/v1/pubsub/push", map[string]any{"subscription": "s"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Nil(t, fake.got)
}
