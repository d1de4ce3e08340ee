package budgetnotifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/gcp-budget-notifier/internal/app"
	"github.com/donaldgifford/gcp-budget-notifier/internal/config"
	"github.com/donaldgifford/gcp-budget-notifier/internal/engine"
	"github.com/donaldgifford/gcp-budget-notifier/internal/notify"
	notifyMocks "github.com/donaldgifford/gcp-budget-notifier/internal/notify/mocks"
	"github.com/donaldgifford/gcp-budget-notifier/internal/secrets/secretstest"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

const alertJSON = `{
	"budgetDisplayName": "prod-budget",
	"alertThresholdExceeded": 1.2,
	"costAmount": 1800,
	"costIntervalStart": "2024-03-01T08:00:00Z",
	"budgetAmount": 1500,
	"currencyCode": "USD"
}`

const stateSecret = "projects/my-project/secrets/gcp-slack-notifier-state_billing-alerts_BILLING-A_BUDGET-B"

func newEvent(t *testing.T, source string, data any) event.Event {
	t.Helper()

	e := event.New()
	e.SetID("evt-1")
	e.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	e.SetSource(source)
	require.NoError(t, e.SetData(event.ApplicationJSON, data))

	return e
}

func alertEnvelope() domain.PushEnvelope {
	return domain.PushEnvelope{
		Message: domain.PubSubMessage{
			Attributes: map[string]string{"billingAccountId": "A", "budgetId": "B"},
			Data:       []byte(alertJSON),
			MessageID:  "1234",
		},
		Subscription: "projects/my-project/subscriptions/billing",
	}
}

func newTestLazy(t *testing.T, fake *secretstest.Fake, n notify.Notifier) *app.Lazy {
	t.Helper()

	cfg, err := config.LoadWithEnv("", func(string) (string, bool) { return "", false })
	require.NoError(t, err)

	return app.NewLazy(func(ctx context.Context) (*app.Runtime, error) {
		return app.New(ctx, cfg,
			app.WithSecretsAPI(fake),
			app.WithNotifier(n),
			app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		)
	})
}

func TestHandler_NotifiesAndSavesState(t *testing.T) {
	t.Parallel()

	fake := secretstest.New()
	n := notifyMocks.NewMockNotifier(t)
	n.EXPECT().
		Send(mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
			return m.Channel == config.DefaultChannel &&
				strings.Contains(m.Text, "_prod-budget_") &&
				strings.Contains(m.Text, "over 120%") &&
				strings.Contains(m.Text, ":sad:")
		})).
		Return(nil).
		Once()

	handler := NewHandler(newTestLazy(t, fake, n))
	e := newEvent(t, "//pubsub.googleapis.com/projects/my-project/topics/billing-alerts", alertEnvelope())

	require.NoError(t, handler(context.Background(), e))

	versions := fake.Versions(stateSecret)
	require.Len(t, versions, 1)
	assert.JSONEq(t, `{"last_interval":"2024-03-01T08:00:00Z","last_threshold":120}`, string(versions[0]))

	// The same event again is suppressed; the mock fails on a second Send.
	require.NoError(t, handler(context.Background(), e))
	assert.Len(t, fake.Versions(stateSecret), 1)
}

func TestHandler_MalformedEventData(t *testing.T) {
	t.Parallel()

	handler := NewHandler(newTestLazy(t, secretstest.New(), notifyMocks.NewMockNotifier(t)))

	e := event.New()
	e.SetID("evt-2")
	e.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	e.SetSource("//pubsub.googleapis.com/projects/my-project/topics/billing-alerts")
	require.NoError(t, e.SetData(event.TextPlain, "not json"))

	err := handler(context.Background(), e)
	require.ErrorIs(t, err, engine.ErrMalformedEvent)
}

func TestHandler_MalformedAlert(t *testing.T) {
	t.Parallel()

	env := alertEnvelope()
	env.Message.Data = []byte(`{"budgetDisplayName":"x"}`)

	handler := NewHandler(newTestLazy(t, secretstest.New(), notifyMocks.NewMockNotifier(t)))
	e := newEvent(t, "//pubsub.googleapis.com/projects/my-project/topics/billing-alerts", env)

	err := handler(context.Background(), e)
	require.ErrorIs(t, err, engine.ErrMalformedEvent)
}

func TestHandler_RuntimeFailure(t *testing.T) {
	t.Parallel()

	lazy := app.NewLazy(func(context.Context) (*app.Runtime, error) {
		return nil, errors.New("no credentials")
	})

	e := newEvent(t, "//pubsub.googleapis.com/projects/my-project/topics/billing-alerts", alertEnvelope())

	err := NewHandler(lazy)(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initializing runtime")
}

func TestHandler_EnvelopeWireFormat(t *testing.T) {
	t.Parallel()

	// Pub/Sub delivers data base64 encoded inside the JSON envelope.
	raw := []byte(`{"message":{"attributes":{"billingAccountId":"A","budgetId":"B"},` +
		`"data":"eyJhIjoxfQ==","messageId":"1"}}`)

	var env domain.PushEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.JSONEq(t, `{"a":1}`, string(env.Message.Data))
}
