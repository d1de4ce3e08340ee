// Package budgetnotifier is the Cloud Functions entry point. It registers
// NotifySlack, which receives Cloud Billing budget alerts from a Pub/Sub
// topic and posts new threshold crossings to Slack.
package budgetnotifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/donaldgifford/gcp-budget-notifier/internal/app"
	"github.com/donaldgifford/gcp-budget-notifier/internal/config"
	"github.com/donaldgifford/gcp-budget-notifier/internal/engine"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// EntryPoint is the function name to deploy with --entry-point.
const EntryPoint = "NotifySlack"

// ConfigEnv names the optional config file variable.
const ConfigEnv = "BUDGET_NOTIFIER_CONFIG"

var defaultRuntime = app.NewLazy(func(ctx context.Context) (*app.Runtime, error) {
	cfg, err := config.Load(os.Getenv(ConfigEnv))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return app.New(ctx, cfg)
})

func init() {
	functions.CloudEvent(EntryPoint, NewHandler(defaultRuntime))
}

// NewHandler returns the CloudEvent handler for a
// google.cloud.pubsub.topic.v1.messagePublished event. The runtime is built
// on the first event and reused afterwards.
func NewHandler(lazy *app.Lazy) func(context.Context, event.Event) error {
	return func(ctx context.Context, e event.Event) error {
		rt, err := lazy.Get(ctx)
		if err != nil {
			return fmt.Errorf("initializing runtime: %w", err)
		}
		defer func() {
			if err := rt.Flush(ctx); err != nil {
				rt.Log.Warn("flushing telemetry", "error", err)
			}
		}()

		var envelope domain.PushEnvelope
		if err := json.Unmarshal(e.Data(), &envelope); err != nil {
			rt.Log.Error("decoding pubsub event", "event_id", e.ID(), "error", err)
			return fmt.Errorf("%w: decoding event data: %w", engine.ErrMalformedEvent, err)
		}

		_, err = rt.Engine.Handle(ctx, &engine.Invocation{
			ID:       e.ID(),
			Resource: domain.ParseResource(e.Source()),
			Message:  envelope.Message,
		})

		return err
	}
}
