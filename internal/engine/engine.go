// Package engine decides whether a budget alert is worth announcing and
// drives the state store and notifier for each invocation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/gcp-budget-notifier/internal/metrics"
	"github.com/donaldgifford/gcp-budget-notifier/internal/notify"
	"github.com/donaldgifford/gcp-budget-notifier/internal/store"
	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

const instrumentationName = "github.com/donaldgifford/gcp-budget-notifier/internal/engine"

// Outcome is what an invocation did with its alert.
type Outcome string

// Invocation outcomes.
const (
	OutcomeNotified   Outcome = "notified"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeSkipped    Outcome = "skipped"
)

// Connector yields the notifier to post with. *notify.Connector satisfies it.
type Connector interface {
	Connect(ctx context.Context, projectID string) (notify.Notifier, error)
}

// Invocation is one delivery of a Pub/Sub message.
type Invocation struct {
	// ID correlates log lines; generated when empty.
	ID       string
	Resource domain.Resource
	Message  domain.PubSubMessage
}

// Result describes a handled invocation.
type Result struct {
	InvocationID string
	Outcome      Outcome
	Key          domain.StateKey
	Record       string
	// State is the throttle state after the decision. On suppression it is
	// what is already stored.
	State domain.AlertState
	// Version is the stored state version; empty on suppression and dry runs.
	Version string
	Text    string
	// Delivered is false when the post failed; the failure is not an error.
	Delivered bool
}

// Engine handles budget alerts.
type Engine struct {
	store          store.Store
	connector      Connector
	channel        string
	defaultProject string
	dryRun         bool
	log            *slog.Logger

	// locks orders invocations for the same budget from Open through Save.
	locks keyLocks

	tracer    trace.Tracer
	decisions metric.Int64Counter
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(s store.Store, c Connector, opts ...EngineOption) *Engine {
	eng := &Engine{
		store:     s,
		connector: c,
		channel:   "#gcp-test",
		log:       slog.Default(),
		tracer:    otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(eng)
	}

	decisions, err := otel.Meter(instrumentationName).Int64Counter(
		"budget_notifier.alert.decisions",
		metric.WithDescription("Throttle decisions by outcome."),
	)
	if err != nil {
		eng.log.Warn("creating decision counter", "error", err)
		decisions = noop.Int64Counter{}
	}
	eng.decisions = decisions

	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithChannel sets the Slack channel notifications are posted to.
func WithChannel(channel string) EngineOption {
	return func(e *Engine) {
		e.channel = channel
	}
}

// WithDefaultProject sets the project used when an event's resource does
// not name one.
func WithDefaultProject(projectID string) EngineOption {
	return func(e *Engine) {
		e.defaultProject = projectID
	}
}

// WithDryRun runs the decision without saving state.
func WithDryRun(dryRun bool) EngineOption {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// Handle runs one alert through decode, throttle, persist and post.
//
// Malformed messages return ErrMalformedEvent. A missing Slack credential
// fails the invocation before state is saved, so a redelivery can still
// notify. Post failures are logged and counted but not returned.
//
// Invocations for the same budget are serialized from load to save, so
// overlapping deliveries never announce the same threshold twice or lower
// the stored threshold.
func (eng *Engine) Handle(ctx context.Context, inv *Invocation) (res *Result, err error) {
	start := time.Now()
	metrics.AlertsReceivedTotal.Inc()

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	ctx, span := eng.tracer.Start(ctx, "engine.Handle", trace.WithAttributes(
		attribute.String("invocation.id", inv.ID),
		attribute.String("pubsub.resource", inv.Resource.String()),
	))
	defer func() {
		metrics.AlertHandleDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("alert.outcome", string(res.Outcome)))
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	log := eng.log.With("invocation_id", inv.ID)

	alert, err := DecodeAlert(eng.resolveResource(inv.Resource), &inv.Message)
	if err != nil {
		metrics.AlertsMalformedTotal.Inc()
		log.Error("malformed budget alert", "resource", inv.Resource.String(), "error", err)
		return nil, err
	}

	log = log.With("billing_id", alert.BillingAccountID, "budget_id", alert.BudgetID)
	log.Info("new billing alert",
		"project_id", alert.ProjectID,
		"topic_id", alert.TopicID,
		"budget", alert.BudgetDisplayName,
		"cost", alert.CostAmount,
		"threshold", alert.Threshold(),
		"interval", alert.CostIntervalStart,
	)

	res = &Result{InvocationID: inv.ID, Key: alert.StateKey()}

	if alert.Forecast {
		log.Info("ignoring forecast-only alert", "forecast_threshold", *alert.ForecastThresholdExceeded)
		eng.recordDecision(ctx, metrics.DecisionSkip)
		res.Outcome = OutcomeSkipped
		return res, nil
	}

	release := eng.locks.acquire(res.Key)
	defer release()

	rec, err := eng.store.Open(ctx, res.Key)
	if err != nil {
		return nil, fmt.Errorf("opening alert state: %w", err)
	}
	res.Record = rec.Name()

	prior := eng.loadState(ctx, log, rec)

	shouldNotify, next := Decide(alert, prior)
	res.State = next

	if !shouldNotify {
		log.Info("ignoring repeat alert",
			"last_interval", next.LastInterval,
			"last_threshold", next.LastThreshold,
		)
		eng.recordDecision(ctx, metrics.DecisionSuppress)
		res.Outcome = OutcomeSuppressed
		return res, nil
	}

	log.Info("alert came for new threshold",
		"threshold", next.LastThreshold,
		"previous_threshold", prior.LastThreshold,
	)

	res.Text = notify.Compose(alert)

	notifier, err := eng.connector.Connect(ctx, alert.ProjectID)
	if err != nil {
		log.Error("no slack client available, alert state not saved", "error", err)
		return nil, fmt.Errorf("connecting to slack: %w", err)
	}

	if eng.dryRun {
		log.Info("dry run, alert state not saved", "record", rec.Name())
	} else {
		version, saveErr := rec.Save(ctx, &next)
		if errors.Is(saveErr, store.ErrStale) {
			log.Info("ignoring alert already superseded", "record", rec.Name(), "error", saveErr)
			if stored, loadErr := rec.Load(ctx); loadErr == nil {
				res.State = *stored
			}
			eng.recordDecision(ctx, metrics.DecisionSuppress)
			res.Outcome = OutcomeSuppressed
			res.Text = ""
			return res, nil
		}
		if saveErr != nil {
			return nil, fmt.Errorf("saving alert state to %s: %w", rec.Name(), saveErr)
		}
		metrics.StateWritesTotal.Inc()
		res.Version = version
		log.Debug("saved alert state", "version", version)
	}

	release()

	eng.recordDecision(ctx, metrics.DecisionNotify)
	metrics.LastThresholdPercent.WithLabelValues(alert.BudgetID).Set(next.LastThreshold)

	res.Outcome = OutcomeNotified
	res.Delivered = eng.send(ctx, log, notifier, notify.Message{Channel: eng.channel, Text: res.Text})

	return res, nil
}

// State returns the stored throttle state for key without creating it.
func (eng *Engine) State(ctx context.Context, key domain.StateKey) (*domain.AlertState, error) {
	if key.ProjectID == "" {
		key.ProjectID = domain.Unknown
	}
	key.ProjectID = eng.resolveResource(domain.Resource{ProjectID: key.ProjectID}).ProjectID
	return eng.store.Get(ctx, key)
}

func (eng *Engine) resolveResource(r domain.Resource) domain.Resource {
	if r.ProjectID == domain.Unknown && eng.defaultProject != "" {
		r.ProjectID = eng.defaultProject
	}
	return r
}

// loadState reads the prior state. Any failure, including a missing or
// unreadable record, yields the empty state.
func (eng *Engine) loadState(ctx context.Context, log *slog.Logger, rec store.Record) domain.AlertState {
	log.Debug("restoring alert state", "record", rec.Name())

	state, err := rec.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Debug("no stored alert state", "record", rec.Name())
		return domain.EmptyAlertState()
	case err != nil:
		metrics.StateReadErrorsTotal.Inc()
		log.Warn("error reading alert state, treating as empty", "record", rec.Name(), "error", err)
		return domain.EmptyAlertState()
	}

	return *state
}

func (eng *Engine) send(ctx context.Context, log *slog.Logger, n notify.Notifier, msg notify.Message) bool {
	ctx, span := eng.tracer.Start(ctx, "notify.Send", trace.WithAttributes(
		attribute.String("slack.channel", msg.Channel),
	))
	defer span.End()

	start := time.Now()
	err := n.Send(ctx, msg)
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.NotificationFailuresTotal.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("slack post failed", "channel", msg.Channel, "error", err)
		return false
	}

	metrics.NotificationsSentTotal.Inc()
	log.Info("posted to slack", "channel", msg.Channel, "chars", len(msg.Text))

	return true
}

func (eng *Engine) recordDecision(ctx context.Context, decision string) {
	metrics.AlertDecisionsTotal.WithLabelValues(decision).Inc()
	eng.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}
