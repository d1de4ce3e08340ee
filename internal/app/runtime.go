// Package app assembles the long-lived pieces of the notifier: logger,
// Secret Manager client, state store, Slack connector, engine and telemetry.
// One Runtime serves every invocation handled by the process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/donaldgifford/gcp-budget-notifier/internal/config"
	"github.com/donaldgifford/gcp-budget-notifier/internal/engine"
	"github.com/donaldgifford/gcp-budget-notifier/internal/notify"
	"github.com/donaldgifford/gcp-budget-notifier/internal/secrets"
	"github.com/donaldgifford/gcp-budget-notifier/internal/store"
	"github.com/donaldgifford/gcp-budget-notifier/internal/telemetry"
	"github.com/donaldgifford/gcp-budget-notifier/pkg/logger"
)

// Runtime holds process-lifetime state.
type Runtime struct {
	Config    *config.Config
	Log       *slog.Logger
	Store     store.Store
	Engine    *engine.Engine
	Telemetry *telemetry.Provider

	closers []io.Closer
}

type options struct {
	version    string
	dryRun     bool
	logger     *slog.Logger
	secretsAPI secrets.API
	store      store.Store
	notifier   notify.Notifier
}

// Option configures New.
type Option func(*options)

// WithVersion sets the service version reported to telemetry.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithDryRun evaluates alerts without saving state or posting to Slack.
func WithDryRun(dryRun bool) Option {
	return func(o *options) { o.dryRun = dryRun }
}

// WithLogger replaces the logger built from the logging config.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSecretsAPI replaces the Secret Manager client.
func WithSecretsAPI(api secrets.API) Option {
	return func(o *options) { o.secretsAPI = api }
}

// WithStore replaces the configured state backend.
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// WithNotifier posts every notification through n instead of Slack.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// New builds a Runtime from cfg. On error, anything already opened is
// closed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (rt *Runtime, err error) {
	o := &options{version: "dev"}
	for _, opt := range opts {
		opt(o)
	}

	rt = &Runtime{Config: cfg, Log: o.logger}
	if rt.Log == nil {
		rt.Log = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	defer func() {
		if err != nil {
			_ = rt.Close(ctx)
			rt = nil
		}
	}()

	rt.Telemetry, err = telemetry.Setup(ctx, &cfg.Telemetry, o.version)
	if err != nil {
		return rt, fmt.Errorf("setting up telemetry: %w", err)
	}

	api := o.secretsAPI
	if api == nil {
		gcp, gcpErr := secrets.NewGCPClient(ctx)
		if gcpErr != nil {
			return rt, gcpErr
		}
		rt.closers = append(rt.closers, gcp)
		api = gcp
	}
	manager := secrets.NewManager(api, rt.Log)

	rt.Store = o.store
	if rt.Store == nil {
		rt.Store, err = openStore(ctx, cfg, manager)
		if err != nil {
			return rt, err
		}
		rt.closers = append(rt.closers, rt.Store)
	}

	var connector *notify.Connector
	switch {
	case o.dryRun:
		connector = notify.NewStaticConnector(notify.NewNoOpNotifier(rt.Log))
	case o.notifier != nil:
		connector = notify.NewStaticConnector(o.notifier)
	default:
		connector = notify.NewConnector(cfg.Slack, manager, rt.Log)
	}

	rt.Engine = engine.NewEngine(rt.Store, connector,
		engine.WithLogger(rt.Log),
		engine.WithChannel(cfg.Slack.Channel),
		engine.WithDefaultProject(cfg.State.ProjectID),
		engine.WithDryRun(o.dryRun),
	)

	rt.Log.Debug("runtime ready",
		"state_backend", cfg.State.Backend,
		"channel", cfg.Slack.Channel,
		"telemetry", rt.Telemetry.Enabled(),
		"dry_run", o.dryRun,
	)

	return rt, nil
}

func openStore(ctx context.Context, cfg *config.Config, manager *secrets.Manager) (store.Store, error) {
	switch cfg.State.Backend {
	case config.BackendPostgres:
		pg, err := store.NewPostgresStore(ctx, cfg.Database.ConnString(), cfg.Database.PoolSize)
		if err != nil {
			return nil, fmt.Errorf("opening postgres state store: %w", err)
		}
		if _, err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrating postgres state store: %w", err)
		}
		return pg, nil
	default:
		return store.NewSecretStore(manager, cfg.State.ProjectID), nil
	}
}

// Flush exports buffered telemetry.
func (rt *Runtime) Flush(ctx context.Context) error {
	if rt.Telemetry == nil {
		return nil
	}
	return rt.Telemetry.ForceFlush(ctx)
}

// Close releases clients in reverse order of creation and shuts down
// telemetry.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i].Close())
	}
	rt.closers = nil

	if rt.Telemetry != nil {
		errs = append(errs, rt.Telemetry.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

// Lazy builds a Runtime on first use. A failed build is retried by the next
// caller; a successful one is kept for the life of the process.
type Lazy struct {
	build func(ctx context.Context) (*Runtime, error)

	mu sync.Mutex
	rt *Runtime
}

// NewLazy wraps build.
func NewLazy(build func(ctx context.Context) (*Runtime, error)) *Lazy {
	return &Lazy{build: build}
}

// Get returns the Runtime, building it if needed.
func (l *Lazy) Get(ctx context.Context) (*Runtime, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rt != nil {
		return l.rt, nil
	}

	rt, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.rt = rt

	return rt, nil
}
