// Package api assembles the push server: Echo with the request middleware,
// probe and metrics routes, and the Huma operations from handlers.
package api

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/gcp-budget-notifier/internal/api/handlers"
	"github.com/donaldgifford/gcp-budget-notifier/internal/api/middleware"
)

// Engine is what the server needs from the throttle engine.
type Engine interface {
	handlers.AlertHandler
	handlers.StateProvider
}

// Config wires the server's dependencies.
type Config struct {
	Engine Engine
	// State is pinged by /readyz.
	State handlers.Pinger
	Log   *slog.Logger
	// Resource is the default topic for push requests.
	Resource string
	Version  string
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// NewServer returns an Echo instance serving the notifier API.
func NewServer(cfg Config) *echo.Echo {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(
		middleware.Recovery(cfg.Log),
		middleware.RequestLog(cfg.Log),
		middleware.Metrics(),
		middleware.Tracing(cfg.TracerProvider),
	)

	health := handlers.NewHealthHandler(handlers.Check{Name: "state", Pinger: cfg.State})
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	humaAPI := humaecho.New(e, huma.DefaultConfig("GCP Budget Notifier", cfg.Version))
	handlers.RegisterPushRoutes(humaAPI, handlers.NewPushHandler(cfg.Engine, cfg.Resource))
	handlers.RegisterStateRoutes(humaAPI, handlers.NewStateHandler(cfg.Engine))

	return e
}
