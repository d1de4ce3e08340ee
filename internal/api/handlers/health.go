package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// readyTimeout bounds each dependency check made by Readyz.
const readyTimeout = 3 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is a named dependency Readyz must reach.
type Check struct {
	Name   string
	Pinger Pinger
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	checks []Check
}

// NewHealthHandler creates a HealthHandler that is ready when every check
// pings. Checks with a nil Pinger are ignored.
func NewHealthHandler(checks ...Check) *HealthHandler {
	h := &HealthHandler{}
	for _, c := range checks {
		if c.Pinger != nil {
			h.checks = append(h.checks, c)
		}
	}
	return h
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 if every dependency is reachable. Otherwise it returns
// 503 naming the checks that failed.
func (h *HealthHandler) Readyz(c echo.Context) error {
	var failed []string
	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
		err := check.Pinger.Ping(ctx)
		cancel()
		if err != nil {
			failed = append(failed, check.Name)
		}
	}

	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "unavailable", Failed: failed})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}
