// Package middleware provides Echo middleware for the Pub/Sub push server:
// request metrics, request logging, tracing and panic recovery.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/gcp-budget-notifier/internal/metrics"
)

// probes are served without request metrics or spans. /healthz and /readyz
// also drive an up gauge.
var probes = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
	"/metrics": nil,
}

// unmatchedRoute labels requests that hit no registered route, so scanners
// cannot grow label cardinality.
const unmatchedRoute = "unmatched"

// routeOf returns the route template c matched.
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return unmatchedRoute
}

func isProbe(route string) bool {
	_, ok := probes[route]
	return ok
}

// Metrics returns Echo middleware that records request duration and count
// by method, route template and status. Probe routes only update their up
// gauge.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := routeOf(c)

			if isProbe(route) {
				err := next(c)
				if gauge := probes[route]; gauge != nil {
					setUp(gauge, c.Response().Status)
				}
				return err
			}

			start := time.Now()
			err := next(c)

			labels := []string{c.Request().Method, route, strconv.Itoa(c.Response().Status)}
			metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()

			return err
		}
	}
}

func setUp(gauge prometheus.Gauge, status int) {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		gauge.Set(1)
		return
	}
	gauge.Set(0)
}
