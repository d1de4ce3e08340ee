package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRouteOf(t *testing.T) {
	t.Parallel()

	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/wp-login.php", http.NoBody), httptest.NewRecorder())
	assert.Equal(t, unmatchedRoute, routeOf(c))

	c.SetPath("/api/v1/state")
	assert.Equal(t, "/api/v1/state", routeOf(c))
}

func TestIsProbe(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"/healthz", "/readyz", "/metrics"} {
		assert.True(t, isProbe(p), p)
	}
	assert.False(t, isProbe("/api/v1/pubsub/push"))
	assert.False(t, isProbe(unmatchedRoute))
}
