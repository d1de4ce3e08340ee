package middleware

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		status        int
		providedReqID string
		wantLogFields []string
	}{
		{
			name:   "logs GET request with generated ID",
			method: http.MethodGet,
			path:   "/api/v1/state",
			status: http.StatusOK,
			wantLogFields: []string{
				"method=GET",
				"path=/api/v1/state",
				"status=200",
				"duration_ms=",
				"request_id=",
			},
		},
		{
			name:   "logs POST request",
			method: http.MethodPost,
			path:   "/api/v1/pubsub/push",
			status: http.StatusNoContent,
			wantLogFields: []string{
				"method=POST",
				"status=204",
				"level=INFO",
			},
		},
		{
			name:   "logs server errors at warn",
			method: http.MethodPost,
			path:   "/api/v1/pubsub/push",
			status: http.StatusInternalServerError,
			wantLogFields: []string{
				"level=WARN",
				"status=500",
			},
		},
		{
			name:          "uses provided request ID",
			method:        http.MethodGet,
			path:          "/test",
			status:        http.StatusOK,
			providedReqID: "custom-req-id-123",
			wantLogFields: []string{
				"request_id=custom-req-id-123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			e := echo.New()
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.providedReqID != "" {
				req.Header.Set(requestIDHeader, tt.providedReqID)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := RequestLog(logger)(func(c echo.Context) error {
				return c.NoContent(tt.status)
			})

			err := handler(c)
			require.NoError(t, err)

			logOutput := buf.String()
			for _, field := range tt.wantLogFields {
				assert.Contains(t, logOutput, field)
			}

			// Response should have the request ID header.
			respID := rec.Header().Get(requestIDHeader)
			assert.NotEmpty(t, respID)

			if tt.providedReqID != "" {
				assert.Equal(t, tt.providedReqID, respID)
			}

			// Echo and request contexts should both carry the ID.
			assert.Equal(t, respID, c.Get("request_id"))
			assert.Equal(t, respID, RequestID(c.Request().Context()))
		})
	}
}

func TestRequestLog_ProbeSampling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		statuses []int
		// logged reports, per request, whether it should produce a line.
		logged []bool
	}{
		{
			name:     "healthz logs only its first success",
			path:     "/healthz",
			statuses: []int{http.StatusOK, http.StatusOK, http.StatusOK},
			logged:   []bool{true, false, false},
		},
		{
			name:     "readyz failures are always logged",
			path:     "/readyz",
			statuses: []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable},
			logged:   []bool{true, true},
		},
		{
			name:     "failure after suppressed successes",
			path:     "/readyz",
			statuses: []int{http.StatusOK, http.StatusOK, http.StatusServiceUnavailable, http.StatusOK},
			logged:   []bool{true, false, true, false},
		},
		{
			name:     "metrics scrapes are sampled",
			path:     "/metrics",
			statuses: []int{http.StatusOK, http.StatusOK},
			logged:   []bool{true, false},
		},
		{
			name:     "api paths are never sampled",
			path:     "/api/v1/state",
			statuses: []int{http.StatusOK, http.StatusOK, http.StatusNotFound},
			logged:   []bool{true, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			call := 0
			handler := RequestLog(logger)(func(c echo.Context) error {
				status := tt.statuses[call]
				call++
				return c.NoContent(status)
			})

			e := echo.New()
			for i, status := range tt.statuses {
				before := buf.Len()

				req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
				require.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))

				if !tt.logged[i] {
					assert.Equal(t, before, buf.Len(), "request %d should not be logged", i)
					continue
				}

				line := buf.String()[before:]
				assert.Contains(t, line, "path="+tt.path, "request %d", i)
				assert.Contains(t, line, fmt.Sprintf("status=%d", status), "request %d", i)
				if status >= http.StatusInternalServerError {
					assert.Contains(t, line, "level=WARN", "request %d", i)
				}
			}
		})
	}
}

func TestRequestID_Missing(t *testing.T) {
	t.Parallel()

	assert.Empty(t, RequestID(httptest.NewRequest(http.MethodGet, "/", http.NoBody).Context()))
}

func TestRequestLog_HandlerSeesRequestID(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pubsub/push", http.NoBody)
	req.Header.Set(requestIDHeader, "push-123")
	rec := httptest.NewRecorder()

	var seen string
	handler := RequestLog(logger)(func(c echo.Context) error {
		seen = RequestID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, "push-123", seen)
}
