package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingProvider() (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)), rec
}

func spanAttr(s sdktrace.ReadOnlySpan, key attribute.Key) attribute.Value {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestTracing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		handler    echo.HandlerFunc
		wantSpans  int
		wantName   string
		wantStatus int
		wantCode   codes.Code
	}{
		{
			name:   "records successful push",
			method: http.MethodPost,
			path:   "/api/v1/pubsub/push",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusNoContent)
			},
			wantSpans:  1,
			wantName:   "POST /api/v1/pubsub/push",
			wantStatus: http.StatusNoContent,
			wantCode:   codes.Unset,
		},
		{
			name:   "marks server errors",
			method: http.MethodPost,
			path:   "/api/v1/pubsub/push",
			handler: func(_ echo.Context) error {
				return errors.New("boom")
			},
			wantSpans:  1,
			wantName:   "POST /api/v1/pubsub/push",
			wantStatus: http.StatusInternalServerError,
			wantCode:   codes.Error,
		},
		{
			name:   "skips probes",
			method: http.MethodGet,
			path:   "/healthz",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			},
			wantSpans:  0,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tp, spans := newRecordingProvider()

			e := echo.New()
			e.Use(Tracing(tp))
			e.Add(tt.method, tt.path, tt.handler)

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			ended := spans.Ended()
			require.Len(t, ended, tt.wantSpans)
			if tt.wantSpans == 0 {
				return
			}

			s := ended[0]
			assert.Equal(t, tt.wantName, s.Name())
			assert.Equal(t, tt.wantCode, s.Status().Code)
			assert.Equal(t, int64(tt.wantStatus), spanAttr(s, "http.response.status_code").AsInt64())
		})
	}
}
