package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jorge6242/graph-builder-api/pkg/observability"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	handler := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/graphs", nil))

	entries := logs.FilterMessage("HTTP request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "POST", fields["method"])
		assert.Equal(t, "/v1/graphs", fields["path"])
		assert.Equal(t, unmatchedRoute, fields["route"])
		assert.Equal(t, int64(http.StatusCreated), fields["status"])
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		level  zapcore.Level
	}{
		{"success", "/v1/graphs", http.StatusOK, zapcore.InfoLevel},
		{"client error", "/v1/graphs", http.StatusBadRequest, zapcore.WarnLevel},
		{"server error", "/v1/graphs", http.StatusServiceUnavailable, zapcore.ErrorLevel},
		{"health check", "/health", http.StatusOK, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			handler := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			if assert.Equal(t, 1, logs.Len()) {
				assert.Equal(t, tt.level, logs.All()[0].Level)
			}
		})
	}
}

func TestTracingNamesSpanAfterRoute(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	router := chi.NewRouter()
	router.Use(Tracing(provider))
	router.Get("/v1/graphs/{graphID}", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, trace.SpanContextFromContext(r.Context()).IsValid())
		w.WriteHeader(http.StatusInternalServerError)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/graphs/abc", nil))

	spans := exporter.GetSpans()
	if assert.Len(t, spans, 1) {
		assert.Equal(t, "GET /v1/graphs/{graphID}", spans[0].Name)
		assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	collector := observability.NewCollector("test")

	router := chi.NewRouter()
	router.Use(Metrics(collector))
	router.Get("/v1/graphs/{graphID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/graphs/"+id, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(
		collector.HTTPRequests.WithLabelValues("GET", "/v1/graphs/{graphID}", "404"),
	))
}
