// Package rest exposes the graph builder over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	domainconfig "github.com/jorge6242/graph-builder-api/domain/config"
	"github.com/jorge6242/graph-builder-api/interfaces/http/rest/handlers"
	"github.com/jorge6242/graph-builder-api/interfaces/http/rest/middleware"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
	"github.com/jorge6242/graph-builder-api/pkg/observability"
)

// ReadinessCheck reports whether backing stores can serve requests
type ReadinessCheck func(ctx context.Context) error

// Options toggles optional router features
type Options struct {
	EnableCORS bool
	Debug      bool
	Readiness  ReadinessCheck
}

// Router creates and configures the HTTP router
type Router struct {
	service  handlers.GraphService
	defaults handlers.DefaultsSource
	domain   *domainconfig.DomainConfig
	metrics  *observability.Collector
	logger   *zap.Logger
	options  Options
}

// NewRouter creates a new router instance
func NewRouter(
	service handlers.GraphService,
	defaults handlers.DefaultsSource,
	domain *domainconfig.DomainConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
	options Options,
) *Router {
	return &Router{
		service:  service,
		defaults: defaults,
		domain:   domain,
		metrics:  metrics,
		logger:   logger,
		options:  options,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(rt.logger, rt.options.Debug)

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Tracing(otel.GetTracerProvider()))
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.options.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:8000"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}
	router.Get("/swagger/doc.json", rt.swaggerDoc)

	router.Route("/v1", func(r chi.Router) {
		r.Use(errorHandler.Middleware)

		graphHandler := handlers.NewGraphHandler(rt.service, rt.defaults, rt.domain, errorHandler, rt.logger)
		r.Route("/graphs", func(r chi.Router) {
			r.Post("/", graphHandler.CreateGraph)
			r.Get("/{graphID}", graphHandler.GetGraph)
			r.Post("/{graphID}/topics", graphHandler.AddTopics)
			r.Get("/{graphID}/topics/{topicID}/related", graphHandler.RelatedTopics)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// readinessCheck reports 503 while a backing store is unreachable
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.options.Readiness != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.options.Readiness(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// swaggerDoc serves the OpenAPI document registered by the docs package
func (rt *Router) swaggerDoc(w http.ResponseWriter, req *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "no api documentation registered"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
