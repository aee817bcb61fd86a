// Package handlers serves the graph endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appservices "github.com/jorge6242/graph-builder-api/application/services"
	domainconfig "github.com/jorge6242/graph-builder-api/domain/config"
	"github.com/jorge6242/graph-builder-api/infrastructure/config"
	"github.com/jorge6242/graph-builder-api/interfaces/http/validation"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// GraphService is the application API the handlers drive
type GraphService interface {
	CreateGraph(ctx context.Context, in appservices.CreateGraphInput) (*appservices.GraphResult, error)
	AddTopics(ctx context.Context, graphID string, in appservices.AddTopicsInput) (*appservices.GraphResult, error)
	GetGraph(ctx context.Context, graphID string) (*appservices.GraphDetail, error)
	RelatedTopics(ctx context.Context, graphID, topicID string, limit int) (*appservices.RelatedTopicsResult, error)
}

// DefaultsSource supplies the strategy and threshold for requests that omit them
type DefaultsSource interface {
	RelationshipDefaults() config.RelationshipDefaults
}

// GraphHandler handles graph-related HTTP requests
type GraphHandler struct {
	service   GraphService
	defaults  DefaultsSource
	domain    *domainconfig.DomainConfig
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	logger    *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(
	service GraphService,
	defaults DefaultsSource,
	domain *domainconfig.DomainConfig,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *GraphHandler {
	if domain == nil {
		domain = domainconfig.DefaultDomainConfig()
	}
	return &GraphHandler{
		service:   service,
		defaults:  defaults,
		domain:    domain,
		validator: validation.GetValidator(),
		errors:    errorHandler,
		logger:    logger,
	}
}

// CreateGraph handles POST /v1/graphs
// @Summary Create a knowledge graph
// @Description Deduplicates the topics, stores one node per unique label and an edge for every pair scoring at or above the threshold
// @Tags graphs
// @Accept json
// @Produce json
// @Param request body CreateGraphRequest true "Graph creation request"
// @Success 201 {object} GraphResponse "Graph created"
// @Failure 400 {object} apperrors.ErrorResponse "Invalid input or unknown strategy"
// @Failure 503 {object} apperrors.ErrorResponse "Store unavailable"
// @Failure 500 {object} apperrors.ErrorResponse "Internal server error"
// @Router /graphs [post]
func (h *GraphHandler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	var req CreateGraphRequest
	if err := h.decode(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := h.checkTopicCount(len(req.Topics)); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	strategy, threshold := h.resolveDefaults(req.Strategy, req.Threshold)
	result, err := h.service.CreateGraph(r.Context(), appservices.CreateGraphInput{
		Name:      req.Name,
		Topics:    req.Topics,
		Strategy:  strategy,
		Threshold: threshold,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, newGraphResponse(result))
}

// GetGraph handles GET /v1/graphs/{graphID}
// @Summary Get graph by ID
// @Description Returns every node and edge of the graph
// @Tags graphs
// @Produce json
// @Param graphID path string true "Graph UUID"
// @Success 200 {object} GraphDetailResponse "Graph detail"
// @Failure 404 {object} apperrors.ErrorResponse "Graph not found"
// @Failure 500 {object} apperrors.ErrorResponse "Internal server error"
// @Router /graphs/{graphID} [get]
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")

	detail, err := h.service.GetGraph(r.Context(), graphID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, newGraphDetailResponse(detail))
}

// AddTopics handles POST /v1/graphs/{graphID}/topics
// @Summary Add topics to a graph
// @Description Adds the labels not already in the graph and scores them against every topic, old and new
// @Tags graphs
// @Accept json
// @Produce json
// @Param graphID path string true "Graph UUID"
// @Param request body AddTopicsRequest true "Topics to add"
// @Success 201 {object} GraphResponse "Topics added"
// @Failure 400 {object} apperrors.ErrorResponse "Invalid input or unknown strategy"
// @Failure 404 {object} apperrors.ErrorResponse "Graph not found"
// @Failure 503 {object} apperrors.ErrorResponse "Store unavailable"
// @Failure 500 {object} apperrors.ErrorResponse "Internal server error"
// @Router /graphs/{graphID}/topics [post]
func (h *GraphHandler) AddTopics(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")

	var req AddTopicsRequest
	if err := h.decode(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := h.checkTopicCount(len(req.Topics)); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	strategy, threshold := h.resolveDefaults(req.Strategy, req.Threshold)
	result, err := h.service.AddTopics(r.Context(), graphID, appservices.AddTopicsInput{
		Topics:    req.Topics,
		Strategy:  strategy,
		Threshold: threshold,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, newGraphResponse(result))
}

// RelatedTopics handles GET /v1/graphs/{graphID}/topics/{topicID}/related
// @Summary Get related topics
// @Description Topics sharing an edge with the given topic, highest score first
// @Tags graphs
// @Produce json
// @Param graphID path string true "Graph UUID"
// @Param topicID path string true "Topic UUID"
// @Param limit query int false "Maximum results (default 10, max 50)"
// @Success 200 {object} RelatedTopicsResponse "Related topics"
// @Failure 400 {object} apperrors.ErrorResponse "Invalid limit"
// @Failure 404 {object} apperrors.ErrorResponse "Topic not found"
// @Failure 500 {object} apperrors.ErrorResponse "Internal server error"
// @Router /graphs/{graphID}/topics/{topicID}/related [get]
func (h *GraphHandler) RelatedTopics(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	topicID := chi.URLParam(r, "topicID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.errors.Handle(w, r, apperrors.InvalidInput("limit must be an integer, got %q", raw))
			return
		}
		limit = parsed
	}

	result, err := h.service.RelatedTopics(r.Context(), graphID, topicID, limit)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, newRelatedTopicsResponse(result))
}

// decode reads a JSON body strictly and validates it
func (h *GraphHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperrors.InvalidInput("request body is required")
		case errors.As(err, &maxBytesErr):
			return apperrors.InvalidInput("request body exceeds %d bytes", maxBytesErr.Limit)
		default:
			return apperrors.InvalidInput("malformed request body: %s", err.Error())
		}
	}
	if decoder.More() {
		return apperrors.InvalidInput("request body must hold a single JSON object")
	}
	return h.validator.Validate(dst)
}

func (h *GraphHandler) checkTopicCount(n int) error {
	if n > h.domain.MaxTopicsPerGraph {
		return apperrors.InvalidInput("at most %d topics may be sent, got %d", h.domain.MaxTopicsPerGraph, n)
	}
	return nil
}

// resolveDefaults fills an omitted strategy or threshold from configuration.
// An empty strategy string counts as omitted.
func (h *GraphHandler) resolveDefaults(strategy *string, threshold *float64) (string, float64) {
	defaults := h.defaults.RelationshipDefaults()
	if strategy != nil && *strategy != "" {
		defaults.Strategy = *strategy
	}
	if threshold != nil {
		defaults.Threshold = *threshold
	}
	return defaults.Strategy, defaults.Threshold
}

func (h *GraphHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
