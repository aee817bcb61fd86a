package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appservices "github.com/jorge6242/graph-builder-api/application/services"
	domainconfig "github.com/jorge6242/graph-builder-api/domain/config"
	"github.com/jorge6242/graph-builder-api/domain/core/valueobjects"
	domainservices "github.com/jorge6242/graph-builder-api/domain/services"
	"github.com/jorge6242/graph-builder-api/infrastructure/config"
	"github.com/jorge6242/graph-builder-api/infrastructure/persistence/memory"
	"github.com/jorge6242/graph-builder-api/interfaces/http/rest/handlers"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
	"github.com/jorge6242/graph-builder-api/pkg/observability"

	_ "github.com/jorge6242/graph-builder-api/docs"
)

type staticDefaults config.RelationshipDefaults

func (d staticDefaults) RelationshipDefaults() config.RelationshipDefaults {
	return config.RelationshipDefaults(d)
}

var defaultDefaults = staticDefaults{Strategy: domainservices.DefaultStrategyName, Threshold: 0.1}

func newTestServer(t *testing.T, defaults handlers.DefaultsSource, domain *domainconfig.DomainConfig) http.Handler {
	t.Helper()
	if domain == nil {
		domain = domainconfig.DefaultDomainConfig()
	}
	service := appservices.NewGraphService(
		memory.NewStore(),
		domainservices.NewRelationshipGenerator(nil),
		valueobjects.UUIDGenerator{},
		domain,
		zap.NewNop(),
	)
	return NewRouter(service, defaults, domain, observability.NewCollector("test"), zap.NewNop(), Options{EnableCORS: true}).Setup()
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateGraphUsesDefaults(t *testing.T) {
	server := newTestServer(t, defaultDefaults, nil)

	rec := do(t, server, http.MethodPost, "/v1/graphs", `{"name":"PR","topics":["Digital PR","PR Strategy","SEO","digital pr"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[handlers.GraphResponse](t, rec)
	assert.NotEmpty(t, resp.GraphID)
	assert.Equal(t, handlers.GraphStats{
		TopicsCreated: 3,
		EdgesCreated:  1,
		Strategy:      domainservices.DefaultStrategyName,
		Threshold:     0.1,
	}, resp.Stats)
}

func TestConfiguredDefaultsApply(t *testing.T) {
	server := newTestServer(t, staticDefaults{Strategy: domainservices.DefaultStrategyName, Threshold: 0.5}, nil)

	rec := do(t, server, http.MethodPost, "/v1/graphs", `{"topics":["Digital PR","PR Strategy"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[handlers.GraphResponse](t, rec)
	assert.Equal(t, 0.5, resp.Stats.Threshold)
	assert.Equal(t, 0, resp.Stats.EdgesCreated)

	rec = do(t, server, http.MethodPost, "/v1/graphs", `{"topics":["Digital PR","PR Strategy"],"threshold":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp = decode[handlers.GraphResponse](t, rec)
	assert.Equal(t, 0.0, resp.Stats.Threshold, "an explicit zero is not replaced")
	assert.Equal(t, 1, resp.Stats.EdgesCreated)
}

func TestCreateGraphEmptyStrategyUsesDefault(t *testing.T) {
	server := newTestServer(t, defaultDefaults, nil)

	rec := do(t, server, http.MethodPost, "/v1/graphs", `{"topics":["Digital PR","PR Strategy"],"strategy":""}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[handlers.GraphResponse](t, rec)
	assert.Equal(t, domainservices.DefaultStrategyName, resp.Stats.Strategy)
	assert.Equal(t, 1, resp.Stats.EdgesCreated)

	graphID := resp.GraphID
	rec = do(t, server, http.MethodPost, "/v1/graphs/"+graphID+"/topics", `{"topics":["SEO"],"strategy":""}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, domainservices.DefaultStrategyName, decode[handlers.GraphResponse](t, rec).Stats.Strategy)
}

func TestCreateGraphRejectsInput(t *testing.T) {
	domain := domainconfig.DefaultDomainConfig()
	domain.MaxTopicsPerGraph = 3
	server := newTestServer(t, defaultDefaults, domain)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty body", "", apperrors.CodeInvalidInput},
		{"malformed", `{"topics":`, apperrors.CodeInvalidInput},
		{"unknown field", `{"topics":["a","b"],"color":"red"}`, apperrors.CodeInvalidInput},
		{"trailing data", `{"topics":["a","b"]} {}`, apperrors.CodeInvalidInput},
		{"missing topics", `{}`, apperrors.CodeInvalidInput},
		{"one topic", `{"topics":["AI"]}`, apperrors.CodeInvalidInput},
		{"blank topic", `{"topics":["AI","  "]}`, apperrors.CodeInvalidInput},
		{"long topic", `{"topics":["AI","` + strings.Repeat("x", 81) + `"]}`, apperrors.CodeInvalidInput},
		{"long name", `{"name":"` + strings.Repeat("n", 256) + `","topics":["a","b"]}`, apperrors.CodeInvalidInput},
		{"threshold too high", `{"topics":["a","b"],"threshold":1.01}`, apperrors.CodeInvalidInput},
		{"negative threshold", `{"topics":["a","b"],"threshold":-0.1}`, apperrors.CodeInvalidInput},
		{"too many topics", `{"topics":["a","b","c","d"]}`, apperrors.CodeInvalidInput},
		{"unknown strategy", `{"topics":["a","b"],"strategy":"cosine"}`, apperrors.CodeUnknownStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, server, http.MethodPost, "/v1/graphs", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decode[apperrors.ErrorResponse](t, rec)
			assert.True(t, resp.Error)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestGraphLifecycle(t *testing.T) {
	server := newTestServer(t, defaultDefaults, nil)

	rec := do(t, server, http.MethodPost, "/v1/graphs", `{"topics":["Digital PR","PR Strategy","SEO"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	graphID := decode[handlers.GraphResponse](t, rec).GraphID

	rec = do(t, server, http.MethodPost, "/v1/graphs/"+graphID+"/topics", `{"topics":["PR Outreach","seo"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[handlers.GraphResponse](t, rec)
	assert.Equal(t, graphID, added.GraphID)
	assert.Equal(t, 1, added.Stats.TopicsCreated)
	assert.Equal(t, 2, added.Stats.EdgesCreated)

	rec = do(t, server, http.MethodGet, "/v1/graphs/"+graphID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[handlers.GraphDetailResponse](t, rec)
	assert.Len(t, detail.Nodes, 4)
	assert.Len(t, detail.Edges, 3)

	ids := make(map[string]string, len(detail.Nodes))
	for _, node := range detail.Nodes {
		ids[node.Label] = node.ID
	}
	for _, edge := range detail.Edges {
		assert.Less(t, edge.Source, edge.Target)
		assert.Equal(t, 0.3333, edge.Score)
	}

	rec = do(t, server, http.MethodGet, "/v1/graphs/"+graphID+"/topics/"+ids["Digital PR"]+"/related?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	related := decode[handlers.RelatedTopicsResponse](t, rec)
	assert.Equal(t, handlers.NodeResponse{ID: ids["Digital PR"], Label: "Digital PR"}, related.Topic)
	require.Len(t, related.Related, 1)
	assert.Equal(t, 0.3333, related.Related[0].Score)

	rec = do(t, server, http.MethodGet, "/v1/graphs/"+graphID+"/topics/"+ids["SEO"]+"/related", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, mustField(t, rec.Body.Bytes(), "related"))
}

func mustField(t *testing.T, body []byte, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return string(m[field])
}

func TestRelatedTopicsRejectsBadLimit(t *testing.T) {
	server := newTestServer(t, defaultDefaults, nil)

	rec := do(t, server, http.MethodGet, "/v1/graphs/g/topics/t/related?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decode[apperrors.ErrorResponse](t, rec).Code)
}

func TestNotFound(t *testing.T) {
	server := newTestServer(t, defaultDefaults, nil)
	missing := "7b0b4e4c-3f4e-4a53-9a11-6f1a0e3c2d10"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   string
	}{
		{"get graph", http.MethodGet, "/v1/graphs/" + missing, "", apperrors.CodeGraphNotFound},
		{"get malformed id", http.MethodGet, "/v1/graphs/not-a-uuid", "", apperrors.CodeGraphNotFound},
		{"add topics", http.MethodPost, "/v1/graphs/" + missing + "/topics", `{"topics":["SEO"]}`, apperrors.CodeGraphNotFound},
		{"related", http.MethodGet, "/v1/graphs/" + missing + "/topics/" + missing + "/related", "", apperrors.CodeTopicNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, server, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, tt.code, decode[apperrors.ErrorResponse](t, rec).Code)
		})
	}
}

// failingService returns err from every operation
type failingService struct {
	err error
}

func (s failingService) CreateGraph(ctx context.Context, in appservices.CreateGraphInput) (*appservices.GraphResult, error) {
	return nil, s.err
}

func (s failingService) AddTopics(ctx context.Context, graphID string, in appservices.AddTopicsInput) (*appservices.GraphResult, error) {
	return nil, s.err
}

func (s failingService) GetGraph(ctx context.Context, graphID string) (*appservices.GraphDetail, error) {
	return nil, s.err
}

func (s failingService) RelatedTopics(ctx context.Context, graphID, topicID string, limit int) (*appservices.RelatedTopicsResult, error) {
	return nil, s.err
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown strategy", apperrors.UnknownStrategy("cosine"), http.StatusBadRequest, apperrors.CodeUnknownStrategy},
		{"invalid input", apperrors.InvalidInput("bad"), http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"graph not found", apperrors.GraphNotFound("g"), http.StatusNotFound, apperrors.CodeGraphNotFound},
		{"topic not found", apperrors.TopicNotFound("t"), http.StatusNotFound, apperrors.CodeTopicNotFound},
		{"duplicate", apperrors.DuplicateRecord("topic", nil), http.StatusConflict, apperrors.CodeDuplicateRecord},
		{"invariant", apperrors.InvariantViolation("bad edge"), http.StatusInternalServerError, apperrors.CodeInvariantViolation},
		{"store unavailable", apperrors.StoreUnavailable("postgres", nil), http.StatusServiceUnavailable, apperrors.CodeStoreUnavailable},
		{"database", apperrors.NewDatabaseError("commit", errors.New("io")), http.StatusInternalServerError, apperrors.CodeDatabaseError},
		{"wrapped", apperrors.Wrap(apperrors.GraphNotFound("g"), "add topics"), http.StatusNotFound, apperrors.CodeGraphNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewRouter(failingService{err: tt.err}, defaultDefaults, nil, nil, zap.NewNop(), Options{}).Setup()

			rec := do(t, server, http.MethodGet, "/v1/graphs/g", "")
			assert.Equal(t, tt.status, rec.Code)
			resp := decode[apperrors.ErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestOperationalEndpoints(t *testing.T) {
	server := newTestServer(t, defaultDefaults, nil)

	rec := do(t, server, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"ok"`, mustField(t, rec.Body.Bytes(), "status"))

	rec = do(t, server, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	do(t, server, http.MethodGet, "/v1/graphs/missing", "")
	rec = do(t, server, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/v1/graphs/{graphID}"`)

	rec = do(t, server, http.MethodGet, "/swagger/doc.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/graphs/{graphID}/topics/{topicID}/related")
}

func TestReadinessFailure(t *testing.T) {
	server := NewRouter(failingService{}, defaultDefaults, nil, nil, zap.NewNop(), Options{
		Readiness: func(ctx context.Context) error { return errors.New("db down") },
	}).Setup()

	rec := do(t, server, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
