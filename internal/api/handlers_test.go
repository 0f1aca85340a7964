package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/core"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}

type stubVectorStore struct {
	hits []core.Candidate
}

func (s stubVectorStore) Query(context.Context, []float32, int) ([]core.Candidate, error) {
	return s.hits, nil
}

type stubGenerator struct{}

func (stubGenerator) Complete(context.Context, string, int, float32) (string, error) {
	return "", errors.New("generation disabled in tests")
}

type stubPrefStore struct {
	profiles map[string]core.UserProfile
}

func (s *stubPrefStore) GetProfile(_ context.Context, userID string) (core.UserProfile, error) {
	return s.profiles[userID], nil
}

func (s *stubPrefStore) SaveProfile(_ context.Context, userID string, p core.UserProfile) error {
	s.profiles[userID] = p
	return nil
}

type stubMetricsStore struct {
	entries []core.MetricsEntry
}

func (s *stubMetricsStore) Append(_ context.Context, e core.MetricsEntry) error {
	s.entries = append(s.entries, e)
	return nil
}

func (s *stubMetricsStore) Recent(_ context.Context, limit int) ([]core.MetricsEntry, error) {
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

func newTestServer(t *testing.T) (http.Handler, *stubPrefStore, *stubMetricsStore) {
	t.Helper()
	log := zap.NewNop()

	price := 99.0
	hits := []core.Candidate{
		{
			ID:    "p1-core",
			Score: 0.9,
			Metadata: core.CandidateMetadata{
				ProductID: "p1", Name: "WH-1000", Category: "Headphones",
				Brand: "Sony", Price: &price, Type: core.ChunkCoreInfo,
			},
		},
	}

	prefs := &stubPrefStore{profiles: make(map[string]core.UserProfile)}
	metrics := &stubMetricsStore{}

	retriever := core.NewRetriever(stubEmbedder{}, stubVectorStore{hits: hits}, 2, time.Second, log)
	composer := core.NewComposer(stubGenerator{}, time.Second, log)
	svc := core.NewRecommendationService(retriever, composer, prefs, metrics, 15, 15, log)

	return NewRouter(NewAPIHandler(svc, metrics, log)), prefs, metrics
}

func TestRecommendationsEndpoint(t *testing.T) {
	srv, _, metrics := newTestServer(t)

	body := `{"query": "wireless headphones", "user_id": "u1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/recommendations", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var result core.RecommendationResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Summary)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "p1", result.Products[0].ProductID)

	require.Len(t, metrics.entries, 1)
	assert.Equal(t, "wireless headphones", metrics.entries[0].Query)
}

func TestRecommendationsEndpointDefaultsUserID(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/recommendations",
		strings.NewReader(`{"query": "headphones"}`))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRecommendationsEndpointRejectsBadInput(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty query", `{"query": "", "user_id": "u1"}`},
		{"not json", `not json at all`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/recommendations", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			srv.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestPreferencesEndpoint(t *testing.T) {
	srv, prefs, _ := newTestServer(t)

	payload := map[string]interface{}{
		"user_id": "u1",
		"liked":   true,
		"product": map[string]interface{}{
			"product_id": "p1",
			"name":       "WH-1000",
			"category":   "Headphones",
			"brand":      "Sony",
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/preferences", bytes.NewReader(raw))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	profile := prefs.profiles["u1"]
	assert.Equal(t, []string{"Sony"}, profile.PreferredBrands)
	assert.Equal(t, []string{"Headphones"}, profile.PreferredCategories)
}

func TestPreferencesEndpointRejectsMissingFields(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/preferences",
		strings.NewReader(`{"liked": true, "product": {"product_id": "p1"}}`))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProfileEndpoint(t *testing.T) {
	srv, prefs, _ := newTestServer(t)
	prefs.profiles["u1"] = core.UserProfile{PreferredBrands: []string{"Sony"}}

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/profile", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var profile core.UserProfile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, []string{"Sony"}, profile.PreferredBrands)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, metrics := newTestServer(t)
	metrics.entries = []core.MetricsEntry{{ID: "m1", Query: "q"}}

	req := httptest.NewRequest(http.MethodGet, "/api/metrics?limit=1", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var entries []core.MetricsEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].ID)
}

func TestMetricsEndpointEmptyIsJSONArray(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
