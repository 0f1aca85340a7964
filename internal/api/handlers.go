package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/core"
)

type APIHandler struct {
	recommendations *core.RecommendationService
	metrics         core.MetricsStore
	log             *zap.Logger
}

func NewAPIHandler(rs *core.RecommendationService, metrics core.MetricsStore, log *zap.Logger) *APIHandler {
	return &APIHandler{recommendations: rs, metrics: metrics, log: log}
}

type RecommendationRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

func (h *APIHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "Query is required", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		req.UserID = "demo_user"
	}

	result := h.recommendations.GetRecommendations(r.Context(), req.Query, req.UserID)
	writeJSON(w, http.StatusOK, result)
}

type PreferenceRequest struct {
	UserID  string       `json:"user_id"`
	Product core.Product `json:"product"`
	Liked   bool         `json:"liked"`
}

func (h *APIHandler) PreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var req PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Product.ID == "" {
		http.Error(w, "user_id and product.product_id are required", http.StatusBadRequest)
		return
	}

	if err := h.recommendations.UpdatePreferences(r.Context(), req.UserID, req.Product, req.Liked); err != nil {
		h.log.Error("failed to update preferences",
			zap.String("user_id", req.UserID), zap.Error(err))
		http.Error(w, "Failed to update preferences", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	profile, err := h.recommendations.Profile(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to load profile", zap.String("user_id", userID), zap.Error(err))
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *APIHandler) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	entries, err := h.metrics.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to read metrics", zap.Error(err))
		http.Error(w, "Failed to read metrics", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []core.MetricsEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
