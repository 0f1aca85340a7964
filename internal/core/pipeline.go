package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTopK is the retrieval fan-out width per probe.
	DefaultTopK = 15
	// maxResponseProducts bounds the deduplicated product list returned to
	// the caller.
	maxResponseProducts = 8
	// maxMetricsProductIDs bounds the product ids recorded per metrics entry.
	maxMetricsProductIDs = 10

	noResultsSummary = "No relevant products found."
)

// RecommendationService wires the full query pipeline: profile load, intent
// extraction, retrieval, reranking, composition and metrics. No failure
// inside it is fatal; every stage degrades to a well-defined default.
type RecommendationService struct {
	retriever *Retriever
	composer  *Composer
	prefs     PreferenceStore
	metrics   MetricsStore
	topK      int
	rerankCap int
	log       *zap.Logger
}

func NewRecommendationService(retriever *Retriever, composer *Composer, prefs PreferenceStore, metrics MetricsStore, topK, rerankCap int, log *zap.Logger) *RecommendationService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if rerankCap <= 0 {
		rerankCap = DefaultRerankCap
	}
	return &RecommendationService{
		retriever: retriever,
		composer:  composer,
		prefs:     prefs,
		metrics:   metrics,
		topK:      topK,
		rerankCap: rerankCap,
		log:       log,
	}
}

// GetRecommendations runs the pipeline for one query. It always returns a
// usable result, even when retrieval comes up empty or generation fails.
func (s *RecommendationService) GetRecommendations(ctx context.Context, query, userID string) RecommendationResult {
	start := time.Now()

	profile, err := s.prefs.GetProfile(ctx, userID)
	if err != nil {
		// Fail open: a broken profile read must not block recommendations.
		s.log.Warn("profile load failed, using default profile",
			zap.String("user_id", userID), zap.Error(err))
		profile = UserProfile{}
	}

	intent := ExtractIntent(query)
	candidates := s.retriever.Retrieve(ctx, query, profile, intent, s.topK)
	if len(candidates) == 0 {
		s.appendMetrics(ctx, query, intent, nil, start)
		return RecommendationResult{
			Summary:  noResultsSummary,
			Products: []ProductSummary{},
			Structured: Recommendation{
				Summary:     noResultsSummary,
				Comparisons: []Comparison{},
				TopPick:     noProductSentinel,
				BudgetPick:  noProductSentinel,
			},
		}
	}

	ranked := Rerank(candidates, profile, intent, s.rerankCap)
	structured := s.composer.Compose(ctx, query, ranked, intent)
	s.appendMetrics(ctx, query, intent, ranked, start)

	summary := structured.Summary
	if strings.TrimSpace(summary) == "" {
		summary = fallbackSummary
	}
	return RecommendationResult{
		Summary:    summary,
		Products:   summarizeProducts(ranked),
		Structured: structured,
	}
}

// UpdatePreferences applies a like/dislike to the user's profile and persists
// it. The read fails open; a failed write is returned to the boundary adapter.
func (s *RecommendationService) UpdatePreferences(ctx context.Context, userID string, product Product, liked bool) error {
	profile, err := s.prefs.GetProfile(ctx, userID)
	if err != nil {
		s.log.Warn("profile load failed, starting from default profile",
			zap.String("user_id", userID), zap.Error(err))
		profile = UserProfile{}
	}

	if liked {
		profile.RecordLike(product, time.Now())
	} else {
		profile.RecordDislike(product, time.Now())
	}

	if err := s.prefs.SaveProfile(ctx, userID, profile); err != nil {
		return fmt.Errorf("failed to save profile for user %s: %w", userID, err)
	}
	return nil
}

// Profile exposes the stored profile for the read-back endpoint.
func (s *RecommendationService) Profile(ctx context.Context, userID string) (UserProfile, error) {
	return s.prefs.GetProfile(ctx, userID)
}

// summarizeProducts deduplicates the ranked chunks by product id, keeping the
// best-ranked chunk per product, capped at maxResponseProducts.
func summarizeProducts(ranked []ScoredCandidate) []ProductSummary {
	seen := make(map[string]struct{})
	out := make([]ProductSummary, 0, maxResponseProducts)
	for _, c := range ranked {
		meta := c.Metadata
		if meta.ProductID == "" {
			continue
		}
		if _, ok := seen[meta.ProductID]; ok {
			continue
		}
		seen[meta.ProductID] = struct{}{}
		out = append(out, ProductSummary{
			ProductID:    meta.ProductID,
			Name:         meta.Name,
			Category:     meta.Category,
			Brand:        meta.Brand,
			Price:        meta.Price,
			Rating:       meta.Rating,
			Relevance:    c.Score,
			AvgSentiment: meta.AvgSentiment,
		})
		if len(out) == maxResponseProducts {
			break
		}
	}
	return out
}

// appendMetrics records one pipeline observation. Failures are logged and
// swallowed; metrics must never affect the user-facing response.
func (s *RecommendationService) appendMetrics(ctx context.Context, query string, intent Intent, ranked []ScoredCandidate, start time.Time) {
	entry := MetricsEntry{
		ID:              uuid.NewString(),
		Query:           query,
		Intent:          intent,
		RetrievedCount:  len(ranked),
		TopProductIDs:   topProductIDs(ranked, maxMetricsProductIDs),
		CategoriesFound: rankedCategories(ranked),
		LatencyMS:       time.Since(start).Milliseconds(),
		Timestamp:       time.Now(),
	}
	if err := s.metrics.Append(ctx, entry); err != nil {
		s.log.Warn("metrics append failed", zap.Error(err))
	}
}

func topProductIDs(ranked []ScoredCandidate, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range ranked {
		id := c.Metadata.ProductID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

func rankedCategories(ranked []ScoredCandidate) []string {
	candidates := make([]Candidate, len(ranked))
	for i, c := range ranked {
		candidates[i] = c.Candidate
	}
	return distinctCategories(candidates)
}
