package core

import "time"

const (
	IntentGeneral    = "general"
	IntentComparison = "comparison"
)

// Intent is the structured interpretation of a free-text product query.
// It is built once per request and read-only downstream.
type Intent struct {
	Type                string   `json:"type"`
	Categories          []string `json:"categories"`
	ComparisonRequested bool     `json:"comparison_requested"`
	BudgetMentioned     bool     `json:"budget_mentioned"`
	PriceRange          *float64 `json:"price_range,omitempty"`
	SpecificFeatures    []string `json:"specific_features"`
}

// Chunk types as produced by catalog ingestion.
const (
	ChunkCoreInfo       = "core_info"
	ChunkDescription    = "description"
	ChunkSpecifications = "specifications"
	ChunkReviews        = "reviews"
)

// CandidateMetadata carries the product fields attached to a retrieved chunk.
// Price and Rating are nil when the source data had no value; they are never
// sentinel strings.
type CandidateMetadata struct {
	ProductID    string   `json:"product_id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Brand        string   `json:"brand"`
	Price        *float64 `json:"price,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	AvgSentiment float64  `json:"avg_sentiment"`
	Text         string   `json:"text"`
	Type         string   `json:"type"`
}

// Candidate is a single retrieval hit. ID is assigned by the vector store and
// is stable across probes for the same chunk.
type Candidate struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata CandidateMetadata `json:"metadata"`
}

// ScoredCandidate is a Candidate with the reranker's final score. It is
// request-scoped and never persisted.
type ScoredCandidate struct {
	Candidate
	FinalScore float64 `json:"final_score"`
}

const (
	ActionLike    = "like"
	ActionDislike = "dislike"
)

// Interaction is an append-only record of a like/dislike on a product.
type Interaction struct {
	ProductID string    `json:"product_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Brand     string    `json:"brand"`
	Price     *float64  `json:"price,omitempty"`
}

// maxInteractionHistory bounds the profile's interaction log; the oldest
// entries are evicted first.
const maxInteractionHistory = 50

// UserProfile holds a user's learned preferences. It is loaded fresh per
// request and mutated only through RecordLike/RecordDislike.
type UserProfile struct {
	PreferredCategories []string      `json:"preferred_categories"`
	PreferredBrands     []string      `json:"preferred_brands"`
	MaxPrice            *float64      `json:"max_price,omitempty"`
	MinRating           *float64      `json:"min_rating,omitempty"`
	InteractionHistory  []Interaction `json:"interaction_history"`
}

// Product is the minimal product record the preference API accepts.
type Product struct {
	ID       string   `json:"product_id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Brand    string   `json:"brand"`
	Price    *float64 `json:"price,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
}

// RecordLike updates the profile for a liked product: category and brand are
// added if absent, max_price only ever rises and min_rating only ever drops.
func (p *UserProfile) RecordLike(product Product, at time.Time) {
	if product.Category != "" && !containsString(p.PreferredCategories, product.Category) {
		p.PreferredCategories = append(p.PreferredCategories, product.Category)
	}
	if product.Brand != "" && !containsString(p.PreferredBrands, product.Brand) {
		p.PreferredBrands = append(p.PreferredBrands, product.Brand)
	}
	if product.Price != nil {
		if p.MaxPrice == nil || *product.Price > *p.MaxPrice {
			v := *product.Price
			p.MaxPrice = &v
		}
	}
	if product.Rating != nil {
		if p.MinRating == nil || *product.Rating < *p.MinRating {
			v := *product.Rating
			p.MinRating = &v
		}
	}
	p.appendInteraction(product, ActionLike, at)
}

// RecordDislike removes the product's brand from the preferred set (categories
// are left untouched) and still appends an interaction.
func (p *UserProfile) RecordDislike(product Product, at time.Time) {
	if product.Brand != "" {
		p.PreferredBrands = removeString(p.PreferredBrands, product.Brand)
	}
	p.appendInteraction(product, ActionDislike, at)
}

func (p *UserProfile) appendInteraction(product Product, action string, at time.Time) {
	p.InteractionHistory = append(p.InteractionHistory, Interaction{
		ProductID: product.ID,
		Action:    action,
		Timestamp: at,
		Category:  product.Category,
		Brand:     product.Brand,
		Price:     product.Price,
	})
	if len(p.InteractionHistory) > maxInteractionHistory {
		p.InteractionHistory = p.InteractionHistory[len(p.InteractionHistory)-maxInteractionHistory:]
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// Comparison is one entry of a structured recommendation.
type Comparison struct {
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	Rating         float64  `json:"rating"`
	Category       string   `json:"category"`
	Brand          string   `json:"brand"`
	KeyFeatures    []string `json:"key_features"`
	RecommendedFor string   `json:"recommended_for"`
	Pros           []string `json:"pros"`
	Cons           []string `json:"cons"`
}

// Recommendation is the structured output of the composer. It is produced
// fresh per request and never cached.
type Recommendation struct {
	Summary     string       `json:"summary"`
	Comparisons []Comparison `json:"comparisons"`
	TopPick     string       `json:"top_pick"`
	BudgetPick  string       `json:"budget_pick"`
}

// MetricsEntry is one append-only pipeline observation.
type MetricsEntry struct {
	ID              string    `json:"id"`
	Query           string    `json:"query"`
	Intent          Intent    `json:"intent"`
	RetrievedCount  int       `json:"retrieved_count"`
	TopProductIDs   []string  `json:"top_product_ids"`
	CategoriesFound []string  `json:"categories_found"`
	LatencyMS       int64     `json:"latency_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

// ProductSummary is one deduplicated product row in a recommendation response.
type ProductSummary struct {
	ProductID    string   `json:"product_id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Brand        string   `json:"brand"`
	Price        *float64 `json:"price,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	Relevance    float64  `json:"relevance"`
	AvgSentiment float64  `json:"avg_sentiment"`
}

// RecommendationResult is the full response of GetRecommendations.
type RecommendationResult struct {
	Summary    string           `json:"summary"`
	Products   []ProductSummary `json:"products"`
	Structured Recommendation   `json:"structured"`
}
