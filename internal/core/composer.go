package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultGenerationTimeout bounds the generative-service call.
	DefaultGenerationTimeout = 30 * time.Second

	generationMaxTokens   = 900
	generationTemperature = 0.1

	// aggregationWindow is how many top-ranked chunks feed the prompt.
	aggregationWindow = 10
	// maxComparisons caps the comparisons list in any Recommendation.
	maxComparisons = 6

	fallbackSummary   = "Here are the closest matches found for your query."
	noProductSentinel = "No matching products found"
)

// Composer turns the ranked candidate set into a grounded, schema-conformant
// Recommendation. Compose never fails to the caller: any generation or
// parsing problem degrades to the deterministic fallback synthesis.
type Composer struct {
	generator TextGenerator
	timeout   time.Duration
	log       *zap.Logger
}

func NewComposer(generator TextGenerator, timeout time.Duration, log *zap.Logger) *Composer {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &Composer{generator: generator, timeout: timeout, log: log}
}

// productRecord is the per-product aggregation of the top-ranked chunks.
type productRecord struct {
	ID       string
	Name     string
	Category string
	Brand    string
	Price    *float64
	Rating   *float64
	Details  string
	Specs    string
	Reviews  string
}

func (c *Composer) Compose(ctx context.Context, query string, ranked []ScoredCandidate, intent Intent) Recommendation {
	products := aggregateProducts(ranked)

	prompt := buildPrompt(query, products, selectVariant(intent, len(products)))

	gctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	text, err := c.generator.Complete(gctx, prompt, generationMaxTokens, generationTemperature)
	if err != nil {
		c.log.Warn("generation failed, using fallback synthesis", zap.Error(err))
		return fallbackRecommendation(products)
	}

	rec, ok := parseRecommendation(text)
	if !ok {
		c.log.Warn("generated output failed validation, using fallback synthesis")
		return fallbackRecommendation(products)
	}
	if rec.TopPick == "" || rec.BudgetPick == "" {
		top, budget := pickProducts(products)
		if rec.TopPick == "" {
			rec.TopPick = top
		}
		if rec.BudgetPick == "" {
			rec.BudgetPick = budget
		}
	}
	return rec
}

// aggregateProducts merges the first aggregationWindow chunks by product id,
// preserving encounter order. Core fields come from core_info chunks,
// specification text from specifications chunks and a truncated excerpt from
// reviews chunks; other chunk metadata only backfills missing fields.
func aggregateProducts(ranked []ScoredCandidate) []*productRecord {
	window := ranked
	if len(window) > aggregationWindow {
		window = window[:aggregationWindow]
	}

	byID := make(map[string]*productRecord)
	var order []*productRecord
	for _, c := range window {
		meta := c.Metadata
		if meta.ProductID == "" {
			continue
		}
		rec, ok := byID[meta.ProductID]
		if !ok {
			rec = &productRecord{ID: meta.ProductID}
			byID[meta.ProductID] = rec
			order = append(order, rec)
		}

		switch meta.Type {
		case ChunkCoreInfo:
			rec.Name = firstNonEmpty(meta.Name, rec.Name)
			rec.Category = firstNonEmpty(meta.Category, rec.Category)
			rec.Brand = firstNonEmpty(meta.Brand, rec.Brand)
			if meta.Price != nil {
				rec.Price = meta.Price
			}
			if meta.Rating != nil {
				rec.Rating = meta.Rating
			}
		case ChunkSpecifications:
			if rec.Specs == "" {
				rec.Specs = strings.TrimSpace(meta.Text)
			}
		case ChunkReviews:
			if rec.Reviews == "" {
				rec.Reviews = truncate(strings.TrimSpace(meta.Text), 200)
			}
		case ChunkDescription:
			if rec.Details == "" {
				rec.Details = truncate(strings.TrimSpace(meta.Text), 300)
			}
		}

		// Backfill from chunk metadata when no core_info chunk has been seen.
		rec.Name = firstNonEmpty(rec.Name, meta.Name)
		rec.Category = firstNonEmpty(rec.Category, meta.Category)
		rec.Brand = firstNonEmpty(rec.Brand, meta.Brand)
		if rec.Price == nil {
			rec.Price = meta.Price
		}
		if rec.Rating == nil {
			rec.Rating = meta.Rating
		}
	}
	return order
}

const (
	variantComparison     = "comparison"
	variantRanking        = "ranking"
	variantRecommendation = "recommendation"
)

// selectVariant affects the generated wording only, never the schema.
func selectVariant(intent Intent, productCount int) string {
	switch {
	case intent.ComparisonRequested:
		return variantComparison
	case productCount > 3:
		return variantRanking
	default:
		return variantRecommendation
	}
}

func buildPrompt(query string, products []*productRecord, variant string) string {
	var b strings.Builder
	b.WriteString("You are an expert e-commerce assistant. Use ONLY the product information in the context below; never invent products, prices or ratings.\n\nCONTEXT:\n")

	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s (Category: %s, Brand: %s, Price: %s, Rating: %s)\n",
			i+1, firstNonEmpty(p.Name, "Unknown Product"), firstNonEmpty(p.Category, "unknown"),
			firstNonEmpty(p.Brand, "unknown"), formatOptional(p.Price, "$%.2f"), formatOptional(p.Rating, "%.1f/5"))
		if p.Details != "" {
			fmt.Fprintf(&b, "   Details: %s\n", p.Details)
		}
		if p.Specs != "" {
			fmt.Fprintf(&b, "   %s\n", p.Specs)
		}
		if p.Reviews != "" {
			fmt.Fprintf(&b, "   Customer feedback: %s\n", p.Reviews)
		}
	}

	fmt.Fprintf(&b, "\nUSER QUERY: %s\n\nINSTRUCTIONS:\n", query)
	switch variant {
	case variantComparison:
		b.WriteString("1. Compare the most relevant products head to head, highlighting the differences that matter for the query.\n")
	case variantRanking:
		b.WriteString("1. Rank the most relevant products from best to worst fit for the query.\n")
	default:
		b.WriteString("1. Recommend the most relevant products for the query.\n")
	}
	b.WriteString(`2. Provide a brief helpful summary.
3. Return ONLY a valid JSON object with this exact structure, with 3-6 entries in "comparisons" and numeric (not quoted) price and rating values:

{
  "summary": "Brief helpful summary of recommendations",
  "comparisons": [
    {
      "name": "Product Name",
      "price": 1299,
      "rating": 4.5,
      "category": "Product Category",
      "brand": "Brand Name",
      "key_features": ["Feature 1", "Feature 2"],
      "recommended_for": "Who this suits best",
      "pros": ["Pro 1"],
      "cons": ["Con 1"]
    }
  ],
  "top_pick": "Product Name",
  "budget_pick": "Product Name"
}

IMPORTANT: Return ONLY the JSON object, no additional text before or after.`)
	return b.String()
}

// extractJSON locates the JSON payload inside model output that may carry
// leading or trailing prose, by taking the substring between the first '{'
// and the last '}'.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// parseRecommendation extracts and validates the structured payload. It
// returns false when the payload is missing, unparseable, lacks a
// comparisons list or has an empty summary; the caller then falls back.
func parseRecommendation(text string) (Recommendation, bool) {
	payload, ok := extractJSON(text)
	if !ok {
		return Recommendation{}, false
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return Recommendation{}, false
	}
	if rec.Comparisons == nil || strings.TrimSpace(rec.Summary) == "" {
		return Recommendation{}, false
	}
	if len(rec.Comparisons) > maxComparisons {
		rec.Comparisons = rec.Comparisons[:maxComparisons]
	}
	return rec, true
}

// fallbackRecommendation builds a deterministic Recommendation from the
// aggregated products, with no external calls.
func fallbackRecommendation(products []*productRecord) Recommendation {
	comparisons := make([]Comparison, 0, maxComparisons)
	for _, p := range products {
		if len(comparisons) == maxComparisons {
			break
		}
		comparisons = append(comparisons, Comparison{
			Name:           firstNonEmpty(p.Name, "Unknown Product"),
			Price:          optionalValue(p.Price),
			Rating:         optionalValue(p.Rating),
			Category:       p.Category,
			Brand:          p.Brand,
			KeyFeatures:    []string{"See product listing for details"},
			RecommendedFor: "Shoppers matching this search",
			Pros:           []string{"Matched your search closely"},
			Cons:           []string{"Limited information available"},
		})
	}

	top, budget := pickProducts(products)
	return Recommendation{
		Summary:     fallbackSummary,
		Comparisons: comparisons,
		TopPick:     top,
		BudgetPick:  budget,
	}
}

// pickProducts chooses the fallback top pick (first product in encounter
// order) and budget pick (lowest price, ties broken by encounter order;
// unpriced products lose to any priced one).
func pickProducts(products []*productRecord) (top, budget string) {
	if len(products) == 0 {
		return noProductSentinel, noProductSentinel
	}
	top = firstNonEmpty(products[0].Name, "Unknown Product")

	best := products[0]
	for _, p := range products[1:] {
		if p.Price == nil {
			continue
		}
		if best.Price == nil || *p.Price < *best.Price {
			best = p
		}
	}
	budget = firstNonEmpty(best.Name, "Unknown Product")
	return top, budget
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf(format, *v)
}

func optionalValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
