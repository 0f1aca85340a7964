package core

import (
	"sort"
	"strings"
)

// Scoring weights. Similarity dominates; the remaining terms nudge the order
// toward the user's learned preferences and the query intent.
const (
	weightSimilarity = 1.0
	weightSentiment  = 0.15
	weightCategory   = 0.2
	weightBrand      = 0.2
	weightPrice      = 0.15

	ratingBonus = 0.10

	affinityWindow = 20
	affinityStep   = 0.05
	affinityCap    = 0.15

	comparisonBonus = 0.10
	featureBonus    = 0.05
)

// Diversity admission limits for the greedy pass over the sorted list.
const (
	maxPerBrand          = 2
	maxPerCategory       = 2
	maxPerIntentCategory = 4
)

// DefaultRerankCap bounds the reranked output length.
const DefaultRerankCap = 15

// Rerank scores candidates against the profile and intent, sorts them
// (stable, descending) and applies the diversity pass. The result never
// exceeds cap and may be shorter when the diversity constraints exhaust the
// input. Rejected candidates are dropped, not reconsidered.
func Rerank(candidates []Candidate, profile UserProfile, intent Intent, cap int) []ScoredCandidate {
	if cap <= 0 {
		cap = DefaultRerankCap
	}

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		final := c.Score*weightSimilarity +
			c.Metadata.AvgSentiment*weightSentiment +
			preferenceScore(c.Metadata, profile) +
			intentBonus(c.Metadata, intent)
		scored = append(scored, ScoredCandidate{Candidate: c, FinalScore: final})
	}

	// Stable sort: ties keep the retrieval order, which keeps the whole
	// pipeline deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})

	return diversityFilter(scored, intent, cap)
}

func preferenceScore(meta CandidateMetadata, profile UserProfile) float64 {
	score := 0.0
	if meta.Category != "" && containsString(profile.PreferredCategories, meta.Category) {
		score += weightCategory
	}
	if meta.Brand != "" && containsString(profile.PreferredBrands, meta.Brand) {
		score += weightBrand
	}

	if profile.MaxPrice != nil && meta.Price != nil {
		maxPrice, price := *profile.MaxPrice, *meta.Price
		if price <= maxPrice {
			score += weightPrice
		} else if maxPrice > 0 {
			penalty := (price - maxPrice) / maxPrice * weightPrice
			if penalty > weightPrice {
				penalty = weightPrice
			}
			score -= penalty
		}
	}

	if profile.MinRating != nil && meta.Rating != nil && *meta.Rating >= *profile.MinRating {
		score += ratingBonus
	}

	score += interactionAffinity(meta, profile.InteractionHistory)
	return score
}

// interactionAffinity rewards candidates whose category or brand was liked
// recently, capped so the history never dominates similarity.
func interactionAffinity(meta CandidateMetadata, history []Interaction) float64 {
	recent := history
	if len(recent) > affinityWindow {
		recent = recent[len(recent)-affinityWindow:]
	}
	count := 0
	for _, it := range recent {
		if it.Action != ActionLike {
			continue
		}
		if (it.Category != "" && it.Category == meta.Category) ||
			(it.Brand != "" && it.Brand == meta.Brand) {
			count++
		}
	}
	bonus := float64(count) * affinityStep
	if bonus > affinityCap {
		bonus = affinityCap
	}
	return bonus
}

func intentBonus(meta CandidateMetadata, intent Intent) float64 {
	bonus := 0.0
	if intent.ComparisonRequested && categoryMatchesIntent(meta.Category, intent.Categories) {
		bonus += comparisonBonus
	}
	text := strings.ToLower(meta.Text)
	for _, feature := range intent.SpecificFeatures {
		if strings.Contains(text, feature) {
			bonus += featureBonus
		}
	}
	return bonus
}

// diversityFilter is a single greedy forward scan: a candidate is admitted
// only while its brand has been admitted fewer than maxPerBrand times and
// its category fewer than the applicable category limit.
func diversityFilter(sorted []ScoredCandidate, intent Intent, cap int) []ScoredCandidate {
	brandCounts := make(map[string]int)
	categoryCounts := make(map[string]int)

	out := make([]ScoredCandidate, 0, cap)
	for _, c := range sorted {
		brand := strings.ToLower(c.Metadata.Brand)
		category := strings.ToLower(c.Metadata.Category)

		categoryLimit := maxPerCategory
		if categoryMatchesIntent(c.Metadata.Category, intent.Categories) {
			categoryLimit = maxPerIntentCategory
		}
		if brandCounts[brand] >= maxPerBrand || categoryCounts[category] >= categoryLimit {
			continue
		}
		brandCounts[brand]++
		categoryCounts[category]++
		out = append(out, c)
		if len(out) == cap {
			break
		}
	}
	return out
}
