package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultProbeWorkers = 4
	defaultProbeTimeout = 10 * time.Second
)

// Retriever fans a query out into multiple embed+query probes against the
// vector store and merges the results into an ordered, deduplicated
// candidate list.
type Retriever struct {
	embedder     Embedder
	store        VectorStore
	workers      int
	probeTimeout time.Duration
	log          *zap.Logger
}

func NewRetriever(embedder Embedder, store VectorStore, workers int, probeTimeout time.Duration, log *zap.Logger) *Retriever {
	if workers <= 0 {
		workers = defaultProbeWorkers
	}
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &Retriever{
		embedder:     embedder,
		store:        store,
		workers:      workers,
		probeTimeout: probeTimeout,
		log:          log,
	}
}

type probe struct {
	text string
	topK int
}

// Retrieve runs the staged probe plan and returns at most 2*topK candidates,
// deduplicated by id with the earliest stage winning. A failing probe
// contributes an empty result; if every probe fails the list is empty and
// the caller treats that as "no results", not an error.
//
// The profile is part of the retrieval contract but does not influence probe
// construction; personalisation happens in the reranker.
func (r *Retriever) Retrieve(ctx context.Context, query string, profile UserProfile, intent Intent, topK int) []Candidate {
	_ = profile

	// Stages 1-2: the primary probe plus one biased probe per intent
	// category, in extraction order.
	probes := []probe{{text: query, topK: topK}}
	for _, category := range intent.Categories {
		probes = append(probes, probe{
			text: fmt.Sprintf("%s. Category: %s", query, category),
			topK: maxInt(5, topK/3),
		})
	}

	var accumulator []Candidate
	for _, hits := range r.runProbes(ctx, probes) {
		accumulator = append(accumulator, hits...)
	}

	// Price filter applies to stages 1-2 only, before the related-category
	// expansion below. Stage-4 additions are intentionally left unfiltered;
	// this ordering mirrors the observed behaviour and is flagged for
	// product-owner review in DESIGN.md.
	if intent.BudgetMentioned && intent.PriceRange != nil {
		filtered := make([]Candidate, 0, len(accumulator))
		for _, c := range accumulator {
			if c.Metadata.Price != nil && *c.Metadata.Price <= *intent.PriceRange {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) > 0 {
			accumulator = filtered
		}
	}

	// Stage 4: expand into categories adjacent to those already found, in
	// first-encounter order.
	var relatedProbes []probe
	for _, category := range distinctCategories(accumulator) {
		for _, related := range lookupRelated(category) {
			relatedProbes = append(relatedProbes, probe{
				text: fmt.Sprintf("%s. Related category: %s", query, related),
				topK: maxInt(3, topK/5),
			})
		}
	}
	for _, hits := range r.runProbes(ctx, relatedProbes) {
		accumulator = append(accumulator, hits...)
	}

	return dedupeCandidates(accumulator, 2*topK)
}

// runProbes dispatches probes on a bounded worker pool and reassembles the
// results in probe order regardless of completion order. A probe that errors
// or times out yields an empty slot.
func (r *Retriever) runProbes(ctx context.Context, probes []probe) [][]Candidate {
	results := make([][]Candidate, len(probes))
	if len(probes) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, p := range probes {
		i, p := i, p
		g.Go(func() error {
			results[i] = r.runProbe(gctx, p)
			return nil
		})
	}
	// Probes never surface errors; Wait only synchronises the pool.
	_ = g.Wait()
	return results
}

func (r *Retriever) runProbe(ctx context.Context, p probe) []Candidate {
	pctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	vector, err := r.embedder.Embed(pctx, p.text)
	if err != nil {
		r.log.Warn("probe embedding failed", zap.String("probe", p.text), zap.Error(err))
		return nil
	}
	hits, err := r.store.Query(pctx, vector, p.topK)
	if err != nil {
		r.log.Warn("probe query failed", zap.String("probe", p.text), zap.Error(err))
		return nil
	}
	return hits
}

// distinctCategories returns the distinct non-empty metadata categories in
// first-encounter order.
func distinctCategories(candidates []Candidate) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range candidates {
		cat := c.Metadata.Category
		if cat == "" {
			continue
		}
		key := strings.ToLower(cat)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cat)
	}
	return out
}

// dedupeCandidates keeps the first occurrence of each id and truncates to
// the given limit.
func dedupeCandidates(candidates []Candidate, limit int) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
