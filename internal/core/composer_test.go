package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	output string
	err    error
	prompt string
}

func (f *fakeGenerator) Complete(_ context.Context, prompt string, _ int, _ float32) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func rankedChunk(productID, name, chunkType, text string, price *float64) ScoredCandidate {
	return ScoredCandidate{
		Candidate: Candidate{
			ID:    productID + "-" + chunkType,
			Score: 0.9,
			Metadata: CandidateMetadata{
				ProductID: productID,
				Name:      name,
				Category:  "Headphones",
				Brand:     "Sony",
				Price:     price,
				Type:      chunkType,
				Text:      text,
			},
		},
		FinalScore: 0.9,
	}
}

func newTestComposer(gen TextGenerator) *Composer {
	return NewComposer(gen, time.Second, zap.NewNop())
}

func TestComposeParsesValidOutput(t *testing.T) {
	gen := &fakeGenerator{output: `Here is your recommendation:
{
  "summary": "Two solid options.",
  "comparisons": [
    {"name": "WH-1000", "price": 299, "rating": 4.7, "category": "Headphones", "brand": "Sony",
     "key_features": ["ANC"], "recommended_for": "Commuters", "pros": ["Sound"], "cons": ["Price"]}
  ],
  "top_pick": "WH-1000",
  "budget_pick": "WH-CH520"
}
Hope this helps!`}

	c := newTestComposer(gen)
	ranked := []ScoredCandidate{
		rankedChunk("p1", "WH-1000", ChunkCoreInfo, "Product: WH-1000", floatPtr(299)),
	}
	got := c.Compose(context.Background(), "headphones", ranked, Intent{})

	assert.Equal(t, "Two solid options.", got.Summary)
	require.Len(t, got.Comparisons, 1)
	assert.Equal(t, "WH-1000", got.Comparisons[0].Name)
	assert.Equal(t, "WH-1000", got.TopPick)
	assert.Equal(t, "WH-CH520", got.BudgetPick)
}

func TestComposeFallsBackOnGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exhausted")}
	c := newTestComposer(gen)
	ranked := []ScoredCandidate{
		rankedChunk("p1", "WH-1000", ChunkCoreInfo, "Product: WH-1000", floatPtr(299)),
	}
	got := c.Compose(context.Background(), "headphones", ranked, Intent{})

	assert.Equal(t, fallbackSummary, got.Summary)
	require.Len(t, got.Comparisons, 1)
	assert.Equal(t, "WH-1000", got.Comparisons[0].Name)
	assert.Equal(t, "WH-1000", got.TopPick)
	assert.Equal(t, "WH-1000", got.BudgetPick)
}

func TestComposeFallsBackOnBadOutput(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"no json at all", "I could not find anything relevant."},
		{"malformed json", `{"summary": "oops", "comparisons": [,]}`},
		{"missing comparisons", `{"summary": "ok", "top_pick": "X"}`},
		{"blank summary", `{"summary": "  ", "comparisons": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestComposer(&fakeGenerator{output: tt.output})
			ranked := []ScoredCandidate{
				rankedChunk("p1", "WH-1000", ChunkCoreInfo, "", floatPtr(299)),
			}
			got := c.Compose(context.Background(), "q", ranked, Intent{})
			assert.Equal(t, fallbackSummary, got.Summary)
		})
	}
}

func TestComposeTruncatesComparisons(t *testing.T) {
	output := `{"summary": "many", "comparisons": [
		{"name":"a"},{"name":"b"},{"name":"c"},{"name":"d"},
		{"name":"e"},{"name":"f"},{"name":"g"},{"name":"h"}],
		"top_pick":"a","budget_pick":"b"}`
	c := newTestComposer(&fakeGenerator{output: output})
	got := c.Compose(context.Background(), "q", nil, Intent{})

	assert.Len(t, got.Comparisons, maxComparisons)
}

func TestComposeBackfillsMissingPicks(t *testing.T) {
	output := `{"summary": "ok", "comparisons": [{"name":"A"}]}`
	c := newTestComposer(&fakeGenerator{output: output})
	ranked := []ScoredCandidate{
		rankedChunk("p1", "Premium", ChunkCoreInfo, "", floatPtr(300)),
		rankedChunk("p2", "Budget", ChunkCoreInfo, "", floatPtr(50)),
	}
	got := c.Compose(context.Background(), "q", ranked, Intent{})

	assert.Equal(t, "Premium", got.TopPick)
	assert.Equal(t, "Budget", got.BudgetPick)
}

func TestComposePromptVariants(t *testing.T) {
	ranked := []ScoredCandidate{
		rankedChunk("p1", "A", ChunkCoreInfo, "", nil),
		rankedChunk("p2", "B", ChunkCoreInfo, "", nil),
		rankedChunk("p3", "C", ChunkCoreInfo, "", nil),
		rankedChunk("p4", "D", ChunkCoreInfo, "", nil),
	}

	gen := &fakeGenerator{err: errors.New("skip")}
	c := newTestComposer(gen)

	c.Compose(context.Background(), "q", ranked, Intent{ComparisonRequested: true})
	assert.Contains(t, gen.prompt, "Compare the most relevant products")

	c.Compose(context.Background(), "q", ranked, Intent{})
	assert.Contains(t, gen.prompt, "Rank the most relevant products")

	c.Compose(context.Background(), "q", ranked[:2], Intent{})
	assert.Contains(t, gen.prompt, "Recommend the most relevant products")
}

func TestAggregateProductsMergesChunksByProduct(t *testing.T) {
	price := floatPtr(199)
	ranked := []ScoredCandidate{
		rankedChunk("p1", "WH-1000", ChunkCoreInfo, "Product: WH-1000", price),
		rankedChunk("p1", "WH-1000", ChunkSpecifications, "Driver: 40mm", nil),
		rankedChunk("p1", "WH-1000", ChunkReviews, "Great sound", nil),
		rankedChunk("p2", "Buds", ChunkDescription, "Compact earbuds", nil),
	}

	products := aggregateProducts(ranked)
	require.Len(t, products, 2)

	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "WH-1000", products[0].Name)
	assert.Equal(t, price, products[0].Price)
	assert.Equal(t, "Driver: 40mm", products[0].Specs)
	assert.Equal(t, "Great sound", products[0].Reviews)

	assert.Equal(t, "p2", products[1].ID)
	assert.Equal(t, "Buds", products[1].Name)
	assert.Equal(t, "Compact earbuds", products[1].Details)
}

func TestAggregateProductsWindowsTopChunks(t *testing.T) {
	var ranked []ScoredCandidate
	for i := 0; i < 15; i++ {
		ranked = append(ranked, rankedChunk(
			string(rune('a'+i)), "Name", ChunkCoreInfo, "", nil))
	}

	products := aggregateProducts(ranked)
	assert.Len(t, products, aggregationWindow)
}

func TestPickProducts(t *testing.T) {
	t.Run("empty input yields sentinel", func(t *testing.T) {
		top, budget := pickProducts(nil)
		assert.Equal(t, noProductSentinel, top)
		assert.Equal(t, noProductSentinel, budget)
	})

	t.Run("budget pick is lowest price, ties keep first seen", func(t *testing.T) {
		products := []*productRecord{
			{ID: "p1", Name: "First", Price: floatPtr(100)},
			{ID: "p2", Name: "Cheap", Price: floatPtr(40)},
			{ID: "p3", Name: "AlsoCheap", Price: floatPtr(40)},
			{ID: "p4", Name: "Unpriced"},
		}
		top, budget := pickProducts(products)
		assert.Equal(t, "First", top)
		assert.Equal(t, "Cheap", budget)
	})

	t.Run("all unpriced falls back to first", func(t *testing.T) {
		products := []*productRecord{
			{ID: "p1", Name: "A"},
			{ID: "p2", Name: "B"},
		}
		top, budget := pickProducts(products)
		assert.Equal(t, "A", top)
		assert.Equal(t, "A", budget)
	})
}

func TestExtractJSON(t *testing.T) {
	payload, ok := extractJSON(`prose before {"a": 1} prose after`)
	require.True(t, ok)
	assert.Equal(t, `{"a": 1}`, payload)

	_, ok = extractJSON("no braces here")
	assert.False(t, ok)

	_, ok = extractJSON("} reversed {")
	assert.False(t, ok)
}
