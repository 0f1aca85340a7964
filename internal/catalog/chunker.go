package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/core"
	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/store"
)

const (
	// descriptionChunkSize is the target character budget when packing
	// description sentences into chunks.
	descriptionChunkSize = 200
	// topReviewCount is how many most-helpful reviews feed the review chunk.
	topReviewCount = 3
	// reviewExcerptLen truncates each review inside the review chunk.
	reviewExcerptLen = 100
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// BuildChunks slices a product into typed chunks for the vector index:
// a core_info chunk, sentence-packed description chunks, a specifications
// chunk and a reviews chunk. Embeddings are filled in later by the ingestor.
func BuildChunks(p Product) []store.ProductChunk {
	sentiment := averageSentiment(p.Reviews)
	var chunks []store.ProductChunk

	add := func(suffix, chunkType, text string) {
		chunks = append(chunks, store.ProductChunk{
			ID:           fmt.Sprintf("%s-%s", p.ID, suffix),
			ProductID:    p.ID,
			Name:         p.Name,
			Category:     p.Category,
			Brand:        p.Brand,
			Price:        p.Price,
			Rating:       p.Rating,
			AvgSentiment: sentiment,
			Type:         chunkType,
			Text:         text,
		})
	}

	add("core", core.ChunkCoreInfo, coreInfoText(p))

	for i, part := range packSentences(p.Description, descriptionChunkSize) {
		add(fmt.Sprintf("desc-%d", i), core.ChunkDescription,
			fmt.Sprintf("Product: %s - %s", p.Name, part))
	}

	if len(p.Specifications) > 0 {
		add("specs", core.ChunkSpecifications, specificationsText(p))
	}

	if len(p.Reviews) > 0 {
		add("reviews", core.ChunkReviews, reviewsText(p))
	}

	return chunks
}

func coreInfoText(p Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", p.Name)
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	fmt.Fprintf(&b, "Brand: %s\n", p.Brand)
	if p.Price != nil {
		fmt.Fprintf(&b, "Price: $%.2f\n", *p.Price)
	}
	if p.Rating != nil {
		fmt.Fprintf(&b, "Rating: %.1f/5\n", *p.Rating)
	}
	return strings.TrimSpace(b.String())
}

// packSentences splits text into sentences and greedily packs them into
// chunks of roughly the given character budget.
func packSentences(text string, budget int) []string {
	var chunks []string
	var current strings.Builder
	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence) >= budget {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(sentence)
		current.WriteString(". ")
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

func specificationsText(p Product) string {
	keys := make([]string, 0, len(p.Specifications))
	for k := range p.Specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s Specifications:\n", p.Name)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, p.Specifications[k])
	}
	return strings.TrimSpace(b.String())
}

// reviewsText aggregates the most helpful reviews with a rating-derived
// sentiment label per line.
func reviewsText(p Product) string {
	reviews := make([]Review, len(p.Reviews))
	copy(reviews, p.Reviews)
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].HelpfulCount > reviews[j].HelpfulCount
	})
	if len(reviews) > topReviewCount {
		reviews = reviews[:topReviewCount]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s Customer Reviews:\n", p.Name)
	for _, r := range reviews {
		text := r.Text
		if len(text) > reviewExcerptLen {
			text = text[:reviewExcerptLen] + "..."
		}
		fmt.Fprintf(&b, "- %s Review (%.1f/5): %s\n", sentimentLabel(r.Rating), r.Rating, text)
	}
	return strings.TrimSpace(b.String())
}

func sentimentLabel(rating float64) string {
	switch {
	case rating >= 4:
		return "Positive"
	case rating <= 2:
		return "Negative"
	default:
		return "Neutral"
	}
}

// averageSentiment maps review ratings onto [-1, 1]: ratings >= 4 count +1,
// <= 2 count -1, everything else 0. No reviews means neutral 0.
func averageSentiment(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range reviews {
		switch {
		case r.Rating >= 4:
			sum++
		case r.Rating <= 2:
			sum--
		}
	}
	return sum / float64(len(reviews))
}
