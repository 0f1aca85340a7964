package store

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/core"
	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/vectormath"
)

// VectorIndex is the local vector-store adapter: a brute-force cosine scan
// over the product chunks cached in memory at startup. It satisfies the
// pipeline's VectorStore port; swapping in a managed vector database only
// requires another adapter.
type VectorIndex struct {
	chunks []ProductChunk
	log    *zap.Logger
}

func NewVectorIndex(ctx context.Context, s *SQLiteStore, log *zap.Logger) (*VectorIndex, error) {
	chunks, err := s.AllChunks(ctx)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		log.Warn("vector index loaded with no product chunks; run with -ingest first")
	} else {
		log.Info("vector index loaded", zap.Int("chunks", len(chunks)))
	}
	return &VectorIndex{chunks: chunks, log: log}, nil
}

// Query returns the topK most similar chunks as candidates, ordered by
// descending similarity with index order breaking ties.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]core.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type scoredChunk struct {
		chunk ProductChunk
		score float64
	}
	scored := make([]scoredChunk, 0, len(v.chunks))
	for _, chunk := range v.chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		similarity, err := vectormath.CosineSimilarity(vector, chunk.Embedding)
		if err != nil {
			v.log.Debug("skipping chunk with incompatible embedding",
				zap.String("chunk_id", chunk.ID), zap.Error(err))
			continue
		}
		scored = append(scored, scoredChunk{chunk: chunk, score: float64(similarity)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	candidates := make([]core.Candidate, 0, len(scored))
	for _, sc := range scored {
		candidates = append(candidates, core.Candidate{
			ID:    sc.chunk.ID,
			Score: sc.score,
			Metadata: core.CandidateMetadata{
				ProductID:    sc.chunk.ProductID,
				Name:         sc.chunk.Name,
				Category:     sc.chunk.Category,
				Brand:        sc.chunk.Brand,
				Price:        sc.chunk.Price,
				Rating:       sc.chunk.Rating,
				AvgSentiment: sc.chunk.AvgSentiment,
				Text:         sc.chunk.Text,
				Type:         sc.chunk.Type,
			},
		})
	}
	return candidates, nil
}
