package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/core"
	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/store"
)

// Ingestor chunks a product catalog, embeds each chunk and upserts the
// result into the local vector index.
type Ingestor struct {
	embedder core.Embedder
	store    *store.SQLiteStore
	log      *zap.Logger
}

func NewIngestor(embedder core.Embedder, s *store.SQLiteStore, log *zap.Logger) *Ingestor {
	return &Ingestor{embedder: embedder, store: s, log: log}
}

// IngestFile reads a products.json file and indexes every product. A chunk
// whose embedding fails is skipped so one bad request cannot abort a whole
// catalog run. Returns the number of chunks stored.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return 0, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return ing.Ingest(ctx, products)
}

func (ing *Ingestor) Ingest(ctx context.Context, products []Product) (int, error) {
	var batch []store.ProductChunk
	for _, product := range products {
		for _, chunk := range BuildChunks(product) {
			embedding, err := ing.embedder.Embed(ctx, chunk.Text)
			if err != nil {
				ing.log.Warn("failed to embed chunk, skipping",
					zap.String("chunk_id", chunk.ID), zap.Error(err))
				continue
			}
			chunk.Embedding = embedding
			batch = append(batch, chunk)
		}
	}

	if len(batch) == 0 {
		ing.log.Warn("no chunks produced from catalog", zap.Int("products", len(products)))
		return 0, nil
	}
	if err := ing.store.UpsertChunks(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	ing.log.Info("catalog ingested",
		zap.Int("products", len(products)), zap.Int("chunks", len(batch)))
	return len(batch), nil
}
