package core

import "context"

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore answers nearest-neighbour queries over the product chunk index.
type VectorStore interface {
	Query(ctx context.Context, vector []float32, topK int) ([]Candidate, error)
}

// TextGenerator produces free text from a prompt. A non-nil error, a timeout
// or malformed output are all non-fatal to the pipeline.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

// PreferenceStore persists user profiles. GetProfile returns an all-default
// profile for unknown users.
type PreferenceStore interface {
	GetProfile(ctx context.Context, userID string) (UserProfile, error)
	SaveProfile(ctx context.Context, userID string, profile UserProfile) error
}

// MetricsStore appends pipeline observations. Implementations cap retention
// at 100 entries, dropping the oldest.
type MetricsStore interface {
	Append(ctx context.Context, entry MetricsEntry) error
	Recent(ctx context.Context, limit int) ([]MetricsEntry, error)
}
