package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/core"
)

// metricsRetention caps the metrics table; the oldest entries beyond it are
// deleted on every append.
const metricsRetention = 100

// SQLiteStore backs the preference port, the metrics port and the product
// chunk index with a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS profiles (
        user_id TEXT PRIMARY KEY,
        profile_json TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS metrics (
        id TEXT PRIMARY KEY,
        entry_json TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS product_chunks (
        id TEXT PRIMARY KEY,
        product_id TEXT NOT NULL,
        name TEXT,
        category TEXT,
        brand TEXT,
        price REAL,
        rating REAL,
        avg_sentiment REAL DEFAULT 0,
        chunk_type TEXT NOT NULL,
        content TEXT NOT NULL,
        embedding_json TEXT -- JSON string of []float32
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Preference port

func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (core.UserProfile, error) {
	var profileJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT profile_json FROM profiles WHERE user_id = ?", userID).Scan(&profileJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.UserProfile{}, nil // unknown user: all-default profile
		}
		return core.UserProfile{}, fmt.Errorf("failed to query profile: %w", err)
	}

	var profile core.UserProfile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		return core.UserProfile{}, fmt.Errorf("failed to decode profile for user %s: %w", userID, err)
	}
	return profile, nil
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, userID string, profile core.UserProfile) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO profiles (user_id, profile_json, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET profile_json = excluded.profile_json, updated_at = excluded.updated_at`,
		userID, string(profileJSON), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Metrics port

func (s *SQLiteStore) Append(ctx context.Context, entry core.MetricsEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode metrics entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO metrics (id, entry_json, created_at) VALUES (?, ?, ?)",
		entry.ID, string(entryJSON), entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert metrics entry: %w", err)
	}

	// Drop the oldest rows beyond the retention cap.
	_, err = s.db.ExecContext(ctx, `
        DELETE FROM metrics WHERE rowid NOT IN (
            SELECT rowid FROM metrics ORDER BY rowid DESC LIMIT ?
        )`, metricsRetention)
	if err != nil {
		return fmt.Errorf("failed to trim metrics: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]core.MetricsEntry, error) {
	if limit <= 0 || limit > metricsRetention {
		limit = metricsRetention
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT entry_json FROM metrics ORDER BY rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var entries []core.MetricsEntry
	for rows.Next() {
		var entryJSON string
		if err := rows.Scan(&entryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metrics row: %w", err)
		}
		var entry core.MetricsEntry
		if err := json.Unmarshal([]byte(entryJSON), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode metrics entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Product chunk index

func (s *SQLiteStore) UpsertChunks(ctx context.Context, chunks []ProductChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chunk upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO product_chunks
            (id, product_id, name, category, brand, price, rating, avg_sentiment, chunk_type, content, embedding_json)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            product_id = excluded.product_id, name = excluded.name,
            category = excluded.category, brand = excluded.brand,
            price = excluded.price, rating = excluded.rating,
            avg_sentiment = excluded.avg_sentiment, chunk_type = excluded.chunk_type,
            content = excluded.content, embedding_json = excluded.embedding_json`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk upsert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding for chunk %s: %w", chunk.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			chunk.ID, chunk.ProductID, chunk.Name, chunk.Category, chunk.Brand,
			nullableFloat(chunk.Price), nullableFloat(chunk.Rating),
			chunk.AvgSentiment, chunk.Type, chunk.Text, string(embeddingJSON))
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", chunk.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AllChunks(ctx context.Context) ([]ProductChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, product_id, name, category, brand, price, rating, avg_sentiment, chunk_type, content, embedding_json
        FROM product_chunks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product chunks: %w", err)
	}
	defer rows.Close()

	var chunks []ProductChunk
	for rows.Next() {
		var chunk ProductChunk
		var price, rating sql.NullFloat64
		var embeddingJSON sql.NullString
		if err := rows.Scan(&chunk.ID, &chunk.ProductID, &chunk.Name, &chunk.Category, &chunk.Brand,
			&price, &rating, &chunk.AvgSentiment, &chunk.Type, &chunk.Text, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if price.Valid {
			chunk.Price = &price.Float64
		}
		if rating.Valid {
			chunk.Rating = &rating.Float64
		}
		if embeddingJSON.Valid && embeddingJSON.String != "" {
			if err := json.Unmarshal([]byte(embeddingJSON.String), &chunk.Embedding); err != nil {
				// An unreadable embedding makes the chunk unsearchable, not
				// the whole index unusable.
				chunk.Embedding = nil
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
