package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/core"
)

const (
	profileKeyPrefix = "profile:"
	metricsKey       = "metrics:recent"
)

// RedisStore is the Redis-backed alternative for the preference and metrics
// ports. Metrics retention uses LPUSH + LTRIM so the list never exceeds the
// cap.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}),
	}
}

// NewRedisStoreWithClient wraps an existing client; used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) GetProfile(ctx context.Context, userID string) (core.UserProfile, error) {
	raw, err := s.client.Get(ctx, profileKeyPrefix+userID).Result()
	if err == redis.Nil {
		return core.UserProfile{}, nil // unknown user: all-default profile
	}
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile core.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return core.UserProfile{}, fmt.Errorf("failed to decode profile for user %s: %w", userID, err)
	}
	return profile, nil
}

func (s *RedisStore) SaveProfile(ctx context.Context, userID string, profile core.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := s.client.Set(ctx, profileKeyPrefix+userID, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *RedisStore) Append(ctx context.Context, entry core.MetricsEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode metrics entry: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, metricsKey, raw)
	pipe.LTrim(ctx, metricsKey, 0, metricsRetention-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append metrics entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, limit int) ([]core.MetricsEntry, error) {
	if limit <= 0 || limit > metricsRetention {
		limit = metricsRetention
	}
	raws, err := s.client.LRange(ctx, metricsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	entries := make([]core.MetricsEntry, 0, len(raws))
	for _, raw := range raws {
		var entry core.MetricsEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode metrics entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
