package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"quizbank/internal/models"

	"github.com/redis/go-redis/v9"
)

const statisticsKey = "quizbank:statistics"

// CacheRepository keeps the computed statistics in Redis. A nil client turns
// every method into a no-op so the API still works without Redis.
type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheRepository(client *redis.Client, ttl time.Duration) *CacheRepository {
	return &CacheRepository{client: client, ttl: ttl}
}

func (r *CacheRepository) SaveStructCached(ctx context.Context, key string, model any) error {
	if r.client == nil {
		return nil
	}
	val, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("error saving struct to cache: %w", err)
	}
	if err := r.client.Set(ctx, key, val, r.ttl).Err(); err != nil {
		return fmt.Errorf("error saving struct to cache: %w", err)
	}
	return nil
}

// GetStructCached reports false on a cache miss.
func (r *CacheRepository) GetStructCached(ctx context.Context, key string, model any) (bool, error) {
	if r.client == nil {
		return false, nil
	}
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("error get struct in cache: %w", err)
	}
	if err := json.Unmarshal(data, model); err != nil {
		return false, fmt.Errorf("error decoding cached struct: %w", err)
	}
	return true, nil
}

func (r *CacheRepository) DeleteKey(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting key %s: %w", key, err)
	}
	return nil
}

func (r *CacheRepository) GetStatistics(ctx context.Context) (*models.Statistics, bool) {
	var stats models.Statistics
	ok, err := r.GetStructCached(ctx, statisticsKey, &stats)
	if err != nil {
		log.Printf("Statistics cache read failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &stats, true
}

func (r *CacheRepository) SaveStatistics(ctx context.Context, stats *models.Statistics) {
	if err := r.SaveStructCached(ctx, statisticsKey, stats); err != nil {
		log.Printf("Statistics cache write failed: %v", err)
	}
}

func (r *CacheRepository) InvalidateStatistics(ctx context.Context) {
	if err := r.DeleteKey(ctx, statisticsKey); err != nil {
		log.Printf("Statistics cache invalidation failed: %v", err)
	}
}
