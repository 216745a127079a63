package redis

import (
	"context"
	"log"
	"time"

	"quizbank/internal/config"

	"github.com/redis/go-redis/v9"
)

var Redis_Client *redis.Client

// InitRedis returns nil when no address is configured; callers treat a nil
// client as "cache disabled".
func InitRedis(cfg *config.RedisConfig) *redis.Client {
	if cfg.Address == "" {
		log.Println("Redis not configured, statistics will not be cached")
		return nil
	}

	Redis_Client = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := Redis_Client.Ping(ctx).Err(); err != nil {
		log.Printf("Error connect to Redis: %s", err)
	}
	return Redis_Client
}

func CloseRedis() {
	if Redis_Client != nil {
		if err := Redis_Client.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}
	}
}
