package redis

import (
	"github.com/redis/go-redis/v9"

	"mailbucket/internal/config"
)

// NewClient creates a redis client from config.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
