package auth

import (
	"context"
	"fmt"
	"time"

	"eventix-gateway/internal/config"
	"eventix-gateway/internal/logger"

	"github.com/go-redis/redis/v8"
)

// InitializeRedis connects to Redis and checks the connection with a ping.
// The same client backs sessions and the checkout latch.
func InitializeRedis(cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("REDIS", fmt.Sprintf("Failed to connect to Redis at %s: %v", cfg.Addr, err))
		client.Close()
		return nil, err
	}

	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s (DB: %d)", cfg.Addr, cfg.DB))
	return client, nil
}
