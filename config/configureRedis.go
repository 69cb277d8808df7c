package config

import (
	"context"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// InitRedisServer connects the Redis client backing refresh-token storage
// and the asynq job queue.
func InitRedisServer(ctx context.Context) *redis.Client {
	db, err := strconv.Atoi(GetEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		log.Fatalf("[REDIS] invalid REDIS_DB value: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		Password: GetEnvOrDefault("REDIS_PASSWORD", ""),
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("[REDIS] Failed to connect to Redis: %v", err)
	}

	log.Println("[REDIS] Connection established")
	return client
}
