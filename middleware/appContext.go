package middleware

import (
	"context"

	"hope-backend/token"

	"github.com/redis/go-redis/v9"
)

// AppContext bundles the auth dependencies handed to protected routes.
type AppContext struct {
	PasetoMaker token.Maker
	Ctx         context.Context
	RedisClient *redis.Client
}
