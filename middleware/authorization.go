package middleware

import (
	"time"

	"hope-backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	accessTokenDuration  = 15 * time.Minute
	refreshTokenDuration = 7 * 24 * time.Hour
)

// ProtectedRoute authenticates via the access-token cookie, falling back to
// a single-use refresh token held in Redis. A consumed refresh token is
// rotated: deleted, reissued and re-set on the response.
func ProtectedRoute(ctx *AppContext) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := c.Cookies("access_token")
		refreshToken := c.Cookies("refresh_token")

		if accessToken != "" {
			payload, err := ctx.PasetoMaker.VerifyToken(accessToken)
			if err == nil {
				c.Locals("user", payload)
				return c.Next()
			}
			config.Logger.Debug("Invalid access token encountered", zap.Error(err))
		}

		if refreshToken == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized",
				"error":   "Authentication required",
			})
		}

		refreshPayload, err := ctx.PasetoMaker.VerifyToken(refreshToken)
		if err != nil {
			config.Logger.Error("Invalid refresh token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized",
				"error":   "Session expired or invalid. Please log in again.",
			})
		}

		userID, err := ctx.RedisClient.Get(ctx.Ctx, "refresh_token:"+refreshToken).Result()
		if err == redis.Nil {
			config.Logger.Warn("Refresh token not found in Redis",
				zap.String("email", refreshPayload.Email))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized",
				"error":   "Session invalid. Please log in again.",
			})
		} else if err != nil {
			config.Logger.Error("Error accessing Redis for refresh token validation", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Something went wrong",
				"error":   "An internal server error occurred.",
			})
		}

		if err := ctx.RedisClient.Del(ctx.Ctx, "refresh_token:"+refreshToken).Err(); err != nil {
			config.Logger.Warn("Error deleting old refresh token from Redis",
				zap.String("user_id", userID), zap.Error(err))
		}

		newAccessToken, err := ctx.PasetoMaker.CreateToken(refreshPayload.Email, accessTokenDuration)
		if err != nil {
			config.Logger.Error("Could not generate new access token", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Something went wrong",
				"error":   "An internal server error occurred.",
			})
		}
		newRefreshToken, err := ctx.PasetoMaker.CreateToken(refreshPayload.Email, refreshTokenDuration)
		if err != nil {
			config.Logger.Error("Could not generate new refresh token", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Something went wrong",
				"error":   "An internal server error occurred.",
			})
		}

		if err := ctx.RedisClient.Set(ctx.Ctx, "refresh_token:"+newRefreshToken, userID, refreshTokenDuration).Err(); err != nil {
			config.Logger.Error("Could not store new refresh token", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Something went wrong",
				"error":   "An internal server error occurred.",
			})
		}

		c.Cookie(&fiber.Cookie{
			Name:     "access_token",
			Value:    newAccessToken,
			Expires:  time.Now().Add(accessTokenDuration),
			HTTPOnly: true,
			SameSite: "Lax",
		})
		c.Cookie(&fiber.Cookie{
			Name:     "refresh_token",
			Value:    newRefreshToken,
			Expires:  time.Now().Add(refreshTokenDuration),
			HTTPOnly: true,
			SameSite: "Lax",
		})

		newPayload, err := ctx.PasetoMaker.VerifyToken(newAccessToken)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Something went wrong",
				"error":   "An internal server error occurred.",
			})
		}
		c.Locals("user", newPayload)
		return c.Next()
	}
}
