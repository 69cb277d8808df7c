package controllers

import (
	"context"
	"time"

	"hope-backend/config"
	"hope-backend/token"
	"hope-backend/users/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	accessTokenDuration  = 15 * time.Minute
	refreshTokenDuration = 7 * 24 * time.Hour
)

type LoginController struct {
	UserRepo    repositories.UserRepository
	PasetoMaker token.Maker
	Ctx         context.Context
	RedisClient *redis.Client
}

func (lc *LoginController) LoginUser(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		config.Logger.Error("Error parsing login request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"data":    nil,
			"error":   "Invalid request format.",
		})
	}

	user, err := lc.UserRepo.GetUserByEmail(req.Email)
	if err != nil || !repositories.CheckPasswordHash(req.Password, user.Password) {
		if err != nil {
			config.Logger.Warn("Login attempt: user not found or database error",
				zap.String("email", req.Email),
				zap.Error(err),
			)
		} else {
			config.Logger.Warn("Login attempt: invalid password",
				zap.String("email", req.Email),
			)
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
			"data":    nil,
			"error":   "Invalid email or password.",
		})
	}

	if !user.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
			"data":    nil,
			"error":   "User account is disabled.",
		})
	}

	accessToken, err := lc.PasetoMaker.CreateToken(user.Email, accessTokenDuration)
	if err != nil {
		config.Logger.Error("Error generating access token",
			zap.String("email", user.Email),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Something went wrong",
			"data":    nil,
			"error":   "An internal server error occurred during token generation.",
		})
	}

	refreshToken, err := lc.PasetoMaker.CreateToken(user.Email, refreshTokenDuration)
	if err != nil {
		config.Logger.Error("Error generating refresh token",
			zap.String("email", user.Email),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Something went wrong",
			"data":    nil,
			"error":   "An internal server error occurred during token generation.",
		})
	}

	if err := lc.RedisClient.Set(lc.Ctx, "refresh_token:"+refreshToken, user.ID.String(), refreshTokenDuration).Err(); err != nil {
		config.Logger.Error("Error storing refresh token in Redis",
			zap.String("email", user.Email),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Something went wrong",
			"data":    nil,
			"error":   "An internal server error occurred during session management.",
		})
	}

	if err := lc.UserRepo.TouchLastLogin(user.ID.String()); err != nil {
		config.Logger.Warn("Could not update last login timestamp",
			zap.String("email", user.Email),
			zap.Error(err),
		)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Expires:  time.Now().Add(accessTokenDuration),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  time.Now().Add(refreshTokenDuration),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"data": fiber.Map{
			"user": user,
		},
		"error": nil,
	})
}

func (lc *LoginController) LogoutUser(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken != "" {
		if err := lc.RedisClient.Del(lc.Ctx, "refresh_token:"+refreshToken).Err(); err != nil {
			config.Logger.Warn("Error deleting refresh token during logout", zap.Error(err))
		}
	}

	expired := time.Now().Add(-time.Hour)
	c.Cookie(&fiber.Cookie{Name: "access_token", Value: "", Expires: expired, HTTPOnly: true, Path: "/"})
	c.Cookie(&fiber.Cookie{Name: "refresh_token", Value: "", Expires: expired, HTTPOnly: true, Path: "/"})

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
		"data":    nil,
		"error":   nil,
	})
}

func (lc *LoginController) GetCurrentUser(c *fiber.Ctx) error {
	payload, ok := c.Locals("user").(*token.Payload)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
			"data":    nil,
			"error":   "Authentication required",
		})
	}

	user, err := lc.UserRepo.GetUserByEmail(payload.Email)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "User not found",
			"data":    nil,
			"error":   "User does not exist.",
		})
	}

	return c.JSON(fiber.Map{
		"message": "User retrieved successfully",
		"data": fiber.Map{
			"user": user,
		},
		"error": nil,
	})
}
