package config

import (
	"log"
	"os"
)

// GetEnv reads an environment variable, logging when it is missing so
// misconfigured deployments are visible early.
func GetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Printf("[CONFIG] environment variable %s is not set", key)
	}
	return value
}

// GetEnvOrDefault reads an environment variable with a fallback value.
func GetEnvOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
