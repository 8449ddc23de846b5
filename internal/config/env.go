package config

import (
	"os"
	"strconv"
)

// EnvOrDefault returns the environment variable value for key if set, otherwise the fallback.
func EnvOrDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// FloatFromEnv parses a float from the given environment variable key.
// If parsing fails the fallback value is returned.
func FloatFromEnv(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

// IntFromEnv parses an integer from the given environment variable key.
// If parsing fails the fallback value is returned.
func IntFromEnv(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
