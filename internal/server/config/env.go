package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables onto config.
// An optional .env file in the working directory is loaded first; real
// environment variables win over file values (godotenv does not override).
//
// Recognized variables:
//
//	INKPAD_ADDR              HTTP bind address (e.g. ":8080")
//	INKPAD_BACKEND           storage backend: postgres | redis | memory
//	INKPAD_DATABASE_DSN      PostgreSQL DSN
//	INKPAD_REDIS_ADDR        Redis host:port
//	INKPAD_SECRET_KEY        JWT HMAC secret
//	INKPAD_ACCESS_TOKEN_TTL  access token lifetime (Go duration, e.g. "15m")
//	INKPAD_REFRESH_TOKEN_TTL refresh token lifetime (Go duration)
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("INKPAD_ADDR"); v != "" {
		config.EndpointAddr = v
	}
	if v := os.Getenv("INKPAD_BACKEND"); v != "" {
		config.Backend = v
	}
	if v := os.Getenv("INKPAD_DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("INKPAD_REDIS_ADDR"); v != "" {
		config.RedisAddr = v
	}
	if v := os.Getenv("INKPAD_SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("INKPAD_ACCESS_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.AccessTokenValidityDuration = d
		}
	}
	if v := os.Getenv("INKPAD_REFRESH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.RefreshTokenValidityDuration = d
		}
	}
}
