package app

import (
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/utils"
)

// Config holds ambient settings. Client- and store-specific settings
// (provider credentials, DATABASE_URL, REDIS_ADDR) are read by their
// owners at construction and abort startup when missing.
type Config struct {
	JWTSecretKey string
	Environment  string
	Version      string
	Port         string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		JWTSecretKey: utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		Environment:  utils.GetEnv("APP_ENV", "development", log),
		Version:      utils.GetEnv("APP_VERSION", "dev", log),
		Port:         utils.GetEnv("PORT", "8080", log),
	}
}
