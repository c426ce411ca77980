package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config carries every runtime setting the server needs. Values come from
// an optional config.yaml plus environment overrides.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Port        int    `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	Version     string `mapstructure:"VERSION"`
	RateLimit   int    `mapstructure:"RATE_LIMIT"`

	// Token lifetimes, fixed rather than configurable.
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration

	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	// S3-compatible media storage (avatars).
	MediaStorageBucket   string `mapstructure:"MEDIA_STORAGE_BUCKET"`
	MediaStorageRegion   string `mapstructure:"MEDIA_STORAGE_REGION"`
	MediaStorageEndpoint string `mapstructure:"MEDIA_STORAGE_ENDPOINT"`
	MediaStorageKey      string `mapstructure:"MEDIA_STORAGE_KEY"`
	MediaStorageSecret   string `mapstructure:"MEDIA_STORAGE_SECRET"`
	MediaBaseURL         string `mapstructure:"MEDIA_BASE_URL"`
}

// LoadConfig reads config.yaml from dir if present, applies defaults, and
// lets environment variables override everything.
func LoadConfig(dir string) (*Config, error) {
	viper.AddConfigPath(dir)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	viper.SetDefault("VERSION", "1.0.0")
	viper.SetDefault("RATE_LIMIT", 100) // requests per minute per IP

	viper.AutomaticEnv()
	for _, key := range []string{
		"DATABASE_URL",
		"JWT_SECRET",
		"MEDIA_STORAGE_BUCKET",
		"MEDIA_STORAGE_REGION",
		"MEDIA_STORAGE_ENDPOINT",
		"MEDIA_STORAGE_KEY",
		"MEDIA_STORAGE_SECRET",
		"MEDIA_BASE_URL",
	} {
		_ = viper.BindEnv(key)
	}

	// A missing config file is fine; env vars alone are a valid setup.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.AccessTokenDuration = time.Hour
	cfg.RefreshTokenDuration = 7 * 24 * time.Hour

	return &cfg, nil
}
