// Package config provides configuration management for the linkbio backend.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	SSO      SSOConfig
	Storage  StorageConfig
	Plans    PlanLimitsConfig
	Logging  LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        string
	Host        string
	PublicRPS   int // per-IP requests per second on the public endpoints
	PublicBurst int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration for the click-event log.
// The event log is optional: an empty Host disables it and all event-derived
// analytics read as zero.
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// Enabled reports whether a click-event store is configured.
func (c *ClickHouseConfig) Enabled() bool {
	return c.Host != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host            string
	Port            string
	Password        string
	DB              int
	MaxConnections  int
	SubscriptionTTL time.Duration
}

// Enabled reports whether a Redis cache is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// SSOConfig holds the external identity/subscription provider configuration
type SSOConfig struct {
	APIURL       string
	ClientURL    string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	JWKSURI      string
	APIKey       string // administrative key for activation and per-user lookups
	ServiceCode  string // identifies this service in subscription-status calls
	Timeout      time.Duration
}

// StorageConfig holds blob storage configuration for profile images
type StorageConfig struct {
	BaseURL          string
	APIKey           string
	ProfileBucket    string
	BackgroundBucket string
	MaxFileSizeBytes int64
}

// PlanLimitsConfig holds the free-tier quantity limits
type PlanLimitsConfig struct {
	FreeMaxLinks       int
	FreeMaxSocialLinks int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			PublicRPS:   getEnvAsInt("PUBLIC_RATE_LIMIT_RPS", 10),
			PublicBurst: getEnvAsInt("PUBLIC_RATE_LIMIT_BURST", 20),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "linkbio"),
				User:           getEnv("POSTGRES_USER", "linkbio"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", ""),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "linkbio"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:            getEnv("REDIS_HOST", ""),
				Port:            getEnv("REDIS_PORT", "6379"),
				Password:        getEnv("REDIS_PASSWORD", ""),
				DB:              getEnvAsInt("REDIS_DB", 0),
				MaxConnections:  getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
				SubscriptionTTL: getEnvAsDuration("REDIS_SUBSCRIPTION_TTL", 60*time.Second),
			},
		},
		SSO: SSOConfig{
			APIURL:       getEnv("SSO_API_URL", ""),
			ClientURL:    getEnv("SSO_CLIENT_URL", ""),
			ClientID:     getEnv("SSO_CLIENT_ID", ""),
			ClientSecret: getEnv("SSO_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("SSO_REDIRECT_URI", ""),
			JWKSURI:      getEnv("SSO_JWKS_URI", ""),
			APIKey:       getEnv("SSO_API_KEY", ""),
			ServiceCode:  getEnv("SSO_SERVICE_CODE", "linkbio"),
			Timeout:      getEnvAsDuration("SSO_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			BaseURL:          getEnv("STORAGE_BASE_URL", ""),
			APIKey:           getEnv("STORAGE_API_KEY", ""),
			ProfileBucket:    getEnv("STORAGE_BUCKET_PROFILES", "profiles"),
			BackgroundBucket: getEnv("STORAGE_BUCKET_BACKGROUNDS", "backgrounds"),
			MaxFileSizeBytes: int64(getEnvAsInt("MAX_FILE_SIZE_MB", 5)) * 1024 * 1024,
		},
		Plans: PlanLimitsConfig{
			FreeMaxLinks:       getEnvAsInt("FREE_MAX_LINKS", 5),
			FreeMaxSocialLinks: getEnvAsInt("FREE_MAX_SOCIAL_LINKS", 3),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
