package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service. Values come from the
// environment; a .env file is loaded first when present.
type Config struct {
	Port        string
	Environment string

	DatabaseDSN   string
	RunMigrations bool

	JWTSecret string
	TokenTTL  time.Duration

	AMQPURL      string
	AMQPExchange string

	OTLPEndpoint string
	DebugRoutes  bool
}

// Load reads configuration from the environment. DATABASE_DSN and JWT_SECRET
// are mandatory; there is deliberately no fallback signing secret.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("APP_ENV", "development"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		RunMigrations: getEnvAsBool("RUN_MIGRATIONS", false),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      getEnvAsDuration("TOKEN_TTL", 7*24*time.Hour),
		AMQPURL:       os.Getenv("AMQP_URL"),
		AMQPExchange:  getEnv("AMQP_EXCHANGE", "him.events"),
		OTLPEndpoint:  os.Getenv("OTLP_ENDPOINT"),
		DebugRoutes:   getEnvAsBool("DEBUG_ROUTES", false),
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
