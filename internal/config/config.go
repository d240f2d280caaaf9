// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	// Remote collaborators
	ServiceURL  string `mapstructure:"SERVICE_URL"`
	ServiceKey  string `mapstructure:"SERVICE_KEY"`
	MediaBucket string `mapstructure:"MEDIA_BUCKET"`
	GenAPIKey   string `mapstructure:"GEN_API_KEY"`

	// Generation memo cache
	RedisURL    string `mapstructure:"REDIS_URL"`
	GenCacheTTL int    `mapstructure:"GEN_CACHE_TTL_SECONDS"`

	// Device-local draft store
	DraftDBPath string `mapstructure:"DRAFT_DB_PATH"`

	// Embedded development backend
	DevServer   bool   `mapstructure:"DEV_SERVER"`
	DevPort     string `mapstructure:"DEV_PORT"`
	DevDBURL    string `mapstructure:"DEV_DB_URL"`
	DevSeed     bool   `mapstructure:"DEV_SEED"`
	DevSeedFile string `mapstructure:"DEV_SEED_FILE"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	// Observability
	TracingEnabled bool    `mapstructure:"TRACING_ENABLED"`
	TraceExporter  string  `mapstructure:"TRACE_EXPORTER"`
	OTLPEndpoint   string  `mapstructure:"OTLP_ENDPOINT"`
	TraceSample    float64 `mapstructure:"TRACE_SAMPLE_RATIO"`

	Env string `mapstructure:"APP_ENV"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	// Set default values for development
	viper.SetDefault("SERVICE_URL", "http://localhost:8375")
	viper.SetDefault("SERVICE_KEY", "")
	viper.SetDefault("MEDIA_BUCKET", "media")
	viper.SetDefault("GEN_API_KEY", "")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("GEN_CACHE_TTL_SECONDS", 3600)
	viper.SetDefault("DRAFT_DB_PATH", "campusnet-drafts.db")
	viper.SetDefault("DEV_SERVER", true)
	viper.SetDefault("DEV_PORT", "8375")
	viper.SetDefault("DEV_DB_URL", "")
	viper.SetDefault("DEV_SEED", true)
	viper.SetDefault("DEV_SEED_FILE", "")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACE_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACE_SAMPLE_RATIO", 1.0)
	viper.SetDefault("APP_ENV", "development")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.ServiceURL == "" {
		return errors.New("SERVICE_URL is required")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.DevServer {
			return errors.New("DEV_SERVER must be disabled in production")
		}
		if c.ServiceKey == "" {
			return errors.New("SERVICE_KEY is required in production")
		}
		if c.GenAPIKey == "" {
			log.Println("WARNING: GEN_API_KEY is not set. Title suggestion and summarization will always fall back.")
		}
	}

	if c.DevServer {
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when the embedded development backend is enabled")
		}
		if len(c.JWTSecret) < 32 {
			log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret.")
		}
	}

	return nil
}
