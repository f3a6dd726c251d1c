// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
// External collaborator settings (storage, metadata lookup, AI endpoints) live
// here and are passed into the gateway constructors at startup; nothing in the
// core reads environment variables directly.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`
	Env            string `mapstructure:"APP_ENV"`

	// Video metadata lookup (oEmbed-compatible endpoint).
	OEmbedURL     string `mapstructure:"OEMBED_URL"`
	OEmbedTimeout int    `mapstructure:"OEMBED_TIMEOUT_SECONDS"`

	// Blob storage used for result photos and custom thumbnails.
	StorageBaseURL    string `mapstructure:"STORAGE_BASE_URL"`
	StorageBucket     string `mapstructure:"STORAGE_BUCKET"`
	StorageSigningKey string `mapstructure:"STORAGE_SIGNING_KEY"`
	PresignTTLSeconds int    `mapstructure:"PRESIGN_TTL_SECONDS"`

	// Suggestion service (OpenAI-compatible chat completions endpoint).
	SuggestAPIURL  string `mapstructure:"SUGGEST_API_URL"`
	SuggestAPIKey  string `mapstructure:"SUGGEST_API_KEY"`
	SuggestModel   string `mapstructure:"SUGGEST_MODEL"`
	SuggestTimeout int    `mapstructure:"SUGGEST_TIMEOUT_SECONDS"`

	// Thumbnail image model host.
	ThumbAPIURL  string `mapstructure:"THUMB_API_URL"`
	ThumbAPIKey  string `mapstructure:"THUMB_API_KEY"`
	ThumbTimeout int    `mapstructure:"THUMB_TIMEOUT_SECONDS"`

	// OpenTelemetry tracing.
	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
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
	viper.SetDefault("PORT", "8460")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "doneby")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "ai_suggestions=on,thumbnail_generation=on")
	viper.SetDefault("APP_ENV", "development")

	viper.SetDefault("OEMBED_URL", "https://www.youtube.com/oembed")
	viper.SetDefault("OEMBED_TIMEOUT_SECONDS", 5)
	viper.SetDefault("STORAGE_BASE_URL", "http://localhost:9000")
	viper.SetDefault("STORAGE_BUCKET", "doneby-uploads")
	viper.SetDefault("STORAGE_SIGNING_KEY", "dev-storage-signing-key")
	viper.SetDefault("PRESIGN_TTL_SECONDS", 900)
	viper.SetDefault("SUGGEST_API_URL", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("SUGGEST_API_KEY", "")
	viper.SetDefault("SUGGEST_MODEL", "gpt-4o-mini")
	viper.SetDefault("SUGGEST_TIMEOUT_SECONDS", 20)
	viper.SetDefault("THUMB_API_URL", "")
	viper.SetDefault("THUMB_API_KEY", "")
	viper.SetDefault("THUMB_TIMEOUT_SECONDS", 60)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

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
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.StorageSigningKey == "dev-storage-signing-key" || c.StorageSigningKey == "" {
			return errors.New("STORAGE_SIGNING_KEY must be set to a real key in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else {
		// Development/Test warnings
		if len(c.JWTSecret) < 32 {
			log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
	}

	return nil
}
