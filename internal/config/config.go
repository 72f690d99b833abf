// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	// DevRootUserID is promoted to admin at startup in development.
	DevRootUserID string `mapstructure:"DEV_ROOT_USER_ID"`
	DevRootEmail  string `mapstructure:"DEV_ROOT_EMAIL"`

	// StoreDriver selects the document store backend: "gorm" or "memory".
	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBSSLMode   string `mapstructure:"DB_SSLMODE"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	LoadTimeoutSeconds int `mapstructure:"LOAD_TIMEOUT_SECONDS"`
	SessionIdleMinutes int `mapstructure:"SESSION_IDLE_MINUTES"`

	SearchAPIURL          string `mapstructure:"SEARCH_API_URL"`
	SearchAPIKey          string `mapstructure:"SEARCH_API_KEY"`
	SearchEngineID        string `mapstructure:"SEARCH_ENGINE_ID"`
	SearchCacheTTLSeconds int    `mapstructure:"SEARCH_CACHE_TTL_SECONDS"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

const defaultJWTSecret = "your-secret-key-change-in-production"

var configKeys = []string{
	"JWT_SECRET", "PORT", "APP_ENV", "ALLOWED_ORIGINS", "FEATURE_FLAGS", "DEV_ROOT_USER_ID", "DEV_ROOT_EMAIL",
	"STORE_DRIVER", "DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"SQLITE_PATH", "REDIS_URL", "LOAD_TIMEOUT_SECONDS", "SESSION_IDLE_MINUTES",
	"SEARCH_API_URL", "SEARCH_API_KEY", "SEARCH_ENGINE_ID", "SEARCH_CACHE_TTL_SECONDS",
	"TRACING_ENABLED", "TRACING_EXPORTER", "OTLP_ENDPOINT", "TRACING_SAMPLER_RATIO",
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()
	for _, key := range configKeys {
		_ = viper.BindEnv(key)
	}

	// The base file may not exist.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("FEATURE_FLAGS", "recommendations=on,suggestions=on")
	viper.SetDefault("STORE_DRIVER", "gorm")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "resourcehub")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "resourcehub.db")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("LOAD_TIMEOUT_SECONDS", 10)
	viper.SetDefault("SESSION_IDLE_MINUTES", 30)
	viper.SetDefault("SEARCH_API_URL", "https://www.googleapis.com/customsearch/v1")
	viper.SetDefault("SEARCH_CACHE_TTL_SECONDS", 3600)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
}

// IsProduction reports whether the app runs with a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// LoadTimeout is how long startup waits for every mirror to report in.
func (c *Config) LoadTimeout() time.Duration {
	if c.LoadTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.LoadTimeoutSeconds) * time.Second
}

// SessionIdle is how long a dashboard session may go unused before eviction.
func (c *Config) SessionIdle() time.Duration {
	if c.SessionIdleMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// SearchCacheTTL is how long suggestion lookups stay cached in Redis.
func (c *Config) SearchCacheTTL() time.Duration {
	if c.SearchCacheTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.SearchCacheTTLSeconds) * time.Second
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case "gorm", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be gorm or memory, got %q", c.StoreDriver)
	}
	if c.StoreDriver == "gorm" {
		switch c.DBDriver {
		case "postgres", "sqlite":
		default:
			return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
		}
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.StoreDriver == "memory" {
			return errors.New("STORE_DRIVER=memory is not allowed in production")
		}
		if c.DBDriver == "postgres" {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must enable SSL in production")
			}
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
