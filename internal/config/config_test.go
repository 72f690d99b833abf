package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:         "development",
		JWTSecret:   "secure-secret-at-least-32-chars-long",
		Port:        "8080",
		StoreDriver: "gorm",
		DBDriver:    "sqlite",
		DBSSLMode:   "disable",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBDriver = "postgres"
			c.DBPassword = "secure-password"
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateDrivers(t *testing.T) {
	c := validConfig()
	c.StoreDriver = "firebase"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.StoreDriver = "memory"
	c.DBDriver = ""
	assert.NoError(t, c.Validate())

	c.Env = "production"
	assert.Error(t, c.Validate(), "memory store is refused in production")
}

func TestConfig_Durations(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 10*time.Second, c.LoadTimeout())
	assert.Equal(t, 30*time.Minute, c.SessionIdle())
	assert.Equal(t, time.Hour, c.SearchCacheTTL())

	c.LoadTimeoutSeconds = 3
	c.SessionIdleMinutes = 5
	c.SearchCacheTTLSeconds = 60
	assert.Equal(t, 3*time.Second, c.LoadTimeout())
	assert.Equal(t, 5*time.Minute, c.SessionIdle())
	assert.Equal(t, time.Minute, c.SearchCacheTTL())
}

func TestLoadConfig_Normalization(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("STORE_DRIVER", " Memory ")
	t.Setenv("LOAD_TIMEOUT_SECONDS", "4")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "memory", c.StoreDriver)
	assert.Equal(t, 4*time.Second, c.LoadTimeout())
	assert.Equal(t, "8375", c.Port)
}
