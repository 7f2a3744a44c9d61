package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:5173")
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://church.example.com, https://www.church.example.com")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"https://church.example.com", "https://www.church.example.com"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			MongoURI:           "mongodb://localhost:27017/victors_assembly",
			AccessTokenSecret:  "access-secret",
			RefreshTokenSecret: "refresh-secret",
		}
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing mongo uri", func(c *Config) { c.MongoURI = "" }},
		{"bad mongo uri scheme", func(c *Config) { c.MongoURI = "postgres://localhost" }},
		{"missing access secret", func(c *Config) { c.AccessTokenSecret = "" }},
		{"missing refresh secret", func(c *Config) { c.RefreshTokenSecret = "" }},
		{"identical secrets", func(c *Config) { c.RefreshTokenSecret = c.AccessTokenSecret }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
