package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Dispatch.Backend)
	assert.Equal(t, 3, cfg.Planning.DefaultDays)
	assert.Equal(t, 3, cfg.Planning.DefaultMealsPerDay)
	assert.True(t, cfg.Planning.DefaultUseFallback)
	assert.Equal(t, 15*time.Second, cfg.Providers.MealDB.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 9000
dispatch:
  backend: redis
  workers: 4
planning:
  default_days: 5
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("MEALPLANNER_PLANNING_DEFAULT_MEALS_PER_DAY", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Dispatch.Backend)
	assert.Equal(t, 4, cfg.Dispatch.Workers)
	assert.Equal(t, 5, cfg.Planning.DefaultDays)
	assert.Equal(t, 2, cfg.Planning.DefaultMealsPerDay)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:      AppConfig{Name: "mealplanner", Environment: "development"},
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
			Dispatch: DispatchConfig{Backend: "memory", Workers: 1},
			Providers: ProvidersConfig{
				Generative: GenerativeConfig{Backend: "none"},
			},
			Planning: PlanningConfig{DefaultDays: 3, DefaultMealsPerDay: 3},
		}
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"amqp without url", func(c *Config) { c.Dispatch.Backend = "amqp" }},
		{"gemini without key", func(c *Config) { c.Providers.Generative.Backend = "gemini" }},
		{"production without secret", func(c *Config) { c.App.Environment = "production" }},
		{"no workers", func(c *Config) { c.Dispatch.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
