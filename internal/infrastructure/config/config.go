// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch"`
	Planning   PlanningConfig   `mapstructure:"planning"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns host:port for the Redis client
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// CatalogConfig controls the stored recipe corpus
type CatalogConfig struct {
	SeedFile string `mapstructure:"seed_file"`
	Limit    int    `mapstructure:"limit"`
}

// ProvidersConfig configures the external and generative recipe sources
type ProvidersConfig struct {
	MealDB     MealDBConfig     `mapstructure:"mealdb"`
	Generative GenerativeConfig `mapstructure:"generative"`
}

// MealDBConfig configures the remote recipe database client
type MealDBConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	MealIDs    []string      `mapstructure:"meal_ids"`
	Searches   []string      `mapstructure:"searches"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
	Burst      int           `mapstructure:"burst"`
}

// GenerativeConfig selects and configures the text generation backend
type GenerativeConfig struct {
	Backend     string        `mapstructure:"backend"`
	GeminiKey   string        `mapstructure:"gemini_key"`
	GeminiModel string        `mapstructure:"gemini_model"`
	OllamaHost  string        `mapstructure:"ollama_host"`
	OllamaModel string        `mapstructure:"ollama_model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	BatchSize   int           `mapstructure:"batch_size"`
}

// DispatchConfig configures background plan generation
type DispatchConfig struct {
	Backend string        `mapstructure:"backend"`
	Workers int           `mapstructure:"workers"`
	Queue   string        `mapstructure:"queue"`
	AMQPURL string        `mapstructure:"amqp_url"`
	TaskTTL time.Duration `mapstructure:"task_ttl"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PlanningConfig holds defaults applied to generation requests
type PlanningConfig struct {
	DefaultDays        int  `mapstructure:"default_days"`
	DefaultMealsPerDay int  `mapstructure:"default_meals_per_day"`
	DefaultUseFallback bool `mapstructure:"default_use_fallback"`
}

// MonitoringConfig controls metrics exposure and trace export
type MonitoringConfig struct {
	MetricsEnabled  bool    `mapstructure:"metrics_enabled"`
	TracingEnabled  bool    `mapstructure:"tracing_enabled"`
	TracingEndpoint string  `mapstructure:"tracing_endpoint"`
	TracingInsecure bool    `mapstructure:"tracing_insecure"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/mealplanner")
	}

	v.SetEnvPrefix("MEALPLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// defaults cover a missing file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mealplanner")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "55s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "mealplanner.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "mealplanner")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	v.SetDefault("auth.issuer", "mealplanner")

	v.SetDefault("catalog.limit", 200)

	v.SetDefault("providers.mealdb.enabled", false)
	v.SetDefault("providers.mealdb.base_url", "https://www.themealdb.com/api/json/v1/1")
	v.SetDefault("providers.mealdb.timeout", "15s")
	v.SetDefault("providers.mealdb.rate_per_sec", 2.0)
	v.SetDefault("providers.mealdb.burst", 1)

	v.SetDefault("providers.generative.backend", "none")
	v.SetDefault("providers.generative.gemini_model", "gemini-1.5-flash")
	v.SetDefault("providers.generative.ollama_host", "http://localhost:11434")
	v.SetDefault("providers.generative.ollama_model", "llama3.2:3b")
	v.SetDefault("providers.generative.timeout", "60s")
	v.SetDefault("providers.generative.batch_size", 6)

	v.SetDefault("dispatch.backend", "memory")
	v.SetDefault("dispatch.workers", 2)
	v.SetDefault("dispatch.queue", "mealplan.generate")
	v.SetDefault("dispatch.task_ttl", "24h")
	v.SetDefault("dispatch.timeout", "5m")

	v.SetDefault("planning.default_days", 3)
	v.SetDefault("planning.default_meals_per_day", 3)
	v.SetDefault("planning.default_use_fallback", true)

	v.SetDefault("monitoring.metrics_enabled", true)
	v.SetDefault("monitoring.tracing_enabled", false)
	v.SetDefault("monitoring.tracing_endpoint", "localhost:4318")
	v.SetDefault("monitoring.tracing_insecure", true)
	v.SetDefault("monitoring.sampling_rate", 0.1)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}

	switch c.Dispatch.Backend {
	case "memory", "redis":
	case "amqp":
		if c.Dispatch.AMQPURL == "" {
			return fmt.Errorf("dispatch.amqp_url is required for the amqp backend")
		}
	default:
		return fmt.Errorf("unsupported dispatch.backend %q", c.Dispatch.Backend)
	}
	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("dispatch.workers must be at least 1")
	}

	switch c.Providers.Generative.Backend {
	case "none", "ollama":
	case "gemini":
		if c.Providers.Generative.GeminiKey == "" {
			return fmt.Errorf("providers.generative.gemini_key is required for gemini")
		}
	default:
		return fmt.Errorf("unsupported providers.generative.backend %q", c.Providers.Generative.Backend)
	}

	if c.Planning.DefaultDays < 1 || c.Planning.DefaultMealsPerDay < 1 {
		return fmt.Errorf("planning defaults must be positive")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDSN returns the postgres connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
