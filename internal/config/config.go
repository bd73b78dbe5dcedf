package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the application configuration.
type Config struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`

	Database DatabaseConfig `yaml:"database"`

	// ImportFile is the server-side source read by POST /import.
	ImportFile string `yaml:"import_file"`

	LogLevel string `yaml:"log_level"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	RateLimit      float64 `yaml:"rate_limit"` // requests per second
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	QueryTimeout    time.Duration `yaml:"query_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the SQL engine and its data source.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Port: 3000,
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			URL:    "recipes.db",
		},
		ImportFile:         "US_recipes_null.json",
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"*"},
		RateLimit:          100,
		RateLimitBurst:     200,
		QueryTimeout:       30 * time.Second,
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       60 * time.Second,
		IdleTimeout:        120 * time.Second,
		ShutdownTimeout:    30 * time.Second,
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file in the working directory and finally the environment.
// An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
		}
	}

	// .env is optional; existing environment variables win over it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("ADDRESS"); v != "" {
		c.Address = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := getenv("IMPORT_FILE"); v != "" {
		c.ImportFile = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSAllowedOrigins = origins
	}
	if v := getenv("RATE_LIMIT"); v != "" {
		rl, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT %q: %w", v, err)
		}
		c.RateLimit = rl
	}
	if v := getenv("RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST %q: %w", v, err)
		}
		c.RateLimitBurst = burst
	}
	if v := getenv("QUERY_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid QUERY_TIMEOUT_SECONDS %q", v)
		}
		c.QueryTimeout = time.Duration(secs) * time.Second
	}
	// Allow customization of shutdown timeout to match K8s eviction grace period
	if v := getenv("SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS %q", v)
		}
		c.ShutdownTimeout = time.Duration(secs) * time.Second
	}
	return nil
}

// Validate reports configuration values the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RateLimit <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit and burst must be positive")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive")
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}
