package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envFrom(map[string]string{
		"PORT":                     "8080",
		"DATABASE_DRIVER":          "Postgres",
		"DATABASE_URL":             "postgres://localhost/recipes?sslmode=disable",
		"IMPORT_FILE":              "/data/recipes.json",
		"CORS_ALLOWED_ORIGINS":     "http://localhost:5173, http://example.com ,",
		"RATE_LIMIT":               "5.5",
		"RATE_LIMIT_BURST":         "10",
		"QUERY_TIMEOUT_SECONDS":    "3",
		"SHUTDOWN_TIMEOUT_SECONDS": "9",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/recipes?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, "/data/recipes.json", cfg.ImportFile)
	assert.Equal(t, []string{"http://localhost:5173", "http://example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5.5, cfg.RateLimit)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, 3*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 9*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	for _, key := range []string{"PORT", "RATE_LIMIT", "RATE_LIMIT_BURST", "QUERY_TIMEOUT_SECONDS", "SHUTDOWN_TIMEOUT_SECONDS"} {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, cfg.applyEnv(envFrom(map[string]string{key: "abc"})))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"empty url", func(c *Config) { c.Database.URL = "" }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }},
		{"zero timeout", func(c *Config) { c.QueryTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
port: 9090
database:
  driver: sqlite
  url: /tmp/catalog.db
import_file: seed.json
query_timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	chdirForTest(t, dir)
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("IMPORT_FILE", "")
	t.Setenv("QUERY_TIMEOUT_SECONDS", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/catalog.db", cfg.Database.URL)
	assert.Equal(t, "seed.json", cfg.ImportFile)
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// chdirForTest changes the working directory for the duration of the test
// and restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
