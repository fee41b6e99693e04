package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// validConfigYAML overrides a handful of values and leaves the rest to defaults.
const validConfigYAML = `
scraper:
  targets_path: "targets.json"
  page_delay_ms: 250
  retry:
    max_attempts: 3
    initial_delay_ms: 100
    max_delay_ms: 5000
    backoff_multiplier: 2.0
    timeout_sec: 30
extraction:
  min_quality_score: 55
validation:
  policy: "strict"
store:
  base_url: "https://store.example.edu/api"
  api_key: "file-key"
output:
  path: "out/colleges.json"
logging:
  level: "debug"
`

func TestLoadConfig_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "targets.json", cfg.Scraper.TargetsPath)
	assert.Equal(t, 250, cfg.Scraper.PageDelayMs)
	assert.Equal(t, 3, cfg.Scraper.Retry.MaxAttempts)
	assert.Equal(t, 55, cfg.Extraction.MinQualityScore)
	assert.Equal(t, PolicyStrict, cfg.Validation.Policy)
	assert.Equal(t, "https://store.example.edu/api", cfg.Store.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_FillsDefaults(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Scraper.InstitutionDelayMs, cfg.Scraper.InstitutionDelayMs)
	assert.Equal(t, def.Scraper.UserAgent, cfg.Scraper.UserAgent)
	assert.Equal(t, def.Extraction.BaseScore, cfg.Extraction.BaseScore)
	assert.Equal(t, def.Extraction.HeadingKeywords, cfg.Extraction.HeadingKeywords)
	assert.Equal(t, def.Extraction.Signals, cfg.Extraction.Signals)
	assert.Equal(t, def.Store.HealthTimeoutSec, cfg.Store.HealthTimeoutSec)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfig_SignalsReplaceDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
extraction:
  signals:
    counseling: 7
    "page not found": -20
`))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"counseling": 7, "page not found": -20}, cfg.Extraction.Signals)
}

func TestLoadConfig_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")

	cfg, err := LoadConfig(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Store.APIKey)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "scraper: [unclosed")

	_, err := LoadConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"max attempts", func(c *Config) { c.Scraper.Retry.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"initial delay", func(c *Config) { c.Scraper.Retry.InitialDelayMs = -1 }, ErrInvalidInitialDelay},
		{"backoff", func(c *Config) { c.Scraper.Retry.BackoffMultiplier = 0.5 }, ErrInvalidBackoffMultiplier},
		{"timeout", func(c *Config) { c.Scraper.Retry.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"page delay", func(c *Config) { c.Scraper.PageDelayMs = -5 }, ErrInvalidDelay},
		{"quality score", func(c *Config) { c.Extraction.MinQualityScore = 101 }, ErrInvalidQualityScore},
		{"signals", func(c *Config) { c.Extraction.Signals = nil }, ErrNoSignals},
		{"policy", func(c *Config) { c.Validation.Policy = "medium" }, ErrInvalidPolicy},
		{"store url missing", func(c *Config) { c.Store.BaseURL = "" }, ErrMissingStoreURL},
		{"store url scheme", func(c *Config) { c.Store.BaseURL = "ftp://store" }, ErrInvalidStoreURL},
		{"output path", func(c *Config) { c.Output.Path = "" }, ErrMissingOutputPath},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// --- RetryPolicy Tests ---

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	rp := RetryPolicy{
		InitialDelayMs:    100,
		MaxDelayMs:        1000,
		BackoffMultiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 0},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1000 * time.Millisecond}, // capped
		{10, 1000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, rp.GetRetryDelay(tt.attempt), "attempt %d", tt.attempt)
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10*time.Second, cfg.Scraper.Retry.GetTimeout())
	assert.Equal(t, 2*time.Second, cfg.Scraper.PageDelay())
	assert.Equal(t, 2*time.Second, cfg.Scraper.InstitutionDelay())
	assert.Equal(t, 5*time.Second, cfg.Store.HealthTimeout())
}

func TestConfig_String(t *testing.T) {
	assert.Contains(t, Default().String(), "Policy: loose")
}

func TestConfig_SaveConfig(t *testing.T) {
	cfg := Default()
	cfg.Validation.Policy = PolicyStrict

	savePath := filepath.Join(t.TempDir(), "saved_config.yaml")
	require.NoError(t, cfg.SaveConfig(savePath))

	loaded, err := LoadConfig(savePath)
	require.NoError(t, err)

	assert.Equal(t, PolicyStrict, loaded.Validation.Policy)
	assert.Equal(t, cfg.Extraction.Signals, loaded.Extraction.Signals)
}
