// Package config provides configuration management for the catalogue pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidMaxAttempts       = errors.New("scraper.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("scraper.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("scraper.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("scraper.retry.timeout_sec must be at least 1")
	ErrInvalidDelay             = errors.New("scraper delays must be non-negative")
	ErrInvalidQualityScore      = errors.New("extraction.min_quality_score must be within 0..100")
	ErrNoSignals                = errors.New("extraction.signals must contain at least one term")
	ErrInvalidPolicy            = errors.New("validation.policy must be 'strict' or 'loose'")
	ErrMissingStoreURL          = errors.New("store.base_url is required")
	ErrInvalidStoreURL          = errors.New("store.base_url must be an http(s) URL")
	ErrMissingOutputPath        = errors.New("output.path is required")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
)

// Validation policy names.
const (
	PolicyStrict = "strict"
	PolicyLoose  = "loose"
)

// APIKeyEnv overrides store.api_key when set.
const APIKeyEnv = "MHDB_API_KEY"

// Config represents the complete pipeline configuration.
type Config struct {
	Scraper    ScraperConfig    `yaml:"scraper"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Validation ValidationConfig `yaml:"validation"`
	Store      StoreConfig      `yaml:"store"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ScraperConfig contains page fetching settings.
type ScraperConfig struct {
	UserAgent          string      `yaml:"user_agent"`
	TargetsPath        string      `yaml:"targets_path"`
	Retry              RetryPolicy `yaml:"retry"`
	PageDelayMs        int         `yaml:"page_delay_ms"`
	InstitutionDelayMs int         `yaml:"institution_delay_ms"`
	BufferSizeKb       int         `yaml:"buffer_size_kb"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// ExtractionConfig holds the scoring table and extraction limits.
type ExtractionConfig struct {
	Signals            map[string]int `yaml:"signals"`
	DefaultDepartment  string         `yaml:"default_department"`
	FreshmanFallback   string         `yaml:"freshman_fallback"`
	HeadingKeywords    []string       `yaml:"heading_keywords"`
	BaseScore          int            `yaml:"base_score"`
	MinQualityScore    int            `yaml:"min_quality_score"`
	LengthBonus        int            `yaml:"length_bonus"`
	ShortLength        int            `yaml:"short_length"`
	LongLength         int            `yaml:"long_length"`
	ContactBonus       int            `yaml:"contact_bonus"`
	MaxSections        int            `yaml:"max_sections"`
	MaxHeadings        int            `yaml:"max_headings"`
	MaxSiblings        int            `yaml:"max_siblings"`
	PlaceholderOnEmpty bool           `yaml:"placeholder_on_empty"`
}

// ValidationConfig selects the validator policy.
type ValidationConfig struct {
	Policy string `yaml:"policy"`
	Skip   bool   `yaml:"skip"`
}

// StoreConfig points at the persistent store API.
type StoreConfig struct {
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	HealthTimeoutSec int    `yaml:"health_timeout_sec"`
}

// OutputConfig defines where snapshots are written.
type OutputConfig struct {
	Path        string `yaml:"path"`
	SeedPath    string `yaml:"seed_path"`
	MetricsPath string `yaml:"metrics_path"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Scraper: ScraperConfig{
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			TargetsPath: "data/college_targets.json",
			Retry: RetryPolicy{
				MaxAttempts:       2,
				InitialDelayMs:    500,
				MaxDelayMs:        4000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        10,
			},
			PageDelayMs:        2000,
			InstitutionDelayMs: 2000,
			BufferSizeKb:       4096,
		},
		Extraction: ExtractionConfig{
			Signals:           DefaultSignals(),
			DefaultDepartment: "Student Affairs",
			FreshmanFallback:  "Visit the website for information about services for new students.",
			HeadingKeywords:   []string{"counseling", "mental health", "wellness", "caps", "psychological"},
			BaseScore:         50,
			MinQualityScore:   40,
			LengthBonus:       10,
			ShortLength:       200,
			LongLength:        500,
			ContactBonus:      10,
			MaxSections:       5,
			MaxHeadings:       10,
			MaxSiblings:       5,
		},
		Validation: ValidationConfig{
			Policy: PolicyLoose,
		},
		Store: StoreConfig{
			BaseURL:          "http://localhost:58346/api",
			HealthTimeoutSec: 5,
		},
		Output: OutputConfig{
			Path:     "data/scraped_colleges.json",
			SeedPath: "data/manual_colleges.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultSignals is the stock term table for the content scorer.
func DefaultSignals() map[string]int {
	signals := map[string]int{}

	for _, term := range []string{
		"counseling", "counselling", "mental health", "therapy", "therapist",
		"psychological", "psychiatric", "wellness", "wellbeing", "crisis",
		"appointment", "confidential", "support", "stress", "anxiety",
		"depression", "students",
	} {
		signals[term] = 5
	}

	for _, term := range []string{
		"404", "page not found", "server error", "javascript required",
		"enable javascript", "cookie", "just a moment", "access denied",
	} {
		signals[term] = -15
	}

	return signals
}

// Load reads the file at path, or returns the defaults when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}

	return LoadConfig(path)
}

// LoadConfig loads configuration from a YAML file and fills unset values from Default.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	defaults := Default()

	// A configured signal table replaces the stock table instead of extending it.
	if len(c.Extraction.Signals) > 0 {
		defaults.Extraction.Signals = nil
	}

	if err := mergo.Merge(c, *defaults); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}

	if key := os.Getenv(APIKeyEnv); key != "" {
		c.Store.APIKey = key
	}

	return nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	retry := c.Scraper.Retry
	if retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Scraper.PageDelayMs < 0 || c.Scraper.InstitutionDelayMs < 0 {
		return ErrInvalidDelay
	}

	if c.Extraction.MinQualityScore < 0 || c.Extraction.MinQualityScore > 100 {
		return ErrInvalidQualityScore
	}

	if len(c.Extraction.Signals) == 0 {
		return ErrNoSignals
	}

	if c.Validation.Policy != PolicyStrict && c.Validation.Policy != PolicyLoose {
		return ErrInvalidPolicy
	}

	if c.Store.BaseURL == "" {
		return ErrMissingStoreURL
	}

	if !strings.HasPrefix(c.Store.BaseURL, "http://") && !strings.HasPrefix(c.Store.BaseURL, "https://") {
		return fmt.Errorf("%w: %s", ErrInvalidStoreURL, c.Store.BaseURL)
	}

	if c.Output.Path == "" {
		return ErrMissingOutputPath
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// PageDelay is the pause between consecutive page fetches.
func (s *ScraperConfig) PageDelay() time.Duration {
	return time.Duration(s.PageDelayMs) * time.Millisecond
}

// InstitutionDelay is the pause between consecutive institutions.
func (s *ScraperConfig) InstitutionDelay() time.Duration {
	return time.Duration(s.InstitutionDelayMs) * time.Millisecond
}

// HealthTimeout bounds the store health check.
func (s *StoreConfig) HealthTimeout() time.Duration {
	return time.Duration(s.HealthTimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Targets: %s, Policy: %s, Store: %s, Output: %s}",
		c.Scraper.TargetsPath,
		c.Validation.Policy,
		c.Store.BaseURL,
		c.Output.Path,
	)
}
