package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for lcscraper
type Config struct {
	// Scrape run inputs and outputs
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`

	// Pacing between fetched items
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Failure recovery for the scrape loop
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Remote catalog endpoints
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// Relational store for sync runs
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ScraperConfig holds the page session and local file settings
type ScraperConfig struct {
	ProblemBaseURL string        `yaml:"problem_base_url" json:"problem_base_url"`
	RenderURL      string        `yaml:"render_url" json:"render_url"`
	TagSelector    string        `yaml:"tag_selector" json:"tag_selector"`
	TutorialMarker string        `yaml:"tutorial_marker" json:"tutorial_marker"`
	WaitTimeout    time.Duration `yaml:"wait_timeout" json:"wait_timeout"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	CheckpointFile string        `yaml:"checkpoint_file" json:"checkpoint_file"`
	RecordsFile    string        `yaml:"records_file" json:"records_file"`
	IncludePaid    bool          `yaml:"include_paid" json:"include_paid"`
}

// RateLimitConfig holds pacing configuration
type RateLimitConfig struct {
	ItemDelay         time.Duration `yaml:"item_delay" json:"item_delay"`
	PauseEvery        int           `yaml:"pause_every" json:"pause_every"`
	PauseDelay        time.Duration `yaml:"pause_delay" json:"pause_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds failure handling configuration for the scrape loop
type RetryConfig struct {
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures" json:"max_consecutive_failures"`
	RecoveryDelay          time.Duration `yaml:"recovery_delay" json:"recovery_delay"`
	HTTPAttempts           int           `yaml:"http_attempts" json:"http_attempts"`
}

// CatalogConfig holds remote catalog endpoints
type CatalogConfig struct {
	AlgorithmsURL string        `yaml:"algorithms_url" json:"algorithms_url"`
	GraphQLURL    string        `yaml:"graphql_url" json:"graphql_url"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
}

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	URL            string        `yaml:"url" json:"url"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	TxTimeout      time.Duration `yaml:"tx_timeout" json:"tx_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			ProblemBaseURL: "https://leetcode.com/problems/",
			TagSelector:    `a[href^="/tag/"]`,
			TutorialMarker: "Enable Dynamic Layout",
			WaitTimeout:    10 * time.Second,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			CheckpointFile: "track.conf",
			RecordsFile:    "lc_problems.json",
			IncludePaid:    false,
		},
		RateLimit: RateLimitConfig{
			ItemDelay:         5 * time.Second,
			PauseEvery:        30,
			PauseDelay:        2 * time.Minute,
			RequestsPerSecond: 1,
			BurstSize:         1,
		},
		Retry: RetryConfig{
			MaxConsecutiveFailures: 5,
			RecoveryDelay:          5 * time.Minute,
			HTTPAttempts:           3,
		},
		Catalog: CatalogConfig{
			AlgorithmsURL: "https://leetcode.com/api/problems/algorithms/",
			GraphQLURL:    "https://leetcode.com/graphql/",
			Timeout:       15 * time.Second,
		},
		Database: DatabaseConfig{
			ConnectTimeout: 30 * time.Second,
			TxTimeout:      2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("LCSCRAPER_PROBLEM_BASE_URL"); v != "" {
		c.Scraper.ProblemBaseURL = v
	}
	if v := os.Getenv("LCSCRAPER_RENDER_URL"); v != "" {
		c.Scraper.RenderURL = v
	}
	if v := os.Getenv("LCSCRAPER_CHECKPOINT_FILE"); v != "" {
		c.Scraper.CheckpointFile = v
	}
	if v := os.Getenv("LCSCRAPER_RECORDS_FILE"); v != "" {
		c.Scraper.RecordsFile = v
	}
	if v := os.Getenv("LCSCRAPER_INCLUDE_PAID"); v != "" {
		c.Scraper.IncludePaid = strings.ToLower(v) == "true"
	}

	if v := os.Getenv("LCSCRAPER_ITEM_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LCSCRAPER_ITEM_DELAY: %w", err))
		} else {
			c.RateLimit.ItemDelay = d
		}
	}
	if v := os.Getenv("LCSCRAPER_RECOVERY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LCSCRAPER_RECOVERY_DELAY: %w", err))
		} else {
			c.Retry.RecoveryDelay = d
		}
	}
	if v := os.Getenv("LCSCRAPER_MAX_FAILURES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LCSCRAPER_MAX_FAILURES: %w", err))
		} else {
			c.Retry.MaxConsecutiveFailures = n
		}
	}

	// DB_URL is honoured for existing deployments
	if v := os.Getenv("DB_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("LCSCRAPER_DB_URL"); v != "" {
		c.Database.URL = v
	}

	if v := os.Getenv("LCSCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LCSCRAPER_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"lcscraper.yaml",
		".lcscraper.yaml",
		".lcscraper.yml",
		filepath.Join(home, ".config", "lcscraper", "config.yaml"),
		filepath.Join(home, ".lcscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Scraper.ProblemBaseURL == "" {
		errs = append(errs, errors.New("problem base URL is required"))
	}
	if c.Scraper.TagSelector == "" {
		errs = append(errs, errors.New("tag selector is required"))
	}
	if c.Scraper.CheckpointFile == "" {
		errs = append(errs, errors.New("checkpoint file is required"))
	}
	if c.Scraper.RecordsFile == "" {
		errs = append(errs, errors.New("records file is required"))
	}
	if c.Scraper.WaitTimeout <= 0 {
		errs = append(errs, errors.New("wait timeout must be positive"))
	}

	if c.RateLimit.ItemDelay < 0 || c.RateLimit.PauseDelay < 0 {
		errs = append(errs, errors.New("delays cannot be negative"))
	}
	if c.RateLimit.PauseEvery <= 0 {
		errs = append(errs, errors.New("pause interval must be positive"))
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests per second must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.MaxConsecutiveFailures < 0 {
		errs = append(errs, errors.New("max consecutive failures cannot be negative"))
	}
	if c.Retry.RecoveryDelay < 0 {
		errs = append(errs, errors.New("recovery delay cannot be negative"))
	}
	if c.Retry.HTTPAttempts <= 0 {
		errs = append(errs, errors.New("http attempts must be positive"))
	}

	if c.Catalog.AlgorithmsURL == "" || c.Catalog.GraphQLURL == "" {
		errs = append(errs, errors.New("catalog endpoints are required"))
	}
	if c.Catalog.Timeout <= 0 {
		errs = append(errs, errors.New("catalog timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["checkpoint"].(string); ok && v != "" {
		c.Scraper.CheckpointFile = v
	}
	if v, ok := flags["records"].(string); ok && v != "" {
		c.Scraper.RecordsFile = v
	}
	if v, ok := flags["render-url"].(string); ok && v != "" {
		c.Scraper.RenderURL = v
	}
	if v, ok := flags["include-paid"].(bool); ok {
		c.Scraper.IncludePaid = v
	}
	if v, ok := flags["db-url"].(string); ok && v != "" {
		c.Database.URL = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".lcscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
