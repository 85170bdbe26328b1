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

// Config holds all configuration options for the truthkit client
type Config struct {
	// API endpoint settings
	API APIConfig `yaml:"api" json:"api"`

	// Rate limiting and retry configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Media upload settings
	Media MediaConfig `yaml:"media" json:"media"`

	// Crawl settings
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Archive settings
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds endpoint-level configuration
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// RateLimitConfig holds rate limiting and retry configuration
type RateLimitConfig struct {
	// RequestsPerWindow and Window describe the vendor quota the client
	// paces itself against before the server ever says 429.
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window"`
	Window            time.Duration `yaml:"window" json:"window"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryBaseDelay    time.Duration `yaml:"retry_base_delay" json:"retry_base_delay"`
	RetryMaxDelay     time.Duration `yaml:"retry_max_delay" json:"retry_max_delay"`
}

// MediaConfig holds media upload pipeline configuration
type MediaConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval" json:"poll_interval"`
	PollIncrement time.Duration `yaml:"poll_increment" json:"poll_increment"`
	MaxPolls      int           `yaml:"max_polls" json:"max_polls"`
	MaxFileSize   int64         `yaml:"max_file_size" json:"max_file_size"`
}

// CrawlConfig holds pagination defaults
type CrawlConfig struct {
	PageSize int `yaml:"page_size" json:"page_size"`
}

// ArchiveConfig holds the optional sqlite archive settings
type ArchiveConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://truthsocial.com/api",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: 300,
			Window:            5 * time.Minute,
			MaxRetries:        4,
			RetryBaseDelay:    time.Second,
			RetryMaxDelay:     60 * time.Second,
		},
		Media: MediaConfig{
			PollInterval:  time.Second,
			PollIncrement: time.Second,
			MaxPolls:      30,
			MaxFileSize:   64 << 20,
		},
		Crawl: CrawlConfig{
			PageSize: 40,
		},
		Archive: ArchiveConfig{
			Path: "",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if baseURL := os.Getenv("TRUTHKIT_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if userAgent := os.Getenv("TRUTHKIT_USER_AGENT"); userAgent != "" {
		c.API.UserAgent = userAgent
	}
	if rpw := os.Getenv("TRUTHKIT_REQUESTS_PER_WINDOW"); rpw != "" {
		if val, err := strconv.Atoi(rpw); err == nil && val > 0 {
			c.RateLimit.RequestsPerWindow = val
		}
	}
	if retries := os.Getenv("TRUTHKIT_MAX_RETRIES"); retries != "" {
		if val, err := strconv.Atoi(retries); err == nil && val >= 0 {
			c.RateLimit.MaxRetries = val
		}
	}
	if archivePath := os.Getenv("TRUTHKIT_ARCHIVE_PATH"); archivePath != "" {
		c.Archive.Path = archivePath
	}
	if logLevel := os.Getenv("TRUTHKIT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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
	locations := []string{
		".truthkit.yaml",
		".truthkit.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "truthkit", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "truthkit", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".truthkit.yaml"),
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

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.RequestsPerWindow <= 0 {
		errs = append(errs, errors.New("requests per window must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Media.PollInterval <= 0 {
		errs = append(errs, errors.New("media poll interval must be positive"))
	}
	if c.Media.MaxPolls <= 0 {
		errs = append(errs, errors.New("media max polls must be positive"))
	}

	if c.Crawl.PageSize <= 0 || c.Crawl.PageSize > 80 {
		errs = append(errs, errors.New("crawl page size must be between 1 and 80"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Environment variables > .env file > Config file > Defaults
func Load(configPath string) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".truthkit.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config.LoadFromEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
