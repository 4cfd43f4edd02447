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

// Config holds all configuration options for the scraper
type Config struct {
	// Session cookies and identity
	Session SessionConfig `yaml:"session" json:"session"`

	// HTTP transport settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SessionConfig holds the cookies that authenticate a session
type SessionConfig struct {
	CookieA   string `yaml:"cookie_a" json:"cookie_a"`
	CookieB   string `yaml:"cookie_b" json:"cookie_b"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Location  string `yaml:"location" json:"location"`
}

// HTTPConfig holds HTTP client settings
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	PageDelay         time.Duration `yaml:"page_delay" json:"page_delay"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	Replace       bool   `yaml:"replace" json:"replace"`
	Skip          bool   `yaml:"skip" json:"skip"`
	HashAlgorithm string `yaml:"hash_algorithm" json:"hash_algorithm"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			BaseURL:   "https://www.furaffinity.net",
			Location:  "UTC",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			PageDelay:         time.Second,
		},
		Download: DownloadConfig{
			BaseDirectory: "./downloads",
			HashAlgorithm: "sha256",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("FASCRAPER_COOKIE_A"); v != "" {
		c.Session.CookieA = v
	}
	if v := os.Getenv("FASCRAPER_COOKIE_B"); v != "" {
		c.Session.CookieB = v
	}
	if v := os.Getenv("FASCRAPER_USER_AGENT"); v != "" {
		c.Session.UserAgent = v
	}
	if v := os.Getenv("FASCRAPER_BASE_URL"); v != "" {
		c.Session.BaseURL = v
	}

	if v := os.Getenv("FASCRAPER_REQUESTS_PER_MINUTE"); v != "" {
		val, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FASCRAPER_REQUESTS_PER_MINUTE: %w", err)
		}
		c.RateLimit.RequestsPerMinute = val
	}
	if v := os.Getenv("FASCRAPER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FASCRAPER_TIMEOUT: %w", err)
		}
		c.HTTP.Timeout = d
	}

	if v := os.Getenv("FASCRAPER_OUTPUT_DIR"); v != "" {
		c.Download.BaseDirectory = v
	}
	if v := os.Getenv("FASCRAPER_HASH_ALGORITHM"); v != "" {
		c.Download.HashAlgorithm = v
	}

	if v := os.Getenv("FASCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FASCRAPER_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
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
	home := os.Getenv("HOME")
	locations := []string{
		".fascraper.yaml",
		".fascraper.yml",
		filepath.Join(home, ".config", "fascraper", "config.yaml"),
		filepath.Join(home, ".config", "fascraper", "config.yml"),
		filepath.Join(home, ".fascraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// HasCookies reports whether both session cookies are configured
func (c *Config) HasCookies() bool {
	return c.Session.CookieA != "" && c.Session.CookieB != ""
}

// Cookies returns the session cookies keyed by cookie name
func (c *Config) Cookies() map[string]string {
	return map[string]string{
		"a": c.Session.CookieA,
		"b": c.Session.CookieB,
	}
}

// Validate checks if the configuration is valid. Cookies are not required
// here; logging in is a separate step.
func (c *Config) Validate() error {
	var errs []error

	if c.Session.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	} else if !strings.HasPrefix(c.Session.BaseURL, "http://") && !strings.HasPrefix(c.Session.BaseURL, "https://") {
		errs = append(errs, errors.New("base URL must start with http:// or https://"))
	}
	if c.Session.Location != "" {
		if _, err := time.LoadLocation(c.Session.Location); err != nil {
			errs = append(errs, fmt.Errorf("invalid location %q: %w", c.Session.Location, err))
		}
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.PageDelay < 0 {
		errs = append(errs, errors.New("page delay cannot be negative"))
	}

	if c.Download.BaseDirectory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if c.Download.Replace && c.Download.Skip {
		errs = append(errs, errors.New("download replace and skip are mutually exclusive"))
	}
	if c.Download.HashAlgorithm == "" {
		errs = append(errs, errors.New("hash algorithm is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
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

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Cookies are credentials, keep the file private.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["cookie-a"].(string); ok && v != "" {
		c.Session.CookieA = v
	}
	if v, ok := flags["cookie-b"].(string); ok && v != "" {
		c.Session.CookieB = v
	}
	if v, ok := flags["user-agent"].(string); ok && v != "" {
		c.Session.UserAgent = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Download.BaseDirectory = v
	}
	if v, ok := flags["replace"].(bool); ok {
		c.Download.Replace = v
	}
	if v, ok := flags["skip"].(bool); ok {
		c.Download.Skip = v
	}
	if v, ok := flags["hash"].(string); ok && v != "" {
		c.Download.HashAlgorithm = v
	}
	if v, ok := flags["requests-per-minute"].(int); ok && v >= 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.HTTP.Timeout = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".fascraper.env"))

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
