package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Jira scraper
type Config struct {
	// Jira API settings
	Jira JiraConfig `yaml:"jira" json:"jira"`

	// Scrape run settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Checkpoint settings
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// JiraConfig holds Jira-specific configuration
type JiraConfig struct {
	BaseURL     string `yaml:"base_url" json:"base_url"`
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
	APIToken    string `yaml:"api_token" json:"api_token"`
	Fields      string `yaml:"fields" json:"fields"`
	MaxPageSize int    `yaml:"max_page_size" json:"max_page_size"`
}

// ScrapeConfig holds settings for the pagination engine
type ScrapeConfig struct {
	Projects       []string      `yaml:"projects" json:"projects"`
	PageSize       int           `yaml:"page_size" json:"page_size"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	// MaxIssues caps the number of issues fetched per project (0 means no
	// cap). Used for smoke runs against large projects.
	MaxIssues int `yaml:"max_issues" json:"max_issues"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// CheckpointConfig holds checkpoint file configuration
type CheckpointConfig struct {
	File string `yaml:"file" json:"file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultFields is the field list requested from the Jira search API
const DefaultFields = "summary,description,status,priority,issuetype,reporter," +
	"assignee,created,updated,resolutiondate,labels,components"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Jira: JiraConfig{
			BaseURL:     "https://issues.apache.org/jira/rest/api/2",
			UserAgent:   "jirascraper/1.0",
			Fields:      DefaultFields,
			MaxPageSize: 100,
		},
		Scrape: ScrapeConfig{
			Projects:       []string{"KAFKA", "BEAM", "HARMONY"},
			PageSize:       50,
			RequestTimeout: 30 * time.Second,
			MaxRetries:     5,
			MaxIssues:      0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Output: OutputConfig{
			Directory: "output",
		},
		Checkpoint: CheckpointConfig{
			File: "checkpoint.json",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("JIRASCRAPER_BASE_URL"); baseURL != "" {
		c.Jira.BaseURL = baseURL
	}
	if token := os.Getenv("JIRASCRAPER_API_TOKEN"); token != "" {
		c.Jira.APIToken = token
	}
	if userAgent := os.Getenv("JIRASCRAPER_USER_AGENT"); userAgent != "" {
		c.Jira.UserAgent = userAgent
	}

	if projects := os.Getenv("JIRASCRAPER_PROJECTS"); projects != "" {
		var parsed []string
		for _, p := range strings.Split(projects, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parsed = append(parsed, p)
			}
		}
		if len(parsed) > 0 {
			c.Scrape.Projects = parsed
		}
	}

	if pageSize := os.Getenv("JIRASCRAPER_PAGE_SIZE"); pageSize != "" {
		var val int
		fmt.Sscanf(pageSize, "%d", &val)
		if val > 0 {
			c.Scrape.PageSize = val
		}
	}

	if rpm := os.Getenv("JIRASCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if outputDir := os.Getenv("JIRASCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}

	if checkpointFile := os.Getenv("JIRASCRAPER_CHECKPOINT_FILE"); checkpointFile != "" {
		c.Checkpoint.File = checkpointFile
	}

	if logLevel := os.Getenv("JIRASCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
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
	locations := []string{
		".jirascraper.yaml",
		".jirascraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "jirascraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "jirascraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".jirascraper.yaml"),
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

	if c.Jira.BaseURL == "" {
		errs = append(errs, errors.New("Jira base URL is required"))
	}
	if c.Jira.MaxPageSize <= 0 {
		errs = append(errs, errors.New("max page size must be positive"))
	}

	if len(c.Scrape.Projects) == 0 {
		errs = append(errs, errors.New("at least one project is required"))
	}
	for _, p := range c.Scrape.Projects {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, errors.New("project identifiers must be non-empty"))
			break
		}
	}
	if c.Scrape.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Jira.MaxPageSize > 0 && c.Scrape.PageSize > c.Jira.MaxPageSize {
		errs = append(errs, fmt.Errorf("page size exceeds API maximum of %d", c.Jira.MaxPageSize))
	}
	if c.Scrape.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Scrape.MaxRetries < 1 {
		errs = append(errs, errors.New("max retries must be at least 1"))
	}
	if c.Scrape.MaxIssues < 0 {
		errs = append(errs, errors.New("max issues cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Checkpoint.File == "" {
		errs = append(errs, errors.New("checkpoint file is required"))
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

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeFlags merges command line flag values into the configuration
func (c *Config) MergeFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Jira.BaseURL = baseURL
	}
	if token, ok := flags["api-token"].(string); ok && token != "" {
		c.Jira.APIToken = token
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if checkpointFile, ok := flags["checkpoint"].(string); ok && checkpointFile != "" {
		c.Checkpoint.File = checkpointFile
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Scrape.PageSize = pageSize
	}
	if maxIssues, ok := flags["max-issues"].(int); ok && maxIssues > 0 {
		c.Scrape.MaxIssues = maxIssues
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if projects, ok := flags["projects"].([]string); ok && len(projects) > 0 {
		c.Scrape.Projects = projects
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".jirascraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
