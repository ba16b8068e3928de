package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://issues.apache.org/jira/rest/api/2", cfg.Jira.BaseURL)
	assert.Equal(t, 50, cfg.Scrape.PageSize)
	assert.Equal(t, 100, cfg.Jira.MaxPageSize)
	assert.Equal(t, 5, cfg.Scrape.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Scrape.RequestTimeout)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "output", cfg.Output.Directory)
	assert.Equal(t, "checkpoint.json", cfg.Checkpoint.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JIRASCRAPER_BASE_URL", "https://jira.example.com/rest/api/2")
	t.Setenv("JIRASCRAPER_PROJECTS", "SPARK, HADOOP")
	t.Setenv("JIRASCRAPER_PAGE_SIZE", "25")
	t.Setenv("JIRASCRAPER_REQUESTS_PER_MINUTE", "30")
	t.Setenv("JIRASCRAPER_OUTPUT_DIR", "/tmp/out")
	t.Setenv("JIRASCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "https://jira.example.com/rest/api/2", cfg.Jira.BaseURL)
	assert.Equal(t, []string{"SPARK", "HADOOP"}, cfg.Scrape.Projects)
	assert.Equal(t, 25, cfg.Scrape.PageSize)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "/tmp/out", cfg.Output.Directory)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
jira:
  base_url: https://jira.internal/rest/api/2
scrape:
  projects: [FLINK]
  page_size: 10
rate_limit:
  requests_per_minute: 10
output:
  directory: data
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://jira.internal/rest/api/2", cfg.Jira.BaseURL)
	assert.Equal(t, []string{"FLINK"}, cfg.Scrape.Projects)
	assert.Equal(t, 10, cfg.Scrape.PageSize)
	assert.Equal(t, "data", cfg.Output.Directory)
	// Untouched keys keep their defaults.
	assert.Equal(t, 5, cfg.Scrape.MaxRetries)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"no projects", func(c *Config) { c.Scrape.Projects = nil }, false},
		{"blank project", func(c *Config) { c.Scrape.Projects = []string{" "} }, false},
		{"zero page size", func(c *Config) { c.Scrape.PageSize = 0 }, false},
		{"page size above API maximum", func(c *Config) { c.Scrape.PageSize = 500 }, false},
		{"zero retries", func(c *Config) { c.Scrape.MaxRetries = 0 }, false},
		{"negative max issues", func(c *Config) { c.Scrape.MaxIssues = -1 }, false},
		{"zero rpm", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, false},
		{"empty output dir", func(c *Config) { c.Output.Directory = "" }, false},
		{"empty checkpoint file", func(c *Config) { c.Checkpoint.File = "" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMergeFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeFlags(map[string]interface{}{
		"base-url":  "https://other/rest/api/2",
		"output":    "elsewhere",
		"page-size": 20,
		"projects":  []string{"CAMEL"},
	})

	assert.Equal(t, "https://other/rest/api/2", cfg.Jira.BaseURL)
	assert.Equal(t, "elsewhere", cfg.Output.Directory)
	assert.Equal(t, 20, cfg.Scrape.PageSize)
	assert.Equal(t, []string{"CAMEL"}, cfg.Scrape.Projects)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Scrape.Projects = []string{"ZOOKEEPER"}
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, []string{"ZOOKEEPER"}, loaded.Scrape.Projects)
}
