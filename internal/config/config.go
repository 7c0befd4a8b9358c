// Package config holds workbridge configuration: upstream credentials and
// the size/poll limits that bound every response. Limits are handed to
// shaping code explicitly per call, never read from package globals.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full workbridge configuration.
type Config struct {
	Databricks DatabricksConfig `yaml:"databricks"`
	Notion     NotionConfig     `yaml:"notion"`
	Limits     Limits           `yaml:"limits"`
}

// DatabricksConfig configures the Databricks workspace client.
type DatabricksConfig struct {
	Host  string `yaml:"host"`
	Token string `yaml:"token"`
}

// NotionConfig configures the Notion API client.
type NotionConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Limits are the size budgets and poll defaults applied to responses.
type Limits struct {
	// MaxTextSize bounds any single text field (~100KB).
	MaxTextSize int `yaml:"max_text_size"`
	// MaxCellContent bounds one notebook cell.
	MaxCellContent int `yaml:"max_cell_content"`
	// MaxListItems bounds unbounded list operations.
	MaxListItems int `yaml:"max_list_items"`
	// MaxLogSize bounds run logs, which can be verbose.
	MaxLogSize int `yaml:"max_log_size"`

	// DefaultTimeoutMinutes is the default wait budget for runs.
	DefaultTimeoutMinutes int `yaml:"default_timeout_minutes"`
	// DefaultPollSeconds is the default interval between status checks.
	DefaultPollSeconds int `yaml:"default_poll_seconds"`
}

// DefaultLimits mirrors the budgets the server ships with.
func DefaultLimits() Limits {
	return Limits{
		MaxTextSize:           100_000,
		MaxCellContent:        50_000,
		MaxListItems:          100,
		MaxLogSize:            80_000,
		DefaultTimeoutMinutes: 30,
		DefaultPollSeconds:    10,
	}
}

// DefaultTimeout returns the default run-wait budget as a duration.
func (l Limits) DefaultTimeout() time.Duration {
	return time.Duration(l.DefaultTimeoutMinutes) * time.Minute
}

// DefaultPollInterval returns the default poll interval as a duration.
func (l Limits) DefaultPollInterval() time.Duration {
	return time.Duration(l.DefaultPollSeconds) * time.Second
}

// Load reads the YAML config at path (optional; a missing file yields
// defaults) and applies environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := &Config{Limits: DefaultLimits()}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	fillLimitDefaults(&cfg.Limits)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over file values. Env wins.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABRICKS_HOST"); v != "" {
		c.Databricks.Host = v
	}
	if v := os.Getenv("DATABRICKS_TOKEN"); v != "" {
		c.Databricks.Token = v
	}
	if v := os.Getenv("NOTION_API_KEY"); v != "" {
		c.Notion.APIKey = v
	}
}

// fillLimitDefaults replaces zero values with shipped defaults so a partial
// limits block in the file doesn't zero out the rest.
func fillLimitDefaults(l *Limits) {
	def := DefaultLimits()
	if l.MaxTextSize == 0 {
		l.MaxTextSize = def.MaxTextSize
	}
	if l.MaxCellContent == 0 {
		l.MaxCellContent = def.MaxCellContent
	}
	if l.MaxListItems == 0 {
		l.MaxListItems = def.MaxListItems
	}
	if l.MaxLogSize == 0 {
		l.MaxLogSize = def.MaxLogSize
	}
	if l.DefaultTimeoutMinutes == 0 {
		l.DefaultTimeoutMinutes = def.DefaultTimeoutMinutes
	}
	if l.DefaultPollSeconds == 0 {
		l.DefaultPollSeconds = def.DefaultPollSeconds
	}
}

// Validate checks limits are within acceptable ranges.
func (c *Config) Validate() error {
	l := c.Limits
	if l.MaxTextSize < 1024 {
		return fmt.Errorf("max_text_size must be >= 1024")
	}
	if l.MaxCellContent < 512 {
		return fmt.Errorf("max_cell_content must be >= 512")
	}
	if l.MaxListItems < 1 || l.MaxListItems > 1000 {
		return fmt.Errorf("max_list_items must be in 1..1000")
	}
	if l.MaxLogSize < 1024 {
		return fmt.Errorf("max_log_size must be >= 1024")
	}
	if l.DefaultPollSeconds < 1 {
		return fmt.Errorf("default_poll_seconds must be >= 1")
	}
	if l.DefaultTimeoutMinutes < 1 {
		return fmt.Errorf("default_timeout_minutes must be >= 1")
	}
	return nil
}

// ValidateDatabricks checks the Databricks credentials are present.
func (c *Config) ValidateDatabricks() error {
	if c.Databricks.Host == "" || c.Databricks.Token == "" {
		return fmt.Errorf("DATABRICKS_HOST and DATABRICKS_TOKEN must be set")
	}
	return nil
}

// ValidateNotion checks the Notion credentials are present.
func (c *Config) ValidateNotion() error {
	if c.Notion.APIKey == "" {
		return fmt.Errorf("NOTION_API_KEY must be set")
	}
	return nil
}
