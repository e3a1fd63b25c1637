// Package config loads and validates nlv configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/noleftovers/nlv/internal/task"
)

// ConfigFileName is the name of the per-user / per-directory config file.
const ConfigFileName = ".nlv.yaml"

// Config is the explicit configuration value object passed to the
// extraction collaborator and to provenance formatting. The core packages
// hold no ambient global state.
type Config struct {
	// APIKey is the Anthropic API key. If empty, the extractor falls
	// back to the ANTHROPIC_API_KEY environment variable.
	APIKey string `yaml:"api_key"`

	// Model is the completion model used for task extraction.
	Model string `yaml:"model"`

	// MasterPath is the path of the master checklist file.
	MasterPath string `yaml:"master_path"`

	// Header is the first line written when the master file is created.
	Header string `yaml:"header"`

	// ProvenanceStyle selects the suffix shape: "date" or "wikilink".
	ProvenanceStyle task.Style `yaml:"provenance_style"`

	// DateFormat is the Go reference layout for date provenance values.
	DateFormat string `yaml:"date_format"`

	// MaxTasks bounds how many tasks a single extraction may return.
	MaxTasks int `yaml:"max_tasks"`

	// Dedupe toggles duplicate suppression during merge.
	Dedupe bool `yaml:"dedupe"`

	// HistoryPath is the path of the capture history database.
	HistoryPath string `yaml:"history_path"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Model:           "claude-3-5-haiku-20241022",
		MasterPath:      "leftovers.md",
		Header:          "# No Leftovers",
		ProvenanceStyle: task.StyleDate,
		DateFormat:      "2006-01-02",
		MaxTasks:        20,
		Dedupe:          true,
		HistoryPath:     filepath.Join(".nlv", "history.db"),
	}
}

// Load reads the config file from the working directory, falling back to
// the user's home directory, then to defaults when neither exists.
// Environment variables override file values (see applyEnv).
func Load() (*Config, error) {
	path := ConfigFileName
	if _, err := os.Stat(path); os.IsNotExist(err) {
		home, herr := os.UserHomeDir()
		if herr != nil {
			cfg := Default()
			cfg.applyEnv()
			return cfg, cfg.Validate()
		}
		path = filepath.Join(home, ConfigFileName)
	}
	return LoadFile(path)
}

// LoadFile reads configuration from a specific path. A missing file yields
// the defaults, not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv applies environment variable overrides. These take precedence
// over file values so deployments can keep secrets out of config files.
func (c *Config) applyEnv() {
	if v := os.Getenv("NLV_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("NLV_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("NLV_MASTER"); v != "" {
		c.MasterPath = v
	}
	if v := os.Getenv("NLV_MAX_TASKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxTasks = n
		}
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.MasterPath == "" {
		return fmt.Errorf("master_path must not be empty")
	}
	if !c.ProvenanceStyle.Valid() {
		return fmt.Errorf("provenance_style must be %q or %q (got %q)",
			task.StyleDate, task.StyleWikilink, c.ProvenanceStyle)
	}
	if c.DateFormat == "" {
		return fmt.Errorf("date_format must not be empty")
	}
	if c.MaxTasks < 1 {
		return fmt.Errorf("max_tasks must be at least 1 (got %d)", c.MaxTasks)
	}
	return nil
}

// Save writes the configuration to path with 0600 permissions, since it
// may contain an API key.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
