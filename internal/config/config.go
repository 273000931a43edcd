// Package config loads and validates the calroster configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingCalendarID  = errors.New("calendar.id is required")
	ErrMissingExportFrom  = errors.New("export.from is required")
	ErrMissingExportTo    = errors.New("export.to is required")
	ErrMalformedDate      = errors.New("dates must use the YYYY-MM-DD format")
	ErrMissingOutputPath  = errors.New("output path is required")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrWindowInverted     = errors.New("export.from must not be after export.to")
	ErrMissingEnrichModel = errors.New("enrich.model is required")
)

// Config is the complete calroster configuration.
type Config struct {
	Calendar CalendarConfig `yaml:"calendar"`
	Export   ExportConfig   `yaml:"export"`
	Enrich   EnrichConfig   `yaml:"enrich"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CalendarConfig identifies the source calendar and the token file
// used to authenticate against it.
type CalendarConfig struct {
	ID        string `yaml:"id"`
	TokenFile string `yaml:"token_file"`
}

// ExportConfig holds the date window and output paths for the event
// export stage. From and To are inclusive calendar dates.
type ExportConfig struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Output    string `yaml:"output"`
	ICSOutput string `yaml:"ics_output"`
}

// EnrichConfig holds the attendee aggregation settings.
type EnrichConfig struct {
	Input          string   `yaml:"input"`
	Output         string   `yaml:"output"`
	Model          string   `yaml:"model"`
	CachePath      string   `yaml:"cache_path"`
	InternalEmails []string `yaml:"internal_emails"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML configuration from path and applies defaults.
// A missing file is not an error; the caller gets a config with
// defaults only, so the tool works from flags and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Calendar.TokenFile == "" {
		c.Calendar.TokenFile = "token.json"
	}
	if c.Export.Output == "" {
		c.Export.Output = "calendar_events.csv"
	}
	if c.Enrich.Input == "" {
		c.Enrich.Input = c.Export.Output
	}
	if c.Enrich.Output == "" {
		c.Enrich.Output = "external_attendees.csv"
	}
	if c.Enrich.Model == "" {
		c.Enrich.Model = "gpt-4o"
	}
	if c.Enrich.CachePath == "" {
		c.Enrich.CachePath = "enrich-cache.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for the export stage.
func (c *Config) ValidateExport() error {
	if c.Calendar.ID == "" {
		return ErrMissingCalendarID
	}
	if c.Export.From == "" {
		return ErrMissingExportFrom
	}
	if c.Export.To == "" {
		return ErrMissingExportTo
	}
	from, err := time.Parse("2006-01-02", c.Export.From)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedDate, c.Export.From)
	}
	to, err := time.Parse("2006-01-02", c.Export.To)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedDate, c.Export.To)
	}
	if from.After(to) {
		return ErrWindowInverted
	}
	if c.Export.Output == "" {
		return ErrMissingOutputPath
	}
	return c.validateLogging()
}

// ValidateEnrich checks the configuration for the enrichment stage.
func (c *Config) ValidateEnrich() error {
	if c.Enrich.Input == "" || c.Enrich.Output == "" {
		return ErrMissingOutputPath
	}
	if c.Enrich.Model == "" {
		return ErrMissingEnrichModel
	}
	return c.validateLogging()
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return ErrInvalidLogLevel
}

// InternalSet returns the internal-email exclusion set with every
// address lowercased, for case-insensitive membership tests.
func (c *Config) InternalSet() map[string]bool {
	set := make(map[string]bool, len(c.Enrich.InternalEmails))
	for _, email := range c.Enrich.InternalEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			set[email] = true
		}
	}
	return set
}
