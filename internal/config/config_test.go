package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "calroster.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

const validConfigYAML = `
calendar:
  id: "someone@example.com"
  token_file: "token-test.json"
export:
  from: "2010-12-01"
  to: "2025-01-05"
  output: "events.csv"
enrich:
  input: "events.csv"
  output: "roster.csv"
  model: "gpt-4o"
  cache_path: "cache.db"
  internal_emails:
    - "Me@Example.com"
    - "other@example.com"
logging:
  level: "debug"
`

func TestLoad(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}

	if cfg.Calendar.ID != "someone@example.com" {
		t.Errorf("Calendar.ID = %q, want someone@example.com", cfg.Calendar.ID)
	}
	if cfg.Export.From != "2010-12-01" || cfg.Export.To != "2025-01-05" {
		t.Errorf("Export window = %q..%q, want 2010-12-01..2025-01-05", cfg.Export.From, cfg.Export.To)
	}
	if err := cfg.ValidateExport(); err != nil {
		t.Errorf("ValidateExport returned unexpected error: %v", err)
	}
	if err := cfg.ValidateEnrich(); err != nil {
		t.Errorf("ValidateEnrich returned unexpected error: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load returned unexpected error: %v", err)
	}

	if cfg.Calendar.TokenFile != "token.json" {
		t.Errorf("TokenFile = %q, want token.json", cfg.Calendar.TokenFile)
	}
	if cfg.Export.Output != "calendar_events.csv" {
		t.Errorf("Export.Output = %q, want calendar_events.csv", cfg.Export.Output)
	}
	if cfg.Enrich.Input != "calendar_events.csv" {
		t.Errorf("Enrich.Input = %q, want calendar_events.csv", cfg.Enrich.Input)
	}
	if cfg.Enrich.Output != "external_attendees.csv" {
		t.Errorf("Enrich.Output = %q, want external_attendees.csv", cfg.Enrich.Output)
	}
	if cfg.Enrich.Model != "gpt-4o" {
		t.Errorf("Enrich.Model = %q, want gpt-4o", cfg.Enrich.Model)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestValidateExport(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Calendar.ID = "cal@example.com"
		cfg.Export.From = "2024-01-01"
		cfg.Export.To = "2024-12-31"
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"missing calendar id", func(c *Config) { c.Calendar.ID = "" }, ErrMissingCalendarID},
		{"missing from", func(c *Config) { c.Export.From = "" }, ErrMissingExportFrom},
		{"missing to", func(c *Config) { c.Export.To = "" }, ErrMissingExportTo},
		{"malformed from", func(c *Config) { c.Export.From = "01/02/2024" }, ErrMalformedDate},
		{"malformed to", func(c *Config) { c.Export.To = "2024-13-99" }, ErrMalformedDate},
		{"inverted window", func(c *Config) { c.Export.From = "2025-01-01" }, ErrWindowInverted},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.ValidateExport()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateExport returned unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateExport error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestInternalSet(t *testing.T) {
	cfg := &Config{}
	cfg.Enrich.InternalEmails = []string{"Me@Example.com", " spaced@example.com ", ""}

	set := cfg.InternalSet()
	if len(set) != 2 {
		t.Fatalf("InternalSet size = %d, want 2", len(set))
	}
	if !set["me@example.com"] {
		t.Error("expected me@example.com in the internal set")
	}
	if !set["spaced@example.com"] {
		t.Error("expected spaced@example.com in the internal set")
	}
}
