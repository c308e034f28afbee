package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level configuration for rtl-transpile
type Config struct {
	// Dialect selects the output language: "verilog" or "systemverilog"
	Dialect string `json:"dialect,omitempty"`

	// Strategy selects the lifting strategy: "ast" or "regex"
	Strategy string `json:"strategy,omitempty"`

	// Indent is the number of spaces per indentation level in generated output
	Indent int `json:"indent,omitempty"`

	// OutputDir is where generated files are written; empty means next to the source
	OutputDir string `json:"outputDir,omitempty"`

	// EmitIR additionally writes the lifted IR as JSON next to each output file
	EmitIR bool `json:"emitIR,omitempty"`

	// Sources controls which files are picked up and from where
	Sources SourcesConfig `json:"sources,omitempty"`

	// Review contains review-rule configuration
	Review ReviewConfig `json:"review,omitempty"`
}

// SourcesConfig controls source file discovery
type SourcesConfig struct {
	// Extensions lists the file extensions treated as VHDL sources
	Extensions []string `json:"extensions,omitempty"`

	// Include is a list of glob patterns for source files
	Include []string `json:"include,omitempty"`

	// Exclude is a list of glob patterns to skip entirely
	Exclude []string `json:"exclude,omitempty"`

	// AllowedFolders restricts transpilation to these directories.
	// Empty means no restriction.
	AllowedFolders []string `json:"allowedFolders,omitempty"`

	// MaxFileSize is the per-file size limit in bytes (0 = default 10 MiB)
	MaxFileSize int64 `json:"maxFileSize,omitempty"`
}

// ReviewConfig contains review-rule configuration
type ReviewConfig struct {
	// Rules maps rule names to severity: "off", "warning", "error"
	Rules map[string]string `json:"rules,omitempty"`
}

// DefaultMaxFileSize is the source size cap applied when the config does
// not set one.
const DefaultMaxFileSize = 10 << 20

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Dialect:  "systemverilog",
		Strategy: "ast",
		Indent:   4,
		Sources: SourcesConfig{
			Extensions:  []string{".vhd", ".vhdl"},
			Include:     []string{"*.vhd", "*.vhdl", "**/*.vhd", "**/*.vhdl"},
			Exclude:     []string{},
			MaxFileSize: DefaultMaxFileSize,
		},
		Review: ReviewConfig{
			Rules: map[string]string{},
		},
	}
}

// Load finds and loads the configuration file
// Search order:
//  1. ./rtl_transpile.json (current working directory)
//  2. ./.rtl_transpile.json (current working directory)
//  3. <rootPath>/rtl_transpile.json (if different from cwd)
//  4. ~/.config/rtl_transpile/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "rtl_transpile.json"),
		filepath.Join(cwd, ".rtl_transpile.json"),
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, "rtl_transpile.json"),
				filepath.Join(rootPath, ".rtl_transpile.json"),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "rtl_transpile", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Dialect == "" {
		c.Dialect = "systemverilog"
	}
	if c.Strategy == "" {
		c.Strategy = "ast"
	}
	if c.Indent <= 0 {
		c.Indent = 4
	}
	if len(c.Sources.Extensions) == 0 {
		c.Sources.Extensions = []string{".vhd", ".vhdl"}
	}
	if len(c.Sources.Include) == 0 {
		c.Sources.Include = []string{"*.vhd", "*.vhdl", "**/*.vhd", "**/*.vhdl"}
	}
	if c.Sources.MaxFileSize <= 0 {
		c.Sources.MaxFileSize = DefaultMaxFileSize
	}
	if c.Review.Rules == nil {
		c.Review.Rules = make(map[string]string)
	}
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetRuleSeverity returns the severity for a rule, or the default if not configured
func (c *Config) GetRuleSeverity(rule string, defaultSeverity string) string {
	if severity, ok := c.Review.Rules[rule]; ok {
		return severity
	}
	return defaultSeverity
}

// IsRuleEnabled returns true if the rule is not set to "off"
func (c *Config) IsRuleEnabled(rule string) bool {
	if severity, ok := c.Review.Rules[rule]; ok {
		return severity != "off"
	}
	return true // enabled by default
}
