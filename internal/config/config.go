package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsonstruct/internal/naming"
)

// Array inference modes.
const (
	ArrayInferenceFirst   = "first"
	ArrayInferenceUniform = "uniform"
)

// Config represents the complete configuration for jsonstruct
type Config struct {
	Package    string           `yaml:"package"`
	RootName   string           `yaml:"root_name"`
	Formatting FormattingConfig `yaml:"formatting"`
	Types      TypesConfig      `yaml:"types"`
	Naming     NamingConfig     `yaml:"naming"`
	JSONTags   JSONTagsConfig   `yaml:"json_tags"`
	Arrays     ArraysConfig     `yaml:"arrays"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// FormattingConfig controls code formatting options
type FormattingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TypesConfig controls type inference and mapping
type TypesConfig struct {
	ForceInt64         bool          `yaml:"force_int64"`
	OptionalAsPointers bool          `yaml:"optional_as_pointers"`
	Mappings           []TypeMapping `yaml:"mappings"`
}

// TypeMapping forces the Go type of every field whose JSON key matches Pattern.
type TypeMapping struct {
	Pattern string `yaml:"pattern"`
	Type    string `yaml:"type"`
	Import  string `yaml:"import,omitempty"`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// NamingConfig controls field and struct naming
type NamingConfig struct {
	Style         naming.Style      `yaml:"style"`
	QualifyNested bool              `yaml:"qualify_nested"`
	FieldMappings map[string]string `yaml:"field_mappings"`
}

// JSONTagsConfig controls JSON tag generation
type JSONTagsConfig struct {
	OmitemptyForPointers bool     `yaml:"omitempty_for_pointers"`
	OmitemptyForSlices   bool     `yaml:"omitempty_for_slices"`
	SkipFields           []string `yaml:"skip_fields"`
}

// ArraysConfig controls array element inference
type ArraysConfig struct {
	Inference string `yaml:"inference"`
}

// ServerConfig controls the HTTP conversion endpoint
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
	CacheSize    int    `yaml:"cache_size"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Package:  "main",
		RootName: "RootType",
		Formatting: FormattingConfig{
			Enabled: true,
		},
		Types: TypesConfig{
			Mappings: []TypeMapping{},
		},
		Naming: NamingConfig{
			Style:         naming.StyleUnderscore,
			FieldMappings: make(map[string]string),
		},
		JSONTags: JSONTagsConfig{
			SkipFields: []string{},
		},
		Arrays: ArraysConfig{
			Inference: ArrayInferenceFirst,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 1 << 20,
			CacheSize:    256,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.compilePatterns(); err != nil {
		return nil, fmt.Errorf("failed to compile patterns: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonstruct.yml", ".jsonstruct.yaml", "jsonstruct.yml", "jsonstruct.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate rejects option values the analyzer does not understand.
func (c *Config) Validate() error {
	if !c.Naming.Style.Valid() {
		return fmt.Errorf("invalid naming style '%s': want %q or %q", c.Naming.Style, naming.StyleUnderscore, naming.StyleCamel)
	}
	switch c.Arrays.Inference {
	case ArrayInferenceFirst, ArrayInferenceUniform:
	default:
		return fmt.Errorf("invalid array inference '%s': want %q or %q", c.Arrays.Inference, ArrayInferenceFirst, ArrayInferenceUniform)
	}
	for _, m := range c.Types.Mappings {
		if m.Type == "" {
			return fmt.Errorf("type mapping '%s' has no type", m.Pattern)
		}
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	return nil
}

// compilePatterns compiles all regex patterns in the config
func (c *Config) compilePatterns() error {
	for i := range c.Types.Mappings {
		mapping := &c.Types.Mappings[i]
		regex, err := regexp.Compile(mapping.Pattern)
		if err != nil {
			return fmt.Errorf("invalid type mapping pattern '%s': %w", mapping.Pattern, err)
		}
		mapping.regex = regex
	}
	return nil
}

// MatchesField checks if this type mapping matches the given JSON key
func (tm *TypeMapping) MatchesField(jsonKey string) bool {
	if tm.regex == nil {
		regex, err := regexp.Compile(tm.Pattern)
		if err != nil {
			return false
		}
		tm.regex = regex
	}
	return tm.regex.MatchString(jsonKey)
}

// GetFieldName returns the Go field name for a JSON key, applying naming rules
func (c *Config) GetFieldName(jsonKey string) string {
	if mapped, exists := c.Naming.FieldMappings[jsonKey]; exists {
		return mapped
	}
	return naming.Transform(jsonKey, c.Naming.Style)
}

// FindTypeMapping finds the first type mapping that matches the JSON key.
// Mappings are matched on copies so a shared Config is never written to.
func (c *Config) FindTypeMapping(jsonKey string) (TypeMapping, bool) {
	for _, mapping := range c.Types.Mappings {
		if mapping.MatchesField(jsonKey) {
			return mapping, true
		}
	}
	return TypeMapping{}, false
}

// ShouldSkipField checks if a field should be rendered as json:"-"
func (c *Config) ShouldSkipField(jsonKey string) bool {
	for _, skip := range c.JSONTags.SkipFields {
		if skip == jsonKey {
			return true
		}
	}
	return false
}

// CLIOverrides carries the command-line values that take precedence over
// the config file when they differ from the flag defaults.
type CLIOverrides struct {
	Package    string
	RootName   string
	ForceInt64 bool
	NoFormat   bool
	Debug      bool
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath string, cli CLIOverrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	// Flag defaults leave the config file value alone.
	if cli.Package != "" && cli.Package != "main" {
		cfg.Package = cli.Package
	}
	if cli.RootName != "" && cli.RootName != "RootType" {
		cfg.RootName = cli.RootName
	}
	if cli.ForceInt64 {
		cfg.Types.ForceInt64 = true
	}
	if cli.NoFormat {
		cfg.Formatting.Enabled = false
	}
	if cli.Debug {
		cfg.Log.Level = "debug"
	}

	return cfg, nil
}
