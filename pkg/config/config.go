package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/qscore/pkg/analyzer/score"
)

// Config holds all configuration options for qscore.
type Config struct {
	// Category weights of the overall score
	Weights WeightsConfig `koanf:"weights" toml:"weights"`

	// Custom rule settings
	Rules RulesConfig `koanf:"rules" toml:"rules"`

	// Score history settings
	History HistoryConfig `koanf:"history" toml:"history"`

	// Metric bundle collection
	Metrics MetricsConfig `koanf:"metrics" toml:"metrics"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// WeightsConfig holds the weight of each scored category.
type WeightsConfig struct {
	CodeQuality  float64 `koanf:"code_quality" toml:"code_quality"`
	TestCoverage float64 `koanf:"test_coverage" toml:"test_coverage"`
	Architecture float64 `koanf:"architecture" toml:"architecture"`
	Security     float64 `koanf:"security" toml:"security"`
}

// RulesConfig locates the custom rules file.
type RulesConfig struct {
	File           string   `koanf:"file" toml:"file"`
	FileExtensions []string `koanf:"file_extensions" toml:"file_extensions"`
}

// HistoryConfig controls the rolling score history.
type HistoryConfig struct {
	Enabled    bool   `koanf:"enabled" toml:"enabled"`
	File       string `koanf:"file" toml:"file"`
	MaxRecords int    `koanf:"max_records" toml:"max_records"`
}

// MetricsConfig controls how metric bundles are collected.
type MetricsConfig struct {
	Dir       string `koanf:"dir" toml:"dir"`
	MaxFanOut int    `koanf:"max_fan_out" toml:"max_fan_out"`
	BatchSize int    `koanf:"batch_size" toml:"batch_size"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, yaml, toon
	Color  bool   `koanf:"color" toml:"color"`
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "markdown", "yaml", "toon"}

// ConfigurationError reports an invalid configuration value.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	w := score.DefaultWeights()
	return &Config{
		Weights: WeightsConfig{
			CodeQuality:  w.CodeQuality,
			TestCoverage: w.TestCoverage,
			Architecture: w.Architecture,
			Security:     w.Security,
		},
		Rules: RulesConfig{
			File:           ".qscore/rules.json",
			FileExtensions: []string{".ts", ".tsx", ".js", ".jsx"},
		},
		History: HistoryConfig{
			Enabled:    true,
			File:       ".qscore/history.json",
			MaxRecords: 30,
		},
		Metrics: MetricsConfig{
			Dir:       ".qscore/metrics",
			MaxFanOut: 4,
			BatchSize: 500,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.d.ts",
			},
			Dirs: []string{
				"node_modules",
				".git",
				".qscore",
				"dist",
				"build",
				"coverage",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".qscore/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

var weightKeys = []string{"code_quality", "test_coverage", "architecture", "security"}

// Load loads configuration from a file, merged over the defaults, and validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	// A weights section replaces the defaults entirely, so it must be complete.
	if k.Exists("weights") {
		for _, key := range weightKeys {
			if !k.Exists("weights." + key) {
				return nil, &ConfigurationError{Field: "weights." + key, Reason: "missing"}
			}
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configNames lists the file names searched for, in order.
var configNames = []string{
	"qscore.toml",
	"qscore.yaml",
	"qscore.yml",
	"qscore.json",
	".qscore.toml",
	".qscore.yaml",
	".qscore.yml",
	".qscore.json",
}

// Find returns the first config file found under root, or "" if none exists.
func Find(root string) string {
	for _, dir := range []string{root, filepath.Join(root, ".qscore")} {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault loads the first config file found under root. Defaults are
// returned when none exists; an invalid file is an error.
func LoadOrDefault(root string) (*Config, string, error) {
	path := Find(root)
	if path == "" {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// ScoreWeights converts the weights section for the scoring engine.
func (c *Config) ScoreWeights() score.Weights {
	return score.Weights{
		CodeQuality:  c.Weights.CodeQuality,
		TestCoverage: c.Weights.TestCoverage,
		Architecture: c.Weights.Architecture,
		Security:     c.Weights.Security,
	}
}

// Validate checks the configuration and returns a *ConfigurationError for the
// first invalid value.
func (c *Config) Validate() error {
	if err := c.ScoreWeights().Validate(); err != nil {
		return &ConfigurationError{Field: "weights", Reason: err.Error()}
	}
	if c.History.MaxRecords <= 0 {
		return &ConfigurationError{Field: "history.max_records", Reason: "must be greater than 0"}
	}
	if c.Metrics.MaxFanOut <= 0 {
		return &ConfigurationError{Field: "metrics.max_fan_out", Reason: "must be greater than 0"}
	}
	if c.Metrics.BatchSize <= 0 {
		return &ConfigurationError{Field: "metrics.batch_size", Reason: "must be greater than 0"}
	}
	if c.Cache.TTL < 0 {
		return &ConfigurationError{Field: "cache.ttl", Reason: "must not be negative"}
	}
	if !knownFormat(c.Output.Format) {
		return &ConfigurationError{
			Field:  "output.format",
			Reason: fmt.Sprintf("unknown format %q (want one of %s)", c.Output.Format, strings.Join(Formats, ", ")),
		}
	}
	return nil
}

// IsConfigurationError reports whether err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func knownFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}
