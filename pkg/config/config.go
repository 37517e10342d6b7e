// Package config provides configuration loading and management for mrighosting.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"mrighosting/pkg/ghosting"
)

// AppName is used for the XDG config and data directories
const AppName = "mrighosting"

// EnvConfigPath names the environment variable that overrides the config path
const EnvConfigPath = "MRIGHOSTING_CONFIG"

// Validation errors returned by Config.Validate
var (
	ErrInvalidSliceSize    = errors.New("invalid slice size: must be positive")
	ErrInvalidPadding      = errors.New("invalid ghost padding: must be non-negative")
	ErrInvalidFraction     = errors.New("invalid fraction: must lie between 0 and 1")
	ErrInvalidNumCores     = errors.New("invalid number of cores: must be positive")
	ErrInvalidReportFormat = errors.New("invalid report format: must be json, markdown or parquet")
	ErrInvalidImageFormat  = errors.New("invalid overlay format: must be png or jpeg")
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Analysis parameters
	Analysis struct {
		// SliceSize is the side length of every sampling window in pixels
		SliceSize int `yaml:"sliceSize"`

		// GhostPadding is the gap kept between phantom and ghost search area
		GhostPadding int `yaml:"ghostPadding"`

		// MaxPaddingFraction is the fallback padding, relative to the phase axis
		// length, used when GhostPadding leaves no search area
		MaxPaddingFraction float64 `yaml:"maxPaddingFraction"`

		// SignalFraction is the share of the maximum that counts as phantom signal
		SignalFraction float64 `yaml:"signalFraction"`
	} `yaml:"analysis"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many acquisitions are analysed at once
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir is where overlays and reports are written
		Dir string `yaml:"dir"`

		// Overlays enables one diagnostic image per acquisition
		Overlays bool `yaml:"overlays"`

		// OverlayFormat is png or jpeg
		OverlayFormat string `yaml:"overlayFormat"`

		// ReportFormat is json, markdown or parquet
		ReportFormat string `yaml:"reportFormat"`

		// Database is the SQLite file results are stored in; empty disables it
		Database string `yaml:"database"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Level is a logrus level name
		Level string `yaml:"level"`

		// Format is text or json
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	opts := ghosting.DefaultOptions()
	cfg.Analysis.SliceSize = opts.SliceSize
	cfg.Analysis.GhostPadding = opts.GhostPadding
	cfg.Analysis.MaxPaddingFraction = opts.MaxPaddingFraction
	cfg.Analysis.SignalFraction = opts.SignalFraction

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Output.Dir = "."
	cfg.Output.Overlays = false
	cfg.Output.OverlayFormat = "png"
	cfg.Output.ReportFormat = "json"
	cfg.Output.Database = ""

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	return cfg
}

// DefaultConfigPath returns the config file location, honouring
// MRIGHOSTING_CONFIG before falling back to the XDG config directory
func DefaultConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DefaultDatabasePath returns the SQLite result store under the XDG data directory
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, AppName, "results.db")
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks the configuration for values the pipeline cannot use
func (c *Config) Validate() error {
	if c.Analysis.SliceSize < 1 {
		return ErrInvalidSliceSize
	}
	if c.Analysis.GhostPadding < 0 {
		return ErrInvalidPadding
	}
	if c.Analysis.MaxPaddingFraction < 0 || c.Analysis.MaxPaddingFraction > 1 {
		return fmt.Errorf("%w: maxPaddingFraction %g", ErrInvalidFraction, c.Analysis.MaxPaddingFraction)
	}
	if c.Analysis.SignalFraction <= 0 || c.Analysis.SignalFraction >= 1 {
		return fmt.Errorf("%w: signalFraction %g", ErrInvalidFraction, c.Analysis.SignalFraction)
	}
	if c.Processing.NumCores < 1 {
		return ErrInvalidNumCores
	}
	switch c.Output.ReportFormat {
	case "json", "markdown", "parquet":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidReportFormat, c.Output.ReportFormat)
	}
	switch c.Output.OverlayFormat {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidImageFormat, c.Output.OverlayFormat)
	}
	return nil
}

// PipelineOptions converts the analysis section into pipeline options
func (c *Config) PipelineOptions() ghosting.Options {
	return ghosting.Options{
		SliceSize:          c.Analysis.SliceSize,
		GhostPadding:       c.Analysis.GhostPadding,
		MaxPaddingFraction: c.Analysis.MaxPaddingFraction,
		SignalFraction:     c.Analysis.SignalFraction,
	}
}
