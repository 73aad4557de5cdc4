// Package config provides configuration management for the wheelhouse
// installer. It handles loading, validating, and saving application settings
// from YAML configuration files and provides sensible defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/wheelhouse/pkg/errors"
	"github.com/glorpus-work/wheelhouse/pkg/fsutil"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`

	// Hook script paths
	Hooks HooksConfig `yaml:"hooks,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Download settings
	DownloadDir string        `yaml:"download_dir,omitempty"` // wheel cache and offline-install source
	IndexURL    string        `yaml:"index_url,omitempty"`    // PyPI-compatible index base URL
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	NoProgress  bool          `yaml:"no_progress,omitempty"` // disable the download progress bar

	// Installer settings
	Python       string   `yaml:"python,omitempty"`         // interpreter used to run pip
	PipExtraArgs []string `yaml:"pip_extra_args,omitempty"` // appended to every pip install invocation
	MaxAttempts  int      `yaml:"max_attempts"`             // retry bound for the discovery loop

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // error, warn, info, debug
}

// HooksConfig points at optional Tengo scripts run around an install.
type HooksConfig struct {
	PreInstall  string `yaml:"pre_install,omitempty"`
	PostInstall string `yaml:"post_install,omitempty"`
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 60 * time.Second

	// DefaultMaxAttempts is the default retry bound for the discovery loop.
	DefaultMaxAttempts = 5

	// DefaultPython is the default interpreter used to run pip.
	DefaultPython = "python3"

	// DefaultIndexURL is the default package index.
	DefaultIndexURL = "https://pypi.org"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	downloadDir := "downloads"
	if cacheDir, err := os.UserCacheDir(); err == nil {
		downloadDir = filepath.Join(cacheDir, "wheelhouse", "downloads")
	}

	return &Config{
		Settings: Settings{
			DownloadDir:  downloadDir,
			IndexURL:     DefaultIndexURL,
			HTTPTimeout:  DefaultHTTPTimeout,
			Python:       DefaultPython,
			MaxAttempts:  DefaultMaxAttempts,
			OutputFormat: "text",
			LogLevel:     "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	// Atomically replace the config file
	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to replace config file")
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if c.Settings.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive: %w", errors.ErrConfigValidation)
	}
	if c.Settings.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout cannot be negative: %w", errors.ErrConfigValidation)
	}
	switch c.Settings.LogLevel {
	case "", "error", "warn", "warning", "info", "debug":
	default:
		return fmt.Errorf("unknown log_level %q: %w", c.Settings.LogLevel, errors.ErrConfigValidation)
	}
	switch c.Settings.OutputFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown output_format %q: %w", c.Settings.OutputFormat, errors.ErrConfigValidation)
	}
	return nil
}

// applyDefaults fills in zero values with defaults before validation.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Settings.DownloadDir == "" {
		c.Settings.DownloadDir = defaults.Settings.DownloadDir
	}
	if c.Settings.IndexURL == "" {
		c.Settings.IndexURL = defaults.Settings.IndexURL
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.Python == "" {
		c.Settings.Python = defaults.Settings.Python
	}
	if c.Settings.MaxAttempts == 0 {
		c.Settings.MaxAttempts = defaults.Settings.MaxAttempts
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}

// GetDefaultConfigPath returns the default path of the configuration file.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine user config directory")
	}
	return filepath.Join(configDir, "wheelhouse", "config.yaml"), nil
}
