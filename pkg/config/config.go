package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Config represents the complete DittoVFS configuration.
//
// This structure captures everything needed to assemble a ready-to-use
// virtual device:
//   - Logging configuration
//   - Device quota and ownership
//   - Metrics collection
//   - Import source selection and configuration (source-specific)
//   - Fixture structure applied on top of the imported tree
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DITTOVFS_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
//
// Source Configuration Pattern:
// Each import source defines its own configuration type. The Config struct
// contains type-specific sections (source.directory, source.s3) and only the
// section matching the selected type is decoded.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Device configures the virtual device
	Device DeviceConfig `mapstructure:"device"`

	// Metrics controls metrics collection
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Source selects what the device root is imported from
	Source SourceConfig `mapstructure:"source"`

	// Fixture describes assets created after the import
	Fixture FixtureConfig `mapstructure:"fixture"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// DeviceConfig configures the virtual device.
type DeviceConfig struct {
	// Quota is the device capacity.
	// Valid values: "unlimited", "-1", or a size such as "512", "10MB", "1 GiB"
	Quota string `mapstructure:"quota" validate:"required"`

	// Owner is the identity stamped on every asset the device creates
	Owner OwnerConfig `mapstructure:"owner"`

	// RootMode is the Unix permission mode of the root directory (e.g., 0755).
	// Unset means 0777; an explicit 0 is kept.
	RootMode *uint32 `mapstructure:"root_mode" validate:"omitempty,lte=511"` // 511 = 0777 in decimal
}

// OwnerConfig is a uid/gid pair.
type OwnerConfig struct {
	UID int `mapstructure:"uid" validate:"gte=0"`
	GID int `mapstructure:"gid" validate:"gte=0"`
}

// MetricsConfig controls metrics collection.
type MetricsConfig struct {
	// Enabled registers Prometheus collectors for the device
	Enabled bool `mapstructure:"enabled"`

	// Port is the HTTP port of the metrics endpoint used by "dittovfs serve"
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// SourceConfig specifies the import source.
//
// The Type field determines which source is used. Only the corresponding
// type-specific configuration section is used.
type SourceConfig struct {
	// Type specifies which source to import from
	// Valid values: none, directory, s3
	Type string `mapstructure:"type" validate:"required,oneof=none directory s3"`

	// Directory contains local directory configuration
	// Only used when Type = "directory"
	Directory map[string]any `mapstructure:"directory"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// FixtureConfig describes assets created after the import.
type FixtureConfig struct {
	// Structure is the path to a YAML structure file (optional)
	Structure string `mapstructure:"structure"`
}

// QuotaBytes parses Quota into a byte count, -1 meaning unlimited.
func (c DeviceConfig) QuotaBytes() (int64, error) {
	switch strings.ToLower(strings.TrimSpace(c.Quota)) {
	case "", "unlimited", "-1":
		return -1, nil
	}

	n, err := humanize.ParseBytes(c.Quota)
	if err != nil {
		return 0, fmt.Errorf("invalid quota %q: %w", c.Quota, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("invalid quota %q: too large", c.Quota)
	}
	return int64(n), nil
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOVFS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use DITTOVFS_ prefix and underscores
	// Example: DITTOVFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOVFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"device.quota", "device.owner.uid", "device.owner.gid", "device.root_mode",
		"metrics.enabled", "metrics.port", "source.type", "fixture.structure",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/dittovfs/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is acceptable - use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittovfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittovfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
