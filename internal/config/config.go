// Package config manages user-level configuration for the spin CLI
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by the CLI
const EnvPrefix = "SPIN"

const appDir = "spin"

// Config is the effective CLI configuration after flags, environment and
// the config file have been merged.
type Config struct {
	// LogLevel is one of debug, info, warn or error
	LogLevel string `mapstructure:"log-level" validate:"oneof=debug info warn error"`

	// LogFormat selects the slog handler
	LogFormat string `mapstructure:"log-format" validate:"oneof=text json"`

	// CacheDir holds fetched modules
	CacheDir string `mapstructure:"cache-dir" validate:"required"`

	// TemplatesDir is the templates cache root
	TemplatesDir string `mapstructure:"templates-dir" validate:"required"`

	// Concurrency bounds parallel component resolution and fetching
	Concurrency int `mapstructure:"concurrency" validate:"min=1,max=64"`

	// Insecure allows plain HTTP registries
	Insecure bool `mapstructure:"insecure"`
}

var validate = validator.New()

// ConfigDir returns the directory holding the CLI config file
func ConfigDir() (string, error) {
	// XDG_CONFIG_HOME first for testing and Linux compatibility
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, appDir), nil
}

// CacheDir returns the root of the CLI caches
func CacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(dir, appDir), nil
}

// SetDefaults registers default values and environment binding on v
func SetDefaults(v *viper.Viper) error {
	cache, err := CacheDir()
	if err != nil {
		return err
	}

	v.SetDefault("log-level", "warn")
	v.SetDefault("log-format", "text")
	v.SetDefault("cache-dir", filepath.Join(cache, "registry"))
	v.SetDefault("templates-dir", cache)
	v.SetDefault("concurrency", 1)
	v.SetDefault("insecure", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return nil
}

// ReadConfigFile reads file, or the default config file when file is
// empty. A missing default file is not an error.
func ReadConfigFile(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}

	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// Load builds a validated Config from v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
