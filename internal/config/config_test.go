package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	v := viper.New()
	require.NoError(t, SetDefaults(v))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, filepath.Join(cache, "spin", "registry"), cfg.CacheDir)
	assert.Equal(t, filepath.Join(cache, "spin"), cfg.TemplatesDir)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.False(t, cfg.Insecure)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("SPIN_LOG_LEVEL", "DEBUG")
	t.Setenv("SPIN_CONCURRENCY", "8")
	t.Setenv("SPIN_INSECURE", "true")

	v := viper.New()
	require.NoError(t, SetDefaults(v))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.True(t, cfg.Insecure)
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log-format: json\ncache-dir: /var/cache/spin\n"), 0o600))

	v := viper.New()
	require.NoError(t, SetDefaults(v))
	require.NoError(t, ReadConfigFile(v, file))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/var/cache/spin", cfg.CacheDir)
}

func TestReadConfigFile_MissingDefaultIsFine(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	v := viper.New()
	assert.NoError(t, ReadConfigFile(v, ""))
}

func TestReadConfigFile_MissingExplicitFails(t *testing.T) {
	v := viper.New()
	assert.Error(t, ReadConfigFile(v, filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		LogLevel:     "info",
		LogFormat:    "text",
		CacheDir:     "/cache",
		TemplatesDir: "/templates",
		Concurrency:  4,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "trace" }, field: "LogLevel"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, field: "LogFormat"},
		{name: "no cache dir", mutate: func(c *Config) { c.CacheDir = "" }, field: "CacheDir"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, field: "Concurrency"},
		{name: "too much concurrency", mutate: func(c *Config) { c.Concurrency = 1000 }, field: "Concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "spin"), got)
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()

	_, err := FindManifest(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spin.toml")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "spin.yaml"), []byte("spin_version: \"1\"\n"), 0o600))
	found, err := FindManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, &ManifestFile{Path: filepath.Join(dir, "spin.yaml"), Format: "yaml"}, found)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "spin.toml"), []byte("spin_version = \"1\"\n"), 0o600))
	found, err = FindManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "toml", found.Format)
}
