package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the default config file name inside the cargo home.
const FileName = "upstall.yaml"

// Config captures the tool's settings.
type Config struct {
	Version  int            `yaml:"version"`
	Registry RegistryConfig `yaml:"registry"`
	Cache    CacheConfig    `yaml:"cache"`
	Cargo    CargoConfig    `yaml:"cargo"`
	Log      LogConfig      `yaml:"log"`
	Outdated OutdatedConfig `yaml:"outdated"`
}

// RegistryConfig describes the package index queried for published versions.
type RegistryConfig struct {
	URL        string `yaml:"url"`
	UserAgent  string `yaml:"user_agent"`
	TimeoutSec int    `yaml:"timeout_s"`
	SkipYanked bool   `yaml:"skip_yanked"`
}

// CacheConfig controls the on-disk index cache.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir"`
	TTLSec  int    `yaml:"ttl_s"`
}

// CargoConfig locates cargo and its home directory.
type CargoConfig struct {
	Binary string `yaml:"binary"`
	Home   string `yaml:"home"`
}

// LogConfig configures diagnostic output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// OutdatedConfig tunes the outdated command.
type OutdatedConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Registry: RegistryConfig{
			URL:        "https://crates.io",
			UserAgent:  "cargo-upstall (https://github.com/cargo-upstall/cargo-upstall)",
			TimeoutSec: 30,
		},
		Cache: CacheConfig{
			Enabled: boolPtr(true),
			TTLSec:  3600,
		},
		Cargo: CargoConfig{
			Binary: "cargo",
		},
		Log: LogConfig{
			Level: "info",
		},
		Outdated: OutdatedConfig{
			Concurrency: 4,
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures fields fall back to sensible defaults when the YAML
// omits or blanks them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Registry.URL == "" {
		c.Registry.URL = defaults.Registry.URL
	}
	if c.Registry.UserAgent == "" {
		c.Registry.UserAgent = defaults.Registry.UserAgent
	}
	if c.Registry.TimeoutSec == 0 {
		c.Registry.TimeoutSec = defaults.Registry.TimeoutSec
	}
	if c.Cache.Enabled == nil {
		c.Cache.Enabled = boolPtr(true)
	}
	if c.Cargo.Binary == "" {
		c.Cargo.Binary = defaults.Cargo.Binary
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Outdated.Concurrency == 0 {
		c.Outdated.Concurrency = defaults.Outdated.Concurrency
	}
}

// CacheEnabled reports whether index responses should be cached.
func (c Config) CacheEnabled() bool {
	enabled := c.Cache.Enabled == nil || *c.Cache.Enabled
	return enabled && c.Cache.TTLSec > 0
}

// RegistryTimeout returns the HTTP timeout for index requests.
func (c Config) RegistryTimeout() time.Duration {
	return time.Duration(c.Registry.TimeoutSec) * time.Second
}

// CacheTTL returns how long cached index responses stay fresh.
func (c Config) CacheTTL() time.Duration {
	if !c.CacheEnabled() {
		return 0
	}
	return time.Duration(c.Cache.TTLSec) * time.Second
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func boolPtr(v bool) *bool {
	return &v
}
