// Package config loads server configuration from a YAML file with an
// environment-variable overlay (ARTBOARD_ prefix).
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig              `koanf:"server"`
	Storage   StorageConfig             `koanf:"storage"`
	Media     MediaConfig               `koanf:"media"`
	Providers map[string]ProviderConfig `koanf:"providers"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// MediaConfig configures where generated media bytes are published.
// When the object store is not configured, media stays addressable through
// local /api/file paths.
type MediaConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	UseSSL    bool   `koanf:"use_ssl"`
}

// Configured reports whether the object store can be used.
func (m MediaConfig) Configured() bool {
	return m.Endpoint != "" && m.AccessKey != "" && !isPlaceholder(m.AccessKey)
}

// ProviderConfig describes one generation backend. Providers whose
// credential is unset or a placeholder are never offered for dispatch.
type ProviderConfig struct {
	BaseURL string   `koanf:"base_url"`
	APIKey  string   `koanf:"api_key"`
	Models  []string `koanf:"models"`
	// MaxPollTicks overrides the adapter's polling budget. Zero means the
	// adapter default (video backends carry much higher defaults).
	MaxPollTicks int `koanf:"max_poll_ticks"`
	// RequestsPerMinute throttles outbound calls to the backend. Zero
	// disables throttling.
	RequestsPerMinute float64 `koanf:"requests_per_minute"`
}

// Configured distinguishes a real credential from an unset placeholder.
func (p ProviderConfig) Configured() bool {
	return p.APIKey != "" && !isPlaceholder(p.APIKey)
}

func isPlaceholder(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	switch k {
	case "", "changeme", "your-api-key", "your_api_key", "todo", "xxx":
		return true
	}
	return strings.HasPrefix(k, "${")
}

// defaultProviders mirrors the backends the server knows how to talk to.
// API keys come from the environment overlay or the config file.
var defaultProviders = map[string]ProviderConfig{
	"openai":    {BaseURL: "https://api.openai.com/v1"},
	"replicate": {BaseURL: "https://api.replicate.com/v1"},
	"fal":       {BaseURL: "https://queue.fal.run"},
	"xai":       {BaseURL: "https://api.x.ai/v1"},
	"google-ai": {BaseURL: "https://generativelanguage.googleapis.com/v1beta"},
}

// Load reads the config file (optional) and applies ARTBOARD_ environment
// overrides. Double underscore separates nesting levels so leaf keys keep
// their underscores, e.g. ARTBOARD_PROVIDERS__OPENAI__API_KEY.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("ARTBOARD_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ARTBOARD_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// Defaults
	if !k.Exists("server.port") {
		k.Set("server.port", 8088)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "sqlite")
	}
	if !k.Exists("storage.sqlite.path") {
		k.Set("storage.sqlite.path", "./data/artboard.db")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	for name, def := range defaultProviders {
		pc, ok := cfg.Providers[name]
		if !ok {
			cfg.Providers[name] = def
			continue
		}
		if pc.BaseURL == "" {
			pc.BaseURL = def.BaseURL
			cfg.Providers[name] = pc
		}
	}

	return &cfg, nil
}

// Provider returns the named provider config, if declared.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	pc, ok := c.Providers[name]
	return pc, ok
}

// ActiveProviders returns the names of providers with real credentials,
// the only ones eligible for tool dispatch.
func (c *Config) ActiveProviders() []string {
	var names []string
	for name, pc := range c.Providers {
		if pc.Configured() {
			names = append(names, name)
		}
	}
	return names
}
