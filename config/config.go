// Package config loads TenderMesh settings from a YAML file, TENDERMESH_*
// environment variables and built-in defaults (in increasing precedence:
// defaults, file, environment).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/tendermesh/agent"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/logging"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TENDERMESH_LLM_PROVIDER.
const EnvPrefix = "TENDERMESH"

// Config is the full application configuration.
type Config struct {
	Log         LogConfig       `mapstructure:"log"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Store       StoreConfig     `mapstructure:"store"`
	Documents   DocumentsConfig `mapstructure:"documents"`
	Server      ServerConfig    `mapstructure:"server"`
	Notify      NotifyConfig    `mapstructure:"notify"`
	PromptsFile string          `mapstructure:"prompts_file"`
}

// LogConfig selects level and output format.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// LLMConfig selects and tunes the language model provider.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	TimeoutMS   int     `mapstructure:"timeout_ms"`
	MaxRetries  int     `mapstructure:"max_retries"`
	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// Timeout returns TimeoutMS as a duration.
func (c LLMConfig) Timeout() time.Duration { return time.Duration(c.TimeoutMS) * time.Millisecond }

// StoreConfig selects the project store.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// DocumentsConfig selects where uploads are kept; an empty Dir keeps them in memory.
type DocumentsConfig struct {
	Dir string `mapstructure:"dir"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	BasePath string `mapstructure:"base_path"`
}

// NotifyConfig configures notification delivery.
type NotifyConfig struct {
	Log      bool            `mapstructure:"log"`
	Webhooks []WebhookConfig `mapstructure:"webhooks"`
}

// WebhookConfig describes one webhook target.
type WebhookConfig struct {
	URL            string   `mapstructure:"url"`
	Secret         string   `mapstructure:"secret"`
	Events         []string `mapstructure:"events"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

// Providers lists the supported LLM providers.
var Providers = []string{"openai", "qwen", "anthropic", "ollama", "mock"}

// Drivers lists the supported project store drivers.
var Drivers = []string{"memory", "sqlite"}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.add_source", false)
	v.SetDefault("llm.provider", "mock")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout_ms", 120000)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.rate_limit", 0)
	v.SetDefault("llm.burst", 1)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", ".tendermesh/tendermesh.db")
	v.SetDefault("documents.dir", "")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.base_path", "/api/tender")
	v.SetDefault("notify.log", true)
	v.SetDefault("notify.webhooks", []WebhookConfig{})
	v.SetDefault("prompts_file", "")
}

// NewViper returns a viper instance with defaults and environment
// overrides wired. A non-empty file is read as YAML.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	if err := Configure(v, file); err != nil {
		return nil, err
	}
	return v, nil
}

// Configure registers defaults and environment overrides on v and reads
// file when it is set. Flags bound to v before the call keep precedence.
func Configure(v *viper.Viper, file string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return nil
}

// Load reads configuration from file (optional) and the environment.
func Load(file string) (*Config, error) {
	v, err := NewViper(file)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown providers, drivers and malformed values.
func (c *Config) Validate() error {
	var errs []error
	if !contains(Providers, c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("llm.provider must be one of %s, got %q", strings.Join(Providers, ", "), c.LLM.Provider))
	}
	if !contains(Drivers, c.Store.Driver) {
		errs = append(errs, fmt.Errorf("store.driver must be one of %s, got %q", strings.Join(Drivers, ", "), c.Store.Driver))
	}
	if c.Store.Driver == "sqlite" && strings.TrimSpace(c.Store.Path) == "" {
		errs = append(errs, errors.New("store.path is required for the sqlite driver"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "json", "text", "auto", "":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json, text or auto, got %q", c.Log.Format))
	}
	if c.LLM.RateLimit < 0 {
		errs = append(errs, errors.New("llm.rate_limit must be >= 0"))
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		errs = append(errs, fmt.Errorf("server.base_path must start with '/', got %q", c.Server.BasePath))
	}
	for i, w := range c.Notify.Webhooks {
		if strings.TrimSpace(w.URL) == "" {
			errs = append(errs, fmt.Errorf("notify.webhooks[%d].url is required", i))
		}
	}
	return errors.Join(errs...)
}

// Logging converts the log section into a logging.Config.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = lvl
	}
	if c.Log.Format != "" {
		cfg.Format = c.Log.Format
	}
	cfg.AddSource = c.Log.AddSource
	return cfg
}

// LoadPrompts reads a YAML map of agent type to instruction template:
//
//	OutlineGeneration: |
//	  You are a bid manager ...
//
// Keys are matched case-insensitively against the known agent types.
func LoadPrompts(path string) (map[core.AgentType]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse prompts %s: %w", path, err)
	}
	prompts := make(map[core.AgentType]string, len(raw))
	for key, text := range raw {
		t, err := agent.ParseAgentType(key)
		if err != nil {
			return nil, fmt.Errorf("prompts %s: %w", path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		prompts[t] = text
	}
	return prompts, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
