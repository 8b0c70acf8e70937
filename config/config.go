// Package config loads the YAML configuration of the copy generator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"funnel_copy_generator/generator"
	"funnel_copy_generator/retry"
	"funnel_copy_generator/sections"
)

// Config holds all settings; durations are strings so the YAML stays readable.
type Config struct {
	LLM        LLMConfig           `yaml:"llm"`
	Generation GenerationConfig    `yaml:"generation"`
	ServerAddr string              `yaml:"server_addr"`
	Logging    LoggingConfig       `yaml:"logging"`
	Sections   []sections.Registry `yaml:"sections,omitempty"`
}

// LLMConfig 生成模块使用的模型配置。
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, deepseek, anthropic, gemini, mock
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// GenerationConfig bounds each LLM call.
type GenerationConfig struct {
	CallTimeout     string `yaml:"call_timeout"`
	RetryAttempts   int    `yaml:"retry_attempts"`
	RetryDelay      string `yaml:"retry_delay"`
	SingleMaxTokens int    `yaml:"single_max_tokens"`
	PartMaxTokens   int    `yaml:"part_max_tokens"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	budgets := generator.DefaultBudgets()
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
			Timeout:  "120s",
		},
		Generation: GenerationConfig{
			CallTimeout:     "90s",
			RetryAttempts:   2,
			RetryDelay:      "2s",
			SingleMaxTokens: budgets.SingleMaxTokens,
			PartMaxTokens:   budgets.PartMaxTokens,
		},
		ServerAddr: ":8080",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Later keys win.
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "anthropic"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if model := os.Getenv("FUNNEL_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if addr := os.Getenv("FUNNEL_SERVER_ADDR"); addr != "" {
		c.ServerAddr = addr
	}
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"openai", "deepseek", "anthropic", "gemini", "mock"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if c.LLM.Provider != "mock" && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set llm.api_key, ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY)")
	}

	for name, v := range map[string]string{
		"llm.timeout":             c.LLM.Timeout,
		"generation.call_timeout": c.Generation.CallTimeout,
		"generation.retry_delay":  c.Generation.RetryDelay,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return fmt.Errorf("invalid %s: %q", name, v)
		}
	}
	if c.Generation.RetryAttempts < 0 || c.Generation.RetryAttempts > generator.MaxPartAttempts {
		return fmt.Errorf("invalid generation.retry_attempts: %d (allowed 1..%d)", c.Generation.RetryAttempts, generator.MaxPartAttempts)
	}
	if c.Generation.SingleMaxTokens < 0 || c.Generation.PartMaxTokens < 0 {
		return fmt.Errorf("token budgets must not be negative")
	}

	seen := make(map[string]bool, len(c.Sections))
	for _, reg := range c.Sections {
		if !reg.Variant.Valid() || reg.Variant == "" {
			return fmt.Errorf("sections: invalid variant %q", reg.Variant)
		}
		if seen[string(reg.Variant)] {
			return fmt.Errorf("sections: variant %q configured twice", reg.Variant)
		}
		seen[string(reg.Variant)] = true
		if err := reg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LLMSettings converts the LLM block for generator.NewLLM.
func (c *Config) LLMSettings() *generator.LLMSettings {
	return &generator.LLMSettings{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
		Timeout:  parseDuration(c.LLM.Timeout, 120*time.Second),
	}
}

// CallTimeout returns the per-call timeout as a duration.
func (c *Config) CallTimeout() time.Duration {
	return parseDuration(c.Generation.CallTimeout, generator.DefaultCallTimeout)
}

// RetryPolicy returns the per-part retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	p := retry.Default()
	if c.Generation.RetryAttempts > 0 {
		p.MaxAttempts = min(c.Generation.RetryAttempts, generator.MaxPartAttempts)
	}
	p.Delay = parseDuration(c.Generation.RetryDelay, p.Delay)
	return p
}

// Budgets returns the token budgets.
func (c *Config) Budgets() generator.Budgets {
	return generator.Budgets{
		SingleMaxTokens: c.Generation.SingleMaxTokens,
		PartMaxTokens:   c.Generation.PartMaxTokens,
	}
}

// Registries returns the built-in marker registries with configured ones
// layered on top.
func (c *Config) Registries() sections.Set {
	set := sections.DefaultSet()
	for _, reg := range c.Sections {
		set[reg.Variant] = reg
	}
	return set
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
