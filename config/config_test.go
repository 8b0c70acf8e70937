package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel_copy_generator/project"
	"funnel_copy_generator/sections"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "FUNNEL_LLM_MODEL", "FUNNEL_SERVER_ADDR"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 90*time.Second, cfg.CallTimeout())

	p := cfg.RetryPolicy()
	assert.Equal(t, 2, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.Delay)
}

func TestLoad_ParsesYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
llm:
  provider: anthropic
  model: claude-test
  api_key: k
  timeout: 30s
generation:
  call_timeout: 45s
  retry_attempts: 1
  retry_delay: 500ms
  part_max_tokens: 4000
server_addr: ":9090"
sections:
  - variant: express
    sections:
      - {name: HOOK, label: hook, family: lead}
      - {name: BODY, label: body, family: items, token: "[[BODY]]"}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, 45*time.Second, cfg.CallTimeout())
	assert.Equal(t, 30*time.Second, cfg.LLMSettings().Timeout)
	assert.Equal(t, 1, cfg.RetryPolicy().MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryPolicy().Delay)
	assert.Equal(t, 4000, cfg.Budgets().PartMaxTokens)
	assert.Equal(t, 8000, cfg.Budgets().SingleMaxTokens)

	regs := cfg.Registries()
	express, ok := regs.For(project.VariantExpress)
	require.True(t, ok)
	assert.Equal(t, "[[BODY]]", express.Marker(1))
	assert.Equal(t, sections.Marker("HOOK"), express.Marker(0))
	_, ok = regs.For(project.VariantCampaignKit)
	assert.True(t, ok)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "llm: [unclosed"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("FUNNEL_LLM_MODEL", "gemini-2.5-pro")
	t.Setenv("FUNNEL_SERVER_ADDR", "127.0.0.1:1")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, "127.0.0.1:1", cfg.ServerAddr)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown provider":  func(c *Config) { c.LLM.Provider = "cohere" },
		"missing key":       func(c *Config) { c.LLM.Provider = "openai"; c.LLM.APIKey = "" },
		"bad timeout":       func(c *Config) { c.Generation.CallTimeout = "soon" },
		"negative attempts": func(c *Config) { c.Generation.RetryAttempts = -1 },
		"too many attempts": func(c *Config) { c.Generation.RetryAttempts = 3 },
		"negative budget":   func(c *Config) { c.Generation.PartMaxTokens = -5 },
		"standard variant": func(c *Config) {
			c.Sections = []sections.Registry{{Sections: []sections.Section{{Name: "A"}}}}
		},
		"duplicate variant": func(c *Config) {
			c.Sections = []sections.Registry{sections.CampaignKit(), sections.CampaignKit()}
		},
		"bad section name": func(c *Config) {
			c.Sections = []sections.Registry{{Variant: project.VariantExpress, Sections: []sections.Section{{Name: "A B"}}}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LLM.APIKey = "k"
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.LLM.Provider = "mock"
	assert.NoError(t, cfg.Validate())

	cfg.Generation.RetryAttempts = 5
	assert.Equal(t, 2, cfg.RetryPolicy().MaxAttempts)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	cfg.LLM.Model = "gpt-test"
	cfg.Sections = []sections.Registry{sections.CampaignKit()}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
