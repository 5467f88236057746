package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "/api/tender", cfg.Server.BasePath)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.True(t, cfg.Notify.Log)
	assert.Equal(t, int64(4096), cfg.LLM.MaxTokens)
	assert.Equal(t, "2m0s", cfg.LLM.Timeout().String())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "tendermesh.yaml", `
log:
  level: debug
  format: json
llm:
  provider: openai
  model: gpt-4o
  rate_limit: 2
store:
  driver: sqlite
  path: /tmp/tm.db
notify:
  webhooks:
    - url: https://hooks.example.com/tender
      secret: s3cret
      events: [outline.ready]
`)
	t.Setenv("TENDERMESH_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("TENDERMESH_SERVER_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2.0, cfg.LLM.RateLimit)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	require.Len(t, cfg.Notify.Webhooks, 1)
	assert.Equal(t, "s3cret", cfg.Notify.Webhooks[0].Secret)
	assert.Equal(t, []string{"outline.ready"}, cfg.Notify.Webhooks[0].Events)

	lc := cfg.Logging()
	assert.Equal(t, logging.LogLevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(c *Config)
		ok   bool
	}{
		{"valid", func(c *Config) {}, true},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "gemini" }, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, false},
		{"sqlite without path", func(c *Config) { c.Store.Driver = "sqlite"; c.Store.Path = "" }, false},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, false},
		{"negative rate", func(c *Config) { c.LLM.RateLimit = -1 }, false},
		{"relative base path", func(c *Config) { c.Server.BasePath = "api" }, false},
		{"webhook without url", func(c *Config) { c.Notify.Webhooks = []WebhookConfig{{}} }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tc.mut(cfg)
			if tc.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestLoadPrompts(t *testing.T) {
	path := writeFile(t, "prompts.yaml", `
outlinegeneration: |
  Draft a bid outline.
SectionWriting: "Write {{.title}}."
ContentIntegration: "   "
`)
	prompts, err := LoadPrompts(path)
	require.NoError(t, err)

	assert.Len(t, prompts, 2)
	assert.Equal(t, "Draft a bid outline.\n", prompts[core.AgentOutlineGeneration])
	assert.Equal(t, "Write {{.title}}.", prompts[core.AgentSectionWriting])
}

func TestLoadPrompts_UnknownAgent(t *testing.T) {
	path := writeFile(t, "prompts.yaml", "Pricing: compute a price\n")
	_, err := LoadPrompts(path)
	assert.ErrorIs(t, err, core.ErrUnknownAgentType)
}
