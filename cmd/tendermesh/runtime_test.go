package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/tendermesh/config"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/logging"
	"github.com/hupe1980/tendermesh/model"
	anthropicmodel "github.com/hupe1980/tendermesh/model/anthropic"
	"github.com/hupe1980/tendermesh/model/ollama"
	openaimodel "github.com/hupe1980/tendermesh/model/openai"
	"github.com/hupe1980/tendermesh/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Log.Level = "error"
	return cfg
}

func TestBuildModel(t *testing.T) {
	cases := []struct {
		provider string
		check    func(t *testing.T, m model.Model)
	}{
		{"mock", func(t *testing.T, m model.Model) { assert.IsType(t, &model.MockModel{}, m) }},
		{"openai", func(t *testing.T, m model.Model) {
			assert.IsType(t, &openaimodel.Model{}, m)
			assert.Equal(t, "openai", m.Info().Provider)
		}},
		{"qwen", func(t *testing.T, m model.Model) { assert.Equal(t, "qwen", m.Info().Provider) }},
		{"anthropic", func(t *testing.T, m model.Model) { assert.IsType(t, &anthropicmodel.Model{}, m) }},
		{"ollama", func(t *testing.T, m model.Model) {
			assert.IsType(t, &ollama.Model{}, m)
			assert.Equal(t, "llama3.1", m.Info().Name)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			cfg := config.LLMConfig{Provider: tc.provider, APIKey: "k", MaxRetries: 0}
			if tc.provider == "ollama" {
				cfg.Model = "llama3.1"
			}
			m, err := buildModel(cfg, logging.NoOpLogger{})
			require.NoError(t, err)
			tc.check(t, m)
		})
	}

	_, err := buildModel(config.LLMConfig{Provider: "gemini"}, logging.NoOpLogger{})
	assert.Error(t, err)
}

func TestBuildModel_RateLimited(t *testing.T) {
	m, err := buildModel(config.LLMConfig{Provider: "mock", RateLimit: 5, Burst: 2}, logging.NoOpLogger{})
	require.NoError(t, err)
	assert.IsType(t, &model.RateLimited{}, m)
}

func TestBuildFactory_Prompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("SectionWriting: Write tersely.\n"), 0o600))

	f, err := buildFactory(path, logging.NoOpLogger{})
	require.NoError(t, err)
	assert.Len(t, f.Types(), 5)

	_, err = buildFactory(filepath.Join(t.TempDir(), "missing.yaml"), logging.NoOpLogger{})
	assert.Error(t, err)
}

func TestRuntime_Notifier(t *testing.T) {
	rt := &runtime{logger: logging.NoOpLogger{}}
	assert.Nil(t, rt.buildNotifier(config.NotifyConfig{}))
	assert.IsType(t, &notify.LogNotifier{}, rt.buildNotifier(config.NotifyConfig{Log: true}))

	n := rt.buildNotifier(config.NotifyConfig{Log: true, Webhooks: []config.WebhookConfig{{URL: "http://127.0.0.1:1/hook"}}})
	assert.IsType(t, &notify.Multi{}, n)
	assert.Len(t, rt.closers, 1)
	assert.NoError(t, rt.Close(context.Background()))
}

func TestRuntime_SQLiteWorkflow(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = filepath.Join(dir, "tm.db")
	cfg.Documents.Dir = filepath.Join(dir, "docs")
	cfg.Notify.Log = false

	ctx := context.Background()
	rt, err := newRuntime(ctx, cfg)
	require.NoError(t, err)

	p, err := rt.mesh.CreateProject(ctx, "Rail Signalling", "dana")
	require.NoError(t, err)
	res, err := rt.mesh.Upload(ctx, p.ID, []byte("1. Signals\n2. Training"))
	require.NoError(t, err)
	assert.Equal(t, core.StageOutlineGenerated, res.Stage)
	require.NoError(t, rt.Close(ctx))

	// A second runtime sees the persisted state.
	rt2, err := newRuntime(ctx, cfg)
	require.NoError(t, err)
	defer rt2.Close(ctx)

	got, err := rt2.mesh.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StageOutlineGenerated, got.Stage)
	doc, err := rt2.mesh.Document(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "1. Signals\n2. Training", string(doc))
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))

	data, err := readInput(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "from file", string(data))

	_, err = readInput(nil, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate("a\nb", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
