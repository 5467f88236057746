package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/tendermesh"
	"github.com/hupe1980/tendermesh/agent"
	"github.com/hupe1980/tendermesh/artifact"
	"github.com/hupe1980/tendermesh/artifact/file"
	"github.com/hupe1980/tendermesh/config"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/logging"
	"github.com/hupe1980/tendermesh/model"
	anthropicmodel "github.com/hupe1980/tendermesh/model/anthropic"
	"github.com/hupe1980/tendermesh/model/ollama"
	openaimodel "github.com/hupe1980/tendermesh/model/openai"
	"github.com/hupe1980/tendermesh/notify"
	"github.com/hupe1980/tendermesh/project"
	"github.com/hupe1980/tendermesh/project/sqlite"
)

// runtime holds everything a command needs, built from the loaded config.
type runtime struct {
	cfg     *config.Config
	logger  logging.Logger
	mesh    *tendermesh.TenderMesh
	closers []func(ctx context.Context) error
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	logger := logging.New(cfg.Logging())
	rt := &runtime{cfg: cfg, logger: logger}

	store, err := rt.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := buildDocuments(cfg.Documents)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	m, err := buildModel(cfg.LLM, logger)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	factory, err := buildFactory(cfg.PromptsFile, logger)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	notifier := rt.buildNotifier(cfg.Notify)

	rt.mesh = tendermesh.New(func(o *tendermesh.Options) {
		o.Store = store
		o.Documents = docs
		o.Model = m
		o.Factory = factory
		o.Notifier = notifier
		o.Logger = logger
	})
	return rt, nil
}

// Close releases stores and flushes pending webhook deliveries.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func (rt *runtime) buildStore(ctx context.Context) (core.ProjectStore, error) {
	switch rt.cfg.Store.Driver {
	case "sqlite":
		s, err := sqlite.Open(ctx, rt.cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return s.Close() })
		rt.logger.Debug("Project store opened", "driver", "sqlite", "path", rt.cfg.Store.Path)
		return s, nil
	case "memory", "":
		return project.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", rt.cfg.Store.Driver)
	}
}

func buildDocuments(cfg config.DocumentsConfig) (core.DocumentStore, error) {
	if cfg.Dir == "" {
		return artifact.NewInMemoryStore(), nil
	}
	return file.New(cfg.Dir)
}

// buildModel selects the provider adapter and wraps it with the rate limiter
// when one is configured.
func buildModel(cfg config.LLMConfig, logger logging.Logger) (model.Model, error) {
	var m model.Model
	switch cfg.Provider {
	case "openai", "qwen":
		fn := func(o *openaimodel.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.APIKey != "" {
				o.APIKey = cfg.APIKey
			}
			if cfg.BaseURL != "" {
				o.BaseURL = cfg.BaseURL
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
			o.MaxRetries = cfg.MaxRetries
			o.Timeout = cfg.Timeout()
		}
		if cfg.Provider == "qwen" {
			if cfg.APIKey == "" {
				cfg.APIKey = os.Getenv("DASHSCOPE_API_KEY")
			}
			m = openaimodel.NewQwenModel(fn)
		} else {
			m = openaimodel.NewModel(fn)
		}
	case "anthropic":
		m = anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Model != "" {
				o.Model = anthropic.Model(cfg.Model)
			}
			if cfg.APIKey != "" {
				o.APIKey = cfg.APIKey
			}
			if cfg.BaseURL != "" {
				o.BaseURL = cfg.BaseURL
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.MaxRetries = cfg.MaxRetries
			o.Timeout = cfg.Timeout()
		})
	case "ollama":
		m = ollama.NewModel(func(o *ollama.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.BaseURL != "" {
				o.Endpoint = cfg.BaseURL
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			if cfg.TimeoutMS > 0 {
				o.Timeout = cfg.Timeout()
			}
			o.MaxRetries = cfg.MaxRetries
			o.Logger = logger
		})
	case "mock", "":
		m = model.NewMockModel("mock", "mock")
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if cfg.RateLimit > 0 {
		return model.NewRateLimited(m, cfg.RateLimit, cfg.Burst), nil
	}
	return m, nil
}

func buildFactory(promptsFile string, logger logging.Logger) (*agent.Factory, error) {
	var prompts map[core.AgentType]string
	if promptsFile != "" {
		var err error
		prompts, err = config.LoadPrompts(promptsFile)
		if err != nil {
			return nil, err
		}
	}
	return agent.NewFactory(func(o *agent.FactoryOptions) {
		o.Prompts = prompts
		o.Logger = logger
	}), nil
}

func (rt *runtime) buildNotifier(cfg config.NotifyConfig) core.Notifier {
	var notifiers []core.Notifier
	if cfg.Log {
		notifiers = append(notifiers, notify.NewLogNotifier(rt.logger))
	}
	for _, w := range cfg.Webhooks {
		wh := notify.NewWebhookNotifier(w.URL, func(o *notify.WebhookOptions) {
			o.Secret = w.Secret
			o.Events = w.Events
			if w.TimeoutSeconds > 0 {
				o.Timeout = time.Duration(w.TimeoutSeconds) * time.Second
			}
			o.Logger = rt.logger
		})
		rt.closers = append(rt.closers, wh.Close)
		notifiers = append(notifiers, wh)
	}
	switch len(notifiers) {
	case 0:
		return nil
	case 1:
		return notifiers[0]
	default:
		return notify.NewMulti(notifiers...)
	}
}
