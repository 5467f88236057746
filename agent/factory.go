package agent

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/logging"
	"github.com/hupe1980/tendermesh/model"
)

// Constructor builds an agent from its configuration.
type Constructor func(cfg Config) core.Agent

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	// Prompts replaces the default instruction per agent type.
	Prompts map[core.AgentType]string
	// Overrides replaces the constructor of a built-in agent type.
	Overrides map[core.AgentType]Constructor
	Logger    logging.Logger
	Now       func() time.Time
}

// Factory creates agents from the closed set of registered types. It is
// immutable after NewFactory returns and safe for concurrent use.
type Factory struct {
	registry map[core.AgentType]Constructor
	opts     FactoryOptions
}

// NewFactory creates a Factory with the built-in tender agents registered.
func NewFactory(optFns ...func(o *FactoryOptions)) *Factory {
	opts := FactoryOptions{
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	f := &Factory{registry: make(map[core.AgentType]Constructor), opts: opts}
	builtins := []struct {
		t core.AgentType
		c Constructor
	}{
		{core.AgentDocumentAnalysis, func(cfg Config) core.Agent { return NewDocumentAnalysisAgent(cfg) }},
		{core.AgentOutlineGeneration, func(cfg Config) core.Agent { return NewOutlineGenerationAgent(cfg) }},
		{core.AgentContentStructure, func(cfg Config) core.Agent { return NewContentStructureAgent(cfg) }},
		{core.AgentSectionWriting, func(cfg Config) core.Agent { return NewSectionWritingAgent(cfg) }},
		{core.AgentContentIntegration, func(cfg Config) core.Agent { return NewContentIntegrationAgent(cfg) }},
	}
	for _, b := range builtins {
		c := b.c
		if o, ok := opts.Overrides[b.t]; ok && o != nil {
			c = o
		}
		// Built-in tags are distinct and non-empty.
		_ = f.register(b.t, c)
	}
	return f
}

func (f *Factory) register(t core.AgentType, c Constructor) error {
	if t == "" {
		return errors.New("agent type is required")
	}
	if c == nil {
		return fmt.Errorf("constructor for %q is nil", t)
	}
	if _, exists := f.registry[t]; exists {
		return fmt.Errorf("agent type %q already registered", t)
	}
	f.registry[t] = c
	return nil
}

// Create builds an agent of type t. An empty id is replaced by a fresh uuid.
func (f *Factory) Create(t core.AgentType, id, name string, m model.Model) (core.Agent, error) {
	c, ok := f.registry[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownAgentType, t)
	}
	if m == nil {
		return nil, fmt.Errorf("agent %q: model is required", t)
	}
	if id == "" {
		id = uuid.NewString()
	}
	return c(Config{
		ID:          id,
		Name:        name,
		Model:       m,
		Instruction: f.opts.Prompts[t],
		Logger:      f.opts.Logger,
		Now:         f.opts.Now,
	}), nil
}

// Types returns the registered agent types, sorted.
func (f *Factory) Types() []core.AgentType {
	out := make([]core.AgentType, 0, len(f.registry))
	for t := range f.registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseAgentType resolves a tag case-insensitively against the built-in types.
func ParseAgentType(s string) (core.AgentType, error) {
	for _, t := range []core.AgentType{
		core.AgentDocumentAnalysis,
		core.AgentOutlineGeneration,
		core.AgentContentStructure,
		core.AgentSectionWriting,
		core.AgentContentIntegration,
	} {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownAgentType, s)
}

// Resolve creates an agent of type t and asserts the capability T.
//
//	gen, err := agent.Resolve[core.OutlineGenerator](f, core.AgentOutlineGeneration, "", "Outliner", llm)
func Resolve[T core.Agent](f *Factory, t core.AgentType, id, name string, m model.Model) (T, error) {
	var zero T
	a, err := f.Create(t, id, name, m)
	if err != nil {
		return zero, err
	}
	typed, ok := a.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q does not provide %T", core.ErrCapabilityMismatch, t, (*T)(nil))
	}
	return typed, nil
}
