package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/logging"
	"github.com/hupe1980/tendermesh/model"
)

// Config holds the construction-time settings shared by all tender agents.
type Config struct {
	ID          string
	Name        string
	Description string
	Model       model.Model
	// Instruction overrides the agent's default instruction template when non-empty.
	Instruction string
	Logger      logging.Logger
	// Now is the clock used for outline timestamps; defaults to time.Now.
	Now func() time.Time
}

// BaseAgent bundles identity, the model handle and the instruction for
// concrete agents. Embed it and add a capability method to satisfy one of
// the core capability interfaces.
type BaseAgent struct {
	id          string
	name        string
	description string
	agentType   core.AgentType
	model       model.Model
	instruction Instruction
	logger      logging.Logger
	now         func() time.Time
}

// NewBaseAgent constructs a BaseAgent. defaultInstruction is used when cfg
// carries no override.
func NewBaseAgent(t core.AgentType, cfg Config, defaultInstruction string) BaseAgent {
	b := BaseAgent{
		id:          cfg.ID,
		name:        cfg.Name,
		description: cfg.Description,
		agentType:   t,
		model:       cfg.Model,
		instruction: NewInstructionFromText(defaultInstruction),
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
	if b.id == "" {
		b.id = uuid.NewString()
	}
	if b.name == "" {
		b.name = string(t)
	}
	if b.description == "" {
		b.description = fmt.Sprintf("Agent %s", b.name)
	}
	if cfg.Instruction != "" {
		b.instruction = NewInstructionFromText(cfg.Instruction)
	}
	if b.logger == nil {
		b.logger = logging.NoOpLogger{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// ID returns the unique identifier of the agent.
func (b *BaseAgent) ID() string { return b.id }

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Type returns the registry tag of the agent.
func (b *BaseAgent) Type() core.AgentType { return b.agentType }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// Info returns the identifying details of the agent.
func (b *BaseAgent) Info() core.AgentInfo {
	return core.AgentInfo{ID: b.id, Name: b.name, Type: b.agentType}
}

// SetInstruction replaces the instruction (e.g. with a dynamic provider).
func (b *BaseAgent) SetInstruction(i Instruction) { b.instruction = i }

// complete renders the instruction against state and sends prompt as the
// user message.
func (b *BaseAgent) complete(ctx context.Context, state map[string]any, prompt string) (string, error) {
	instr, err := b.instruction.Resolve(state)
	if err != nil {
		return "", fmt.Errorf("render instruction: %w", err)
	}

	start := time.Now()
	out, err := model.Complete(ctx, b.model, model.Request{
		Instructions: instr,
		Messages:     []model.Message{model.UserMessage(prompt)},
	})

	tokens := 0
	if out != nil && out.Usage != nil {
		tokens = out.Usage.TotalTokens
	}
	logging.LogLLMCall(logging.With(b.logger, "agent", b.name, "agent_type", string(b.agentType)),
		b.model.Info().Name, tokens, time.Since(start), err)

	if err != nil {
		return "", err
	}
	return out.Text, nil
}
