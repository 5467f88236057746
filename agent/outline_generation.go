package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/tendermesh/core"
)

// EmptyRequirementsContent is the content of the Error outline produced for
// blank requirements.
const EmptyRequirementsContent = "Error: Structured requirement info was empty. Cannot generate outline."

// DefaultOutlineGenerationInstruction is the default outline prompt. The
// revision flow renders {{.feedback}} and {{.outline}}.
const DefaultOutlineGenerationInstruction = `You are a senior bid manager. Draft the outline of a tender response for the
structured requirements given by the user. Answer with a numbered outline only,
one heading per line (1., 1.1, 2., ...).
{{- if .feedback}}

Revise this existing outline:
{{.outline}}

Apply the reviewer feedback:
{{.feedback}}
{{- end}}`

var _ core.OutlineGenerator = (*OutlineGenerationAgent)(nil)

// OutlineGenerationAgent produces and revises tender outlines.
type OutlineGenerationAgent struct {
	BaseAgent
}

// NewOutlineGenerationAgent creates an OutlineGenerationAgent.
func NewOutlineGenerationAgent(cfg Config) *OutlineGenerationAgent {
	if cfg.Description == "" {
		cfg.Description = "Generates tender outlines from structured requirements"
	}
	return &OutlineGenerationAgent{BaseAgent: NewBaseAgent(core.AgentOutlineGeneration, cfg, DefaultOutlineGenerationInstruction)}
}

// GenerateOutline implements core.OutlineGenerator.
func (a *OutlineGenerationAgent) GenerateOutline(ctx context.Context, projectID, requirements string) (*core.Outline, error) {
	now := a.now()
	o := &core.Outline{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Version:   1,
		Status:    core.OutlineDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if strings.TrimSpace(requirements) == "" {
		o.Status = core.OutlineError
		o.Content = EmptyRequirementsContent
		return o, nil
	}

	content, err := a.complete(ctx, map[string]any{"requirements": requirements}, requirements)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		o.Status = core.OutlineError
		o.Content = fmt.Sprintf("Error: outline generation failed: %v", err)
		return o, nil
	}
	o.Content = strings.TrimSpace(content)
	return o, nil
}

// ReviseOutline implements core.OutlineGenerator. The revision keeps the
// outline id and version and clears the applied feedback.
func (a *OutlineGenerationAgent) ReviseOutline(ctx context.Context, outline *core.Outline, requirements string) (*core.Outline, error) {
	revised := outline.Clone()
	revised.UpdatedAt = a.now()

	state := map[string]any{
		"requirements": requirements,
		"outline":      outline.Content,
		"feedback":     outline.UserFeedback,
	}
	content, err := a.complete(ctx, state, requirements)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		revised.Status = core.OutlineError
		revised.Content = fmt.Sprintf("Error: outline revision failed: %v", err)
		return revised, nil
	}

	revised.Content = strings.TrimSpace(content)
	revised.Status = core.OutlineDraft
	revised.UserFeedback = ""
	return revised, nil
}
