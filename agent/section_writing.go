package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/tendermesh/core"
)

// DefaultSectionWritingInstruction is the default drafting prompt.
const DefaultSectionWritingInstruction = `You write one section of a tender response. The user gives the section title.
{{- if .summary}}
The section must cover: {{.summary}}
{{- end}}

Tender requirements:
{{default "(none provided)" .requirements}}

Write persuasive, factual prose in markdown without repeating the title.`

var _ core.SectionWriter = (*SectionWritingAgent)(nil)

// SectionWritingAgent drafts the body of a single section.
type SectionWritingAgent struct {
	BaseAgent
}

// NewSectionWritingAgent creates a SectionWritingAgent.
func NewSectionWritingAgent(cfg Config) *SectionWritingAgent {
	if cfg.Description == "" {
		cfg.Description = "Drafts tender sections against the requirements"
	}
	return &SectionWritingAgent{BaseAgent: NewBaseAgent(core.AgentSectionWriting, cfg, DefaultSectionWritingInstruction)}
}

// WriteSection implements core.SectionWriter.
func (a *SectionWritingAgent) WriteSection(ctx context.Context, section core.Section, requirements string) (string, error) {
	state := map[string]any{
		"title":        section.Title,
		"summary":      section.Summary,
		"requirements": requirements,
	}
	out, err := a.complete(ctx, state, section.Title)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: section %q: %v", core.ErrContentGeneration, section.Title, err)
	}
	return strings.TrimSpace(out), nil
}
