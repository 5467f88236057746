package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/tendermesh/core"
)

// DefaultContentIntegrationInstruction is the default executive summary prompt.
const DefaultContentIntegrationInstruction = `You write the executive summary of the tender response "{{.title}}". The user
gives the section titles and their drafts. Answer with two or three short
paragraphs and no heading.`

var _ core.ContentIntegrator = (*ContentIntegrationAgent)(nil)

// ContentIntegrationAgent assembles written sections into the final document.
type ContentIntegrationAgent struct {
	BaseAgent
}

// NewContentIntegrationAgent creates a ContentIntegrationAgent.
func NewContentIntegrationAgent(cfg Config) *ContentIntegrationAgent {
	if cfg.Description == "" {
		cfg.Description = "Assembles sections into the final tender document"
	}
	return &ContentIntegrationAgent{BaseAgent: NewBaseAgent(core.AgentContentIntegration, cfg, DefaultContentIntegrationInstruction)}
}

// Integrate implements core.ContentIntegrator. Sections are emitted in
// order, with heading depth following the parent links.
func (a *ContentIntegrationAgent) Integrate(ctx context.Context, title string, sections []core.Section) (string, error) {
	if len(sections) == 0 {
		return "", fmt.Errorf("%w: no sections to integrate", core.ErrContentGeneration)
	}

	ordered := make([]core.Section, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	var digest strings.Builder
	for _, s := range ordered {
		fmt.Fprintf(&digest, "## %s\n%s\n\n", s.Title, s.Content)
	}

	summary, err := a.complete(ctx, map[string]any{"title": title}, digest.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: executive summary: %v", core.ErrContentGeneration, err)
	}

	depth := sectionDepths(ordered)

	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s\n\n", title)
	fmt.Fprintf(&doc, "## Executive Summary\n\n%s\n", strings.TrimSpace(summary))
	for _, s := range ordered {
		level := min(depth[s.ID]+2, 6)
		fmt.Fprintf(&doc, "\n%s %s\n", strings.Repeat("#", level), s.Title)
		if body := strings.TrimSpace(s.Content); body != "" {
			fmt.Fprintf(&doc, "\n%s\n", body)
		}
	}
	return doc.String(), nil
}

// sectionDepths returns the nesting depth of each section (0 for roots).
// Unknown parents count as roots.
func sectionDepths(sections []core.Section) map[string]int {
	parent := make(map[string]string, len(sections))
	for _, s := range sections {
		parent[s.ID] = s.ParentID
	}
	depth := make(map[string]int, len(sections))
	for _, s := range sections {
		d := 0
		seen := map[string]bool{s.ID: true}
		for p := parent[s.ID]; p != "" && !seen[p]; p = parent[p] {
			if _, ok := parent[p]; !ok {
				break
			}
			seen[p] = true
			d++
		}
		depth[s.ID] = d
	}
	return depth
}
