package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/internal/util"
)

// DefaultContentStructureInstruction is the default structuring prompt.
const DefaultContentStructureInstruction = `You split a confirmed tender outline (given by the user) into writable
sections. Respond with JSON only, matching this schema:

{"sections": [{"title": "string", "summary": "string", "subsections": [{"title": "string", "summary": "string"}]}]}

Keep the order of the outline. Summaries state what the section must cover.`

var _ core.ContentStructurer = (*ContentStructureAgent)(nil)

type plannedSection struct {
	Title       string           `json:"title"`
	Summary     string           `json:"summary"`
	Subsections []plannedSection `json:"subsections"`
}

type sectionPlan struct {
	Sections []plannedSection `json:"sections"`
}

func validatePlan(p sectionPlan) error {
	if len(p.Sections) == 0 {
		return errors.New("plan has no sections")
	}
	for _, s := range p.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return errors.New("section title is required")
		}
	}
	return nil
}

// ContentStructureAgent derives the section tree from a confirmed outline.
type ContentStructureAgent struct {
	BaseAgent
}

// NewContentStructureAgent creates a ContentStructureAgent.
func NewContentStructureAgent(cfg Config) *ContentStructureAgent {
	if cfg.Description == "" {
		cfg.Description = "Breaks a confirmed outline into sections"
	}
	return &ContentStructureAgent{BaseAgent: NewBaseAgent(core.AgentContentStructure, cfg, DefaultContentStructureInstruction)}
}

// StructureContent implements core.ContentStructurer. When the model answer
// carries no usable plan, the outline headings are parsed directly.
func (a *ContentStructureAgent) StructureContent(ctx context.Context, outline *core.Outline) ([]core.Section, error) {
	if outline == nil || strings.TrimSpace(outline.Content) == "" {
		return nil, fmt.Errorf("%w: outline has no content", core.ErrContentGeneration)
	}

	raw, err := a.complete(ctx, map[string]any{"outline": outline.Content}, outline.Content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.logger.Warn("Structuring model call failed, parsing outline", "error", err)
		return a.flatten(outline.ProjectID, parseOutline(outline.Content)), nil
	}

	plan, err := util.ExtractJSON(raw, validatePlan)
	if err != nil {
		a.logger.Debug("Model output carried no section plan, parsing outline", "error", err)
		return a.flatten(outline.ProjectID, parseOutline(outline.Content)), nil
	}
	return a.flatten(outline.ProjectID, plan.Sections), nil
}

func (a *ContentStructureAgent) flatten(projectID string, planned []plannedSection) []core.Section {
	var out []core.Section
	var walk func(items []plannedSection, parentID string)
	walk = func(items []plannedSection, parentID string) {
		for _, p := range items {
			s := core.Section{
				ID:            uuid.NewString(),
				ProjectID:     projectID,
				ParentID:      parentID,
				Title:         strings.TrimSpace(p.Title),
				Summary:       strings.TrimSpace(p.Summary),
				Order:         len(out) + 1,
				Status:        core.SectionPending,
				AssignedAgent: string(core.AgentSectionWriting),
			}
			out = append(out, s)
			walk(p.Subsections, s.ID)
		}
	}
	walk(planned, "")
	return out
}

var (
	numberedLine = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+(.+)$`)
	bulletLine   = regexp.MustCompile(`^[-*•]\s+(.+)$`)
)

// parseOutline reads numbered headings (1., 1.1, 2.) and bullets into a
// section tree. Bullets nest under the last numbered heading. Outlines
// without any such structure give one top-level section per line.
func parseOutline(content string) []plannedSection {
	var (
		roots []plannedSection
		// path[i] addresses the last heading seen at depth i+1.
		path       []*plannedSection
		structured bool
		plain      []plannedSection
	)

	attach := func(depth int, title string) {
		if depth > len(path)+1 {
			depth = len(path) + 1
		}
		path = path[:depth-1]
		node := plannedSection{Title: title}
		if depth == 1 {
			roots = append(roots, node)
			path = append(path, &roots[len(roots)-1])
			return
		}
		parent := path[depth-2]
		parent.Subsections = append(parent.Subsections, node)
		path = append(path, &parent.Subsections[len(parent.Subsections)-1])
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			structured = true
			attach(strings.Count(m[1], ".")+1, m[2])
			continue
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			structured = true
			attach(len(path)+1, m[1])
			path = path[:len(path)-1]
			continue
		}
		plain = append(plain, plannedSection{Title: line})
	}

	if !structured {
		return plain
	}
	return roots
}
