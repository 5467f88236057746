package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/tendermesh/agent"
	"github.com/hupe1980/tendermesh/core"
)

// StructureContent derives the section tree from the confirmed outline.
// Existing sections and any assembled document are replaced.
func (o *Orchestrator) StructureContent(ctx context.Context, projectID string) (Result, error) {
	r, unlock, err := o.begin(ctx, "structure_content", projectID)
	if err != nil {
		return Result{ProjectID: projectID}, err
	}
	defer unlock()

	p, err := r.load()
	if err != nil {
		return r.abort(err)
	}
	outline, res, err := r.currentOutline(p, "", "", "")
	if err != nil {
		return res, err
	}
	if outline.Status != core.OutlineConfirmed {
		return r.abort(fmt.Errorf("%w: outline is %s, confirmation required", core.ErrInvalidTransition, outline.Status))
	}

	if err := r.advance(core.StageContentStructureInProgress); err != nil {
		return r.abort(err)
	}
	structurer, err := agent.Resolve[core.ContentStructurer](o.factory, core.AgentContentStructure, "", "", o.model)
	if err != nil {
		return r.fail(core.StageContentStructureFailed, wrapErr(core.ErrContentGeneration, err))
	}
	sections, err := structurer.StructureContent(ctx, outline)
	if err != nil {
		return r.fail(core.StageContentStructureFailed, wrapErr(core.ErrContentGeneration, err))
	}
	if len(sections) == 0 {
		return r.fail(core.StageContentStructureFailed, fmt.Errorf("%w: outline produced no sections", core.ErrContentGeneration))
	}

	p.Sections = sections
	p.FinalDocument = ""
	if err := r.commit(p, core.StageContentStructureGenerated); err != nil {
		return r.fail(core.StageContentStructureFailed, err)
	}
	r.logger.Info("Content structured", "sections", len(sections))
	return r.result(outline), nil
}

// requireSections checks that the sections were derived from the outline as
// it stands: the outline must still be confirmed and sections must exist.
func (r *run) requireSections(p *core.Project) (Result, error) {
	outline, res, err := r.currentOutline(p, "", "", "")
	if err != nil {
		return res, err
	}
	if outline.Status != core.OutlineConfirmed {
		return r.abort(fmt.Errorf("%w: outline is %s, confirmation required", core.ErrInvalidTransition, outline.Status))
	}
	if len(p.Sections) == 0 {
		return r.abort(fmt.Errorf("%w: project has no sections", core.ErrInvalidTransition))
	}
	return Result{}, nil
}

// WriteSections drafts every Pending section in order. Each draft is
// persisted as soon as it is written, so a failure keeps earlier drafts.
func (o *Orchestrator) WriteSections(ctx context.Context, projectID string) (Result, error) {
	r, unlock, err := o.begin(ctx, "write_sections", projectID)
	if err != nil {
		return Result{ProjectID: projectID}, err
	}
	defer unlock()

	p, err := r.load()
	if err != nil {
		return r.abort(err)
	}
	if res, err := r.requireSections(p); err != nil {
		return res, err
	}

	if err := r.advance(core.StageSectionWritingInProgress); err != nil {
		return r.abort(err)
	}
	writer, err := agent.Resolve[core.SectionWriter](o.factory, core.AgentSectionWriting, "", "", o.model)
	if err != nil {
		return r.fail(core.StageSectionWritingFailed, wrapErr(core.ErrContentGeneration, err))
	}

	order := make([]int, len(p.Sections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return p.Sections[order[a]].Order < p.Sections[order[b]].Order })

	written := 0
	for _, i := range order {
		if p.Sections[i].Status != core.SectionPending {
			continue
		}
		content, err := writer.WriteSection(ctx, p.Sections[i], p.StructuredRequirements)
		if err != nil {
			return r.fail(core.StageSectionWritingFailed, wrapErr(core.ErrContentGeneration, err))
		}
		p.Sections[i].Content = content
		p.Sections[i].Status = core.SectionDrafted
		if err := r.commit(p, core.StageSectionWritingInProgress); err != nil {
			return r.fail(core.StageSectionWritingFailed, err)
		}
		written++
		r.notifySection(p.Sections[i])
	}

	if err := r.commit(p, core.StageSectionsWritten); err != nil {
		return r.fail(core.StageSectionWritingFailed, err)
	}
	r.logger.Info("Sections written", "written", written, "total", len(p.Sections))
	return r.result(nil), nil
}

// UpdateSection replaces a section's content with a human edit. The stage
// is left as it is.
func (o *Orchestrator) UpdateSection(ctx context.Context, projectID, sectionID, content string) (Result, error) {
	r, unlock, err := o.begin(ctx, "update_section", projectID)
	if err != nil {
		return Result{ProjectID: projectID}, err
	}
	defer unlock()

	p, err := r.load()
	if err != nil {
		return r.abort(err)
	}
	s, ok := p.Section(sectionID)
	if !ok {
		return r.abort(fmt.Errorf("%w: %s", core.ErrSectionNotFound, sectionID))
	}
	s.Content = content
	s.Status = core.SectionEdited
	if err := r.commit(p, p.Stage); err != nil {
		return r.abort(err)
	}
	r.logger.Info("Section edited", "section_id", sectionID)
	return r.result(nil), nil
}

// AssembleTender integrates all written sections into the final document.
func (o *Orchestrator) AssembleTender(ctx context.Context, projectID string) (Result, error) {
	r, unlock, err := o.begin(ctx, "assemble_tender", projectID)
	if err != nil {
		return Result{ProjectID: projectID}, err
	}
	defer unlock()

	p, err := r.load()
	if err != nil {
		return r.abort(err)
	}
	if res, err := r.requireSections(p); err != nil {
		return res, err
	}
	for _, s := range p.Sections {
		if s.Status == core.SectionPending {
			return r.abort(fmt.Errorf("%w: section %q is not written yet", core.ErrInvalidTransition, s.Title))
		}
	}

	if err := r.advance(core.StageContentIntegrationInProgress); err != nil {
		return r.abort(err)
	}
	integrator, err := agent.Resolve[core.ContentIntegrator](o.factory, core.AgentContentIntegration, "", "", o.model)
	if err != nil {
		return r.fail(core.StageContentIntegrationFailed, wrapErr(core.ErrContentGeneration, err))
	}
	doc, err := integrator.Integrate(ctx, p.Name, p.Sections)
	if err != nil {
		return r.fail(core.StageContentIntegrationFailed, wrapErr(core.ErrContentGeneration, err))
	}

	p.FinalDocument = doc
	if err := r.commit(p, core.StageTenderAssembled); err != nil {
		return r.fail(core.StageContentIntegrationFailed, err)
	}
	r.logger.Info("Tender assembled", "chars", len(doc))
	return r.result(nil), nil
}
