package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/tendermesh/agent"
	"github.com/hupe1980/tendermesh/core"
)

// StartWorkflow ingests an uploaded document: extracts its text, analyses
// the requirements and generates the first outline. On success the
// project is in stage OutlineGenerated with a Draft outline at version 1.
func (o *Orchestrator) StartWorkflow(ctx context.Context, projectID string, document []byte) (Result, error) {
	r, unlock, err := o.begin(ctx, "start_workflow", projectID)
	if err != nil {
		return Result{ProjectID: projectID}, err
	}
	defer unlock()

	if err := r.advance(core.StageDocumentProcessing); err != nil {
		return r.abort(err)
	}

	text := strings.TrimSpace(o.opts.Extractor.ExtractText(ctx, document))
	if err := ctx.Err(); err != nil {
		return r.abort(err)
	}
	if text == "" {
		return r.fail(core.StageDocumentProcessingFailed, core.ErrEmptyDocument)
	}
	r.logger.Debug("Document text extracted", "bytes", len(document), "chars", len(text))

	if err := r.advance(core.StageRequirementAnalysis); err != nil {
		return r.abort(err)
	}
	// Analysis failures end in OutlineGenerationFailed and leave the project
	// record untouched.
	analyzer, err := agent.Resolve[core.DocumentAnalyzer](o.factory, core.AgentDocumentAnalysis, "", "", o.model)
	if err != nil {
		return r.fail(core.StageOutlineGenerationFailed, wrapErr(core.ErrRequirementAnalysis, err))
	}
	requirements, err := analyzer.Analyze(ctx, text)
	if err != nil {
		return r.fail(core.StageOutlineGenerationFailed, wrapErr(core.ErrRequirementAnalysis, err))
	}
	if agent.IsAnalysisError(requirements) || strings.TrimSpace(requirements) == "" {
		return r.fail(core.StageOutlineGenerationFailed, fmt.Errorf("%w: %s", core.ErrRequirementAnalysis, requirements))
	}

	p, err := r.load()
	if err != nil {
		if errors.Is(err, core.ErrProjectNotFound) {
			return r.fail(core.StageCriticalErrorProjectNotFound, err)
		}
		return r.fail(core.StageUpdateFailedSR, err)
	}

	// New requirements invalidate everything derived from earlier ones.
	p.StructuredRequirements = requirements
	p.CurrentOutline = ""
	p.Sections = nil
	p.FinalDocument = ""
	if o.opts.Documents != nil {
		ref, err := o.opts.Documents.Save(ctx, projectID, document)
		if err != nil {
			return r.fail(core.StageUpdateFailedSR, wrapErr(core.ErrPersistence, err))
		}
		p.RequirementDocumentRef = ref
	}
	if err := r.commit(p, core.StageRequirementAnalysis); err != nil {
		return r.fail(core.StageUpdateFailedSR, err)
	}

	if err := r.advance(core.StageOutlineGenerationInProgress); err != nil {
		return r.abort(err)
	}
	generator, err := agent.Resolve[core.OutlineGenerator](o.factory, core.AgentOutlineGeneration, "", "", o.model)
	if err != nil {
		return r.fail(core.StageOutlineGenerationFailed, wrapErr(core.ErrOutlineGeneration, err))
	}
	outline, err := generator.GenerateOutline(ctx, projectID, p.StructuredRequirements)
	if err != nil {
		return r.fail(core.StageOutlineGenerationFailed, wrapErr(core.ErrOutlineGeneration, err))
	}
	if !outline.Actionable() {
		return r.fail(core.StageOutlineGenerationFailed, fmt.Errorf("%w: %s", core.ErrOutlineGeneration, outline.Content))
	}

	if err := p.EncodeOutline(outline); err != nil {
		return r.fail(core.StageOutlineGenerationFailed, wrapErr(core.ErrPersistence, err))
	}
	if err := r.commit(p, core.StageOutlineGenerated); err != nil {
		return r.fail(core.StageOutlineGenerationFailed, err)
	}
	r.logger.Info("Outline generated", "outline_id", outline.ID, "version", outline.Version)
	r.notifyOutline(outline)
	return r.result(outline), nil
}
