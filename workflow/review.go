package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/tendermesh/agent"
	"github.com/hupe1980/tendermesh/core"
)

// currentOutline decodes the project's outline and checks it is the one the
// caller refers to. noOutline and decodeFailed are the failure stages to
// record; an empty stage records nothing.
func (r *run) currentOutline(p *core.Project, outlineID string, noOutline, decodeFailed core.Stage) (*core.Outline, Result, error) {
	if !p.HasOutline() {
		if noOutline == "" {
			res, err := r.abort(fmt.Errorf("%w: %w", core.ErrInvalidTransition, core.ErrNoOutline))
			return nil, res, err
		}
		res, err := r.fail(noOutline, core.ErrNoOutline)
		return nil, res, err
	}
	outline, err := p.DecodeOutline()
	if err != nil {
		if decodeFailed == "" {
			res, err := r.abort(err)
			return nil, res, err
		}
		res, err := r.fail(decodeFailed, err)
		return nil, res, err
	}
	if outlineID != "" && outlineID != outline.ID {
		res, err := r.abort(fmt.Errorf("%w: got %q, current is %q", core.ErrOutlineMismatch, outlineID, outline.ID))
		return nil, res, err
	}
	return outline, Result{}, nil
}

// SubmitOutlineFeedback records reviewer feedback on the current outline and
// bumps its version. Blank feedback is filled from the notifier's pending
// feedback for the project.
func (o *Orchestrator) SubmitOutlineFeedback(ctx context.Context, projectID, outlineID, feedback string) (Result, error) {
	r, unlock, err := o.begin(ctx, "submit_outline_feedback", projectID)
	if err != nil {
		return Result{ProjectID: projectID}, err
	}
	defer unlock()

	p, err := r.load()
	if err != nil {
		return r.abort(err)
	}
	outline, res, err := r.currentOutline(p, outlineID, core.StageFeedbackErrorNoOutline, core.StageFeedbackErrorDeserialization)
	if err != nil {
		return res, err
	}

	if strings.TrimSpace(feedback) == "" && o.opts.Notifier != nil {
		pending, err := o.opts.Notifier.GetFeedback(ctx, projectID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return r.abort(ctxErr)
			}
			r.logger.Warn("Fetching pending feedback failed", "error", err)
		}
		feedback = pending
	}

	outline.ApplyFeedback(strings.TrimSpace(feedback), r.now())
	// Sections derive from the confirmed outline and are stale once it changes.
	p.Sections = nil
	p.FinalDocument = ""
	if err := p.EncodeOutline(outline); err != nil {
		return r.fail(core.StageFeedbackErrorSaveFailed, wrapErr(core.ErrPersistence, err))
	}
	if err := r.commit(p, core.StageOutlineFeedbackProcessed); err != nil {
		return r.fail(core.StageFeedbackErrorSaveFailed, err)
	}
	r.logger.Info("Outline feedback recorded", "outline_id", outline.ID, "version", outline.Version)
	return r.result(outline), nil
}

// ConfirmOutline accepts the current outline. The version is unchanged and
// confirming an already confirmed outline succeeds again.
func (o *Orchestrator) ConfirmOutline(ctx context.Context, projectID, outlineID string) (Result, error) {
	r, unlock, err := o.begin(ctx, "confirm_outline", projectID)
	if err != nil {
		return Result{ProjectID: projectID}, err
	}
	defer unlock()

	p, err := r.load()
	if err != nil {
		return r.abort(err)
	}
	outline, res, err := r.currentOutline(p, outlineID, core.StageConfirmErrorNoOutline, core.StageConfirmErrorDeserialization)
	if err != nil {
		return res, err
	}

	outline.Confirm(r.now())
	if err := p.EncodeOutline(outline); err != nil {
		return r.fail(core.StageConfirmErrorSaveFailed, wrapErr(core.ErrPersistence, err))
	}
	if err := r.commit(p, core.StageOutlineConfirmed); err != nil {
		return r.fail(core.StageConfirmErrorSaveFailed, err)
	}
	r.logger.Info("Outline confirmed", "outline_id", outline.ID, "version", outline.Version)
	return r.result(outline), nil
}

// RegenerateOutline revises an outline that has pending feedback. The
// revision keeps the outline id and version and returns to Draft.
func (o *Orchestrator) RegenerateOutline(ctx context.Context, projectID, outlineID string) (Result, error) {
	r, unlock, err := o.begin(ctx, "regenerate_outline", projectID)
	if err != nil {
		return Result{ProjectID: projectID}, err
	}
	defer unlock()

	p, err := r.load()
	if err != nil {
		return r.abort(err)
	}
	outline, res, err := r.currentOutline(p, outlineID, "", "")
	if err != nil {
		return res, err
	}
	if outline.Status != core.OutlineFeedbackReceived {
		return r.abort(fmt.Errorf("%w: outline is %s, feedback required", core.ErrInvalidTransition, outline.Status))
	}

	if err := r.advance(core.StageOutlineRegenerationPending); err != nil {
		return r.abort(err)
	}
	generator, err := agent.Resolve[core.OutlineGenerator](o.factory, core.AgentOutlineGeneration, "", "", o.model)
	if err != nil {
		return r.fail(core.StageOutlineGenerationFailed, wrapErr(core.ErrOutlineGeneration, err))
	}
	revised, err := generator.ReviseOutline(ctx, outline, p.StructuredRequirements)
	if err != nil {
		return r.fail(core.StageOutlineGenerationFailed, wrapErr(core.ErrOutlineGeneration, err))
	}
	if !revised.Actionable() {
		return r.fail(core.StageOutlineGenerationFailed, fmt.Errorf("%w: %s", core.ErrOutlineGeneration, revised.Content))
	}

	if err := p.EncodeOutline(revised); err != nil {
		return r.fail(core.StageOutlineGenerationFailed, wrapErr(core.ErrPersistence, err))
	}
	if err := r.commit(p, core.StageOutlineGenerated); err != nil {
		return r.fail(core.StageOutlineGenerationFailed, err)
	}
	r.logger.Info("Outline regenerated", "outline_id", revised.ID, "version", revised.Version)
	r.notifyOutline(revised)
	return r.result(revised), nil
}
