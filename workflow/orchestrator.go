package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/tendermesh/agent"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/document"
	"github.com/hupe1980/tendermesh/logging"
	"github.com/hupe1980/tendermesh/model"
)

// Result is the outcome of an orchestrator operation.
type Result struct {
	ProjectID string        `json:"projectId"`
	Stage     core.Stage    `json:"stage"`
	Outline   *core.Outline `json:"outline,omitempty"`
	// Project is the last persisted snapshot, when the operation wrote one.
	Project *core.Project `json:"-"`
}

// Options configures an Orchestrator.
type Options struct {
	// Extractor pulls text from uploads; defaults to document.NewExtractor().
	Extractor core.TextExtractor
	// Documents keeps uploaded bytes; nil skips storing them.
	Documents core.DocumentStore
	// Notifier receives outline / section notifications; nil disables them.
	Notifier core.Notifier
	Logger   logging.Logger
	Now      func() time.Time
}

// Orchestrator runs tender workflow operations against a ProjectStore.
// It is safe for concurrent use; operations on the same project are
// serialized.
type Orchestrator struct {
	store   core.ProjectStore
	factory *agent.Factory
	model   model.Model
	opts    Options
	locks   *keyedMutex
}

// New creates an Orchestrator. Agents are built from factory per call and
// driven by m.
func New(store core.ProjectStore, factory *agent.Factory, m model.Model, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Extractor == nil {
		opts.Extractor = document.NewExtractor(func(o *document.Options) { o.Logger = opts.Logger })
	}
	return &Orchestrator{
		store:   store,
		factory: factory,
		model:   m,
		opts:    opts,
		locks:   newKeyedMutex(),
	}
}

// run carries the state of one operation on one project.
type run struct {
	o         *Orchestrator
	ctx       context.Context
	projectID string
	stage     core.Stage
	project   *core.Project
	logger    logging.Logger
}

// begin takes the project lock. The returned release func must be called.
func (o *Orchestrator) begin(ctx context.Context, op, projectID string) (*run, func(), error) {
	unlock, err := o.locks.Lock(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	r := &run{
		o:         o,
		ctx:       ctx,
		projectID: projectID,
		logger:    logging.With(o.opts.Logger, "operation", op, "project_id", projectID),
	}
	r.logger.Debug("Operation started")
	return r, unlock, nil
}

func (r *run) result(outline *core.Outline) Result {
	res := Result{ProjectID: r.projectID, Stage: r.stage, Outline: outline}
	if r.project != nil {
		res.Project = r.project.Clone()
	}
	return res
}

// load reads the project. A missing project is reported as is and nothing
// is written.
func (r *run) load() (*core.Project, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	p, err := r.o.store.Get(r.ctx, r.projectID)
	if err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, core.ErrProjectNotFound) {
			return nil, fmt.Errorf("%w: %s", core.ErrProjectNotFound, r.projectID)
		}
		return nil, fmt.Errorf("%w: load project: %v", core.ErrPersistence, err)
	}
	r.stage = p.Stage
	return p, nil
}

// advance records a progress stage with UpdateStatus.
func (r *run) advance(to core.Stage) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if err := r.o.store.UpdateStatus(r.ctx, r.projectID, to); err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, core.ErrProjectNotFound) {
			return fmt.Errorf("%w: %s", core.ErrProjectNotFound, r.projectID)
		}
		return fmt.Errorf("%w: set stage %s: %v", core.ErrPersistence, to, err)
	}
	logging.LogStageTransition(r.logger, r.projectID, string(r.stage), string(to))
	r.stage = to
	return nil
}

// commit writes p with stage to in a single UpdateWhole.
func (r *run) commit(p *core.Project, to core.Stage) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	p.Stage = to
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: invalid project: %v", core.ErrPersistence, err)
	}
	if err := r.o.store.UpdateWhole(r.ctx, p); err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	if r.stage != to {
		logging.LogStageTransition(r.logger, r.projectID, string(r.stage), string(to))
	}
	r.stage = to
	r.project = p.Clone()
	return nil
}

// fail records a failure stage and returns cause. When the context has
// ended nothing is written and the context error is returned instead.
func (r *run) fail(stage core.Stage, cause error) (Result, error) {
	if err := r.ctx.Err(); err != nil {
		r.logger.Info("Operation cancelled", "stage", string(r.stage), "error", err)
		return r.result(nil), err
	}
	if err := r.o.store.UpdateStatus(r.ctx, r.projectID, stage); err != nil {
		r.logger.Error("Failed to record failure stage", "stage", string(stage), "error", err)
	} else {
		logging.LogStageTransition(r.logger, r.projectID, string(r.stage), string(stage))
		r.stage = stage
	}
	r.logger.Warn("Workflow step failed", "stage", string(stage), "error", cause)
	return r.result(nil), cause
}

// abort returns err without touching the stored stage.
func (r *run) abort(err error) (Result, error) {
	r.logger.Debug("Operation stopped", "stage", string(r.stage), "error", err)
	return r.result(nil), err
}

func (r *run) notifyOutline(outline *core.Outline) {
	n := r.o.opts.Notifier
	if n == nil {
		return
	}
	if err := n.NotifyOutlineReady(r.ctx, r.projectID, outline); err != nil {
		r.logger.Warn("Outline notification failed", "outline_id", outline.ID, "error", err)
	}
}

func (r *run) notifySection(section core.Section) {
	n := r.o.opts.Notifier
	if n == nil {
		return
	}
	if err := n.NotifySectionReady(r.ctx, r.projectID, section); err != nil {
		r.logger.Warn("Section notification failed", "section_id", section.ID, "error", err)
	}
}

func (r *run) now() time.Time { return r.o.opts.Now().UTC() }

// wrapErr wraps cause with sentinel unless it already carries it or is a
// context error.
func wrapErr(sentinel, cause error) error {
	if errors.Is(cause, sentinel) || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}
