// Package tendermesh provides a high-level façade over the tender workflow.
// Most applications interact with this package by:
//  1. Creating a TenderMesh via New() (optionally overriding the default in-memory stores and mock model)
//  2. Creating a project and uploading the tender document (Upload)
//  3. Reviewing the generated outline (SubmitOutlineFeedback, ConfirmOutline)
//  4. Structuring, writing and assembling the tender (StructureContent, WriteSections, AssembleTender)
//
// The façade delegates orchestration to workflow.Orchestrator. All defaults
// are safe for local development and testing; production deployments supply
// a durable project store and a real language model.
package tendermesh

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/tendermesh/agent"
	"github.com/hupe1980/tendermesh/artifact"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/document"
	"github.com/hupe1980/tendermesh/logging"
	"github.com/hupe1980/tendermesh/model"
	"github.com/hupe1980/tendermesh/project"
	"github.com/hupe1980/tendermesh/workflow"
)

// Options configures the TenderMesh instance.
type Options struct {
	// Stores (default to in-memory implementations if not provided)
	Store     core.ProjectStore
	Documents core.DocumentStore

	// Extractor pulls text from uploads (defaults to document.NewExtractor)
	Extractor core.TextExtractor

	// Notifier receives outline and section notifications; nil disables them.
	Notifier core.Notifier

	// Model drives every agent (defaults to a mock model)
	Model model.Model

	// Factory builds agents per call (defaults to agent.NewFactory)
	Factory *agent.Factory

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// TenderMesh is the high-level façade aggregating stores and the orchestrator.
type TenderMesh struct {
	opts         Options
	orchestrator *workflow.Orchestrator
}

// New creates a new TenderMesh instance with optional overrides.
func New(optFns ...func(o *Options)) *TenderMesh {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Store == nil {
		opts.Store = project.NewInMemoryStore()
	}
	if opts.Documents == nil {
		opts.Documents = artifact.NewInMemoryStore()
	}
	if opts.Extractor == nil {
		opts.Extractor = document.NewExtractor(func(o *document.Options) { o.Logger = opts.Logger })
	}
	if opts.Model == nil {
		opts.Model = model.NewMockModel("mock", "mock")
	}
	if opts.Factory == nil {
		opts.Factory = agent.NewFactory(func(o *agent.FactoryOptions) { o.Logger = opts.Logger })
	}

	orch := workflow.New(opts.Store, opts.Factory, opts.Model, func(o *workflow.Options) {
		o.Extractor = opts.Extractor
		o.Documents = opts.Documents
		o.Notifier = opts.Notifier
		o.Logger = opts.Logger
	})

	return &TenderMesh{opts: opts, orchestrator: orch}
}

// Orchestrator exposes the underlying workflow orchestrator.
func (t *TenderMesh) Orchestrator() *workflow.Orchestrator { return t.orchestrator }

// Store returns the configured project store.
func (t *TenderMesh) Store() core.ProjectStore { return t.opts.Store }

// Model returns the configured language model.
func (t *TenderMesh) Model() model.Model { return t.opts.Model }

// CreateProject registers a new project in stage Initial.
func (t *TenderMesh) CreateProject(ctx context.Context, name, createdBy string) (*core.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("project name is required")
	}
	p, err := t.opts.Store.Create(ctx, name, createdBy)
	if err != nil {
		return nil, err
	}
	t.opts.Logger.Info("Project created", "project_id", p.ID, "name", p.Name)
	return p, nil
}

// GetProject loads a project by id.
func (t *TenderMesh) GetProject(ctx context.Context, projectID string) (*core.Project, error) {
	return t.opts.Store.Get(ctx, projectID)
}

// ListProjects returns all projects, newest first.
func (t *TenderMesh) ListProjects(ctx context.Context) ([]*core.Project, error) {
	return t.opts.Store.List(ctx)
}

// Outline returns the decoded current outline of a project.
func (t *TenderMesh) Outline(ctx context.Context, projectID string) (*core.Outline, error) {
	p, err := t.opts.Store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return p.DecodeOutline()
}

// Sections returns the sections of a project in document order.
func (t *TenderMesh) Sections(ctx context.Context, projectID string) ([]core.Section, error) {
	p, err := t.opts.Store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return p.Sections, nil
}

// Document returns the most recently uploaded tender document of a project.
func (t *TenderMesh) Document(ctx context.Context, projectID string) ([]byte, error) {
	p, err := t.opts.Store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.RequirementDocumentRef == "" {
		return nil, fmt.Errorf("%w: project %s has no document", artifact.ErrNotFound, projectID)
	}
	return t.opts.Documents.Get(ctx, p.RequirementDocumentRef)
}

// Upload runs the intake pipeline on an uploaded tender document.
func (t *TenderMesh) Upload(ctx context.Context, projectID string, data []byte) (workflow.Result, error) {
	return t.orchestrator.StartWorkflow(ctx, projectID, data)
}

// SubmitOutlineFeedback records reviewer feedback on the current outline.
func (t *TenderMesh) SubmitOutlineFeedback(ctx context.Context, projectID, outlineID, feedback string) (workflow.Result, error) {
	return t.orchestrator.SubmitOutlineFeedback(ctx, projectID, outlineID, feedback)
}

// RegenerateOutline revises the current outline from its recorded feedback.
func (t *TenderMesh) RegenerateOutline(ctx context.Context, projectID, outlineID string) (workflow.Result, error) {
	return t.orchestrator.RegenerateOutline(ctx, projectID, outlineID)
}

// ConfirmOutline accepts the current outline.
func (t *TenderMesh) ConfirmOutline(ctx context.Context, projectID, outlineID string) (workflow.Result, error) {
	return t.orchestrator.ConfirmOutline(ctx, projectID, outlineID)
}

// StructureContent derives sections from the confirmed outline.
func (t *TenderMesh) StructureContent(ctx context.Context, projectID string) (workflow.Result, error) {
	return t.orchestrator.StructureContent(ctx, projectID)
}

// WriteSections drafts every pending section.
func (t *TenderMesh) WriteSections(ctx context.Context, projectID string) (workflow.Result, error) {
	return t.orchestrator.WriteSections(ctx, projectID)
}

// UpdateSection replaces the content of one section with a manual edit.
func (t *TenderMesh) UpdateSection(ctx context.Context, projectID, sectionID, content string) (workflow.Result, error) {
	return t.orchestrator.UpdateSection(ctx, projectID, sectionID, content)
}

// AssembleTender integrates all sections into the final document.
func (t *TenderMesh) AssembleTender(ctx context.Context, projectID string) (workflow.Result, error) {
	return t.orchestrator.AssembleTender(ctx, projectID)
}
