package testutil

import (
	"time"

	"github.com/hupe1980/tendermesh/core"
)

// ProjectBuilder helps construct projects with fluent chaining for tests.
// Example:
//
//	p := NewProjectBuilder("p-1").Stage(core.StageOutlineGenerated).Outline(o).Build()
type ProjectBuilder struct {
	project core.Project
	outline *core.Outline
	raw     *string
}

// NewProjectBuilder creates a builder for a project with the given id.
func NewProjectBuilder(id string) *ProjectBuilder {
	return &ProjectBuilder{project: core.Project{
		ID:        id,
		Name:      "Project " + id,
		CreatedBy: "tester",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Stage:     core.StageInitial,
	}}
}

// Name sets the project name (chainable).
func (b *ProjectBuilder) Name(name string) *ProjectBuilder {
	b.project.Name = name
	return b
}

// Stage sets the stage (chainable).
func (b *ProjectBuilder) Stage(s core.Stage) *ProjectBuilder {
	b.project.Stage = s
	return b
}

// Requirements sets the structured requirements (chainable).
func (b *ProjectBuilder) Requirements(r string) *ProjectBuilder {
	b.project.StructuredRequirements = r
	return b
}

// Outline attaches o as the current outline (chainable).
func (b *ProjectBuilder) Outline(o *core.Outline) *ProjectBuilder {
	b.outline = o
	return b
}

// RawOutline stores raw as the serialized outline verbatim, bypassing
// validation; used to simulate corrupt payloads (chainable).
func (b *ProjectBuilder) RawOutline(raw string) *ProjectBuilder {
	b.raw = &raw
	return b
}

// Sections sets the section list (chainable).
func (b *ProjectBuilder) Sections(s ...core.Section) *ProjectBuilder {
	b.project.Sections = s
	return b
}

// Build returns the configured project. It panics if the outline cannot be
// encoded, which only happens for invalid test fixtures.
func (b *ProjectBuilder) Build() *core.Project {
	p := b.project.Clone()
	if b.outline != nil {
		if err := p.EncodeOutline(b.outline); err != nil {
			panic(err)
		}
	}
	if b.raw != nil {
		p.CurrentOutline = *b.raw
	}
	return p
}

// DraftOutline returns a valid draft outline for projectID.
func DraftOutline(projectID string) *core.Outline {
	return &core.Outline{
		ID:        "outline-" + projectID,
		ProjectID: projectID,
		Content:   "1. Introduction\n2. Key Requirements Analysis\n3. Proposed Solution\n4. Conclusion",
		Version:   1,
		Status:    core.OutlineDraft,
	}
}

// ConfirmedOutline returns DraftOutline(projectID) in the Confirmed state.
func ConfirmedOutline(projectID string) *core.Outline {
	o := DraftOutline(projectID)
	o.Status = core.OutlineConfirmed
	return o
}
