package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Project is the record driven through the tender workflow. The current
// outline is embedded as its serialized JSON form so that stores can persist
// it as a single field.
type Project struct {
	ID                     string    `json:"projectId"`
	Name                   string    `json:"projectName"`
	CreatedBy              string    `json:"createdBy"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
	Stage                  Stage     `json:"stage"`
	RequirementDocumentRef string    `json:"requirementDocumentRef,omitempty"`
	StructuredRequirements string    `json:"structuredRequirements,omitempty"`
	CurrentOutline         string    `json:"currentOutline,omitempty"`
	Sections               []Section `json:"sections,omitempty"`
	FinalDocument          string    `json:"finalDocument,omitempty"`
}

// HasOutline reports whether a current outline is attached.
func (p *Project) HasOutline() bool { return strings.TrimSpace(p.CurrentOutline) != "" }

// DecodeOutline deserializes the current outline. It returns ErrNoOutline when
// none is attached and wraps ErrOutlineDecode when the payload is corrupt or
// the decoded outline is invalid.
func (p *Project) DecodeOutline() (*Outline, error) {
	if !p.HasOutline() {
		return nil, ErrNoOutline
	}
	var o Outline
	if err := json.Unmarshal([]byte(p.CurrentOutline), &o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutlineDecode, err)
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutlineDecode, err)
	}
	return &o, nil
}

// EncodeOutline serializes o into CurrentOutline. Error outlines are refused:
// they must never become the current outline.
func (p *Project) EncodeOutline(o *Outline) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if !o.Actionable() {
		return fmt.Errorf("error outline cannot be stored as current outline")
	}
	if o.ProjectID != p.ID {
		return fmt.Errorf("outline belongs to project %q, not %q", o.ProjectID, p.ID)
	}
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encoding outline: %w", err)
	}
	p.CurrentOutline = string(data)
	return nil
}

// Section returns a pointer to the section with the given id.
func (p *Project) Section(id string) (*Section, bool) {
	for i := range p.Sections {
		if p.Sections[i].ID == id {
			return &p.Sections[i], true
		}
	}
	return nil, false
}

// Validate checks the record invariants that must hold before it is written.
func (p *Project) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("project id is required")
	}
	if !p.Stage.Valid() {
		return fmt.Errorf("unknown stage %q", p.Stage)
	}
	if p.HasOutline() {
		if _, err := p.DecodeOutline(); err != nil {
			return err
		}
	} else if p.Stage.RequiresOutline() {
		return fmt.Errorf("stage %s requires a current outline", p.Stage)
	}
	return nil
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Sections != nil {
		cp.Sections = make([]Section, len(p.Sections))
		copy(cp.Sections, p.Sections)
	}
	return &cp
}
