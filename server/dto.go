package server

import (
	"time"

	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/workflow"
)

// Request payloads

type CreateProjectRequest struct {
	Name      string `json:"projectName" minLength:"1" doc:"Human readable project name"`
	CreatedBy string `json:"createdBy,omitempty"`
}

type OutlineFeedbackRequest struct {
	OutlineID string `json:"outlineId,omitempty" doc:"Outline being reviewed; empty skips the id check"`
	Feedback  string `json:"feedback,omitempty" doc:"Reviewer feedback; empty asks the notifier for pending feedback"`
}

type OutlineRefRequest struct {
	OutlineID string `json:"outlineId,omitempty"`
}

type UpdateSectionRequest struct {
	Content string `json:"sectionContent"`
}

// Response payloads

type OutlineResponse struct {
	ID           string    `json:"outlineId"`
	ProjectID    string    `json:"projectId"`
	Content      string    `json:"outlineContent"`
	Version      int       `json:"version"`
	Status       string    `json:"status" enum:"Draft,FeedbackReceived,Confirmed,Error"`
	UserFeedback string    `json:"userFeedback,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SectionResponse struct {
	ID            string `json:"sectionId"`
	ParentID      string `json:"parentSectionId,omitempty"`
	Title         string `json:"sectionTitle"`
	Summary       string `json:"summary,omitempty"`
	Content       string `json:"sectionContent"`
	Order         int    `json:"order"`
	Status        string `json:"status" enum:"Pending,Drafted,Edited"`
	AssignedAgent string `json:"assignedAgent,omitempty"`
}

type ProjectResponse struct {
	ID                     string            `json:"projectId"`
	Name                   string            `json:"projectName"`
	CreatedBy              string            `json:"createdBy,omitempty"`
	CreatedAt              time.Time         `json:"createdAt"`
	UpdatedAt              time.Time         `json:"updatedAt"`
	Stage                  string            `json:"stage"`
	RequirementDocumentRef string            `json:"requirementDocumentRef,omitempty"`
	StructuredRequirements string            `json:"structuredRequirements,omitempty"`
	Outline                *OutlineResponse  `json:"outline,omitempty"`
	Sections               []SectionResponse `json:"sections,omitempty"`
	FinalDocument          string            `json:"finalDocument,omitempty"`
}

type ProjectSummary struct {
	ID        string    `json:"projectId"`
	Name      string    `json:"projectName"`
	Stage     string    `json:"stage"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type WorkflowResponse struct {
	ProjectID string           `json:"projectId"`
	Stage     string           `json:"stage"`
	Outline   *OutlineResponse `json:"outline,omitempty"`
}

type TenderResponse struct {
	ProjectID string `json:"projectId"`
	Stage     string `json:"stage"`
	Document  string `json:"finalDocument"`
}

// Mappers

func outlineResponse(o *core.Outline) *OutlineResponse {
	if o == nil {
		return nil
	}
	return &OutlineResponse{
		ID:           o.ID,
		ProjectID:    o.ProjectID,
		Content:      o.Content,
		Version:      o.Version,
		Status:       string(o.Status),
		UserFeedback: o.UserFeedback,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func sectionResponse(s core.Section) SectionResponse {
	return SectionResponse{
		ID:            s.ID,
		ParentID:      s.ParentID,
		Title:         s.Title,
		Summary:       s.Summary,
		Content:       s.Content,
		Order:         s.Order,
		Status:        string(s.Status),
		AssignedAgent: s.AssignedAgent,
	}
}

func mapSections(items []core.Section) []SectionResponse {
	out := make([]SectionResponse, 0, len(items))
	for _, s := range items {
		out = append(out, sectionResponse(s))
	}
	return out
}

// projectResponse maps p; a corrupt outline blob is left out rather than
// failing the read.
func projectResponse(p *core.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:                     p.ID,
		Name:                   p.Name,
		CreatedBy:              p.CreatedBy,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
		Stage:                  string(p.Stage),
		RequirementDocumentRef: p.RequirementDocumentRef,
		StructuredRequirements: p.StructuredRequirements,
		Sections:               mapSections(p.Sections),
		FinalDocument:          p.FinalDocument,
	}
	if o, err := p.DecodeOutline(); err == nil {
		resp.Outline = outlineResponse(o)
	}
	return resp
}

func mapProjects(items []*core.Project) []ProjectSummary {
	out := make([]ProjectSummary, 0, len(items))
	for _, p := range items {
		out = append(out, ProjectSummary{ID: p.ID, Name: p.Name, Stage: string(p.Stage), UpdatedAt: p.UpdatedAt})
	}
	return out
}

func workflowResponse(res workflow.Result) WorkflowResponse {
	return WorkflowResponse{
		ProjectID: res.ProjectID,
		Stage:     string(res.Stage),
		Outline:   outlineResponse(res.Outline),
	}
}
