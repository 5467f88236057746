package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hupe1980/tendermesh"
	"github.com/hupe1980/tendermesh/workflow"
)

type handlers struct {
	mesh      *tendermesh.TenderMesh
	maxUpload int64
}

type projectPath struct {
	ProjectID string `path:"projectId"`
}

type workflowOutput struct {
	Body WorkflowResponse `json:"body"`
}

// finish converts an orchestrator result into a response.
func finish(res workflow.Result, err error) (*workflowOutput, error) {
	if err != nil {
		return nil, handleError(err, res.Stage)
	}
	return &workflowOutput{Body: workflowResponse(res)}, nil
}

var workflowErrors = []int{
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

func (h *handlers) registerProjects(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Name) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "projectName is required", nil)
		}
		p, err := h.mesh.CreateProject(ctx, input.Body.Name, input.Body.CreatedBy)
		if err != nil {
			return nil, handleError(err, "")
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ProjectSummary `json:"body"`
	}, error) {
		items, err := h.mesh.ListProjects(ctx)
		if err != nil {
			return nil, handleError(err, "")
		}
		return &struct {
			Body []ProjectSummary `json:"body"`
		}{Body: mapProjects(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{projectId}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, err := h.mesh.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err, "")
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:  "upload-document",
		Method:       http.MethodPost,
		Path:         "/projects/{projectId}/upload",
		Summary:      "Upload the tender document and generate the first outline",
		Description:  "The request body is the raw document (PDF or plain text).",
		MaxBodyBytes: h.maxUpload,
		Errors:       workflowErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"projectId"`
		RawBody   []byte
	}) (*workflowOutput, error) {
		if len(input.RawBody) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "document body is required", nil)
		}
		return finish(h.mesh.Upload(ctx, input.ProjectID, input.RawBody))
	})

	huma.Register(api, huma.Operation{
		OperationID: "generate-tender",
		Method:      http.MethodPost,
		Path:        "/projects/{projectId}/generate",
		Summary:     "Assemble the final tender document",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body TenderResponse `json:"body"`
	}, error) {
		res, err := h.mesh.AssembleTender(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err, res.Stage)
		}
		doc := ""
		if res.Project != nil {
			doc = res.Project.FinalDocument
		}
		return &struct {
			Body TenderResponse `json:"body"`
		}{Body: TenderResponse{ProjectID: res.ProjectID, Stage: string(res.Stage), Document: doc}}, nil
	})
}

func (h *handlers) registerOutline(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-outline",
		Method:      http.MethodGet,
		Path:        "/projects/{projectId}/outline",
		Summary:     "Get the current outline",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body OutlineResponse `json:"body"`
	}, error) {
		o, err := h.mesh.Outline(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err, "")
		}
		return &struct {
			Body OutlineResponse `json:"body"`
		}{Body: *outlineResponse(o)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-outline-feedback",
		Method:      http.MethodPut,
		Path:        "/projects/{projectId}/outline",
		Summary:     "Submit feedback on the current outline",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string                 `path:"projectId"`
		Body      OutlineFeedbackRequest `json:"body"`
	}) (*workflowOutput, error) {
		return finish(h.mesh.SubmitOutlineFeedback(ctx, input.ProjectID, input.Body.OutlineID, input.Body.Feedback))
	})

	huma.Register(api, huma.Operation{
		OperationID: "regenerate-outline",
		Method:      http.MethodPost,
		Path:        "/projects/{projectId}/outline/regenerate",
		Summary:     "Revise the outline from its recorded feedback",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string             `path:"projectId"`
		Body      *OutlineRefRequest `json:"body,omitempty" required:"false"`
	}) (*workflowOutput, error) {
		return finish(h.mesh.RegenerateOutline(ctx, input.ProjectID, outlineID(input.Body)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "confirm-outline",
		Method:      http.MethodPost,
		Path:        "/projects/{projectId}/outline/confirm",
		Summary:     "Confirm the current outline",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string             `path:"projectId"`
		Body      *OutlineRefRequest `json:"body,omitempty" required:"false"`
	}) (*workflowOutput, error) {
		return finish(h.mesh.ConfirmOutline(ctx, input.ProjectID, outlineID(input.Body)))
	})
}

func outlineID(req *OutlineRefRequest) string {
	if req == nil {
		return ""
	}
	return req.OutlineID
}

type sectionsOutput struct {
	Body []SectionResponse `json:"body"`
}

// sectionsResult answers with the sections of the snapshot an operation wrote.
func (h *handlers) sectionsResult(ctx context.Context, res workflow.Result, err error) (*sectionsOutput, error) {
	if err != nil {
		return nil, handleError(err, res.Stage)
	}
	if res.Project != nil {
		return &sectionsOutput{Body: mapSections(res.Project.Sections)}, nil
	}
	sections, err := h.mesh.Sections(ctx, res.ProjectID)
	if err != nil {
		return nil, handleError(err, res.Stage)
	}
	return &sectionsOutput{Body: mapSections(sections)}, nil
}

func (h *handlers) registerSections(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "structure-content",
		Method:      http.MethodPost,
		Path:        "/projects/{projectId}/structure",
		Summary:     "Derive sections from the confirmed outline",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *projectPath) (*sectionsOutput, error) {
		res, err := h.mesh.StructureContent(ctx, input.ProjectID)
		return h.sectionsResult(ctx, res, err)
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sections",
		Method:      http.MethodGet,
		Path:        "/projects/{projectId}/sections",
		Summary:     "List sections",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*sectionsOutput, error) {
		sections, err := h.mesh.Sections(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err, "")
		}
		return &sectionsOutput{Body: mapSections(sections)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "write-sections",
		Method:      http.MethodPost,
		Path:        "/projects/{projectId}/sections/write",
		Summary:     "Draft every pending section",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *projectPath) (*sectionsOutput, error) {
		res, err := h.mesh.WriteSections(ctx, input.ProjectID)
		return h.sectionsResult(ctx, res, err)
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-section",
		Method:      http.MethodPut,
		Path:        "/projects/{projectId}/sections/{sectionId}",
		Summary:     "Replace a section's content",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"projectId"`
		SectionID string               `path:"sectionId"`
		Body      UpdateSectionRequest `json:"body"`
	}) (*sectionsOutput, error) {
		res, err := h.mesh.UpdateSection(ctx, input.ProjectID, input.SectionID, input.Body.Content)
		return h.sectionsResult(ctx, res, err)
	})
}
