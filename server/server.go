// Package server exposes the tender workflow over HTTP using huma on chi.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hupe1980/tendermesh"
	"github.com/hupe1980/tendermesh/artifact"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/logging"
)

// DefaultBasePath is where the API is mounted when Config.BasePath is empty.
const DefaultBasePath = "/api/tender"

// DefaultMaxUploadBytes bounds tender document uploads.
const DefaultMaxUploadBytes int64 = 32 << 20

// Config for the HTTP API handler.
type Config struct {
	Mesh           *tendermesh.TenderMesh
	BasePath       string
	MaxUploadBytes int64
	Logger         logging.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_transition"`
	Message string         `json:"message" example:"outline is Draft, confirmation required"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"stage\":\"OutlineGenerated\"}"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the tender API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Mesh == nil {
		return nil, errors.New("server: mesh is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NoOpLogger{}
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimSuffix(basePath, "/")

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		return huma.NewError(status, msg, errs...)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(cfg.Logger))

	hcfg := huma.DefaultConfig("TenderMesh API", "0.1.0")
	hcfg.OpenAPIPath = basePath + "/openapi"
	hcfg.DocsPath = basePath + "/docs"
	hcfg.SchemasPath = basePath + "/schemas"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	h := &handlers{mesh: cfg.Mesh, maxUpload: cfg.MaxUploadBytes}
	registerHealth(group)
	h.registerProjects(group)
	h.registerOutline(group)
	h.registerSections(group)

	return router, nil
}

func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps workflow errors onto HTTP statuses. The stage the
// project was left in travels in details.stage.
func handleError(err error, stage core.Stage) huma.StatusError {
	if err == nil {
		return nil
	}
	var details map[string]any
	if stage != "" {
		details = map[string]any{"stage": string(stage)}
	}
	msg := err.Error()
	switch {
	case errors.Is(err, core.ErrProjectNotFound):
		return newAPIError(http.StatusNotFound, "project_not_found", msg, details)
	case errors.Is(err, core.ErrSectionNotFound):
		return newAPIError(http.StatusNotFound, "section_not_found", msg, details)
	case errors.Is(err, artifact.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", msg, details)
	case errors.Is(err, core.ErrOutlineMismatch):
		return newAPIError(http.StatusConflict, "outline_mismatch", msg, details)
	case errors.Is(err, core.ErrNoOutline):
		return newAPIError(http.StatusConflict, "no_outline", msg, details)
	case errors.Is(err, core.ErrInvalidTransition):
		return newAPIError(http.StatusConflict, "invalid_transition", msg, details)
	case errors.Is(err, core.ErrEmptyDocument):
		return newAPIError(http.StatusUnprocessableEntity, "empty_document", msg, details)
	case errors.Is(err, core.ErrRequirementAnalysis):
		return newAPIError(http.StatusUnprocessableEntity, "requirement_analysis_failed", msg, details)
	case errors.Is(err, core.ErrOutlineGeneration):
		return newAPIError(http.StatusUnprocessableEntity, "outline_generation_failed", msg, details)
	case errors.Is(err, core.ErrContentGeneration):
		return newAPIError(http.StatusUnprocessableEntity, "content_generation_failed", msg, details)
	case errors.Is(err, context.DeadlineExceeded):
		return newAPIError(http.StatusGatewayTimeout, "timeout", msg, details)
	case errors.Is(err, core.ErrOutlineDecode):
		return newAPIError(http.StatusInternalServerError, "outline_decode_failed", msg, details)
	case errors.Is(err, core.ErrPersistence):
		return newAPIError(http.StatusInternalServerError, "persistence_failed", msg, details)
	default:
		if details == nil {
			details = map[string]any{}
		}
		details["error"] = msg
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", details)
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}
