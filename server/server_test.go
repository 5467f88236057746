package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/tendermesh"
	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, optFns ...func(o *tendermesh.Options)) *httptest.Server {
	t.Helper()
	handler, err := New(Config{Mesh: tendermesh.New(optFns...)})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	return do(t, method, url, "application/json", raw)
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

type errorEnvelope struct {
	Error apiErrorBody `json:"error"`
}

func createProject(t *testing.T, base string) ProjectResponse {
	t.Helper()
	res, data := doJSON(t, http.MethodPost, base+"/projects", CreateProjectRequest{Name: "Harbour Lighting", CreatedBy: "alice"})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	return decode[ProjectResponse](t, data)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	res, data := do(t, http.MethodGet, srv.URL+"/api/tender/health", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestTenderLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/tender"

	p := createProject(t, base)
	assert.Equal(t, string(core.StageInitial), p.Stage)

	res, data := do(t, http.MethodPost, base+"/projects/"+p.ID+"/upload", "text/plain", []byte("1. Lighting\n2. Maintenance"))
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	started := decode[WorkflowResponse](t, data)
	assert.Equal(t, string(core.StageOutlineGenerated), started.Stage)
	require.NotNil(t, started.Outline)
	assert.Equal(t, 1, started.Outline.Version)

	res, data = doJSON(t, http.MethodPut, base+"/projects/"+p.ID+"/outline", OutlineFeedbackRequest{
		OutlineID: started.Outline.ID,
		Feedback:  "Add a safety chapter",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	fb := decode[WorkflowResponse](t, data)
	assert.Equal(t, string(core.StageOutlineFeedbackProcessed), fb.Stage)
	assert.Equal(t, 2, fb.Outline.Version)

	res, data = doJSON(t, http.MethodPost, base+"/projects/"+p.ID+"/outline/confirm", OutlineRefRequest{OutlineID: started.Outline.ID})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	assert.Equal(t, string(core.StageOutlineConfirmed), decode[WorkflowResponse](t, data).Stage)

	res, data = do(t, http.MethodGet, base+"/projects/"+p.ID+"/outline", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Confirmed", decode[OutlineResponse](t, data).Status)

	res, data = do(t, http.MethodPost, base+"/projects/"+p.ID+"/structure", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	sections := decode[[]SectionResponse](t, data)
	require.NotEmpty(t, sections)
	assert.Equal(t, "Pending", sections[0].Status)

	res, data = do(t, http.MethodPost, base+"/projects/"+p.ID+"/sections/write", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	for _, s := range decode[[]SectionResponse](t, data) {
		assert.Equal(t, "Drafted", s.Status)
	}

	res, data = doJSON(t, http.MethodPut, base+"/projects/"+p.ID+"/sections/"+sections[0].ID, UpdateSectionRequest{Content: "Edited by hand."})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	assert.Equal(t, "Edited", decode[[]SectionResponse](t, data)[0].Status)

	res, data = do(t, http.MethodPost, base+"/projects/"+p.ID+"/generate", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	tender := decode[TenderResponse](t, data)
	assert.Equal(t, string(core.StageTenderAssembled), tender.Stage)
	assert.Contains(t, tender.Document, "# Harbour Lighting")
	assert.Contains(t, tender.Document, "Edited by hand.")

	res, data = do(t, http.MethodGet, base+"/projects/"+p.ID, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	full := decode[ProjectResponse](t, data)
	assert.NotEmpty(t, full.StructuredRequirements)
	assert.NotEmpty(t, full.RequirementDocumentRef)
	require.NotNil(t, full.Outline)

	res, data = do(t, http.MethodGet, base+"/projects", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, decode[[]ProjectSummary](t, data), 1)
}

func TestErrors(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/tender"

	t.Run("unknown project", func(t *testing.T) {
		res, data := do(t, http.MethodGet, base+"/projects/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, "project_not_found", decode[errorEnvelope](t, data).Error.Code)
	})

	t.Run("blank name", func(t *testing.T) {
		res, _ := doJSON(t, http.MethodPost, base+"/projects", map[string]string{"projectName": "   "})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("feedback without outline", func(t *testing.T) {
		p := createProject(t, base)
		res, data := doJSON(t, http.MethodPut, base+"/projects/"+p.ID+"/outline", OutlineFeedbackRequest{Feedback: "more"})
		assert.Equal(t, http.StatusConflict, res.StatusCode)
		env := decode[errorEnvelope](t, data)
		assert.Equal(t, string(core.StageFeedbackErrorNoOutline), env.Error.Details["stage"])
	})

	t.Run("empty document", func(t *testing.T) {
		p := createProject(t, base)
		res, data := do(t, http.MethodPost, base+"/projects/"+p.ID+"/upload", "application/octet-stream", []byte{0x00, 0x01, 0xff})
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		env := decode[errorEnvelope](t, data)
		assert.Equal(t, "empty_document", env.Error.Code)
		assert.Equal(t, string(core.StageDocumentProcessingFailed), env.Error.Details["stage"])
	})

	t.Run("outline mismatch", func(t *testing.T) {
		p := createProject(t, base)
		res, _ := do(t, http.MethodPost, base+"/projects/"+p.ID+"/upload", "text/plain", []byte("tender"))
		require.Equal(t, http.StatusOK, res.StatusCode)
		res, data := doJSON(t, http.MethodPost, base+"/projects/"+p.ID+"/outline/confirm", OutlineRefRequest{OutlineID: "other"})
		assert.Equal(t, http.StatusConflict, res.StatusCode)
		assert.Equal(t, "outline_mismatch", decode[errorEnvelope](t, data).Error.Code)
	})

	t.Run("structure before confirm", func(t *testing.T) {
		p := createProject(t, base)
		res, _ := do(t, http.MethodPost, base+"/projects/"+p.ID+"/upload", "text/plain", []byte("tender"))
		require.Equal(t, http.StatusOK, res.StatusCode)
		res, data := do(t, http.MethodPost, base+"/projects/"+p.ID+"/structure", "", nil)
		assert.Equal(t, http.StatusConflict, res.StatusCode)
		assert.Equal(t, "invalid_transition", decode[errorEnvelope](t, data).Error.Code)
	})

	t.Run("unknown section", func(t *testing.T) {
		p := createProject(t, base)
		res, _ := doJSON(t, http.MethodPut, base+"/projects/"+p.ID+"/sections/missing", UpdateSectionRequest{Content: "x"})
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestUpload_AnalysisFailure(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.SetError(errors.New("provider down"))
	srv := newTestServer(t, func(o *tendermesh.Options) { o.Model = llm })
	base := srv.URL + "/api/tender"

	p := createProject(t, base)
	res, data := do(t, http.MethodPost, base+"/projects/"+p.ID+"/upload", "text/plain", []byte("tender"))
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	env := decode[errorEnvelope](t, data)
	assert.Equal(t, "requirement_analysis_failed", env.Error.Code)
	assert.Equal(t, string(core.StageOutlineGenerationFailed), env.Error.Details["stage"])
}

func TestHandleError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrap: %w", core.ErrProjectNotFound), http.StatusNotFound},
		{core.ErrSectionNotFound, http.StatusNotFound},
		{core.ErrNoOutline, http.StatusConflict},
		{core.ErrOutlineMismatch, http.StatusConflict},
		{core.ErrInvalidTransition, http.StatusConflict},
		{core.ErrEmptyDocument, http.StatusUnprocessableEntity},
		{core.ErrOutlineGeneration, http.StatusUnprocessableEntity},
		{core.ErrContentGeneration, http.StatusUnprocessableEntity},
		{core.ErrOutlineDecode, http.StatusInternalServerError},
		{core.ErrPersistence, http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			se := handleError(tc.err, core.StageOutlineGenerated)
			assert.Equal(t, tc.status, se.GetStatus())
			ae, ok := se.(*apiError)
			require.True(t, ok)
			assert.Equal(t, string(core.StageOutlineGenerated), ae.Body.Details["stage"])
		})
	}
	assert.Nil(t, handleError(nil, ""))
}

func TestNew_RequiresMesh(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
