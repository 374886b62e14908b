package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldi/sportsched-api/internal/dto"
	"github.com/veldi/sportsched-api/internal/models"
	appErrors "github.com/veldi/sportsched-api/pkg/errors"
)

type solvePipelineMock struct {
	captured  dto.SolveRequest
	submitErr error
	run       *models.SolveRun
	cancelErr error
	cancelled string
}

func (m *solvePipelineMock) Submit(ctx context.Context, req dto.SolveRequest) (*dto.SubmitSolveResponse, error) {
	m.captured = req
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return &dto.SubmitSolveResponse{RunID: "run-1", Status: models.RunPending}, nil
}

func (m *solvePipelineMock) Run(id string) (*models.SolveRun, error) {
	if m.run == nil || m.run.ID != id {
		return nil, appErrors.ErrNotFound
	}
	return m.run, nil
}

func (m *solvePipelineMock) Cancel(id string) error {
	m.cancelled = id
	return m.cancelErr
}

func solvePayload() []byte {
	payload, _ := json.Marshal(dto.SolveRequest{
		Activities: []dto.ActivityRow{{
			Name:             "Sund",
			Areas:            "B-sal",
			Windows:          map[string]string{"mán": "16:00-18:00"},
			WeekdayDurations: "60",
		}},
	})
	return payload
}

func postContext(t *testing.T, target string, body []byte) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return w, c
}

func TestSolveHandlerSubmitAccepted(t *testing.T) {
	mockSvc := &solvePipelineMock{}
	handler := &SolveHandler{service: mockSvc}
	w, c := postContext(t, "/solve", solvePayload())

	handler.Submit(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Sund", mockSvc.captured.Activities[0].Name)
	assert.Contains(t, w.Body.String(), "run-1")
}

func TestSolveHandlerSubmitInvalidJSON(t *testing.T) {
	handler := &SolveHandler{service: &solvePipelineMock{}}
	w, c := postContext(t, "/solve", []byte("{"))

	handler.Submit(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSolveHandlerSubmitConflict(t *testing.T) {
	mockSvc := &solvePipelineMock{submitErr: appErrors.ErrSolveInProgress}
	handler := &SolveHandler{service: mockSvc}
	w, c := postContext(t, "/solve", solvePayload())

	handler.Submit(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrSolveInProgress.Code)
}

func TestSolveHandlerRun(t *testing.T) {
	mockSvc := &solvePipelineMock{run: &models.SolveRun{ID: "run-1", Status: models.RunCompleted}}
	handler := &SolveHandler{service: mockSvc}

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/solve/run-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	handler.Run(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.RunCompleted))
}

func TestSolveHandlerRunNotFound(t *testing.T) {
	handler := &SolveHandler{service: &solvePipelineMock{}}

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/solve/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	handler.Run(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSolveHandlerCancel(t *testing.T) {
	mockSvc := &solvePipelineMock{}
	handler := &SolveHandler{service: mockSvc}

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/solve/run-1/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	handler.Cancel(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "run-1", mockSvc.cancelled)
}
