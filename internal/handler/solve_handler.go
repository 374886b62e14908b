package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veldi/sportsched-api/internal/dto"
	"github.com/veldi/sportsched-api/internal/models"
	"github.com/veldi/sportsched-api/internal/service"
	appErrors "github.com/veldi/sportsched-api/pkg/errors"
	"github.com/veldi/sportsched-api/pkg/response"
)

type solvePipeline interface {
	Submit(ctx context.Context, req dto.SolveRequest) (*dto.SubmitSolveResponse, error)
	Run(id string) (*models.SolveRun, error)
	Cancel(id string) error
}

// SolveHandler exposes the asynchronous solve endpoints.
type SolveHandler struct {
	service solvePipeline
}

// NewSolveHandler constructs the handler.
func NewSolveHandler(svc *service.SolveService) *SolveHandler {
	return &SolveHandler{service: svc}
}

// Submit accepts a solve request and answers 202 with the run id to
// poll. A solve already in flight yields 409.
func (h *SolveHandler) Submit(c *gin.Context) {
	var req dto.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid solve payload"))
		return
	}
	resp, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, resp)
}

// Run returns the pollable state of one run, including schedule and
// diagnostics once finished.
func (h *SolveHandler) Run(c *gin.Context) {
	run, err := h.service.Run(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Cancel requests termination of a pending or running solve.
func (h *SolveHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Cancel(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"runId": id})
}
