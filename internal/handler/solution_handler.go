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

type solutionReader interface {
	List(ctx context.Context, q dto.SolutionQuery) ([]models.SolutionMeta, *response.Pagination, error)
	Get(ctx context.Context, id string) (*models.SolutionDocument, error)
	Delete(ctx context.Context, id string) error
	ExportCSV(ctx context.Context, id string) ([]byte, string, error)
	ExportPDF(ctx context.Context, id string) ([]byte, string, error)
}

// SolutionHandler exposes persisted schedule documents.
type SolutionHandler struct {
	service solutionReader
}

// NewSolutionHandler constructs the handler.
func NewSolutionHandler(svc *service.SolutionService) *SolutionHandler {
	return &SolutionHandler{service: svc}
}

// List returns solution metadata newest first.
func (h *SolutionHandler) List(c *gin.Context) {
	var q dto.SolutionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	metas, pagination, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metas, pagination)
}

// Get returns one solution document; the id "latest" resolves to the
// most recent one.
func (h *SolutionHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Delete removes a stored solution.
func (h *SolutionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export streams the schedule as csv or pdf depending on the format
// query parameter.
func (h *SolutionHandler) Export(c *gin.Context) {
	id := c.Param("id")
	var (
		payload     []byte
		filename    string
		contentType string
		err         error
	)
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, filename, err = h.service.ExportCSV(c.Request.Context(), id)
		contentType = "text/csv"
	case "pdf":
		payload, filename, err = h.service.ExportPDF(c.Request.Context(), id)
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
