package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/veldi/sportsched-api/internal/dto"
	"github.com/veldi/sportsched-api/internal/models"
	"github.com/veldi/sportsched-api/internal/solver"
	"github.com/veldi/sportsched-api/pkg/export"
	"github.com/veldi/sportsched-api/pkg/response"
)

type solutionRepository interface {
	FindByID(ctx context.Context, id string) (*models.SolutionDocument, error)
	Latest(ctx context.Context) (*models.SolutionDocument, error)
	List(ctx context.Context, limit, offset int) ([]models.SolutionMeta, int, error)
	Delete(ctx context.Context, id string) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// SolutionService reads and exports persisted schedules.
type SolutionService struct {
	repo     solutionRepository
	cache    *CacheService
	csv      csvRenderer
	pdf      pdfRenderer
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSolutionService constructs a SolutionService.
func NewSolutionService(repo solutionRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *SolutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &SolutionService{repo: repo, cache: cache, csv: csv, pdf: pdf, cacheTTL: cacheTTL, logger: logger}
}

// List returns solution metadata newest first.
func (s *SolutionService) List(ctx context.Context, q dto.SolutionQuery) ([]models.SolutionMeta, *response.Pagination, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	type listPayload struct {
		Metas []models.SolutionMeta `json:"metas"`
		Total int                   `json:"total"`
	}
	key := fmt.Sprintf("solutions:list:%d:%d", page, size)
	var cached listPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Metas, &response.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
	}

	metas, total, err := s.repo.List(ctx, size, (page-1)*size)
	if err != nil {
		return nil, nil, err
	}
	s.cache.Set(ctx, key, listPayload{Metas: metas, Total: total}, s.cacheTTL)
	return metas, &response.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one solution document, latest resolving the most recent.
func (s *SolutionService) Get(ctx context.Context, id string) (*models.SolutionDocument, error) {
	key := "solutions:doc:" + id
	var cached models.SolutionDocument
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	var doc *models.SolutionDocument
	var err error
	if id == "latest" {
		doc, err = s.repo.Latest(ctx)
	} else {
		doc, err = s.repo.FindByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, doc, s.cacheTTL)
	return doc, nil
}

// Delete removes a stored solution and drops cached reads.
func (s *SolutionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, "solutions:*")
	return nil
}

// ExportCSV renders the schedule of one solution as CSV.
func (s *SolutionService) ExportCSV(ctx context.Context, id string) ([]byte, string, error) {
	data, doc, err := s.dataset(ctx, id)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, "", err
	}
	return payload, fmt.Sprintf("schedule-%s.csv", doc.ID), nil
}

// ExportPDF renders the schedule of one solution as a PDF table.
func (s *SolutionService) ExportPDF(ctx context.Context, id string) ([]byte, string, error) {
	data, doc, err := s.dataset(ctx, id)
	if err != nil {
		return nil, "", err
	}
	title := fmt.Sprintf("Weekly schedule %s", doc.CreatedAt.Format("2006-01-02"))
	payload, err := s.pdf.Render(data, title)
	if err != nil {
		return nil, "", err
	}
	return payload, fmt.Sprintf("schedule-%s.pdf", doc.ID), nil
}

var scheduleHeaders = []string{"Activity", "Day", "Area", "Area detail", "Start", "End", "Flags"}

// dataset flattens a stored schedule for export. Times snap to the
// five-minute display grid; the stored document keeps exact minutes.
func (s *SolutionService) dataset(ctx context.Context, id string) (export.Dataset, *models.SolutionDocument, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return export.Dataset{}, nil, err
	}
	var schedule []models.Assignment
	if err := json.Unmarshal(doc.Schedule, &schedule); err != nil {
		return export.Dataset{}, nil, fmt.Errorf("decode schedule %s: %w", doc.ID, err)
	}
	rows := make([]map[string]string, 0, len(schedule))
	for _, a := range schedule {
		rows = append(rows, map[string]string{
			"Activity":    a.Activity,
			"Day":         a.Day,
			"Area":        a.Area,
			"Area detail": a.AreaDetail,
			"Start":       displayClock(a.Start),
			"End":         displayClock(a.End),
			"Flags":       flags(a),
		})
	}
	return export.Dataset{Headers: scheduleHeaders, Rows: rows}, doc, nil
}

func displayClock(v string) string {
	minutes, err := solver.ParseClock(v)
	if err != nil {
		return v
	}
	return solver.FormatClock(solver.RoundToGrid(minutes, 5))
}

func flags(a models.Assignment) string {
	switch {
	case a.ViolatedWindow && a.Modified:
		return "modified, outside window"
	case a.ViolatedWindow:
		return "outside window"
	case a.Modified:
		return "modified"
	default:
		return ""
	}
}
