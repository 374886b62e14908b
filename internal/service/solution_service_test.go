package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldi/sportsched-api/internal/dto"
	"github.com/veldi/sportsched-api/internal/models"
	appErrors "github.com/veldi/sportsched-api/pkg/errors"
)

type stubSolutionRepo struct {
	docs    map[string]*models.SolutionDocument
	metas   []models.SolutionMeta
	deleted []string
}

func (r *stubSolutionRepo) FindByID(ctx context.Context, id string) (*models.SolutionDocument, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return doc, nil
}

func (r *stubSolutionRepo) Latest(ctx context.Context) (*models.SolutionDocument, error) {
	var latest *models.SolutionDocument
	for _, doc := range r.docs {
		if latest == nil || doc.CreatedAt.After(latest.CreatedAt) {
			latest = doc
		}
	}
	if latest == nil {
		return nil, appErrors.ErrNotFound
	}
	return latest, nil
}

func (r *stubSolutionRepo) List(ctx context.Context, limit, offset int) ([]models.SolutionMeta, int, error) {
	if offset >= len(r.metas) {
		return nil, len(r.metas), nil
	}
	end := offset + limit
	if end > len(r.metas) {
		end = len(r.metas)
	}
	return r.metas[offset:end], len(r.metas), nil
}

func (r *stubSolutionRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.docs[id]; !ok {
		return appErrors.ErrNotFound
	}
	delete(r.docs, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func newTestSolutionService(repo solutionRepository) *SolutionService {
	cache := NewCacheService(nil, nil, time.Minute, nil, false)
	return NewSolutionService(repo, cache, time.Minute, nil, nil, nil)
}

func sampleDoc(id string, created time.Time) *models.SolutionDocument {
	return &models.SolutionDocument{
		ID:        id,
		CreatedAt: created,
		Conditions: types.JSONText(`[]`),
		Schedule: types.JSONText(`[
			{"activity":"Sund - 1","day":"mán","area":"B","area_detail":"B-sal","start":"17:03","end":"18:03","violated_window":false,"modified":true,"row_id":3},
			{"activity":"Júdó - 1","day":"þri","area":"A","area_detail":"A-sal","start":"16:00","end":"17:00","violated_window":true,"modified":false,"row_id":4}
		]`),
		Diagnostics: types.JSONText(`{}`),
	}
}

func TestSolutionServiceListDefaultsPagination(t *testing.T) {
	repo := &stubSolutionRepo{metas: []models.SolutionMeta{
		{ID: "sol-3"}, {ID: "sol-2"}, {ID: "sol-1"},
	}}
	svc := newTestSolutionService(repo)

	metas, page, err := svc.List(context.Background(), dto.SolutionQuery{})
	require.NoError(t, err)
	assert.Len(t, metas, 3)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 3, page.TotalCount)

	metas, page, err = svc.List(context.Background(), dto.SolutionQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "sol-1", metas[0].ID)
	assert.Equal(t, 3, page.TotalCount)
}

func TestSolutionServiceGetLatest(t *testing.T) {
	now := time.Now()
	repo := &stubSolutionRepo{docs: map[string]*models.SolutionDocument{
		"sol-1": sampleDoc("sol-1", now.Add(-time.Hour)),
		"sol-2": sampleDoc("sol-2", now),
	}}
	svc := newTestSolutionService(repo)

	doc, err := svc.Get(context.Background(), "latest")
	require.NoError(t, err)
	assert.Equal(t, "sol-2", doc.ID)

	doc, err = svc.Get(context.Background(), "sol-1")
	require.NoError(t, err)
	assert.Equal(t, "sol-1", doc.ID)

	_, err = svc.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSolutionServiceExportCSV(t *testing.T) {
	repo := &stubSolutionRepo{docs: map[string]*models.SolutionDocument{
		"sol-1": sampleDoc("sol-1", time.Now()),
	}}
	svc := newTestSolutionService(repo)

	payload, filename, err := svc.ExportCSV(context.Background(), "sol-1")
	require.NoError(t, err)
	assert.Equal(t, "schedule-sol-1.csv", filename)

	body := string(payload)
	assert.True(t, strings.HasPrefix(body, "Activity,Day,Area,Area detail,Start,End,Flags"))
	// 17:03 snaps to the five-minute display grid.
	assert.Contains(t, body, "Sund - 1,mán,B,B-sal,17:05,18:05,modified")
	assert.Contains(t, body, "Júdó - 1,þri,A,A-sal,16:00,17:00,outside window")
}

func TestSolutionServiceExportPDF(t *testing.T) {
	repo := &stubSolutionRepo{docs: map[string]*models.SolutionDocument{
		"sol-1": sampleDoc("sol-1", time.Now()),
	}}
	svc := newTestSolutionService(repo)

	payload, filename, err := svc.ExportPDF(context.Background(), "sol-1")
	require.NoError(t, err)
	assert.Equal(t, "schedule-sol-1.pdf", filename)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestSolutionServiceDeleteInvalidates(t *testing.T) {
	repo := &stubSolutionRepo{docs: map[string]*models.SolutionDocument{
		"sol-1": sampleDoc("sol-1", time.Now()),
	}}
	svc := newTestSolutionService(repo)

	require.NoError(t, svc.Delete(context.Background(), "sol-1"))
	assert.Equal(t, []string{"sol-1"}, repo.deleted)

	err := svc.Delete(context.Background(), "sol-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
