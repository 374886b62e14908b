package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/veldi/sportsched-api/internal/models"
	appErrors "github.com/veldi/sportsched-api/pkg/errors"
)

// SolutionRepository persists solved schedules together with the
// conditions table that produced them.
type SolutionRepository struct {
	db *sqlx.DB
}

// NewSolutionRepository builds repository.
func NewSolutionRepository(db *sqlx.DB) *SolutionRepository {
	return &SolutionRepository{db: db}
}

// EnsureSchema creates the solutions table when it does not exist yet.
func (r *SolutionRepository) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS solutions (
    id UUID PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL,
    conditions JSONB NOT NULL,
    schedule JSONB NOT NULL,
    diagnostics JSONB NOT NULL
)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure solutions schema: %w", err)
	}
	return nil
}

// Insert stores a new solution document, filling id and timestamp when
// the caller left them empty.
func (r *SolutionRepository) Insert(ctx context.Context, doc *models.SolutionDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO solutions (id, created_at, conditions, schedule, diagnostics)
VALUES (:id, :created_at, :conditions, :schedule, :diagnostics)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, doc); err != nil {
		return fmt.Errorf("insert solution: %w", err)
	}
	return nil
}

// FindByID loads one solution document.
func (r *SolutionRepository) FindByID(ctx context.Context, id string) (*models.SolutionDocument, error) {
	const query = `SELECT id, created_at, conditions, schedule, diagnostics FROM solutions WHERE id = $1`
	var doc models.SolutionDocument
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find solution %s: %w", id, err)
	}
	return &doc, nil
}

// Latest returns the most recently stored solution, the natural warm
// start for the next run.
func (r *SolutionRepository) Latest(ctx context.Context) (*models.SolutionDocument, error) {
	const query = `SELECT id, created_at, conditions, schedule, diagnostics FROM solutions ORDER BY created_at DESC LIMIT 1`
	var doc models.SolutionDocument
	if err := r.db.GetContext(ctx, &doc, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("latest solution: %w", err)
	}
	return &doc, nil
}

// List returns solution metadata newest first along with the total
// count for pagination.
func (r *SolutionRepository) List(ctx context.Context, limit, offset int) ([]models.SolutionMeta, int, error) {
	const countQuery = `SELECT COUNT(*) FROM solutions`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, fmt.Errorf("count solutions: %w", err)
	}
	const query = `
SELECT id, created_at, jsonb_array_length(schedule) AS rows
FROM solutions ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var metas []models.SolutionMeta
	if err := r.db.SelectContext(ctx, &metas, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list solutions: %w", err)
	}
	return metas, total, nil
}

// Delete removes a stored solution.
func (r *SolutionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM solutions WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete solution %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}
