package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldi/sportsched-api/internal/models"
	appErrors "github.com/veldi/sportsched-api/pkg/errors"
)

func newSolutionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSolutionRepositoryInsertFillsDefaults(t *testing.T) {
	db, mock, cleanup := newSolutionRepoMock(t)
	defer cleanup()
	repo := NewSolutionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO solutions")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	doc := &models.SolutionDocument{
		Conditions:  types.JSONText(`[]`),
		Schedule:    types.JSONText(`[]`),
		Diagnostics: types.JSONText(`{}`),
	}
	err := repo.Insert(context.Background(), doc)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolutionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSolutionRepoMock(t)
	defer cleanup()
	repo := NewSolutionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "created_at", "conditions", "schedule", "diagnostics"}).
		AddRow("sol-1", time.Now(), types.JSONText(`[]`), types.JSONText(`[]`), types.JSONText(`{}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, created_at, conditions, schedule, diagnostics FROM solutions WHERE id = $1")).
		WithArgs("sol-1").
		WillReturnRows(rows)

	doc, err := repo.FindByID(context.Background(), "sol-1")
	require.NoError(t, err)
	assert.Equal(t, "sol-1", doc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolutionRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newSolutionRepoMock(t)
	defer cleanup()
	repo := NewSolutionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, created_at, conditions, schedule, diagnostics FROM solutions WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolutionRepositoryList(t *testing.T) {
	db, mock, cleanup := newSolutionRepoMock(t)
	defer cleanup()
	repo := NewSolutionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM solutions")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, created_at, jsonb_array_length(schedule) AS rows")).
		WithArgs(2, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "rows"}).
			AddRow("sol-2", time.Now(), 12).
			AddRow("sol-1", time.Now(), 10))

	metas, total, err := repo.List(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, metas, 2)
	assert.Equal(t, "sol-2", metas[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolutionRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newSolutionRepoMock(t)
	defer cleanup()
	repo := NewSolutionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM solutions WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
