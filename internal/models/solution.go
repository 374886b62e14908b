package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SolutionDocument pairs the editable conditions table with the solved
// schedule so a later run can warm-start from both.
type SolutionDocument struct {
	ID          string         `db:"id" json:"id"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	Conditions  types.JSONText `db:"conditions" json:"conditions"`
	Schedule    types.JSONText `db:"schedule" json:"schedule"`
	Diagnostics types.JSONText `db:"diagnostics" json:"diagnostics"`
}

// SolutionMeta is the lightweight list-view projection of a document.
type SolutionMeta struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Rows      int       `db:"rows" json:"rows"`
}
