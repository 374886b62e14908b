package dto

import "github.com/veldi/sportsched-api/internal/models"

// ActivityRow is one row of the editable activity table. Windows maps a
// day code to "HH:MM" (anchored start) or "HH:MM-HH:MM" (range).
type ActivityRow struct {
	Name             string            `json:"name" validate:"required"`
	Areas            string            `json:"areas" validate:"required"` // "A-sal(mán/þri)|B-sal"
	Windows          map[string]string `json:"windows" validate:"required,min=1"`
	WeekdayDurations string            `json:"weekdayDurations"` // "60,90"
	WeekendDurations string            `json:"weekendDurations"`
	Groups           float64           `json:"groups"`
	Priority         float64           `json:"priority"`
	Conflicts        string            `json:"conflicts"` // "Name|Name"
	MustFollow       string            `json:"mustFollow"`
	RowID            int               `json:"rowId"`
}

// AreaSpec overrides or extends the built-in area table.
type AreaSpec struct {
	Name          string   `json:"name" validate:"required"`
	Abbrev        string   `json:"abbrev"`
	ExclusiveWith []string `json:"exclusiveWith"`
	Bias          float64  `json:"bias"`
}

// SolveOptions tunes one run without touching server config.
type SolveOptions struct {
	PrecedenceMode string `json:"precedenceMode" validate:"omitempty,oneof=strict flexible"`
	Seed           *int64 `json:"seed"`
}

// SolveRequest submits a solve over the activity table, optionally
// warm-started from a previous schedule.
type SolveRequest struct {
	Activities []ActivityRow               `json:"activities" validate:"required,min=1,dive"`
	Previous   []models.PreviousAssignment `json:"previous"`
	Areas      []AreaSpec                  `json:"areas" validate:"omitempty,dive"`
	Options    SolveOptions                `json:"options"`
}

// SubmitSolveResponse acknowledges an accepted solve.
type SubmitSolveResponse struct {
	RunID  string           `json:"runId"`
	Status models.RunStatus `json:"status"`
}

// SolutionQuery filters persisted solution listings.
type SolutionQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}
