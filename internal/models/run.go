package models

import "time"

// RunStatus tracks the lifecycle of one background solve.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
	RunCancelled RunStatus = "CANCELLED"
)

// PhaseStatus describes how a single objective phase ended.
type PhaseStatus string

const (
	// PhaseConverged means the search exhausted its improving moves
	// before the budget ran out.
	PhaseConverged PhaseStatus = "CONVERGED"
	// PhaseTimeLimit means the budget expired while an incumbent was
	// held; the incumbent is used but is not proven optimal.
	PhaseTimeLimit PhaseStatus = "TIME_LIMIT"
	// PhaseNoIncumbent means no feasible solution was found in budget;
	// the fallback ceiling bounds later phases instead.
	PhaseNoIncumbent PhaseStatus = "NO_INCUMBENT"
	// PhaseCancelled means the caller requested termination during the
	// phase; no further phases run.
	PhaseCancelled PhaseStatus = "CANCELLED"
)

// PhaseReport is the per-phase diagnostic surfaced to the caller.
type PhaseReport struct {
	Name      string        `json:"name"`
	Status    PhaseStatus   `json:"status"`
	Objective float64       `json:"objective"`
	Bound     float64       `json:"bound"`
	Duration  time.Duration `json:"duration_ns"`
	Moves     int           `json:"moves"`
}

// SolveDiagnostics aggregates phase outcomes for one solve.
type SolveDiagnostics struct {
	Phases    []PhaseReport `json:"phases"`
	Cancelled bool          `json:"cancelled"`
	Partial   bool          `json:"partial"`
}

// SolveRun is the pollable state of one submitted solve.
type SolveRun struct {
	ID          string            `json:"id"`
	Status      RunStatus         `json:"status"`
	SubmittedAt time.Time         `json:"submitted_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
	SolutionID  string            `json:"solution_id,omitempty"`
	Schedule    []Assignment      `json:"schedule,omitempty"`
	Diagnostics *SolveDiagnostics `json:"diagnostics,omitempty"`
	Error       string            `json:"error,omitempty"`
}
