package solver

import (
	"context"
	"time"

	"github.com/veldi/sportsched-api/internal/models"
)

// Phase names surfaced in diagnostics.
const (
	PhaseStayClose   = "stayclose"
	PhaseTimeFlex    = "timeflex"
	PhaseBeforeAfter = "before_after"
	PhaseDefault     = "default"
)

type phase struct {
	name      string
	objective objectiveFn
	budget    time.Duration
}

// Result is the outcome of one full solve.
type Result struct {
	Schedule    []models.Assignment
	Diagnostics models.SolveDiagnostics
}

// Solve runs the lexicographic phase sequence. A warm start with
// usable priors first pulls the schedule toward the previous one and
// then minimizes flex; a cold start herds precedence pairs together,
// minimizes flex, and finishes on the default spread objective. Each
// finished phase pins its optimum as a ceiling on all later phases, so
// a later phase can rearrange sessions but never give back an earlier
// phase's result.
//
// Cancellation through ctx stops between moves; whatever incumbent is
// held at that point is still extracted and marked partial.
func Solve(ctx context.Context, m *Model, ws *WarmStart) *Result {
	e := newEngine(m, ws)
	phases := phasePlan(m.opts, ws)

	var (
		incumbent *state
		bounds    []bound
		diag      models.SolveDiagnostics
	)
	for _, ph := range phases {
		started := time.Now()
		deadline := started.Add(ph.budget)
		report := models.PhaseReport{Name: ph.name}

		if incumbent == nil {
			incumbent = e.construct(ctx, deadline)
		}
		if incumbent == nil {
			report.Status = models.PhaseNoIncumbent
			if ctx.Err() != nil {
				report.Status = models.PhaseCancelled
			}
			report.Bound = m.opts.FallbackCeiling
			report.Duration = time.Since(started)
			diag.Phases = append(diag.Phases, report)
			bounds = append(bounds, bound{fn: ph.objective, limit: m.opts.FallbackCeiling})
			if report.Status == models.PhaseCancelled {
				diag.Cancelled = true
				diag.Partial = true
				break
			}
			diag.Partial = true
			continue
		}

		moves, converged, cancelled := e.improve(ctx, incumbent, ph.objective, bounds, deadline)
		report.Moves = moves
		report.Objective = ph.objective(e, incumbent)
		report.Bound = report.Objective
		report.Duration = time.Since(started)
		switch {
		case cancelled:
			report.Status = models.PhaseCancelled
		case converged:
			report.Status = models.PhaseConverged
		default:
			report.Status = models.PhaseTimeLimit
		}
		diag.Phases = append(diag.Phases, report)
		bounds = append(bounds, bound{fn: ph.objective, limit: report.Objective})
		if cancelled {
			diag.Cancelled = true
			diag.Partial = true
			break
		}
	}

	res := &Result{Diagnostics: diag}
	if incumbent != nil {
		res.Schedule = e.extract(incumbent)
	} else {
		diag.Partial = true
		res.Diagnostics = diag
	}
	return res
}

// phasePlan picks the phase sequence for this solve.
func phasePlan(opts Options, ws *WarmStart) []phase {
	if ws.HasPriors() {
		return []phase{
			{name: PhaseStayClose, objective: stayClose, budget: opts.StayCloseBudget},
			{name: PhaseTimeFlex, objective: timeFlex, budget: opts.TimeFlexBudget},
		}
	}
	return []phase{
		{name: PhaseBeforeAfter, objective: beforeAfter, budget: opts.BeforeAfterBudget},
		{name: PhaseTimeFlex, objective: timeFlex, budget: opts.TimeFlexBudget},
		{name: PhaseDefault, objective: defaultObjective, budget: opts.DefaultBudget},
	}
}
