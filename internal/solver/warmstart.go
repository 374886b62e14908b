package solver

import (
	"strings"

	"github.com/veldi/sportsched-api/internal/models"
)

// priorPlacement is one remembered placement from an earlier schedule.
// Area is the abbreviated display code and only steers construction;
// the deviation objective looks at day and start alone.
type priorPlacement struct {
	Day    models.Day
	Start  int
	Area   string
	Weight float64
}

// WarmStart holds the reconciled previous schedule: per-instance prior
// placements with their pull weights, and the set of instances whose
// rows the user touched by hand. Locked instances may never use window
// flex, which keeps hand-placed sessions from drifting on a resolve.
type WarmStart struct {
	priors map[int][]priorPlacement
	locked map[int]bool
}

// HasPriors reports whether any usable prior rows survived
// reconciliation. An empty warm start runs the cold phase sequence.
func (w *WarmStart) HasPriors() bool {
	return w != nil && len(w.priors) > 0
}

// Locked reports whether the instance came from a hand-edited row.
func (w *WarmStart) Locked(i int) bool {
	return w != nil && w.locked[i]
}

// BuildWarmStart reconciles a previous schedule against the current
// model. Rows flagged as window violations are dropped entirely: they
// were already broken and must not pull the new schedule toward them.
// Rows naming activities or days the current table no longer has are
// skipped the same way, so a renamed activity simply starts cold.
//
// Each surviving row attaches a prior to every instance of its
// activity on the matching half of the week (weekday rows to weekday
// instances, weekend rows to weekend instances). Hand-edited rows pull
// with the modified weight and lock their instances against flex;
// untouched rows pull with the baseline weight.
func BuildWarmStart(m *Model, previous []models.PreviousAssignment) *WarmStart {
	ws := &WarmStart{
		priors: make(map[int][]priorPlacement),
		locked: make(map[int]bool),
	}
	for _, row := range previous {
		if row.ViolatedWindow {
			continue
		}
		day, ok := models.ParseDay(row.Day)
		if !ok {
			continue
		}
		start, err := ParseClock(row.Start)
		if err != nil {
			continue
		}
		indices, ok := m.byAct[activityName(row.Activity)]
		if !ok {
			continue
		}
		weight := m.opts.BaselineWeight
		if row.Modified {
			weight = m.opts.ModifiedWeight
		}
		for _, i := range indices {
			if m.instances[i].Weekend != day.Weekend() {
				continue
			}
			ws.priors[i] = append(ws.priors[i], priorPlacement{
				Day:    day,
				Start:  start,
				Area:   row.Area,
				Weight: weight,
			})
			if row.Modified {
				ws.locked[i] = true
			}
		}
	}
	return ws
}

// activityName strips an instance suffix ("Name - 1", "Name * 2") back
// to the activity name, so callers may send either form.
func activityName(s string) string {
	for _, sep := range []string{" - ", " * "} {
		if i := strings.LastIndex(s, sep); i >= 0 && allDigits(s[i+len(sep):]) {
			return s[:i]
		}
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
