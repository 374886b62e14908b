package solver

import (
	"sort"

	"github.com/veldi/sportsched-api/internal/models"
)

// displayOrder lays the week out Monday first for output tables.
var displayOrder = []models.Day{
	models.Monday, models.Tuesday, models.Wednesday, models.Thursday,
	models.Friday, models.Saturday, models.Sunday,
}

var displayRank = func() map[models.Day]int {
	r := make(map[models.Day]int, len(displayOrder))
	for i, d := range displayOrder {
		r[d] = i
	}
	return r
}()

// extract renders the incumbent as normalized schedule rows. Areas
// show their short code with the full name kept alongside, times are
// "HH:MM", and a session placed outside its declared window carries
// the violation flag. A hand-edited prior row that survived in place
// keeps its modified flag so the caller's editor can keep it pinned.
func (e *engine) extract(s *state) []models.Assignment {
	rows := make([]models.Assignment, 0, len(s.place))
	for i, p := range s.place {
		if p.opt < 0 {
			continue
		}
		inst := e.m.instances[i]
		opt := inst.Options[p.opt]
		rows = append(rows, models.Assignment{
			Activity:       inst.Key,
			Day:            opt.Day.Code(),
			Area:           e.m.abbrev(opt.Area),
			AreaDetail:     opt.Area,
			Start:          FormatClock(p.start),
			End:            FormatClock(p.start + inst.Duration),
			ViolatedWindow: flexAmount(opt, p.start) > 0,
			Modified:       e.reproducedEdit(i, opt.Day, p.start),
			RowID:          inst.Activity.RowID,
		})
	}
	sort.SliceStable(rows, func(a, b int) bool {
		da, _ := models.ParseDay(rows[a].Day)
		db, _ := models.ParseDay(rows[b].Day)
		if displayRank[da] != displayRank[db] {
			return displayRank[da] < displayRank[db]
		}
		if rows[a].Start != rows[b].Start {
			return rows[a].Start < rows[b].Start
		}
		return rows[a].Activity < rows[b].Activity
	})
	return rows
}

// reproducedEdit reports whether the placement lands exactly on a
// hand-edited prior for this instance.
func (e *engine) reproducedEdit(i int, day models.Day, start int) bool {
	if e.ws == nil || !e.ws.locked[i] {
		return false
	}
	for _, pr := range e.ws.priors[i] {
		if pr.Weight == e.m.opts.ModifiedWeight && pr.Day == day && pr.Start == start {
			return true
		}
	}
	return false
}
