package solver

import "github.com/veldi/sportsched-api/internal/models"

// stayClose scores distance from the previous schedule. An instance on
// its prior day pays the absolute start difference; an instance moved
// off that day pays the full prior start, which is what the deviation
// collapses to when nothing runs there. Hand-edited rows weigh in at
// the modified weight, untouched rows at the baseline weight.
func stayClose(e *engine, s *state) float64 {
	if e.ws == nil {
		return 0
	}
	var total float64
	for i, priors := range e.ws.priors {
		p := s.place[i]
		day := e.m.instances[i].Options[p.opt].Day
		for _, pr := range priors {
			dev := pr.Start
			if day == pr.Day {
				dev = p.start - pr.Start
				if dev < 0 {
					dev = -dev
				}
			}
			total += pr.Weight * float64(dev)
		}
	}
	return total
}

// timeFlex scores window flex: the minutes used plus a flat per-use
// penalty, weighted by activity priority so important activities shed
// flex first.
func timeFlex(e *engine, s *state) float64 {
	var total float64
	for i, p := range s.place {
		inst := e.m.instances[i]
		flex := flexAmount(inst.Options[p.opt], p.start)
		if flex == 0 {
			continue
		}
		w := inst.Activity.Priority
		if w <= 0 {
			w = 1
		}
		total += w * (float64(flex) + e.m.opts.FlexUsePenalty)
	}
	return total
}

// beforeAfter scores precedence pairs by co-occurrence: each day where
// only one side of a pair runs counts once. Minimizing it herds paired
// activities onto the same days so their ordering means something.
func beforeAfter(e *engine, s *state) float64 {
	if len(e.m.prec) == 0 {
		return 0
	}
	var total float64
	for _, pr := range e.m.prec {
		a := e.activeDays(s, pr[0])
		b := e.activeDays(s, pr[1])
		for _, d := range models.Week() {
			if a[d] != b[d] {
				total++
			}
		}
	}
	return total
}

// defaultObjective rounds out a cold solve: a heavy penalty per
// consecutive-day repeat of the same activity, plus a small bias-
// weighted pull toward early starts. The Saturday to Sunday pair wraps
// the ring, so weekend repeats count too.
func defaultObjective(e *engine, s *state) float64 {
	var repeats float64
	for act := range e.m.byAct {
		days := e.activeDays(s, act)
		for _, d := range models.Week() {
			next := models.Day((int(d) + 1) % 7)
			if days[d] && days[next] {
				repeats++
			}
		}
	}
	var starts float64
	for i, p := range s.place {
		starts += e.m.bias(e.m.instances[i].Options[p.opt].Area) * float64(p.start)
	}
	return e.m.opts.ConsecutiveWeight*repeats + starts/float64(len(s.place))
}

func (e *engine) activeDays(s *state, act string) map[models.Day]bool {
	days := make(map[models.Day]bool, 7)
	for _, i := range e.m.byAct[act] {
		if p := s.place[i]; p.opt >= 0 {
			days[e.m.instances[i].Options[p.opt].Day] = true
		}
	}
	return days
}
