package solver

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/veldi/sportsched-api/internal/models"
)

// placement fixes one instance to an option and a start minute. An opt
// of -1 means the instance is not placed yet; finished states never
// contain one.
type placement struct {
	opt   int
	start int
}

// state is one complete candidate schedule, indexed by instance.
type state struct {
	place []placement
}

func newState(n int) *state {
	s := &state{place: make([]placement, n)}
	for i := range s.place {
		s.place[i].opt = -1
	}
	return s
}

func (s *state) clone() *state {
	c := &state{place: make([]placement, len(s.place))}
	copy(c.place, s.place)
	return c
}

// engine drives construction and local improvement over one model.
// All randomness flows from a single seeded source, so a fixed seed
// makes every solve of the same input byte-identical.
type engine struct {
	m   *Model
	ws  *WarmStart
	rng *rand.Rand
}

func newEngine(m *Model, ws *WarmStart) *engine {
	return &engine{m: m, ws: ws, rng: rand.New(rand.NewSource(m.opts.Seed))}
}

// flexAmount is how far a start sits outside its declared window.
func flexAmount(opt models.PlacementOption, start int) int {
	if start < opt.Window.Lower {
		return opt.Window.Lower - start
	}
	if start > opt.Window.Upper {
		return start - opt.Window.Upper
	}
	return 0
}

// feasibleAt checks every constraint touching instance i against the
// rest of the state. Instances that are still unplaced are ignored so
// the check also serves during construction.
func (e *engine) feasibleAt(s *state, i int) bool {
	p := s.place[i]
	if p.opt < 0 {
		return false
	}
	inst := e.m.instances[i]
	opt := inst.Options[p.opt]
	if p.start < 0 || p.start+inst.Duration > minutesPerDay {
		return false
	}
	flex := flexAmount(opt, p.start)
	if flex > e.m.opts.FlexCap {
		return false
	}
	if flex > 0 && e.ws.Locked(i) {
		return false
	}
	end := p.start + inst.Duration
	for j, q := range s.place {
		if j == i || q.opt < 0 {
			continue
		}
		other := e.m.instances[j]
		oq := other.Options[q.opt]
		if oq.Day != opt.Day {
			continue
		}
		if other.Activity == inst.Activity {
			return false // one session per activity per day
		}
		overlaps := p.start < q.start+other.Duration && q.start < end
		if overlaps && e.m.areasClash(opt.Area, oq.Area) {
			return false
		}
		if overlaps && e.m.conflicting(inst.Activity.Name, other.Activity.Name) {
			return false
		}
	}
	if e.m.opts.StrictPrecedence && e.m.precByAct[inst.Activity.Name] {
		return e.precedenceOK(s, inst.Activity.Name)
	}
	return true
}

// precedenceOK enforces hard ordering for every precedence pair that
// involves the given activity: on any day where both activities run,
// the earlier one must end before the later one starts.
func (e *engine) precedenceOK(s *state, act string) bool {
	for _, pr := range e.m.prec {
		if pr[0] != act && pr[1] != act {
			continue
		}
		for _, i := range e.m.byAct[pr[0]] {
			p := s.place[i]
			if p.opt < 0 {
				continue
			}
			earlier := e.m.instances[i]
			day := earlier.Options[p.opt].Day
			for _, j := range e.m.byAct[pr[1]] {
				q := s.place[j]
				if q.opt < 0 || e.m.instances[j].Options[q.opt].Day != day {
					continue
				}
				if p.start+earlier.Duration > q.start {
					return false
				}
			}
		}
	}
	return true
}

// candidateStarts enumerates start minutes for an option in preference
// order: any prior start on that day first, then the declared window on
// the grid, then the flex band widening outward. Prior starts are kept
// exact even off-grid so a hand-edited row can be reproduced minute for
// minute.
func (e *engine) candidateStarts(i, opt int, allowFlex bool) []int {
	inst := e.m.instances[i]
	o := inst.Options[opt]
	step := e.m.opts.GridStep
	latest := minutesPerDay - inst.Duration

	var out []int
	seen := make(map[int]bool)
	add := func(v int) {
		if v >= 0 && v <= latest && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	if e.ws != nil {
		for _, pr := range e.ws.priors[i] {
			if pr.Day == o.Day && flexAmount(o, pr.Start) == 0 {
				add(pr.Start)
			}
		}
	}
	for v := o.Window.Lower; v <= o.Window.Upper; v += step {
		add(v)
	}
	add(o.Window.Upper)
	if allowFlex && !e.ws.Locked(i) {
		for d := step; d <= e.m.opts.FlexCap; d += step {
			add(o.Window.Lower - d)
			add(o.Window.Upper + d)
		}
	}
	return out
}

// optionOrder ranks an instance's options so construction tries prior
// day and area matches before anything else. Ties keep expansion order.
func (e *engine) optionOrder(i int) []int {
	inst := e.m.instances[i]
	order := make([]int, len(inst.Options))
	for k := range order {
		order[k] = k
	}
	if e.ws == nil || len(e.ws.priors[i]) == 0 {
		return order
	}
	score := func(opt int) int {
		o := inst.Options[opt]
		best := 0
		for _, pr := range e.ws.priors[i] {
			if pr.Day != o.Day {
				continue
			}
			v := 1
			if pr.Area == e.m.abbrev(o.Area) {
				v = 2
			}
			if v > best {
				best = v
			}
		}
		return best
	}
	sort.SliceStable(order, func(a, b int) bool { return score(order[a]) > score(order[b]) })
	return order
}

// baseOrder places the most constrained instances first: fewest
// placement options, then longest duration.
func (e *engine) baseOrder() []int {
	order := make([]int, len(e.m.instances))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := e.m.instances[order[a]], e.m.instances[order[b]]
		if len(ia.Options) != len(ib.Options) {
			return len(ia.Options) < len(ib.Options)
		}
		if ia.Duration != ib.Duration {
			return ia.Duration > ib.Duration
		}
		return ia.Key < ib.Key
	})
	return order
}

// placeAll greedily places every instance in the given order. Each
// instance first tries to stay inside its window; flex is a fallback
// and never offered to locked instances.
func (e *engine) placeAll(order []int) (*state, bool) {
	s := newState(len(e.m.instances))
	for _, i := range order {
		if !e.placeOne(s, i) {
			return nil, false
		}
	}
	return s, true
}

func (e *engine) placeOne(s *state, i int) bool {
	for _, allowFlex := range []bool{false, true} {
		for _, opt := range e.optionOrder(i) {
			for _, start := range e.candidateStarts(i, opt, allowFlex) {
				s.place[i] = placement{opt: opt, start: start}
				if e.feasibleAt(s, i) {
					return true
				}
			}
		}
	}
	s.place[i].opt = -1
	return false
}

// construct searches for any feasible complete schedule, restarting
// with shuffled orders until one is found or the budget runs out.
func (e *engine) construct(ctx context.Context, deadline time.Time) *state {
	order := e.baseOrder()
	for attempt := 0; attempt < e.m.opts.Restarts; attempt++ {
		if ctx.Err() != nil || time.Now().After(deadline) {
			return nil
		}
		if s, ok := e.placeAll(order); ok {
			return s
		}
		e.rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
	}
	return nil
}

// objectiveFn scores a complete state; lower is better.
type objectiveFn func(*engine, *state) float64

// bound pins an already-optimized objective during later phases.
type bound struct {
	fn    objectiveFn
	limit float64
}

func (e *engine) withinBounds(s *state, bounds []bound) bool {
	for _, b := range bounds {
		if b.fn(e, s) > b.limit+e.m.opts.Tolerance {
			return false
		}
	}
	return true
}

// improve runs first-improvement local search over single-instance
// moves: any other option or start for one instance, keeping the rest
// fixed. Earlier phase optima stay pinned through bounds. It returns
// the number of accepted moves and whether the search converged (a
// full pass found nothing better) before the deadline or cancellation.
func (e *engine) improve(ctx context.Context, s *state, obj objectiveFn, bounds []bound, deadline time.Time) (moves int, converged, cancelled bool) {
	order := make([]int, len(e.m.instances))
	for i := range order {
		order[i] = i
	}
	for {
		if ctx.Err() != nil {
			return moves, false, true
		}
		if time.Now().After(deadline) {
			return moves, false, false
		}
		e.rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
		improved := false
		for _, i := range order {
			if ctx.Err() != nil {
				return moves, false, true
			}
			if time.Now().After(deadline) {
				return moves, false, false
			}
			cur := s.place[i]
			curObj := obj(e, s)
			for _, opt := range e.optionOrder(i) {
				accepted := false
				for _, start := range e.candidateStarts(i, opt, true) {
					if opt == cur.opt && start == cur.start {
						continue
					}
					s.place[i] = placement{opt: opt, start: start}
					if !e.feasibleAt(s, i) || !e.withinBounds(s, bounds) {
						continue
					}
					if obj(e, s) < curObj-e.m.opts.Tolerance {
						accepted = true
						moves++
						improved = true
						break
					}
				}
				if accepted {
					break
				}
				s.place[i] = cur
			}
		}
		if !improved {
			return moves, true, false
		}
	}
}
