package solver

import (
	"sort"
	"time"

	"github.com/veldi/sportsched-api/internal/models"
)

// Options tunes one solve. Zero values fall back to the defaults the
// production configuration ships with.
type Options struct {
	GridStep          int
	FlexCap           int
	FlexUsePenalty    float64
	ModifiedWeight    float64
	BaselineWeight    float64
	ConsecutiveWeight float64
	FallbackCeiling   float64
	Tolerance         float64
	Seed              int64
	Restarts          int
	StrictPrecedence  bool
	StayCloseBudget   time.Duration
	TimeFlexBudget    time.Duration
	BeforeAfterBudget time.Duration
	DefaultBudget     time.Duration
}

func (o Options) withDefaults() Options {
	if o.GridStep <= 0 {
		o.GridStep = 5
	}
	if o.FlexCap <= 0 {
		o.FlexCap = 60
	}
	if o.FlexUsePenalty <= 0 {
		o.FlexUsePenalty = 100
	}
	if o.ModifiedWeight <= 0 {
		o.ModifiedWeight = 100
	}
	if o.BaselineWeight <= 0 {
		o.BaselineWeight = 1
	}
	if o.ConsecutiveWeight <= 0 {
		o.ConsecutiveWeight = 100
	}
	if o.FallbackCeiling <= 0 {
		o.FallbackCeiling = 1000
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-6
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
	if o.Restarts <= 0 {
		o.Restarts = 24
	}
	if o.StayCloseBudget <= 0 {
		o.StayCloseBudget = 60 * time.Second
	}
	if o.TimeFlexBudget <= 0 {
		o.TimeFlexBudget = 100 * time.Second
	}
	if o.BeforeAfterBudget <= 0 {
		o.BeforeAfterBudget = 120 * time.Second
	}
	if o.DefaultBudget <= 0 {
		o.DefaultBudget = 100 * time.Second
	}
	return o
}

// pair is an unordered activity pair key.
type pair struct{ a, b string }

func orderedPair(a, b string) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// Model is the immutable solve input: expanded instances plus the
// relation tables every feasibility check consults.
type Model struct {
	opts      Options
	instances []*models.SessionInstance
	byAct     map[string][]int // activity name -> instance indices

	areas     map[string]models.Area
	exclusive map[pair]bool   // symmetric area exclusivity
	conflicts map[pair]bool   // symmetric activity conflicts
	prec      [][2]string     // (earlier, later) activity names, deduped
	precByAct map[string]bool // activities that appear in any precedence pair
}

// BuildModel expands the activity table and assembles the relation
// tables. Exclusivity is closed symmetrically over the declarations;
// it is never inferred transitively, so two partitions of a hall only
// exclude one another if the table says so.
func BuildModel(activities []models.Activity, areas []models.Area, opts Options) (*Model, error) {
	instances, err := ExpandInstances(activities)
	if err != nil {
		return nil, err
	}
	m := &Model{
		opts:      opts.withDefaults(),
		instances: instances,
		byAct:     make(map[string][]int),
		areas:     make(map[string]models.Area, len(areas)),
		exclusive: make(map[pair]bool),
		conflicts: make(map[pair]bool),
		precByAct: make(map[string]bool),
	}
	for i, inst := range instances {
		m.byAct[inst.Activity.Name] = append(m.byAct[inst.Activity.Name], i)
	}
	for _, a := range areas {
		m.areas[a.Name] = a
		for _, other := range a.ExclusiveWith {
			m.exclusive[orderedPair(a.Name, other)] = true
		}
	}
	seenPrec := make(map[pair]bool)
	for i := range activities {
		act := &activities[i]
		for _, c := range act.Conflicts {
			m.conflicts[orderedPair(act.Name, c)] = true
		}
		if act.MustFollow == "" {
			continue
		}
		key := orderedPair(act.MustFollow, act.Name)
		if seenPrec[key] {
			continue
		}
		seenPrec[key] = true
		m.prec = append(m.prec, [2]string{act.MustFollow, act.Name})
		m.precByAct[act.MustFollow] = true
		m.precByAct[act.Name] = true
	}
	sort.Slice(m.prec, func(i, j int) bool {
		if m.prec[i][0] != m.prec[j][0] {
			return m.prec[i][0] < m.prec[j][0]
		}
		return m.prec[i][1] < m.prec[j][1]
	})
	return m, nil
}

// Instances exposes the expanded session list in expansion order.
func (m *Model) Instances() []*models.SessionInstance {
	return m.instances
}

// areasClash reports whether two areas cannot host overlapping
// sessions: either the same area or a declared exclusive pair.
func (m *Model) areasClash(a, b string) bool {
	if a == b {
		return true
	}
	return m.exclusive[orderedPair(a, b)]
}

func (m *Model) conflicting(a, b string) bool {
	if a == b {
		return false
	}
	return m.conflicts[orderedPair(a, b)]
}

// bias returns the start-time cost multiplier for an area; areas
// without an override weigh 1.
func (m *Model) bias(area string) float64 {
	if a, ok := m.areas[area]; ok && a.Bias > 0 {
		return a.Bias
	}
	return 1
}

// abbrev maps an area to its display code; unknown areas pass through.
func (m *Model) abbrev(area string) string {
	if a, ok := m.areas[area]; ok && a.Abbrev != "" {
		return a.Abbrev
	}
	return area
}
