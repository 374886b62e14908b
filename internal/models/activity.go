package models

// Day indexes the scheduling week. The week is laid out Sunday first so
// the Saturday→Sunday pair closes the consecutive-day ring.
type Day int

const (
	Sunday Day = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayCodes = [...]string{"sun", "mán", "þri", "mið", "fim", "fös", "lau"}

// Code returns the short day code used across input, previous-solution
// and output tables.
func (d Day) Code() string {
	if d < Sunday || d > Saturday {
		return ""
	}
	return dayCodes[d]
}

// ParseDay resolves a day code back into a Day.
func ParseDay(code string) (Day, bool) {
	for i, c := range dayCodes {
		if c == code {
			return Day(i), true
		}
	}
	return 0, false
}

// Weekend reports whether the day is one of the two weekend days.
func (d Day) Weekend() bool {
	return d == Sunday || d == Saturday
}

// Week returns all days in ring order.
func Week() []Day {
	return []Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

// Window is a declared start-time window in minutes from midnight.
// A point window has Lower == Upper.
type Window struct {
	Lower int
	Upper int
}

// AreaAccess grants an activity the use of an area, optionally limited
// to certain weekdays. A nil Days slice means no restriction.
type AreaAccess struct {
	Area string
	Days []Day
}

// AllowsDay reports whether the access grant covers the given day.
func (a AreaAccess) AllowsDay(d Day) bool {
	if a.Days == nil {
		return true
	}
	for _, allowed := range a.Days {
		if allowed == d {
			return true
		}
	}
	return false
}

// Activity is a named recurring session type parsed from one input row.
type Activity struct {
	RowID            int
	Name             string
	Areas            []AreaAccess
	Windows          map[Day]Window
	WeekdayDurations []float64
	WeekendDurations []float64
	Groups           float64
	Priority         float64
	Conflicts        []string
	MustFollow       string
}

// Area is a bookable resource. ExclusiveWith lists areas that cannot
// host overlapping sessions alongside this one; the relation is applied
// symmetrically but never inferred transitively.
type Area struct {
	Name          string
	Abbrev        string
	ExclusiveWith []string
	Bias          float64
}

// DefaultAreas returns the built-in hall layout used when the caller
// does not supply its own area table.
func DefaultAreas() []Area {
	return []Area{
		{Name: "A-sal", Abbrev: "A", ExclusiveWith: []string{"1/3 A-sal-1", "1/3 A-sal-2", "1/3 A-sal-3", "2/3 A-sal"}},
		{Name: "2/3 A-sal", Abbrev: "A", ExclusiveWith: []string{"1/3 A-sal-1", "1/3 A-sal-2"}},
		{Name: "1/3 A-sal-1", Abbrev: "A", Bias: 1.02},
		{Name: "1/3 A-sal-2", Abbrev: "A", Bias: 1.01},
		{Name: "1/3 A-sal-3", Abbrev: "A"},
		{Name: "B-sal", Abbrev: "B"},
		{Name: "Gervi fjær", Abbrev: "G"},
		{Name: "Gervi nær", Abbrev: "G"},
		{Name: "Aðalvöllur", Abbrev: "Aðalv"},
		{Name: "Æfingavöllur", Abbrev: "Æfingv"},
		{Name: "Gervigras", Abbrev: "Gervi"},
	}
}
