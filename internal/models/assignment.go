package models

import "fmt"

// PlacementOption is one legal (day, area, window) triple for a session
// instance.
type PlacementOption struct {
	Day    Day
	Area   string
	Window Window
}

// SessionInstance is one concrete weekly occurrence of an activity.
// Instances are derived once per solve and immutable during solving.
type SessionInstance struct {
	Key      string
	Activity *Activity
	Index    int
	Weekend  bool
	Duration int // minutes, group multiplier applied
	Options  []PlacementOption
}

// InstanceKey builds the canonical instance name: weekday occurrences
// are numbered "Name - n", weekend occurrences "Name * n".
func InstanceKey(activity string, index int, weekend bool) string {
	sep := "-"
	if weekend {
		sep = "*"
	}
	return fmt.Sprintf("%s %s %d", activity, sep, index+1)
}

// Assignment is the solved placement for one session instance.
type Assignment struct {
	Activity       string `json:"activity"`
	Day            string `json:"day"`
	Area           string `json:"area"`
	AreaDetail     string `json:"area_detail"`
	Start          string `json:"start"`
	End            string `json:"end"`
	ViolatedWindow bool   `json:"violated_window"`
	Modified       bool   `json:"modified"`
	RowID          int    `json:"row_id"`
}

// PreviousAssignment is one row of a caller-supplied earlier schedule.
// It is only ever read; warm-start penalties are derived from it.
type PreviousAssignment struct {
	Activity       string `json:"activity"`
	Day            string `json:"day"`
	Area           string `json:"area"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Modified       bool   `json:"modified"`
	ViolatedWindow bool   `json:"violated_window"`
	RowID          int    `json:"row_id"`
}
