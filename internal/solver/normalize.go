package solver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/veldi/sportsched-api/internal/dto"
	"github.com/veldi/sportsched-api/internal/models"
	"github.com/veldi/sportsched-api/pkg/errors"
)

// areaSpecRe matches a single area grant: "A-sal" or "A-sal(mán/þri)".
var areaSpecRe = regexp.MustCompile(`^\s*([^()|]+?)\s*(?:\(([^)]*)\))?\s*$`)

// NormalizeActivities parses the raw activity table into typed rows.
// Parsing is strict: any malformed cell fails the whole request so a
// bad row can never silently drop a session.
func NormalizeActivities(rows []dto.ActivityRow) ([]models.Activity, error) {
	seen := make(map[string]bool, len(rows))
	out := make([]models.Activity, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			return nil, errors.ErrValidation.Wrap(fmt.Errorf("activity row %d has an empty name", row.RowID))
		}
		if seen[name] {
			return nil, errors.ErrValidation.Wrap(fmt.Errorf("activity %q appears twice", name))
		}
		seen[name] = true

		areas, err := parseAreaGrants(row.Areas)
		if err != nil {
			return nil, errors.ErrValidation.Wrap(fmt.Errorf("activity %q: %w", name, err))
		}
		windows, err := parseWindows(row.Windows)
		if err != nil {
			return nil, errors.ErrValidation.Wrap(fmt.Errorf("activity %q: %w", name, err))
		}
		weekday, err := parseDurations(row.WeekdayDurations)
		if err != nil {
			return nil, errors.ErrValidation.Wrap(fmt.Errorf("activity %q weekday durations: %w", name, err))
		}
		weekend, err := parseDurations(row.WeekendDurations)
		if err != nil {
			return nil, errors.ErrValidation.Wrap(fmt.Errorf("activity %q weekend durations: %w", name, err))
		}
		if len(weekday) == 0 && len(weekend) == 0 {
			return nil, errors.ErrValidation.Wrap(fmt.Errorf("activity %q declares no session durations", name))
		}
		groups := row.Groups
		if groups <= 0 {
			groups = 1
		}
		out = append(out, models.Activity{
			RowID:            row.RowID,
			Name:             name,
			Areas:            areas,
			Windows:          windows,
			WeekdayDurations: weekday,
			WeekendDurations: weekend,
			Groups:           groups,
			Priority:         row.Priority,
			Conflicts:        parseNameList(row.Conflicts),
			MustFollow:       strings.TrimSpace(row.MustFollow),
		})
	}
	if err := checkReferences(out); err != nil {
		return nil, err
	}
	return out, nil
}

// parseAreaGrants splits "A-sal(mán/þri)|B-sal" into access grants.
func parseAreaGrants(spec string) ([]models.AreaAccess, error) {
	var grants []models.AreaAccess
	for _, part := range strings.Split(spec, "|") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m := areaSpecRe.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("malformed area grant %q", part)
		}
		grant := models.AreaAccess{Area: strings.TrimSpace(m[1])}
		if m[2] != "" {
			for _, code := range strings.Split(m[2], "/") {
				day, ok := models.ParseDay(strings.TrimSpace(code))
				if !ok {
					return nil, fmt.Errorf("unknown day code %q in area grant %q", code, part)
				}
				grant.Days = append(grant.Days, day)
			}
		}
		grants = append(grants, grant)
	}
	if len(grants) == 0 {
		return nil, fmt.Errorf("no usable area grants in %q", spec)
	}
	return grants, nil
}

// parseWindows reads per-day start windows. "HH:MM" anchors the start
// exactly; "HH:MM-HH:MM" allows any start in the range.
func parseWindows(raw map[string]string) (map[models.Day]models.Window, error) {
	windows := make(map[models.Day]models.Window, len(raw))
	for code, val := range raw {
		day, ok := models.ParseDay(strings.TrimSpace(code))
		if !ok {
			return nil, fmt.Errorf("unknown day code %q", code)
		}
		lo, hi, err := parseWindow(val)
		if err != nil {
			return nil, fmt.Errorf("window for %s: %w", code, err)
		}
		windows[day] = models.Window{Lower: lo, Upper: hi}
	}
	return windows, nil
}

func parseWindow(val string) (int, int, error) {
	parts := strings.SplitN(val, "-", 2)
	lo, err := ParseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 1 {
		return lo, lo, nil
	}
	hi, err := ParseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// parseDurations reads a comma list of session lengths in minutes.
func parseDurations(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("bad duration %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseNameList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "|") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// checkReferences verifies that conflict and precedence references name
// activities that actually exist in the table.
func checkReferences(activities []models.Activity) error {
	names := make(map[string]bool, len(activities))
	for _, a := range activities {
		names[a.Name] = true
	}
	for _, a := range activities {
		for _, c := range a.Conflicts {
			if !names[c] {
				return errors.ErrValidation.Wrap(fmt.Errorf("activity %q conflicts with unknown activity %q", a.Name, c))
			}
		}
		if a.MustFollow != "" {
			if !names[a.MustFollow] {
				return errors.ErrValidation.Wrap(fmt.Errorf("activity %q must follow unknown activity %q", a.Name, a.MustFollow))
			}
			if a.MustFollow == a.Name {
				return errors.ErrValidation.Wrap(fmt.Errorf("activity %q cannot follow itself", a.Name))
			}
		}
	}
	return nil
}

// NormalizeAreas merges caller-supplied area specs over the built-in
// hall table. Exclusivity is declared one-way in the table and applied
// symmetrically when the model is built.
func NormalizeAreas(specs []dto.AreaSpec) []models.Area {
	areas := models.DefaultAreas()
	index := make(map[string]int, len(areas))
	for i, a := range areas {
		index[a.Name] = i
	}
	for _, s := range specs {
		a := models.Area{
			Name:          strings.TrimSpace(s.Name),
			Abbrev:        strings.TrimSpace(s.Abbrev),
			ExclusiveWith: s.ExclusiveWith,
			Bias:          s.Bias,
		}
		if a.Abbrev == "" {
			a.Abbrev = a.Name
		}
		if i, ok := index[a.Name]; ok {
			areas[i] = a
		} else {
			index[a.Name] = len(areas)
			areas = append(areas, a)
		}
	}
	return areas
}
