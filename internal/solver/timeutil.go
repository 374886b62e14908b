package solver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/veldi/sportsched-api/pkg/errors"
)

const minutesPerDay = 24 * 60

// ParseClock converts "HH:MM" into minutes from midnight. Minute values
// of 60 carry into the hour, so "16:60" reads as 17:00.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, errors.ErrValidation.Wrap(fmt.Errorf("malformed clock value %q", s))
	}
	hh, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, errors.ErrValidation.Wrap(fmt.Errorf("malformed clock value %q", s))
	}
	mm, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, errors.ErrValidation.Wrap(fmt.Errorf("malformed clock value %q", s))
	}
	if hh < 0 || mm < 0 || mm > 60 {
		return 0, errors.ErrValidation.Wrap(fmt.Errorf("clock value %q out of range", s))
	}
	total := hh*60 + mm
	if total > minutesPerDay {
		return 0, errors.ErrValidation.Wrap(fmt.Errorf("clock value %q out of range", s))
	}
	return total, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// RoundToGrid snaps a minute value to the nearest multiple of step,
// rounding halves up.
func RoundToGrid(minutes, step int) int {
	if step <= 0 {
		return minutes
	}
	return ((minutes + step/2) / step) * step
}
