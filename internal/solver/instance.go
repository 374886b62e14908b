package solver

import (
	"fmt"
	"math"

	"github.com/veldi/sportsched-api/internal/models"
	"github.com/veldi/sportsched-api/pkg/errors"
)

// ExpandInstances unrolls each activity into its weekly session
// instances and computes every legal (day, area, window) placement per
// instance. Weekday occurrences may use any non-weekend day with a
// declared window; weekend occurrences only Saturday and Sunday.
//
// Expansion fails hard, before any solving, when a declared window is
// inverted or an instance ends up with no legal placement at all.
func ExpandInstances(activities []models.Activity) ([]*models.SessionInstance, error) {
	var out []*models.SessionInstance
	for i := range activities {
		act := &activities[i]
		for d, w := range act.Windows {
			if w.Lower > w.Upper {
				return nil, errors.ErrWindowInversion.Wrap(
					fmt.Errorf("activity %q window on %s has lower bound after upper bound", act.Name, d.Code()))
			}
		}
		weekday, err := expandActivity(act, false, act.WeekdayDurations)
		if err != nil {
			return nil, err
		}
		weekend, err := expandActivity(act, true, act.WeekendDurations)
		if err != nil {
			return nil, err
		}
		out = append(out, weekday...)
		out = append(out, weekend...)
	}
	return out, nil
}

func expandActivity(act *models.Activity, weekend bool, durations []float64) ([]*models.SessionInstance, error) {
	instances := make([]*models.SessionInstance, 0, len(durations))
	for idx, dur := range durations {
		minutes := int(math.Round(dur * act.Groups))
		inst := &models.SessionInstance{
			Key:      models.InstanceKey(act.Name, idx, weekend),
			Activity: act,
			Index:    idx,
			Weekend:  weekend,
			Duration: minutes,
		}
		for _, day := range models.Week() {
			win, ok := act.Windows[day]
			if !ok || day.Weekend() != weekend {
				continue
			}
			if win.Lower > minutesPerDay-minutes {
				continue // session cannot finish within the day
			}
			for _, grant := range act.Areas {
				if !grant.AllowsDay(day) {
					continue
				}
				inst.Options = append(inst.Options, models.PlacementOption{
					Day:    day,
					Area:   grant.Area,
					Window: win,
				})
			}
		}
		if len(inst.Options) == 0 {
			return nil, errors.ErrUnschedulable.Wrap(
				fmt.Errorf("session %q has no legal day and area combination", inst.Key))
		}
		instances = append(instances, inst)
	}
	return instances, nil
}
