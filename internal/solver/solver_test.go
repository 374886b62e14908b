package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldi/sportsched-api/internal/dto"
	"github.com/veldi/sportsched-api/internal/models"
)

func testOptions() Options {
	return Options{
		StayCloseBudget:   2 * time.Second,
		TimeFlexBudget:    2 * time.Second,
		BeforeAfterBudget: 2 * time.Second,
		DefaultBudget:     2 * time.Second,
	}
}

func solveRows(t *testing.T, opts Options, prev []models.PreviousAssignment, rows ...dto.ActivityRow) *Result {
	t.Helper()
	acts := mustNormalize(t, rows...)
	m, err := BuildModel(acts, NormalizeAreas(nil), opts)
	require.NoError(t, err)
	res := Solve(context.Background(), m, BuildWarmStart(m, prev))
	require.NotNil(t, res)
	return res
}

func rowSpan(t *testing.T, row models.Assignment) (models.Day, int, int) {
	t.Helper()
	day, ok := models.ParseDay(row.Day)
	require.True(t, ok, row.Day)
	start, err := ParseClock(row.Start)
	require.NoError(t, err)
	end, err := ParseClock(row.End)
	require.NoError(t, err)
	return day, start, end
}

func weekdayRow(name, areas string) dto.ActivityRow {
	return dto.ActivityRow{
		Name:             name,
		Areas:            areas,
		Windows:          map[string]string{"mán": "16:00-20:00"},
		WeekdayDurations: "60",
	}
}

func TestSolveSchedulesEveryInstanceOnce(t *testing.T) {
	res := solveRows(t, testOptions(), nil,
		weekdayRow("Fimleikar", "B-sal"),
		weekdayRow("Júdó", "B-sal"),
		dto.ActivityRow{
			Name:             "Sund",
			Areas:            "B-sal",
			Windows:          map[string]string{"mán": "16:00-20:00", "lau": "10:00-12:00"},
			WeekdayDurations: "60",
			WeekendDurations: "90",
		},
	)
	keys := make(map[string]int)
	for _, row := range res.Schedule {
		keys[row.Activity]++
	}
	assert.Equal(t, map[string]int{
		"Fimleikar - 1": 1, "Júdó - 1": 1, "Sund - 1": 1, "Sund * 1": 1,
	}, keys)
}

func TestSolveSerializesSharedArea(t *testing.T) {
	res := solveRows(t, testOptions(), nil,
		weekdayRow("Fimleikar", "B-sal"),
		weekdayRow("Júdó", "B-sal"),
		weekdayRow("Blak", "B-sal"),
	)
	require.Len(t, res.Schedule, 3)
	for i, a := range res.Schedule {
		for _, b := range res.Schedule[i+1:] {
			da, sa, ea := rowSpan(t, a)
			db, sb, eb := rowSpan(t, b)
			if da == db {
				overlap := sa < eb && sb < ea
				assert.False(t, overlap, "%s overlaps %s", a.Activity, b.Activity)
			}
		}
	}
}

func TestSolveRespectsAreaExclusivity(t *testing.T) {
	// A-sal and its 1/3 partition cannot host overlapping sessions.
	res := solveRows(t, testOptions(), nil,
		weekdayRow("Fimleikar", "A-sal"),
		weekdayRow("Júdó", "1/3 A-sal-1"),
	)
	require.Len(t, res.Schedule, 2)
	da, sa, ea := rowSpan(t, res.Schedule[0])
	db, sb, eb := rowSpan(t, res.Schedule[1])
	if da == db {
		assert.False(t, sa < eb && sb < ea, "exclusive areas overlap")
	}
}

func TestSolveDailyUniqueness(t *testing.T) {
	res := solveRows(t, testOptions(), nil, dto.ActivityRow{
		Name:             "Sund",
		Areas:            "B-sal",
		Windows:          map[string]string{"mán": "16:00-18:00", "þri": "16:00-18:00", "mið": "16:00-18:00"},
		WeekdayDurations: "60,60",
	})
	require.Len(t, res.Schedule, 2)
	d1, _, _ := rowSpan(t, res.Schedule[0])
	d2, _, _ := rowSpan(t, res.Schedule[1])
	assert.NotEqual(t, d1, d2, "two sessions of one activity on the same day")
}

func TestSolveConflictsNeverOverlapAcrossAreas(t *testing.T) {
	one := weekdayRow("Fimleikar", "B-sal")
	two := weekdayRow("Júdó", "Gervi fjær")
	one.Conflicts = "Júdó"
	res := solveRows(t, testOptions(), nil, one, two)
	require.Len(t, res.Schedule, 2)
	da, sa, ea := rowSpan(t, res.Schedule[0])
	db, sb, eb := rowSpan(t, res.Schedule[1])
	if da == db {
		assert.False(t, sa < eb && sb < ea, "conflicting activities overlap")
	}
}

func TestSolveIdempotentForFixedSeed(t *testing.T) {
	rows := []dto.ActivityRow{
		weekdayRow("Fimleikar", "B-sal"),
		weekdayRow("Júdó", "B-sal"),
		weekdayRow("Blak", "Gervi fjær"),
	}
	first := solveRows(t, testOptions(), nil, rows...)
	second := solveRows(t, testOptions(), nil, rows...)
	assert.Equal(t, first.Schedule, second.Schedule)
}

func TestSolveFlexesOutOfFullWindow(t *testing.T) {
	// Two sessions share a point window in one area; one must take
	// flex and carry the violation flag.
	one := weekdayRow("Fimleikar", "B-sal")
	one.Windows = map[string]string{"mán": "17:00"}
	two := weekdayRow("Júdó", "B-sal")
	two.Windows = map[string]string{"mán": "17:00"}
	res := solveRows(t, testOptions(), nil, one, two)
	require.Len(t, res.Schedule, 2)

	flagged := 0
	for _, row := range res.Schedule {
		if row.ViolatedWindow {
			flagged++
		}
	}
	assert.Equal(t, 1, flagged)
	_, sa, ea := rowSpan(t, res.Schedule[0])
	_, sb, eb := rowSpan(t, res.Schedule[1])
	assert.False(t, sa < eb && sb < ea)
}

func TestSolveNoIncumbentFallsBack(t *testing.T) {
	// Two four-hour sessions in one point window cannot coexist even
	// with full flex, so no phase ever finds an incumbent.
	opts := testOptions()
	opts.Restarts = 4
	one := weekdayRow("Fimleikar", "B-sal")
	one.Windows = map[string]string{"mán": "17:00"}
	one.WeekdayDurations = "240"
	two := weekdayRow("Júdó", "B-sal")
	two.Windows = map[string]string{"mán": "17:00"}
	two.WeekdayDurations = "240"

	res := solveRows(t, opts, nil, one, two)
	assert.Empty(t, res.Schedule)
	assert.True(t, res.Diagnostics.Partial)
	require.NotEmpty(t, res.Diagnostics.Phases)
	for _, ph := range res.Diagnostics.Phases {
		assert.Equal(t, models.PhaseNoIncumbent, ph.Status)
		assert.Equal(t, float64(1000), ph.Bound)
	}
}

func TestSolveCancelledBeforeStart(t *testing.T) {
	acts := mustNormalize(t, weekdayRow("Fimleikar", "B-sal"))
	m, err := BuildModel(acts, NormalizeAreas(nil), testOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Solve(ctx, m, BuildWarmStart(m, nil))

	assert.True(t, res.Diagnostics.Cancelled)
	assert.True(t, res.Diagnostics.Partial)
	assert.Empty(t, res.Schedule)
	require.Len(t, res.Diagnostics.Phases, 1)
	assert.Equal(t, models.PhaseCancelled, res.Diagnostics.Phases[0].Status)
}

func TestSolveStrictPrecedenceOrders(t *testing.T) {
	opts := testOptions()
	opts.StrictPrecedence = true
	one := weekdayRow("Fimleikar", "B-sal")
	two := weekdayRow("Júdó", "Gervi fjær")
	two.MustFollow = "Fimleikar"

	res := solveRows(t, opts, nil, one, two)
	require.Len(t, res.Schedule, 2)
	byName := make(map[string]models.Assignment)
	for _, row := range res.Schedule {
		byName[row.Activity] = row
	}
	da, _, endA := rowSpan(t, byName["Fimleikar - 1"])
	db, startB, _ := rowSpan(t, byName["Júdó - 1"])
	if da == db {
		assert.LessOrEqual(t, endA, startB)
	}
}

func TestSolveHerdsPrecedencePairsTogether(t *testing.T) {
	spread := map[string]string{"mán": "16:00-20:00", "þri": "16:00-20:00"}
	one := weekdayRow("Fimleikar", "B-sal")
	one.Windows = spread
	two := weekdayRow("Júdó", "B-sal")
	two.Windows = spread
	two.MustFollow = "Fimleikar"

	res := solveRows(t, testOptions(), nil, one, two)
	require.Len(t, res.Schedule, 2)
	assert.Equal(t, res.Schedule[0].Day, res.Schedule[1].Day,
		"paired activities should land on the same day")

	var found bool
	for _, ph := range res.Diagnostics.Phases {
		if ph.Name == PhaseBeforeAfter {
			found = true
			assert.Equal(t, float64(0), ph.Objective)
		}
	}
	assert.True(t, found)
}

func TestSolvePhasePlan(t *testing.T) {
	opts := testOptions().withDefaults()

	cold := phasePlan(opts, &WarmStart{})
	names := make([]string, 0, len(cold))
	for _, ph := range cold {
		names = append(names, ph.name)
	}
	assert.Equal(t, []string{PhaseBeforeAfter, PhaseTimeFlex, PhaseDefault}, names)

	warm := phasePlan(opts, &WarmStart{priors: map[int][]priorPlacement{0: {{Day: models.Monday}}}})
	names = names[:0]
	for _, ph := range warm {
		names = append(names, ph.name)
	}
	assert.Equal(t, []string{PhaseStayClose, PhaseTimeFlex}, names)
}

func TestWarmStartReproducesModifiedRow(t *testing.T) {
	row := dto.ActivityRow{
		Name:             "Sund",
		Areas:            "B-sal",
		Windows:          map[string]string{"mán": "16:00-18:00"},
		WeekdayDurations: "60",
		RowID:            3,
	}
	prev := []models.PreviousAssignment{{
		Activity: "Sund - 1",
		Day:      "mán",
		Area:     "B",
		Start:    "17:03", // off grid, must come back minute for minute
		End:      "18:03",
		Modified: true,
	}}
	res := solveRows(t, testOptions(), prev, row)
	require.Len(t, res.Schedule, 1)

	got := res.Schedule[0]
	assert.Equal(t, "mán", got.Day)
	assert.Equal(t, "17:03", got.Start)
	assert.Equal(t, "18:03", got.End)
	assert.Equal(t, "B", got.Area)
	assert.True(t, got.Modified)
	assert.False(t, got.ViolatedWindow)
	assert.Equal(t, 3, got.RowID)

	require.NotEmpty(t, res.Diagnostics.Phases)
	stay := res.Diagnostics.Phases[0]
	assert.Equal(t, PhaseStayClose, stay.Name)
	assert.Equal(t, float64(0), stay.Objective)
}

func TestWarmStartPullsBaselineRows(t *testing.T) {
	row := dto.ActivityRow{
		Name:             "Sund",
		Areas:            "B-sal",
		Windows:          map[string]string{"mán": "16:00-18:00", "þri": "16:00-18:00"},
		WeekdayDurations: "60",
	}
	prev := []models.PreviousAssignment{{
		Activity: "Sund - 1", Day: "þri", Area: "B", Start: "17:00", End: "18:00",
	}}
	res := solveRows(t, testOptions(), prev, row)
	require.Len(t, res.Schedule, 1)
	assert.Equal(t, "þri", res.Schedule[0].Day)
	assert.Equal(t, "17:00", res.Schedule[0].Start)
	assert.False(t, res.Schedule[0].Modified)
}

func TestWarmStartDropsViolatedRows(t *testing.T) {
	row := dto.ActivityRow{
		Name:             "Sund",
		Areas:            "B-sal",
		Windows:          map[string]string{"mán": "16:00-18:00"},
		WeekdayDurations: "60",
	}
	prev := []models.PreviousAssignment{{
		Activity: "Sund - 1", Day: "mán", Area: "B",
		Start: "21:00", End: "22:00", ViolatedWindow: true, Modified: true,
	}}
	acts := mustNormalize(t, row)
	m, err := BuildModel(acts, NormalizeAreas(nil), testOptions())
	require.NoError(t, err)
	ws := BuildWarmStart(m, prev)
	assert.False(t, ws.HasPriors())

	res := Solve(context.Background(), m, ws)
	require.Len(t, res.Schedule, 1)
	// Cold sequence runs because nothing survived reconciliation.
	assert.Equal(t, PhaseBeforeAfter, res.Diagnostics.Phases[0].Name)
	_, start, _ := rowSpan(t, res.Schedule[0])
	assert.GreaterOrEqual(t, start, 960)
	assert.LessOrEqual(t, start, 1080)
	assert.False(t, res.Schedule[0].Modified)
}

func TestWarmStartSkipsUnknownActivities(t *testing.T) {
	row := weekdayRow("Fimleikar", "B-sal")
	prev := []models.PreviousAssignment{{
		Activity: "Horfin deild - 1", Day: "mán", Area: "B", Start: "17:00", End: "18:00",
	}}
	acts := mustNormalize(t, row)
	m, err := BuildModel(acts, NormalizeAreas(nil), testOptions())
	require.NoError(t, err)
	assert.False(t, BuildWarmStart(m, prev).HasPriors())
}
