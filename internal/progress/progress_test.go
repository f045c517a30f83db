package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/nextrep/internal/models"
)

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return now.Add(-time.Duration(n) * 24 * time.Hour) }

func wrSet(workout string, date time.Time, idx int, weight float64, reps int) models.HistorySet {
	return models.HistorySet{
		WorkoutID:   workout,
		SessionDate: date,
		SetIndex:    idx,
		SetRecord:   models.SetRecord{Weight: models.Float64(weight), Reps: models.Int(reps), Completed: true},
	}
}

// TestPRWeightAndVolumeChosenIndependently verifies that the heaviest set and
// the highest-volume set are selected separately.
func TestPRWeightAndVolumeChosenIndependently(t *testing.T) {
	d := daysAgo(3)
	history := []models.HistorySet{
		wrSet("w1", d, 1, 80, 10),
		wrSet("w1", d, 2, 90, 5),
		wrSet("w1", d, 3, 70, 12),
	}

	res := Analyze(models.WeightReps, history, now)
	require.NotNil(t, res.PR)
	assert.Equal(t, 90.0, *res.PR.BestWeight)
	assert.Equal(t, 5, *res.PR.BestReps)
	assert.Equal(t, 840.0, *res.PR.BestVolume)
}

func TestPRVolumeKeepsFirstOnTie(t *testing.T) {
	history := []models.HistorySet{
		wrSet("old", daysAgo(20), 1, 80, 10),
		wrSet("new", daysAgo(2), 1, 100, 8),
		wrSet("new", daysAgo(2), 2, 60, 5),
	}
	res := Analyze(models.WeightReps, history, now)
	require.NotNil(t, res.PR)
	assert.Equal(t, 100.0, *res.PR.BestWeight)
	assert.Equal(t, daysAgo(2), res.PR.Date)
	assert.Equal(t, 800.0, *res.PR.BestVolume)
	assert.Equal(t, daysAgo(20), *res.PR.VolumeDate, "first 800 volume set wins the tie")
}

func TestPRRepsOnlyAndTime(t *testing.T) {
	reps := []models.HistorySet{
		{WorkoutID: "a", SessionDate: daysAgo(5), SetRecord: models.SetRecord{Reps: models.Int(12), Completed: true}},
		{WorkoutID: "b", SessionDate: daysAgo(1), SetRecord: models.SetRecord{Reps: models.Int(15), Completed: true}},
		{WorkoutID: "b", SessionDate: daysAgo(1), SetRecord: models.SetRecord{Reps: models.Int(20)}},
	}
	res := Analyze(models.RepsOnly, reps, now)
	require.NotNil(t, res.PR)
	assert.Equal(t, 15, *res.PR.BestReps)
	assert.Nil(t, res.PR.BestWeight)
	assert.Nil(t, res.PR.BestVolume)

	timed := []models.HistorySet{
		{WorkoutID: "a", SessionDate: daysAgo(5), SetRecord: models.SetRecord{Seconds: models.Int(60), Completed: true}},
		{WorkoutID: "a", SessionDate: daysAgo(5), SetRecord: models.SetRecord{Seconds: models.Int(75), Completed: true}},
	}
	res = Analyze(models.Timed, timed, now)
	require.NotNil(t, res.PR)
	assert.Equal(t, 75, *res.PR.BestSeconds)
}

func TestPRAbsentWithoutQualifyingSets(t *testing.T) {
	history := []models.HistorySet{
		{WorkoutID: "a", SessionDate: daysAgo(1), SetRecord: models.SetRecord{Reps: models.Int(10), Completed: true}},
	}
	res := Analyze(models.WeightReps, history, now)
	assert.Nil(t, res.PR, "weight_reps needs weight and reps")
	require.Len(t, res.Last5, 1)
	assert.Nil(t, res.Last5[0].BestWeight)
}

// TestAnalyzeEmptyHistory verifies that no history, or only unfinished sets,
// gives an empty result rather than zeros.
func TestAnalyzeEmptyHistory(t *testing.T) {
	res := Analyze(models.Timed, nil, now)
	assert.Equal(t, models.Timed, res.MeasurementType)
	assert.Nil(t, res.PR)
	assert.NotNil(t, res.Last5)
	assert.Empty(t, res.Last5)
	assert.Nil(t, res.Progress30d)

	unfinished := wrSet("a", daysAgo(1), 1, 100, 5)
	unfinished.Completed = false
	res = Analyze(models.WeightReps, []models.HistorySet{unfinished}, now)
	assert.Nil(t, res.PR)
	assert.Empty(t, res.Last5)
}

func TestLast5(t *testing.T) {
	var history []models.HistorySet
	for i := 7; i >= 1; i-- {
		w := fmt.Sprintf("w%d", i)
		history = append(history,
			wrSet(w, daysAgo(i*3), 1, float64(50+i), 10),
			wrSet(w, daysAgo(i*3), 2, 40, 10),
		)
	}

	res := Analyze(models.WeightReps, history, now)
	require.Len(t, res.Last5, 5)
	assert.Equal(t, "w1", res.Last5[0].WorkoutID, "newest first")
	assert.Equal(t, "w5", res.Last5[4].WorkoutID)
	assert.Equal(t, 51.0, *res.Last5[0].BestWeight)
	assert.Equal(t, 10, *res.Last5[0].BestReps)
	assert.Equal(t, 910.0, res.Last5[0].Volume)
}

func TestLast5NoVolumeForRepsOnly(t *testing.T) {
	history := []models.HistorySet{
		{WorkoutID: "a", SessionDate: daysAgo(1), SetRecord: models.SetRecord{Weight: models.Float64(10), Reps: models.Int(10), Completed: true}},
	}
	res := Analyze(models.RepsOnly, history, now)
	require.Len(t, res.Last5, 1)
	assert.Equal(t, 0.0, res.Last5[0].Volume)
	assert.Equal(t, 10, *res.Last5[0].BestReps)
}

func TestTrailingWindowDelta(t *testing.T) {
	history := []models.HistorySet{
		wrSet("prev", daysAgo(45), 1, 80, 5),
		wrSet("prev", daysAgo(45), 2, 80, 5),
		wrSet("cur", daysAgo(10), 1, 85, 5),
		wrSet("cur", daysAgo(10), 2, 85, 6),
	}
	res := Analyze(models.WeightReps, history, now)
	require.NotNil(t, res.Progress30d)
	d := res.Progress30d
	assert.Equal(t, BasisWindow, d.Basis)
	assert.Equal(t, "last 30 days", d.Label)
	assert.Equal(t, 5.0, *d.DeltaWeight)
	// session volumes: 800 before, 935 now
	assert.InDelta(t, 16.875, *d.DeltaVolumePct, 1e-9)
}

func TestTrailingWindowOnlyCurrent(t *testing.T) {
	history := []models.HistorySet{
		wrSet("old", daysAgo(200), 1, 60, 5),
		wrSet("cur", daysAgo(1), 1, 70, 5),
	}
	res := Analyze(models.WeightReps, history, now)
	require.NotNil(t, res.Progress30d)
	assert.Equal(t, 70.0, *res.Progress30d.DeltaWeight, "empty previous window counts as zero")
	assert.Equal(t, 0.0, *res.Progress30d.DeltaVolumePct)
}

func TestTrailingWindowDecline(t *testing.T) {
	history := []models.HistorySet{
		wrSet("prev", daysAgo(40), 1, 100, 10),
		wrSet("cur", daysAgo(5), 1, 90, 10),
	}
	res := Analyze(models.WeightReps, history, now)
	require.NotNil(t, res.Progress30d)
	assert.Equal(t, -10.0, *res.Progress30d.DeltaWeight)
	assert.InDelta(t, -10.0, *res.Progress30d.DeltaVolumePct, 1e-9)
}

// TestFallbackToSessionComparison verifies that history older than both
// windows still yields a delta when at least two sessions exist.
func TestFallbackToSessionComparison(t *testing.T) {
	history := []models.HistorySet{
		wrSet("a", daysAgo(120), 1, 60, 8),
		wrSet("b", daysAgo(90), 1, 67.5, 8),
	}
	res := Analyze(models.WeightReps, history, now)
	require.NotNil(t, res.Progress30d)
	assert.Equal(t, BasisSessions, res.Progress30d.Basis)
	assert.Equal(t, "last 2 sessions", res.Progress30d.Label)
	assert.Equal(t, 7.5, *res.Progress30d.DeltaWeight)
	assert.Nil(t, res.Progress30d.DeltaVolumePct)
}

func TestFallbackTimed(t *testing.T) {
	history := []models.HistorySet{
		{WorkoutID: "a", SessionDate: daysAgo(100), SetRecord: models.SetRecord{Seconds: models.Int(90), Completed: true}},
		{WorkoutID: "b", SessionDate: daysAgo(80), SetRecord: models.SetRecord{Seconds: models.Int(60), Completed: true}},
		{WorkoutID: "c", SessionDate: daysAgo(70), SetRecord: models.SetRecord{Seconds: models.Int(75), Completed: true}},
	}
	res := Analyze(models.Timed, history, now)
	require.NotNil(t, res.Progress30d)
	assert.Equal(t, -15, *res.Progress30d.DeltaSeconds)
	assert.Equal(t, "last 3 sessions", res.Progress30d.Label)
}

func TestNoDeltaWithSingleSession(t *testing.T) {
	history := []models.HistorySet{wrSet("a", daysAgo(1), 1, 60, 8), wrSet("a", daysAgo(1), 2, 65, 8)}
	res := Analyze(models.WeightReps, history, now)
	assert.Nil(t, res.Progress30d)
}

func TestBestSet(t *testing.T) {
	sets := []models.SetRecord{
		{Weight: models.Float64(50), Reps: models.Int(10), Completed: true},
		{Weight: models.Float64(70), Reps: models.Int(3), Completed: true},
		{Weight: models.Float64(70), Reps: models.Int(5), Completed: true},
		{Weight: models.Float64(90), Reps: models.Int(1)},
	}
	best, score, ok := BestSet(models.WeightReps, sets)
	require.True(t, ok)
	assert.Equal(t, 70.0, score)
	assert.Equal(t, 3, *best.Reps, "ties keep the first set")

	_, _, ok = BestSet(models.Timed, sets)
	assert.False(t, ok)
}
