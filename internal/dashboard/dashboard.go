// Package dashboard derives the home screen figures from a user's session
// list and the two most recent session details.
package dashboard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/progress"
)

// Options tune the heuristics. Zero fields take the defaults.
type Options struct {
	// FocusRecencyDays is how many days may pass since the last session
	// before the focus suggestion falls back to a full-body session.
	FocusRecencyDays int
	// PRRecencyDays suppresses the PR alert when the latest session is
	// older than this.
	PRRecencyDays int

	WeekTarget     int
	StreakScanDays int

	// Location decides calendar days, weeks and months.
	Location *time.Location
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		FocusRecencyDays: 3,
		PRRecencyDays:    7,
		WeekTarget:       4,
		StreakScanDays:   365,
		Location:         time.UTC,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FocusRecencyDays <= 0 {
		o.FocusRecencyDays = d.FocusRecencyDays
	}
	if o.PRRecencyDays <= 0 {
		o.PRRecencyDays = d.PRRecencyDays
	}
	if o.WeekTarget <= 0 {
		o.WeekTarget = d.WeekTarget
	}
	if o.StreakScanDays <= 0 {
		o.StreakScanDays = d.StreakScanDays
	}
	if o.Location == nil {
		o.Location = d.Location
	}
	return o
}

// Input is the data the dashboard is computed from. Latest and Previous
// are the details of the two most recent sessions, newest first.
type Input struct {
	Sessions []models.SessionListItem
	Latest   *models.SessionDetail
	Previous *models.SessionDetail
}

// Home is the computed dashboard.
type Home struct {
	Subtitle      string     `json:"subtitle"`
	TotalWorkouts int        `json:"totalWorkouts"`
	LastWorkoutAt *time.Time `json:"lastWorkoutAt"`
	Streak        int        `json:"streak"`
	ThisWeek      int        `json:"thisWeek"`
	WeekTarget    int        `json:"weekTarget"`

	// WeekDots lists the weekdays (0 = Sunday) that had a session in the
	// last seven days.
	WeekDots []int    `json:"weekDots"`
	Month    Month    `json:"month"`
	Focus    Focus    `json:"focus"`
	RecentPR *PRAlert `json:"recentPR"`
}

// Month compares the current calendar month with the previous one.
// Deltas are nil when the previous month has no sessions.
type Month struct {
	ThisMonthWorkouts int      `json:"thisMonthWorkouts"`
	ThisMonthVolume   float64  `json:"thisMonthVolume"`
	LastMonthWorkouts int      `json:"lastMonthWorkouts"`
	LastMonthVolume   float64  `json:"lastMonthVolume"`
	WorkoutsDelta     *int     `json:"workoutsDelta"`
	VolumeDelta       *float64 `json:"volumeDelta"`
}

// PRAlert reports an exercise that improved on the previous session.
type PRAlert struct {
	ExerciseID      uuid.UUID              `json:"exerciseId"`
	ExerciseName    string                 `json:"exerciseName"`
	MeasurementType models.MeasurementType `json:"measurementType"`
	Delta           float64                `json:"delta"`
	Label           string                 `json:"label"`
}

// Build computes the dashboard at time now.
func Build(in Input, now time.Time, opts Options) Home {
	opts = opts.withDefaults()
	now = now.In(opts.Location)

	h := Home{
		TotalWorkouts: len(in.Sessions),
		WeekTarget:    opts.WeekTarget,
		WeekDots:      []int{},
	}

	var last *time.Time
	for _, s := range in.Sessions {
		d := s.Date()
		if last == nil || d.After(*last) {
			last = &d
		}
	}
	h.LastWorkoutAt = last

	daysSince := -1
	if last != nil {
		daysSince = daysBetween(*last, now, opts.Location)
	}

	h.Subtitle = subtitle(len(in.Sessions), daysSince, opts.FocusRecencyDays)
	h.Streak = Streak(in.Sessions, now, opts)
	h.ThisWeek = WeekCount(in.Sessions, now, opts.Location)
	h.WeekDots = weekDots(in.Sessions, now, opts.Location)
	h.Month = MonthSnapshot(in.Sessions, now, opts.Location)
	h.Focus = TodayFocus(len(in.Sessions), in.Latest, daysSince, opts.FocusRecencyDays)
	h.RecentPR = RecentPR(in.Latest, in.Previous, now, opts.PRRecencyDays)
	return h
}

func day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time, loc *time.Location) int {
	hours := day(b, loc).Sub(day(a, loc)).Hours()
	return int(math.Round(hours / 24))
}

// Streak counts consecutive calendar days with a session, walking back from
// today. A day without a session ends the streak, except today: a streak
// that runs up to yesterday is still intact before today's session.
func Streak(sessions []models.SessionListItem, now time.Time, opts Options) int {
	opts = opts.withDefaults()
	days := make(map[time.Time]bool, len(sessions))
	for _, s := range sessions {
		days[day(s.Date(), opts.Location)] = true
	}
	if len(days) == 0 {
		return 0
	}

	d := day(now, opts.Location)
	if !days[d] {
		d = d.AddDate(0, 0, -1)
	}
	streak := 0
	for i := 0; i < opts.StreakScanDays && days[d]; i++ {
		streak++
		d = d.AddDate(0, 0, -1)
	}
	return streak
}

// WeekCount counts sessions in the Monday–Sunday week containing now.
func WeekCount(sessions []models.SessionListItem, now time.Time, loc *time.Location) int {
	today := day(now, loc)
	offset := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -offset)
	next := monday.AddDate(0, 0, 7)

	n := 0
	for _, s := range sessions {
		d := s.Date()
		if !d.Before(monday) && d.Before(next) {
			n++
		}
	}
	return n
}

func weekDots(sessions []models.SessionListItem, now time.Time, loc *time.Location) []int {
	since := now.Add(-7 * 24 * time.Hour)
	seen := make(map[int]bool)
	dots := []int{}
	for _, s := range sessions {
		d := s.Date()
		if d.Before(since) || d.After(now) {
			continue
		}
		wd := int(d.In(loc).Weekday())
		if !seen[wd] {
			seen[wd] = true
			dots = append(dots, wd)
		}
	}
	sort.Ints(dots)
	return dots
}

// MonthSnapshot sums sessions and volume for this and the previous month.
func MonthSnapshot(sessions []models.SessionListItem, now time.Time, loc *time.Location) Month {
	now = now.In(loc)
	thisStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	lastStart := thisStart.AddDate(0, -1, 0)
	nextStart := thisStart.AddDate(0, 1, 0)

	var m Month
	for _, s := range sessions {
		d := s.Date()
		switch {
		case !d.Before(thisStart) && d.Before(nextStart):
			m.ThisMonthWorkouts++
			m.ThisMonthVolume += s.TotalVolume
		case !d.Before(lastStart) && d.Before(thisStart):
			m.LastMonthWorkouts++
			m.LastMonthVolume += s.TotalVolume
		}
	}
	if m.LastMonthWorkouts > 0 || m.LastMonthVolume > 0 {
		wd := m.ThisMonthWorkouts - m.LastMonthWorkouts
		vd := m.ThisMonthVolume - m.LastMonthVolume
		m.WorkoutsDelta, m.VolumeDelta = &wd, &vd
	}
	return m
}

func subtitle(count, daysSince, recentDays int) string {
	switch {
	case count == 0:
		return "Start your journey today"
	case daysSince == 1:
		return "Keep the momentum going"
	case daysSince > recentDays:
		return "Let's get back on track"
	default:
		return "Let's crush it today"
	}
}

// RecentPR compares each exercise of latest with the same exercise in
// previous and reports the first, in latest's order, whose best set
// strictly improved. It returns nil when latest is older than recentDays.
func RecentPR(latest, previous *models.SessionDetail, now time.Time, recentDays int) *PRAlert {
	if latest == nil || previous == nil {
		return nil
	}
	if now.Sub(latest.Date()) > time.Duration(recentDays)*24*time.Hour {
		return nil
	}

	prevBest := make(map[uuid.UUID]float64, len(previous.Exercises))
	for _, ex := range previous.Exercises {
		if v, ok := exerciseBest(ex); ok {
			prevBest[ex.ExerciseID] = v
		}
	}

	exercises := append([]models.DetailExercise(nil), latest.Exercises...)
	sort.SliceStable(exercises, func(i, j int) bool { return exercises[i].Order < exercises[j].Order })

	for _, ex := range exercises {
		cur, ok := exerciseBest(ex)
		if !ok {
			continue
		}
		prev, ok := prevBest[ex.ExerciseID]
		if !ok || cur <= prev {
			continue
		}
		mt := models.ParseMeasurementType(string(ex.MeasurementType))
		delta := cur - prev
		return &PRAlert{
			ExerciseID:      ex.ExerciseID,
			ExerciseName:    ex.ExerciseName,
			MeasurementType: mt,
			Delta:           delta,
			Label:           fmt.Sprintf("%+g %s vs previous best", delta, mt.Unit()),
		}
	}
	return nil
}

func exerciseBest(ex models.DetailExercise) (float64, bool) {
	sets := make([]models.SetRecord, len(ex.Sets))
	for i, s := range ex.Sets {
		sets[i] = s.SetRecord
	}
	_, v, ok := progress.BestSet(models.ParseMeasurementType(string(ex.MeasurementType)), sets)
	return v, ok
}
