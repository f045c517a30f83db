package workout

import (
	"time"

	"github.com/claude/nextrep/internal/models"
)

// TotalVolume sums weight × reps over completed sets that have both.
func TotalVolume(entries []Entry) float64 {
	var total float64
	for _, e := range entries {
		for _, s := range e.Sets {
			if v, ok := models.Volume(s.Record()); ok {
				total += v
			}
		}
	}
	return total
}

// TotalSets counts completed sets.
func TotalSets(entries []Entry) int {
	n := 0
	for _, e := range entries {
		for _, s := range e.Sets {
			if s.Completed {
				n++
			}
		}
	}
	return n
}

// TotalExercises counts entries with at least one completed set.
func TotalExercises(entries []Entry) int {
	n := 0
	for _, e := range entries {
		for _, s := range e.Sets {
			if s.Completed {
				n++
				break
			}
		}
	}
	return n
}

// DurationMinutes returns whole minutes between startedAt and endedAt, or
// now when the session has not ended. It is 0 before the session starts.
func DurationMinutes(startedAt, endedAt *time.Time, now time.Time) int {
	if startedAt == nil {
		return 0
	}
	end := now
	if endedAt != nil {
		end = *endedAt
	}
	d := end.Sub(*startedAt)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// NaivePRCount is the PR figure of the session summary: the number of
// entries with a completed set heavier than zero, capped at 2. It does not
// look at history.
func NaivePRCount(entries []Entry) int {
	n := 0
	for _, e := range entries {
		for _, s := range e.Sets {
			if s.Completed && s.Weight != nil && *s.Weight > 0 {
				n++
				break
			}
		}
	}
	return min(n, 2)
}

// Summary is the end-of-session overview.
type Summary struct {
	Volume    float64 `json:"volume"`
	Sets      int     `json:"sets"`
	Exercises int     `json:"exercises"`
	Minutes   int     `json:"minutes"`
	PRs       int     `json:"prs"`
}

// Summarize computes the metrics of d at time now.
func Summarize(d Draft, now time.Time) Summary {
	return Summary{
		Volume:    TotalVolume(d.Exercises),
		Sets:      TotalSets(d.Exercises),
		Exercises: TotalExercises(d.Exercises),
		Minutes:   DurationMinutes(d.StartedAt, d.EndedAt, now),
		PRs:       NaivePRCount(d.Exercises),
	}
}
