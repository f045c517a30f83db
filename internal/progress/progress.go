// Package progress computes per-exercise analytics from a user's completed
// sets: personal records, a summary of recent sessions and a trailing-window
// progress delta.
package progress

import (
	"fmt"
	"sort"
	"time"

	"github.com/claude/nextrep/internal/models"
)

const (
	// Window is the length of the trailing comparison windows.
	Window = 30 * 24 * time.Hour
	// RecentSessions is how many sessions Last5 reports.
	RecentSessions = 5
)

// Delta bases.
const (
	BasisWindow   = "window"
	BasisSessions = "sessions"
)

// PR is the personal record of one exercise. For weight_reps the best
// weight and the best single-set volume are chosen independently and each
// carries the date of its own session.
type PR struct {
	BestWeight  *float64   `json:"bestWeight,omitempty"`
	BestReps    *int       `json:"bestReps,omitempty"`
	BestVolume  *float64   `json:"bestVolume,omitempty"`
	BestSeconds *int       `json:"bestSeconds,omitempty"`
	Date        time.Time  `json:"date"`
	VolumeDate  *time.Time `json:"volumeDate,omitempty"`
}

// SessionSummary is one session's performance on the exercise.
type SessionSummary struct {
	WorkoutID   string    `json:"workoutId"`
	Date        time.Time `json:"date"`
	BestWeight  *float64  `json:"bestWeight"`
	BestReps    *int      `json:"bestReps"`
	BestSeconds *int      `json:"bestSeconds"`
	Volume      float64   `json:"volume"`
}

// Delta compares recent performance with an earlier baseline.
type Delta struct {
	DeltaWeight    *float64 `json:"deltaWeight,omitempty"`
	DeltaReps      *int     `json:"deltaReps,omitempty"`
	DeltaSeconds   *int     `json:"deltaSeconds,omitempty"`
	DeltaVolumePct *float64 `json:"deltaVolumePct,omitempty"`
	Label          string   `json:"label"`
	Basis          string   `json:"basis"`
}

// Result is the progress report for one exercise.
type Result struct {
	MeasurementType models.MeasurementType `json:"measurementType"`
	PR              *PR                    `json:"pr"`
	Last5           []SessionSummary       `json:"last5"`
	Progress30d     *Delta                 `json:"progress30d"`
}

type session struct {
	workoutID string
	date      time.Time
	sets      []models.SetRecord
}

// Analyze builds the progress report for an exercise of type mt from its
// history. Incomplete sets in history are ignored. An empty history yields
// a result with no PR, no sessions and no delta.
func Analyze(mt models.MeasurementType, history []models.HistorySet, now time.Time) Result {
	res := Result{MeasurementType: mt, Last5: []SessionSummary{}}

	sets := make([]models.HistorySet, 0, len(history))
	for _, h := range history {
		if h.Completed {
			sets = append(sets, h)
		}
	}
	if len(sets) == 0 {
		return res
	}
	sort.SliceStable(sets, func(i, j int) bool {
		if !sets[i].SessionDate.Equal(sets[j].SessionDate) {
			return sets[i].SessionDate.Before(sets[j].SessionDate)
		}
		return sets[i].SetIndex < sets[j].SetIndex
	})

	res.PR = personalRecord(mt, sets)

	sessions := groupSessions(sets)
	for i := len(sessions) - 1; i >= 0 && len(res.Last5) < RecentSessions; i-- {
		res.Last5 = append(res.Last5, summarize(mt, sessions[i]))
	}

	res.Progress30d = trailingDelta(mt, sessions, now)
	return res
}

// BestSet returns the first set with the highest score for mt, along with
// that score. ok is false when no set qualifies.
func BestSet(mt models.MeasurementType, sets []models.SetRecord) (best models.SetRecord, score float64, ok bool) {
	for _, s := range sets {
		v, qualifies := mt.Score(s)
		if !qualifies {
			continue
		}
		if !ok || v > score {
			best, score, ok = s, v, true
		}
	}
	return best, score, ok
}

func personalRecord(mt models.MeasurementType, sets []models.HistorySet) *PR {
	var (
		pr        *PR
		bestScore float64
		bestVol   float64
		haveVol   bool
	)
	for _, h := range sets {
		v, ok := mt.Score(h.SetRecord)
		if !ok {
			continue
		}
		if pr == nil || v > bestScore {
			if pr == nil {
				pr = &PR{}
			}
			bestScore = v
			pr.Date = h.SessionDate
			switch mt {
			case models.RepsOnly:
				pr.BestReps = models.Int(*h.Reps)
			case models.Timed:
				pr.BestSeconds = models.Int(*h.Seconds)
			default:
				pr.BestWeight = models.Float64(*h.Weight)
				pr.BestReps = models.Int(*h.Reps)
			}
		}
		if mt != models.WeightReps {
			continue
		}
		if vol, ok := models.Volume(h.SetRecord); ok && (!haveVol || vol > bestVol) {
			bestVol, haveVol = vol, true
			date := h.SessionDate
			pr.BestVolume = models.Float64(vol)
			pr.VolumeDate = &date
		}
	}
	return pr
}

func groupSessions(sets []models.HistorySet) []session {
	var out []session
	index := make(map[string]int)
	for _, h := range sets {
		i, ok := index[h.WorkoutID]
		if !ok {
			i = len(out)
			index[h.WorkoutID] = i
			out = append(out, session{workoutID: h.WorkoutID, date: h.SessionDate})
		}
		out[i].sets = append(out[i].sets, h.SetRecord)
	}
	return out
}

func summarize(mt models.MeasurementType, s session) SessionSummary {
	sum := SessionSummary{WorkoutID: s.workoutID, Date: s.date}
	best, _, ok := BestSet(mt, s.sets)
	if ok {
		switch mt {
		case models.RepsOnly:
			sum.BestReps = models.Int(*best.Reps)
		case models.Timed:
			sum.BestSeconds = models.Int(*best.Seconds)
		default:
			sum.BestWeight = models.Float64(*best.Weight)
			sum.BestReps = models.Int(*best.Reps)
		}
	}
	if mt == models.WeightReps {
		sum.Volume = sessionVolume(s)
	}
	return sum
}

func sessionVolume(s session) float64 {
	var total float64
	for _, set := range s.sets {
		if v, ok := models.Volume(set); ok {
			total += v
		}
	}
	return total
}

func sessionBest(mt models.MeasurementType, s session) float64 {
	_, v, _ := BestSet(mt, s.sets)
	return v
}

// trailingDelta compares the best value in [now-30d, now] with the best in
// [now-60d, now-30d). When neither window has data it falls back to the
// most recent session against the oldest one.
func trailingDelta(mt models.MeasurementType, sessions []session, now time.Time) *Delta {
	if len(sessions) < 2 {
		return nil
	}

	currentStart := now.Add(-Window)
	previousStart := currentStart.Add(-Window)

	var curBest, prevBest, curVol, prevVol float64
	for _, s := range sessions {
		switch {
		case !s.date.Before(currentStart) && !s.date.After(now):
			curBest = max(curBest, sessionBest(mt, s))
			curVol = max(curVol, sessionVolume(s))
		case !s.date.Before(previousStart) && s.date.Before(currentStart):
			prevBest = max(prevBest, sessionBest(mt, s))
			prevVol = max(prevVol, sessionVolume(s))
		}
	}

	if curBest > 0 || prevBest > 0 {
		d := newDelta(mt, curBest-prevBest, "last 30 days", BasisWindow)
		if mt == models.WeightReps {
			pct := 0.0
			if prevVol > 0 {
				pct = (curVol - prevVol) / prevVol * 100
			}
			d.DeltaVolumePct = &pct
		}
		return d
	}

	oldest, recent := sessions[0], sessions[len(sessions)-1]
	label := fmt.Sprintf("last %d sessions", len(sessions))
	return newDelta(mt, sessionBest(mt, recent)-sessionBest(mt, oldest), label, BasisSessions)
}

func newDelta(mt models.MeasurementType, diff float64, label, basis string) *Delta {
	d := &Delta{Label: label, Basis: basis}
	switch mt {
	case models.RepsOnly:
		d.DeltaReps = models.Int(int(diff))
	case models.Timed:
		d.DeltaSeconds = models.Int(int(diff))
	default:
		d.DeltaWeight = models.Float64(diff)
	}
	return d
}
