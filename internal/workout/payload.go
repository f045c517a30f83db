package workout

import (
	"github.com/claude/nextrep/internal/models"
)

// ToSaveRequest converts a draft into the payload the server persists.
// Entries left without sets are dropped and the remaining orders are
// renumbered densely. Only the fields meaningful for an entry's measurement
// type are sent; the rest go out as null.
func ToSaveRequest(d Draft) models.SaveWorkoutRequest {
	req := models.SaveWorkoutRequest{
		Name:      d.Name,
		StartedAt: cloneTime(d.StartedAt),
		EndedAt:   cloneTime(d.EndedAt),
		Exercises: make([]models.SaveExercise, 0, len(d.Exercises)),
	}
	for _, e := range d.Exercises {
		if len(e.Sets) == 0 {
			continue
		}
		ex := models.SaveExercise{
			ExerciseID:   e.ExerciseID,
			ExerciseName: e.ExerciseName,
			Order:        models.Int(len(req.Exercises)),
			Status:       string(e.Status),
			Sets:         make([]models.SaveSet, 0, len(e.Sets)),
		}
		for i, s := range e.Sets {
			ss := models.SaveSet{SetIndex: models.Int(i + 1), Completed: s.Completed}
			switch e.MeasurementType {
			case models.RepsOnly:
				ss.Reps = copyInt(s.Reps)
			case models.Timed:
				ss.Seconds = copyInt(s.Seconds)
			default:
				ss.Weight = copyFloat(s.Weight)
				ss.Reps = copyInt(s.Reps)
			}
			ex.Sets = append(ex.Sets, ss)
		}
		req.Exercises = append(req.Exercises, ex)
	}
	return req
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return models.Int(*v)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return models.Float64(*v)
}
