package workout

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/models"
)

// Reducer applies actions to drafts. NewID mints draft-local ids for new
// entries, sets and drafts.
type Reducer struct {
	NewID func() string
}

var defaultReducer = Reducer{NewID: uuid.NewString}

// Reduce applies a to d using random UUIDs for new ids.
func Reduce(d Draft, a Action, now time.Time) Draft {
	return defaultReducer.Apply(d, a, now)
}

// Apply returns the draft that results from applying a to d at time now.
// d is never modified. Actions that reference unknown ids, or that are not
// valid in the draft's current phase, return d unchanged.
func (r Reducer) Apply(d Draft, a Action, now time.Time) Draft {
	next, _ := r.apply(d, a, now)
	return next
}

func (r Reducer) newID() string {
	if r.NewID == nil {
		return uuid.NewString()
	}
	return r.NewID()
}

func (r Reducer) apply(d Draft, a Action, now time.Time) (Draft, bool) {
	switch a := a.(type) {
	case SetName:
		next := d.Clone()
		next.Name = a.Value
		return next, next.Name != d.Name
	case ResetDraft:
		return NewDraft(r.newID(), now), true
	}

	// A finished draft only waits to be persisted and reset.
	if d.Status == StatusFinished {
		return d, false
	}

	switch a := a.(type) {
	case AddExercise:
		return r.addExercise(d, a)
	case RemoveExercise:
		return removeExercise(d, a)
	case ReorderExercises:
		return reorderExercises(d, a)
	case AddSet:
		return r.addSet(d, a)
	case UpdateSet:
		return updateSet(d, a)
	case ToggleSetComplete:
		return withSet(d, a.EntryID, a.SetID, func(s *Set) { s.Completed = !s.Completed })
	case RemoveSet:
		return removeSet(d, a)
	case StartSession:
		if d.Status != StatusPlanning {
			return d, false
		}
		next := d.Clone()
		next.Status = StatusActive
		next.StartedAt = &now
		next.ActiveExerciseID = NextPending(next.Exercises, nil)
		return next, true
	case FinishExercise:
		return finishExercise(d, a)
	case RestoreExercise:
		i := d.entryIndex(a.EntryID)
		if i < 0 {
			return d, false
		}
		next := d.Clone()
		next.Exercises[i].Status = EntryPending
		next.ActiveExerciseID = stringPtr(a.EntryID)
		return next, true
	case SetActiveExercise:
		if d.entryIndex(a.EntryID) < 0 {
			return d, false
		}
		next := d.Clone()
		next.ActiveExerciseID = stringPtr(a.EntryID)
		return next, true
	case FinishSession:
		if d.Status != StatusActive {
			return d, false
		}
		next := d.Clone()
		next.Status = StatusFinished
		next.EndedAt = &now
		return next, true
	}
	return d, false
}

func (r Reducer) addExercise(d Draft, a AddExercise) (Draft, bool) {
	for _, e := range d.Exercises {
		if e.ExerciseID == a.Exercise.ID {
			return d, false
		}
	}
	mt := a.Exercise.MeasurementType
	if !mt.Valid() {
		mt = models.WeightReps
	}
	entry := Entry{
		ID:              r.newID(),
		ExerciseID:      a.Exercise.ID,
		ExerciseName:    a.Exercise.Name,
		Category:        a.Exercise.Category,
		MeasurementType: mt,
		Order:           len(d.Exercises),
		Status:          EntryPending,
		Sets:            []Set{emptySet(r.newID(), mt)},
	}
	next := d.Clone()
	next.Exercises = append(next.Exercises, entry)
	if next.ActiveExerciseID == nil {
		next.ActiveExerciseID = stringPtr(entry.ID)
	}
	return next, true
}

func removeExercise(d Draft, a RemoveExercise) (Draft, bool) {
	i := d.entryIndex(a.EntryID)
	if i < 0 {
		return d, false
	}
	next := d.Clone()
	next.Exercises = append(next.Exercises[:i], next.Exercises[i+1:]...)
	renumber(next.Exercises)
	if d.ActiveExerciseID != nil && *d.ActiveExerciseID == a.EntryID {
		next.ActiveExerciseID = NextPending(next.Exercises, nil)
	}
	return next, true
}

func reorderExercises(d Draft, a ReorderExercises) (Draft, bool) {
	n := len(d.Exercises)
	if a.From < 0 || a.From >= n || a.To < 0 || a.To >= n || a.From == a.To {
		return d, false
	}
	next := d.Clone()
	moved := next.Exercises[a.From]
	rest := append(next.Exercises[:a.From:a.From], next.Exercises[a.From+1:]...)
	list := make([]Entry, 0, n)
	list = append(list, rest[:a.To]...)
	list = append(list, moved)
	list = append(list, rest[a.To:]...)
	renumber(list)
	next.Exercises = list
	return next, true
}

func (r Reducer) addSet(d Draft, a AddSet) (Draft, bool) {
	i := d.entryIndex(a.EntryID)
	if i < 0 {
		return d, false
	}
	next := d.Clone()
	e := &next.Exercises[i]
	var s Set
	if len(e.Sets) > 0 {
		s = e.Sets[len(e.Sets)-1].clone()
		s.ID = r.newID()
		s.Completed = false
	} else {
		s = emptySet(r.newID(), e.MeasurementType)
	}
	e.Sets = append(e.Sets, s)
	return next, true
}

func updateSet(d Draft, a UpdateSet) (Draft, bool) {
	v := a.Value
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	switch a.Field {
	case FieldWeight:
		return withSet(d, a.EntryID, a.SetID, func(s *Set) { s.Weight = models.Float64(v) })
	case FieldReps:
		return withSet(d, a.EntryID, a.SetID, func(s *Set) { s.Reps = models.Int(toInt(v)) })
	case FieldSeconds:
		return withSet(d, a.EntryID, a.SetID, func(s *Set) { s.Seconds = models.Int(toInt(v)) })
	}
	return d, false
}

func toInt(v float64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

func removeSet(d Draft, a RemoveSet) (Draft, bool) {
	i := d.entryIndex(a.EntryID)
	if i < 0 {
		return d, false
	}
	j := d.Exercises[i].setIndex(a.SetID)
	if j < 0 {
		return d, false
	}
	next := d.Clone()
	sets := next.Exercises[i].Sets
	next.Exercises[i].Sets = append(sets[:j], sets[j+1:]...)
	return next, true
}

func finishExercise(d Draft, a FinishExercise) (Draft, bool) {
	i := d.entryIndex(a.EntryID)
	if i < 0 {
		return d, false
	}
	next := d.Clone()
	next.Exercises[i].Status = EntryCompleted
	next.ActiveExerciseID = NextPending(next.Exercises, &a.EntryID)
	return next, true
}

func withSet(d Draft, entryID, setID string, fn func(*Set)) (Draft, bool) {
	i := d.entryIndex(entryID)
	if i < 0 {
		return d, false
	}
	j := d.Exercises[i].setIndex(setID)
	if j < 0 {
		return d, false
	}
	next := d.Clone()
	fn(&next.Exercises[i].Sets[j])
	return next, true
}

func emptySet(id string, mt models.MeasurementType) Set {
	s := Set{ID: id}
	switch mt {
	case models.RepsOnly:
		s.Reps = models.Int(0)
	case models.Timed:
		s.Seconds = models.Int(0)
	default:
		s.Weight = models.Float64(0)
		s.Reps = models.Int(0)
	}
	return s
}

func renumber(entries []Entry) {
	for i := range entries {
		entries[i].Order = i
	}
}

func stringPtr(s string) *string { return &s }
