// Package workout implements the client-side workout draft: a reducer over
// an explicit Draft value, the metrics shown while training, and a Session
// that persists the draft after every transition.
package workout

import (
	"fmt"
	"time"

	"github.com/claude/nextrep/internal/models"
)

// Status is the life-phase of a draft.
type Status string

const (
	StatusPlanning Status = "planning"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// EntryStatus is the completion state of one exercise entry.
type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryCompleted EntryStatus = "completed"
)

// Draft is the in-progress workout. It is a plain value: every transition
// produces a new Draft and never aliases the slices of the previous one.
type Draft struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Status           Status     `json:"status"`
	StartedAt        *time.Time `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt"`
	ActiveExerciseID *string    `json:"activeExerciseId"`
	Exercises        []Entry    `json:"exercises"`
}

// Entry is one exercise within a draft. ID is local to the draft;
// ExerciseID references the catalog.
type Entry struct {
	ID              string                 `json:"id"`
	ExerciseID      string                 `json:"exerciseId"`
	ExerciseName    string                 `json:"exerciseName"`
	Category        string                 `json:"category,omitempty"`
	MeasurementType models.MeasurementType `json:"measurementType"`
	Order           int                    `json:"order"`
	Status          EntryStatus            `json:"status"`
	Sets            []Set                  `json:"sets"`
}

// Set is one logged set. Which fields matter depends on the entry's
// measurement type.
type Set struct {
	ID        string   `json:"id"`
	Weight    *float64 `json:"weight"`
	Reps      *int     `json:"reps"`
	Seconds   *int     `json:"seconds"`
	Completed bool     `json:"completed"`
}

// Record returns the set's measurement fields.
func (s Set) Record() models.SetRecord {
	return models.SetRecord{Weight: s.Weight, Reps: s.Reps, Seconds: s.Seconds, Completed: s.Completed}
}

// CatalogExercise is what ADD_EXERCISE needs to know about a catalog item.
type CatalogExercise struct {
	ID              string
	Name            string
	Category        string
	MeasurementType models.MeasurementType
}

// NewDraft returns an empty planning draft named after the weekday of now.
func NewDraft(id string, now time.Time) Draft {
	return Draft{
		ID:        id,
		Name:      DefaultName(now),
		Status:    StatusPlanning,
		Exercises: []Entry{},
	}
}

// DefaultName is the name a fresh draft gets, e.g. "Workout — Monday".
func DefaultName(now time.Time) string {
	return fmt.Sprintf("Workout — %s", now.Weekday())
}

// Entry returns the entry with the given draft-local id.
func (d Draft) Entry(id string) (Entry, bool) {
	if i := d.entryIndex(id); i >= 0 {
		return d.Exercises[i], true
	}
	return Entry{}, false
}

// Active returns the active entry, if any.
func (d Draft) Active() (Entry, bool) {
	if d.ActiveExerciseID == nil {
		return Entry{}, false
	}
	return d.Entry(*d.ActiveExerciseID)
}

// IsEmptyPlanning reports whether the draft holds nothing worth keeping.
func (d Draft) IsEmptyPlanning() bool {
	return d.Status == StatusPlanning && len(d.Exercises) == 0
}

func (d Draft) entryIndex(id string) int {
	for i := range d.Exercises {
		if d.Exercises[i].ID == id {
			return i
		}
	}
	return -1
}

func (e Entry) setIndex(id string) int {
	for i := range e.Sets {
		if e.Sets[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	c := d
	c.StartedAt = cloneTime(d.StartedAt)
	c.EndedAt = cloneTime(d.EndedAt)
	if d.ActiveExerciseID != nil {
		id := *d.ActiveExerciseID
		c.ActiveExerciseID = &id
	}
	c.Exercises = make([]Entry, len(d.Exercises))
	for i, e := range d.Exercises {
		c.Exercises[i] = e.clone()
	}
	return c
}

func (e Entry) clone() Entry {
	c := e
	c.Sets = make([]Set, len(e.Sets))
	for i, s := range e.Sets {
		c.Sets[i] = s.clone()
	}
	return c
}

func (s Set) clone() Set {
	c := s
	if s.Weight != nil {
		w := *s.Weight
		c.Weight = &w
	}
	if s.Reps != nil {
		r := *s.Reps
		c.Reps = &r
	}
	if s.Seconds != nil {
		sec := *s.Seconds
		c.Seconds = &sec
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
