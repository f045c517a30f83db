package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/nextrep/internal/models"
)

// ErrNotStarted is returned by Finish when the session was never started.
var ErrNotStarted = errors.New("workout not started")

// DraftStore is the durable local slot holding the current draft.
// Load returns nil, nil when the slot is empty.
type DraftStore interface {
	Load(ctx context.Context) (*Draft, error)
	Save(ctx context.Context, d Draft) error
	Clear(ctx context.Context) error
}

// Saver persists a finished workout.
type Saver interface {
	SaveWorkout(ctx context.Context, req models.SaveWorkoutRequest) (models.SaveWorkoutResponse, error)
}

// SetToggle identifies the set flipped by TOGGLE_SET_COMPLETE.
type SetToggle struct {
	EntryID   string
	SetID     string
	Completed bool
}

// Transition describes the effect of one dispatched action.
type Transition struct {
	Action  Action
	Before  Draft
	After   Draft
	Changed bool
	// SetToggled is set when a set's completion flag flipped, so callers
	// can start a rest timer.
	SetToggled *SetToggle
	// AllDone is set when FINISH_EXERCISE left no pending entry.
	AllDone bool
}

// Session owns the current draft and writes it through a DraftStore after
// every transition. It is safe for concurrent use; actions are applied one
// at a time.
type Session struct {
	mu      sync.Mutex
	draft   Draft
	store   DraftStore
	reducer Reducer
	now     func() time.Time
	log     *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(newID func() string) SessionOption {
	return func(s *Session) { s.reducer.NewID = newID }
}

// OpenSession loads the stored draft, if any, as the starting state.
// A stored draft that is already finished is discarded, as is one that
// cannot be read.
func OpenSession(ctx context.Context, store DraftStore, log *slog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		store:   store,
		reducer: defaultReducer,
		now:     time.Now,
		log:     log,
	}
	for _, o := range opts {
		o(s)
	}

	stored, err := store.Load(ctx)
	switch {
	case err != nil:
		s.log.Warn("discarding unreadable draft", "error", err)
		s.clearSlot(ctx)
	case stored != nil && stored.Status == StatusFinished:
		s.log.Info("discarding finished draft", "draft_id", stored.ID)
		s.clearSlot(ctx)
	case stored != nil:
		s.draft = stored.Clone()
		s.log.Info("restored draft", "draft_id", stored.ID, "status", stored.Status, "exercises", len(stored.Exercises))
		return s
	}
	s.draft = NewDraft(s.reducer.newID(), s.now())
	return s
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Dispatch applies a to the current draft and persists the result. A
// failing write is logged and returned, but the transition stands.
func (s *Session) Dispatch(ctx context.Context, a Action) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.draft
	after, changed := s.reducer.apply(before, a, s.now())
	s.draft = after

	t := Transition{Action: a, Before: before.Clone(), After: after.Clone(), Changed: changed}
	if changed {
		t.SetToggled = toggled(a, after)
		if _, ok := a.(FinishExercise); ok && after.ActiveExerciseID == nil {
			t.AllDone = true
		}
	}

	if !changed {
		return t, nil
	}
	if err := s.persist(ctx, after); err != nil {
		s.log.Warn("persisting draft", "action", a.Name(), "error", err)
		return t, fmt.Errorf("persisting draft after %s: %w", a.Name(), err)
	}
	return t, nil
}

// Finish ends the session, hands the draft to saver and, once it is saved,
// clears the slot and starts a fresh draft. A draft that does not validate
// is left untouched. If saving fails the finished draft stays in memory so
// Finish can be retried, and the slot still holds the last active draft.
func (s *Session) Finish(ctx context.Context, saver Saver) (models.SaveWorkoutResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.draft
	switch next.Status {
	case StatusPlanning:
		return models.SaveWorkoutResponse{}, ErrNotStarted
	case StatusActive:
		next, _ = s.reducer.apply(next, FinishSession{}, s.now())
	}

	// An invalid payload leaves the draft active so it can still be edited.
	req := ToSaveRequest(next)
	if err := req.Validate(); err != nil {
		return models.SaveWorkoutResponse{}, err
	}
	s.draft = next
	resp, err := saver.SaveWorkout(ctx, req)
	if err != nil {
		return models.SaveWorkoutResponse{}, fmt.Errorf("saving workout: %w", err)
	}

	s.log.Info("workout saved", "draft_id", s.draft.ID, "workout_id", resp.WorkoutID)
	s.clearSlot(ctx)
	s.draft, _ = s.reducer.apply(s.draft, ResetDraft{}, s.now())
	return resp, nil
}

func (s *Session) persist(ctx context.Context, d Draft) error {
	if d.Status == StatusFinished || d.IsEmptyPlanning() {
		return s.store.Clear(ctx)
	}
	return s.store.Save(ctx, d)
}

func (s *Session) clearSlot(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("clearing draft slot", "error", err)
	}
}

func toggled(a Action, d Draft) *SetToggle {
	t, ok := a.(ToggleSetComplete)
	if !ok {
		return nil
	}
	e, ok := d.Entry(t.EntryID)
	if !ok {
		return nil
	}
	if j := e.setIndex(t.SetID); j >= 0 {
		return &SetToggle{EntryID: t.EntryID, SetID: t.SetID, Completed: e.Sets[j].Completed}
	}
	return nil
}
