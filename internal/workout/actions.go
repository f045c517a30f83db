package workout

// Action is one of the closed set of draft transitions defined in this
// package.
type Action interface {
	// Name is the action's wire name, e.g. "FINISH_EXERCISE".
	Name() string
	isAction()
}

// SetField names the set field UpdateSet writes.
type SetField string

const (
	FieldWeight  SetField = "weight"
	FieldReps    SetField = "reps"
	FieldSeconds SetField = "seconds"
)

type (
	SetName struct{ Value string }

	AddExercise struct{ Exercise CatalogExercise }

	RemoveExercise struct{ EntryID string }

	// ReorderExercises moves the entry at From to position To.
	ReorderExercises struct{ From, To int }

	AddSet struct{ EntryID string }

	UpdateSet struct {
		EntryID string
		SetID   string
		Field   SetField
		Value   float64
	}

	ToggleSetComplete struct{ EntryID, SetID string }

	RemoveSet struct{ EntryID, SetID string }

	StartSession struct{}

	FinishExercise struct{ EntryID string }

	RestoreExercise struct{ EntryID string }

	SetActiveExercise struct{ EntryID string }

	FinishSession struct{}

	ResetDraft struct{}
)

func (SetName) Name() string           { return "SET_NAME" }
func (AddExercise) Name() string       { return "ADD_EXERCISE" }
func (RemoveExercise) Name() string    { return "REMOVE_EXERCISE" }
func (ReorderExercises) Name() string  { return "REORDER_EXERCISES" }
func (AddSet) Name() string            { return "ADD_SET" }
func (UpdateSet) Name() string         { return "UPDATE_SET" }
func (ToggleSetComplete) Name() string { return "TOGGLE_SET_COMPLETE" }
func (RemoveSet) Name() string         { return "REMOVE_SET" }
func (StartSession) Name() string      { return "START_SESSION" }
func (FinishExercise) Name() string    { return "FINISH_EXERCISE" }
func (RestoreExercise) Name() string   { return "RESTORE_EXERCISE" }
func (SetActiveExercise) Name() string { return "SET_ACTIVE_EXERCISE" }
func (FinishSession) Name() string     { return "FINISH_SESSION" }
func (ResetDraft) Name() string        { return "RESET_DRAFT" }

func (SetName) isAction()           {}
func (AddExercise) isAction()       {}
func (RemoveExercise) isAction()    {}
func (ReorderExercises) isAction()  {}
func (AddSet) isAction()            {}
func (UpdateSet) isAction()         {}
func (ToggleSetComplete) isAction() {}
func (RemoveSet) isAction()         {}
func (StartSession) isAction()      {}
func (FinishExercise) isAction()    {}
func (RestoreExercise) isAction()   {}
func (SetActiveExercise) isAction() {}
func (FinishSession) isAction()     {}
func (ResetDraft) isAction()        {}
