// Package ingest holds the types shared by history importers.
package ingest

// Result holds the outcome of an import.
type Result struct {
	SessionsReceived int      `json:"sessionsReceived"`
	SessionsSaved    int      `json:"sessionsSaved"`
	SessionsSkipped  int      `json:"sessionsSkipped"`
	SetsSaved        int      `json:"setsSaved"`
	ExercisesCreated []string `json:"exercisesCreated,omitempty"`
	Message          string   `json:"message,omitempty"`
}
