package dashboard

import (
	"strings"

	"github.com/claude/nextrep/internal/models"
)

// Focus is the suggested theme for today's session.
type Focus struct {
	Name              string  `json:"name"`
	Subline           string  `json:"subline"`
	SuggestedCategory *string `json:"suggestedCategory"`
}

type muscleGroup struct {
	categories map[string]bool
	fragments  []string
}

func (g muscleGroup) matches(cats map[string]bool) bool {
	for c := range cats {
		if g.categories[c] {
			return true
		}
		for _, f := range g.fragments {
			if strings.Contains(c, f) {
				return true
			}
		}
	}
	return false
}

var (
	pushGroup = muscleGroup{
		categories: map[string]bool{"chest": true, "shoulders": true, "triceps": true, "arms": true},
		fragments:  []string{"chest", "shoulder"},
	}
	pullGroup = muscleGroup{
		categories: map[string]bool{"back": true, "biceps": true},
		fragments:  []string{"back", "bicep"},
	}
	legGroup = muscleGroup{
		categories: map[string]bool{"legs": true, "calves": true, "quadriceps": true, "hamstrings": true, "glutes": true},
		fragments:  []string{"leg", "calf"},
	}
)

func suggest(name, subline, category string) Focus {
	f := Focus{Name: name, Subline: subline}
	if category != "" {
		f.SuggestedCategory = &category
	}
	return f
}

// TodayFocus rotates push → pull → legs → push based on the categories of
// the latest session. With no history, a stale last session, or categories
// that fit no group it suggests a full-body session.
func TodayFocus(count int, latest *models.SessionDetail, daysSince, recentDays int) Focus {
	if count == 0 || (latest == nil && daysSince <= recentDays) {
		return suggest("Full Body", "Build your base", "")
	}
	if daysSince > recentDays {
		return suggest("Full Body", "Get back on track", "")
	}

	cats := make(map[string]bool)
	for _, ex := range latest.Exercises {
		if c := strings.ToLower(strings.TrimSpace(ex.Category)); c != "" {
			cats[c] = true
		}
	}

	switch {
	case pushGroup.matches(cats):
		return suggest("Pull Day", "Back · Biceps", "Back")
	case pullGroup.matches(cats):
		return suggest("Leg Day", "Legs · Calves", "Legs")
	case legGroup.matches(cats):
		return suggest("Push Day", "Chest · Shoulders · Triceps", "Chest")
	}
	return suggest("Full Body", "Balanced session", "")
}
