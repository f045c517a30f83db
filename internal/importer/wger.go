package importer

import (
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/nextrep/internal/models"
)

// englishLanguageID is wger's language ID for English translations.
const englishLanguageID = 2

// wgerPage is one page of the exerciseinfo endpoint.
type wgerPage struct {
	Count   int                `json:"count"`
	Next    *string            `json:"next"`
	Results []wgerExerciseInfo `json:"results"`
}

type wgerExerciseInfo struct {
	ID               int               `json:"id"`
	UUID             string            `json:"uuid"`
	Category         *wgerNamed        `json:"category"`
	Muscles          []wgerMuscle      `json:"muscles"`
	MusclesSecondary []wgerMuscle      `json:"muscles_secondary"`
	Equipment        []wgerNamed       `json:"equipment"`
	Translations     []wgerTranslation `json:"translations"`
}

type wgerNamed struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type wgerMuscle struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	NameEn string `json:"name_en"`
}

type wgerTranslation struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    int    `json:"language"`
}

// decodePage accepts either a paginated response or a bare result array.
func decodePage(data []byte) (wgerPage, error) {
	var page wgerPage
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		err := json.Unmarshal(data, &page.Results)
		page.Count = len(page.Results)
		return page, err
	}
	err := json.Unmarshal(data, &page)
	return page, err
}

var categoryNames = map[string]string{
	"Arms":       "Arms",
	"Legs":       "Legs",
	"Abs":        "Core",
	"Chest":      "Chest",
	"Back":       "Back",
	"Shoulders":  "Shoulders",
	"Calves":     "Legs",
	"Cardio":     "Cardio",
	"Stretching": "Stretching",
}

func mapCategory(name string) string {
	if c, ok := categoryNames[name]; ok {
		return c
	}
	return name
}

var (
	timedPattern   = regexp.MustCompile(`\b(plank|hold|wall sit|l-sit|dead hang)\b`)
	absRepsPattern = regexp.MustCompile(`\b(crunch|sit.?up|leg raise|flutter|bicycle|v.?up)\b`)
	repsPattern    = regexp.MustCompile(`\b(push.?up|pull.?up|chin.?up|dip|muscle.?up|burpee|jumping jack)\b`)
)

// inferMeasurement guesses how an exercise is logged from its name and wger
// category. Holds are timed, bodyweight movements count reps only, and
// everything else is weight × reps.
func inferMeasurement(name, category string) models.MeasurementType {
	n := strings.ToLower(name)
	if timedPattern.MatchString(n) {
		return models.Timed
	}
	c := strings.ToLower(category)
	if (c == "abs" || c == "abdominals") && absRepsPattern.MatchString(n) {
		return models.RepsOnly
	}
	if repsPattern.MatchString(n) {
		return models.RepsOnly
	}
	return models.WeightReps
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

func stripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

func muscleNames(ms []wgerMuscle) []string {
	var out []string
	for _, m := range ms {
		name := m.NameEn
		if name == "" {
			name = m.Name
		}
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// toExercise converts one wger entry. Entries without an English name are
// skipped.
func toExercise(info wgerExerciseInfo) (models.Exercise, bool) {
	var en *wgerTranslation
	for i := range info.Translations {
		if info.Translations[i].Language == englishLanguageID {
			en = &info.Translations[i]
			break
		}
	}
	if en == nil || strings.TrimSpace(en.Name) == "" {
		return models.Exercise{}, false
	}

	name := strings.TrimSpace(en.Name)
	catName := "Other"
	if info.Category != nil && info.Category.Name != "" {
		catName = info.Category.Name
	}

	var equipment []string
	for _, e := range info.Equipment {
		if e.Name != "" {
			equipment = append(equipment, e.Name)
		}
	}

	return models.Exercise{
		Source:           models.SourceWger,
		SourceID:         strconv.Itoa(info.ID),
		Name:             name,
		Description:      stripHTML(en.Description),
		PrimaryMuscles:   muscleNames(info.Muscles),
		SecondaryMuscles: muscleNames(info.MusclesSecondary),
		Equipment:        equipment,
		Category:         mapCategory(catName),
		MeasurementType:  inferMeasurement(name, catName),
	}, true
}
