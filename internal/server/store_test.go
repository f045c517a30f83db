package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/dashboard"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/storage"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu        sync.Mutex
	users     map[string]models.User
	exercises map[uuid.UUID]models.Exercise
	workouts  map[uuid.UUID]storedWorkout
	settings  map[uuid.UUID]models.UserSettings
	logs      []storage.ImportLog
	failSave  error
}

type storedWorkout struct {
	owner  uuid.UUID
	detail models.SessionDetail
}

func newMemStore(exercises ...models.Exercise) *memStore {
	s := &memStore{
		users:     make(map[string]models.User),
		exercises: make(map[uuid.UUID]models.Exercise),
		workouts:  make(map[uuid.UUID]storedWorkout),
		settings:  make(map[uuid.UUID]models.UserSettings),
	}
	for _, e := range exercises {
		s.exercises[e.ID] = e
	}
	return s
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) GetOrCreateUser(_ context.Context, login, displayName string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[login]; ok {
		return u, nil
	}
	u := models.User{ID: uuid.New(), Login: login, DisplayName: displayName}
	s.users[login] = u
	return u, nil
}

func (s *memStore) SearchExercises(_ context.Context, f storage.ExerciseFilter) (models.Page[models.Exercise], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := models.Page[models.Exercise]{Data: []models.Exercise{}, Limit: f.Limit, Offset: f.Offset}
	for _, e := range s.exercises {
		if f.Query != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(f.Query)) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		page.Total++
		page.Data = append(page.Data, e)
	}
	return page, nil
}

func (s *memStore) CountExercises(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exercises), nil
}

func (s *memStore) GetExercise(_ context.Context, id uuid.UUID) (models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exercises[id]
	if !ok {
		return models.Exercise{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *memStore) SaveWorkout(_ context.Context, userID uuid.UUID, req models.SaveWorkoutRequest) (models.SaveWorkoutResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return models.SaveWorkoutResponse{}, s.failSave
	}

	detail := models.SessionDetail{
		ID:          uuid.New(),
		Name:        req.Name,
		CreatedAt:   time.Now(),
		StartedAt:   req.StartedAt,
		EndedAt:     req.EndedAt,
		DurationSec: req.Duration(),
	}
	detail.TotalVolume, detail.TotalSets = req.Totals()
	for i, ex := range req.Exercises {
		id := uuid.MustParse(ex.ExerciseID)
		cat, ok := s.exercises[id]
		if !ok {
			return models.SaveWorkoutResponse{}, &models.ValidationError{
				Field:  fmt.Sprintf("exercises[%d].exerciseId", i),
				Reason: "references an unknown exercise",
			}
		}
		de := models.DetailExercise{
			ID: uuid.New(), ExerciseID: id, ExerciseName: cat.Name, Category: cat.Category,
			MeasurementType: cat.MeasurementType, Order: *ex.Order, Status: ex.Status,
		}
		for _, set := range ex.Sets {
			de.Sets = append(de.Sets, models.DetailSet{ID: uuid.New(), SetIndex: *set.SetIndex, SetRecord: set.Record()})
		}
		detail.Exercises = append(detail.Exercises, de)
	}
	s.workouts[detail.ID] = storedWorkout{owner: userID, detail: detail}
	return models.SaveWorkoutResponse{
		WorkoutID:   detail.ID,
		CreatedAt:   detail.CreatedAt,
		TotalVolume: detail.TotalVolume,
		TotalSets:   detail.TotalSets,
		DurationSec: detail.DurationSec,
	}, nil
}

func (s *memStore) listItems(userID uuid.UUID) []models.SessionListItem {
	items := []models.SessionListItem{}
	for _, w := range s.workouts {
		if w.owner != userID {
			continue
		}
		d := w.detail
		items = append(items, models.SessionListItem{
			ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt, StartedAt: d.StartedAt, EndedAt: d.EndedAt,
			TotalVolume: d.TotalVolume, TotalSets: d.TotalSets, DurationSec: d.DurationSec,
			ExerciseCount: len(d.Exercises),
		})
	}
	return items
}

func (s *memStore) ListWorkouts(_ context.Context, userID uuid.UUID, limit, offset int) (models.Page[models.SessionListItem], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.listItems(userID)
	page := models.Page[models.SessionListItem]{Total: len(items), Limit: limit, Offset: offset, Data: []models.SessionListItem{}}
	if offset < len(items) {
		end := min(offset+limit, len(items))
		page.Data = items[offset:end]
	}
	return page, nil
}

func (s *memStore) GetWorkout(_ context.Context, workoutID, userID uuid.UUID) (*models.SessionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workouts[workoutID]
	if !ok || w.owner != userID {
		return nil, storage.ErrNotFound
	}
	d := w.detail
	return &d, nil
}

func (s *memStore) DeleteWorkout(_ context.Context, workoutID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workouts[workoutID]
	if !ok || w.owner != userID {
		return storage.ErrNotFound
	}
	delete(s.workouts, workoutID)
	return nil
}

func (s *memStore) GetWorkoutStats(_ context.Context, userID uuid.UUID) (models.WorkoutStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st models.WorkoutStats
	for _, it := range s.listItems(userID) {
		st.TotalWorkouts++
		st.TotalVolume += it.TotalVolume
		st.TotalSets += it.TotalSets
	}
	return st, nil
}

func (s *memStore) GetTrainingSummary(_ context.Context, userID uuid.UUID, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.TrainingSummaryPeriod{Period: bucket}
	for _, it := range s.listItems(userID) {
		if d := it.Date(); d.Before(start) || !d.Before(end) {
			continue
		}
		p.Sessions++
		p.CompletedSets += it.TotalSets
		p.Volume += it.TotalVolume
	}
	if p.Sessions == 0 {
		return []models.TrainingSummaryPeriod{}, nil
	}
	return []models.TrainingSummaryPeriod{p}, nil
}

func (s *memStore) ExerciseHistory(_ context.Context, userID, exerciseID uuid.UUID) (models.MeasurementType, []models.HistorySet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, ok := s.exercises[exerciseID]
	if !ok {
		return "", nil, storage.ErrNotFound
	}
	var history []models.HistorySet
	for _, w := range s.workouts {
		if w.owner != userID {
			continue
		}
		for _, ex := range w.detail.Exercises {
			if ex.ExerciseID != exerciseID {
				continue
			}
			for _, set := range ex.Sets {
				history = append(history, models.HistorySet{
					WorkoutID:   w.detail.ID.String(),
					SessionDate: w.detail.Date(),
					SetIndex:    set.SetIndex,
					SetRecord:   set.SetRecord,
				})
			}
		}
	}
	return cat.MeasurementType, history, nil
}

func (s *memStore) HomeSnapshot(_ context.Context, userID uuid.UUID) (dashboard.Input, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := dashboard.Input{Sessions: s.listItems(userID)}
	for _, w := range s.workouts {
		if w.owner != userID {
			continue
		}
		d := w.detail
		switch {
		case in.Latest == nil || d.Date().After(in.Latest.Date()):
			in.Previous, in.Latest = in.Latest, &d
		case in.Previous == nil || d.Date().After(in.Previous.Date()):
			in.Previous = &d
		}
	}
	return in, nil
}

func (s *memStore) ListUsedExercises(_ context.Context, userID uuid.UUID) ([]models.UsedExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := make(map[uuid.UUID]*models.UsedExercise)
	out := []models.UsedExercise{}
	for _, w := range s.workouts {
		if w.owner != userID {
			continue
		}
		for _, ex := range w.detail.Exercises {
			u, ok := byID[ex.ExerciseID]
			if !ok {
				u = &models.UsedExercise{ExerciseID: ex.ExerciseID, Name: ex.ExerciseName, MeasurementType: ex.MeasurementType}
				byID[ex.ExerciseID] = u
			}
			u.UsageCount++
			if d := w.detail.Date(); d.After(u.LastUsedAt) {
				u.LastUsedAt = d
			}
		}
	}
	for _, u := range byID {
		out = append(out, *u)
	}
	return out, nil
}

func (s *memStore) GetSettings(_ context.Context, userID uuid.UUID) (models.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.settings[userID]; ok {
		return st, nil
	}
	return models.UserSettings{Units: "kg"}, nil
}

func (s *memStore) UpdateSettings(_ context.Context, userID uuid.UUID, p models.SettingsPatch) (models.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		st.Units = "kg"
	}
	if p.Units != nil {
		st.Units = *p.Units
	}
	if p.Goal != nil {
		st.Goal = p.Goal
	}
	if p.ExperienceLevel != nil {
		st.ExperienceLevel = p.ExperienceLevel
	}
	if p.HeightCm != nil {
		st.HeightCm = p.HeightCm
	}
	if p.WeightKg != nil {
		st.WeightKg = p.WeightKg
	}
	if p.Age != nil {
		st.Age = p.Age
	}
	s.settings[userID] = st
	return st, nil
}

func (s *memStore) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, log)
	return log.ID, nil
}

func (s *memStore) QueryImportLogs(_ context.Context, userID uuid.UUID, limit int) ([]storage.ImportLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []storage.ImportLog{}
	for _, l := range s.logs {
		if l.UserID != nil && *l.UserID == userID && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

// Alpha import support.

func (s *memStore) FindOrCreateExercise(_ context.Context, name string, mt models.MeasurementType) (models.Exercise, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.exercises {
		if strings.EqualFold(e.Name, name) {
			return e, false, nil
		}
	}
	e := models.Exercise{ID: uuid.New(), Name: name, Source: models.SourceCustom, MeasurementType: mt}
	s.exercises[e.ID] = e
	return e, true, nil
}

func (s *memStore) WorkoutExists(_ context.Context, userID uuid.UUID, name string, startedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workouts {
		if w.owner == userID && w.detail.Name == name && w.detail.StartedAt != nil && w.detail.StartedAt.Equal(startedAt) {
			return true, nil
		}
	}
	return false, nil
}
