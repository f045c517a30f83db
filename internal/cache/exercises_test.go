package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/nextrep/internal/models"
)

var errMissing = errors.New("missing")

type countingSource struct {
	calls int
	data  map[uuid.UUID]models.Exercise
}

func (s *countingSource) GetExercise(_ context.Context, id uuid.UUID) (models.Exercise, error) {
	s.calls++
	e, ok := s.data[id]
	if !ok {
		return models.Exercise{}, errMissing
	}
	return e, nil
}

func TestExercisesReadThrough(t *testing.T) {
	id := uuid.New()
	src := &countingSource{data: map[uuid.UUID]models.Exercise{
		id: {ID: id, Name: "Deadlift", Category: "Back", MeasurementType: models.WeightReps},
	}}
	c := NewExercises(src, 1, 60, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	first, err := c.GetExercise(ctx, id)
	require.NoError(t, err)
	second, err := c.GetExercise(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Deadlift", second.Name)
	assert.Equal(t, 1, src.calls, "second read is served from cache")
	assert.EqualValues(t, 1, c.Len())

	c.Invalidate()
	_, err = c.GetExercise(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestExercisesDoesNotCacheErrors(t *testing.T) {
	src := &countingSource{}
	c := NewExercises(src, 1, 60, slog.New(slog.NewTextHandler(io.Discard, nil)))
	id := uuid.New()

	_, err := c.GetExercise(context.Background(), id)
	assert.ErrorIs(t, err, errMissing)
	_, err = c.GetExercise(context.Background(), id)
	assert.ErrorIs(t, err, errMissing)
	assert.Equal(t, 2, src.calls)
	assert.Zero(t, c.Len())
}
