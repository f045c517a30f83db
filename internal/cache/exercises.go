// Package cache keeps recently read catalog entries in memory.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/coocood/freecache"
	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/observability"
)

const megabyte = 1024 * 1024

// ExerciseSource loads catalog entries on a cache miss.
type ExerciseSource interface {
	GetExercise(ctx context.Context, id uuid.UUID) (models.Exercise, error)
}

// Exercises is a read-through cache in front of an ExerciseSource. Catalog
// entries change only when the catalog is re-imported, so entries live for
// the configured TTL.
type Exercises struct {
	cache  *freecache.Cache
	source ExerciseSource
	ttl    int
	log    *slog.Logger
}

// NewExercises creates a cache of sizeMB megabytes whose entries expire
// after ttlSeconds.
func NewExercises(source ExerciseSource, sizeMB, ttlSeconds int, log *slog.Logger) *Exercises {
	if sizeMB <= 0 {
		sizeMB = 16
	}
	return &Exercises{
		cache:  freecache.NewCache(sizeMB * megabyte),
		source: source,
		ttl:    ttlSeconds,
		log:    log,
	}
}

func key(id uuid.UUID) []byte {
	return []byte("exercise::" + id.String())
}

// GetExercise returns the cached entry or loads and caches it. Errors from
// the source, including not-found, are returned unchanged and not cached.
func (c *Exercises) GetExercise(ctx context.Context, id uuid.UUID) (models.Exercise, error) {
	if b, err := c.cache.Get(key(id)); err == nil {
		var e models.Exercise
		if err := json.Unmarshal(b, &e); err == nil {
			observability.RecordCacheLookup(true)
			return e, nil
		}
		c.log.Warn("dropping undecodable cache entry", "exercise_id", id, "error", err)
		c.cache.Del(key(id))
	}
	observability.RecordCacheLookup(false)

	e, err := c.source.GetExercise(ctx, id)
	if err != nil {
		return e, err
	}
	b, err := json.Marshal(e)
	if err != nil {
		return e, nil
	}
	if err := c.cache.Set(key(id), b, c.ttl); err != nil {
		c.log.Warn("caching exercise failed", "exercise_id", id, "error", err)
	}
	return e, nil
}

// Invalidate drops every cached entry.
func (c *Exercises) Invalidate() {
	c.cache.Clear()
}

// Len returns the number of cached entries.
func (c *Exercises) Len() int64 {
	return c.cache.EntryCount()
}
