package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/nextrep/internal/models"
)

// ExerciseFilter narrows a catalog search. Query matches names
// case-insensitively as a substring; Category matches exactly, ignoring case.
type ExerciseFilter struct {
	Query    string
	Category string
	Limit    int
	Offset   int
}

const exerciseColumns = `id, source::text, COALESCE(source_id, ''), name, description, how_to,
	primary_muscles, secondary_muscles, equipment, category, measurement_type::text`

func scanExercise(row pgx.Row) (models.Exercise, error) {
	var (
		e  models.Exercise
		mt string
	)
	err := row.Scan(&e.ID, &e.Source, &e.SourceID, &e.Name, &e.Description, &e.HowTo,
		&e.PrimaryMuscles, &e.SecondaryMuscles, &e.Equipment, &e.Category, &mt)
	if err != nil {
		return e, err
	}
	e.MeasurementType = models.ParseMeasurementType(mt)
	return e, nil
}

// SearchExercises returns one page of catalog entries ordered by name.
func (db *DB) SearchExercises(ctx context.Context, f ExerciseFilter) (models.Page[models.Exercise], error) {
	page := models.Page[models.Exercise]{Data: []models.Exercise{}, Limit: f.Limit, Offset: f.Offset}

	var (
		conds []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		args = append(args, c)
		conds = append(conds, fmt.Sprintf("category ILIKE $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	err := db.snapshot(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*)::int FROM exercises`+where, args...).Scan(&page.Total); err != nil {
			return fmt.Errorf("counting exercises: %w", err)
		}

		n := len(args)
		rows, err := tx.Query(ctx,
			`SELECT `+exerciseColumns+` FROM exercises`+where+
				fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", n+1, n+2),
			append(args, f.Limit, f.Offset)...)
		if err != nil {
			return fmt.Errorf("querying exercises: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanExercise(rows)
			if err != nil {
				return fmt.Errorf("scanning exercise: %w", err)
			}
			page.Data = append(page.Data, e)
		}
		return rows.Err()
	})
	return page, err
}

// GetExercise returns one catalog entry.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID) (models.Exercise, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("querying exercise %s: %w", id, err)
	}
	return e, nil
}

// CountExercises returns the catalog size.
func (db *DB) CountExercises(ctx context.Context) (int, error) {
	var n int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*)::int FROM exercises`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting exercises: %w", err)
	}
	return n, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// UpsertExercises inserts or refreshes catalog entries keyed by
// (source, source_id). Returns the number of rows written.
func (db *DB) UpsertExercises(ctx context.Context, exercises []models.Exercise) (int64, error) {
	if len(exercises) == 0 {
		return 0, nil
	}

	query := `INSERT INTO exercises (source, source_id, name, description, how_to,
		primary_muscles, secondary_muscles, equipment, category, measurement_type) VALUES `
	args := make([]any, 0, len(exercises)*10)
	valueStrings := make([]string, 0, len(exercises))

	for i, e := range exercises {
		base := i * 10
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d::exercise_source,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d::measurement_type)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		source := e.Source
		if source == "" {
			source = models.SourceWger
		}
		args = append(args, source, e.SourceID, e.Name, e.Description, e.HowTo,
			orEmpty(e.PrimaryMuscles), orEmpty(e.SecondaryMuscles), orEmpty(e.Equipment),
			e.Category, string(models.ParseMeasurementType(string(e.MeasurementType))))
	}

	query += strings.Join(valueStrings, ",") + `
		ON CONFLICT (source, source_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			how_to = EXCLUDED.how_to,
			primary_muscles = EXCLUDED.primary_muscles,
			secondary_muscles = EXCLUDED.secondary_muscles,
			equipment = EXCLUDED.equipment,
			category = EXCLUDED.category,
			measurement_type = EXCLUDED.measurement_type,
			updated_at = NOW()`

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("upserting exercises: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FindOrCreateExercise resolves a name against the catalog, ignoring case.
// Unknown names become custom entries of the given type. created reports
// whether a new entry was added.
func (db *DB) FindOrCreateExercise(ctx context.Context, name string, mt models.MeasurementType) (e models.Exercise, created bool, err error) {
	name = strings.TrimSpace(name)
	e, err = scanExercise(db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE lower(name) = lower($1)
		 ORDER BY source ASC
		 LIMIT 1`,
		name))
	if err == nil {
		return e, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return e, false, fmt.Errorf("looking up exercise %q: %w", name, err)
	}

	e, err = scanExercise(db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (source, source_id, name, measurement_type)
		 VALUES ('custom', $1, $2, $3::measurement_type)
		 ON CONFLICT (source, source_id) DO UPDATE SET updated_at = NOW()
		 RETURNING `+exerciseColumns,
		strings.ToLower(name), name, string(mt)))
	if err != nil {
		return e, false, fmt.Errorf("creating exercise %q: %w", name, err)
	}
	return e, true, nil
}
