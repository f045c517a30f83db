package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/models"
)

// GetSettings returns the user's profile. Users without a stored profile
// get the defaults (kg, nothing else set).
func (db *DB) GetSettings(ctx context.Context, userID uuid.UUID) (models.UserSettings, error) {
	return getSettings(ctx, db.Pool, userID)
}

func getSettings(ctx context.Context, q querier, userID uuid.UUID) (models.UserSettings, error) {
	s := models.UserSettings{Units: "kg"}
	rows, err := q.Query(ctx,
		`SELECT units::text, experience_level, goal, height_cm::float8, weight_kg::float8, age
		 FROM user_profiles
		 WHERE user_id = $1`,
		userID)
	if err != nil {
		return s, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&s.Units, &s.ExperienceLevel, &s.Goal, &s.HeightCm, &s.WeightKg, &s.Age); err != nil {
			return s, fmt.Errorf("scanning settings: %w", err)
		}
	}
	return s, rows.Err()
}

// UpdateSettings applies a validated patch and returns the resulting
// profile. Fields left nil keep their stored value.
func (db *DB) UpdateSettings(ctx context.Context, userID uuid.UUID, p models.SettingsPatch) (models.UserSettings, error) {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, units, experience_level, goal, height_cm, weight_kg, age)
		 VALUES ($1, COALESCE($2, 'kg')::units, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
			units = COALESCE($2::units, user_profiles.units),
			experience_level = COALESCE($3, user_profiles.experience_level),
			goal = COALESCE($4, user_profiles.goal),
			height_cm = COALESCE($5, user_profiles.height_cm),
			weight_kg = COALESCE($6, user_profiles.weight_kg),
			age = COALESCE($7, user_profiles.age),
			updated_at = NOW()`,
		userID, p.Units, p.ExperienceLevel, p.Goal, p.HeightCm, p.WeightKg, p.Age)
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("updating settings: %w", err)
	}
	return db.GetSettings(ctx, userID)
}
