package storage

import (
	"context"
	"fmt"

	"github.com/claude/nextrep/internal/models"
)

// GetOrCreateUser finds or creates a user by login name. Updates last_seen
// and display_name on each call.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (models.User, error) {
	u := models.User{Login: login}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id, display_name
	`, login, displayName).Scan(&u.ID, &u.DisplayName)
	if err != nil {
		return models.User{}, fmt.Errorf("upserting user %q: %w", login, err)
	}
	return u, nil
}
