package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Sirimanoj/finguru/internal/persistence"
)

type usersRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *usersRepo) Upsert(ctx context.Context, p persistence.Profile) (persistence.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO users (id, email, display_name, avatar_style, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			avatar_style = EXCLUDED.avatar_style,
			avatar_url = EXCLUDED.avatar_url
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.Email, p.DisplayName, p.AvatarStyle, p.AvatarURL).
		Scan(&p.CreatedAt)
	if err != nil {
		return persistence.Profile{}, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return p, nil
}

func (r *usersRepo) Get(ctx context.Context, userID string) (persistence.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var p persistence.Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, email, display_name, avatar_style, avatar_url, created_at
		FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Profile{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (r *usersRepo) ListIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}

type avatarsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *avatarsRepo) List(ctx context.Context) ([]persistence.Avatar, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out []persistence.Avatar
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, name, bio, image_url FROM avatar_library ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list avatars: %w", err)
	}
	return out, nil
}
