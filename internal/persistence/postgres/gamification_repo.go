package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Sirimanoj/finguru/internal/domain/gamification"
	"github.com/Sirimanoj/finguru/internal/persistence"
)

type gamificationRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *gamificationRepo) Get(ctx context.Context, userID string) (persistence.GamificationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT user_id, xp, streak, last_check_in, badges, updated_at
		FROM gamification_state
		WHERE user_id = $1`

	var (
		rec         persistence.GamificationRecord
		lastCheckIn sql.NullString
		badgesJSON  []byte
	)
	err := r.db.QueryRowxContext(ctx, query, userID).
		Scan(&rec.UserID, &rec.State.XP, &rec.State.Streak, &lastCheckIn, &badgesJSON, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.GamificationRecord{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.GamificationRecord{}, fmt.Errorf("failed to get gamification state: %w", err)
	}

	if lastCheckIn.Valid {
		rec.State.LastCheckIn = gamification.DateKey(lastCheckIn.String)
	}
	var stored []gamification.Badge
	if err := json.Unmarshal(badgesJSON, &stored); err != nil {
		return persistence.GamificationRecord{}, fmt.Errorf("failed to unmarshal badges: %w", err)
	}
	// carry unlocks forward onto the current catalog
	rec.State.Badges = gamification.MergeCatalog(stored)
	return rec, nil
}

func (r *gamificationRepo) Upsert(ctx context.Context, rec persistence.GamificationRecord) (persistence.GamificationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	badgesJSON, err := json.Marshal(rec.State.Badges)
	if err != nil {
		return persistence.GamificationRecord{}, fmt.Errorf("failed to marshal badges: %w", err)
	}

	var lastCheckIn interface{}
	if rec.State.LastCheckIn != "" {
		lastCheckIn = string(rec.State.LastCheckIn)
	}

	query := `
		INSERT INTO gamification_state (user_id, xp, streak, last_check_in, badges, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET
			xp = EXCLUDED.xp,
			streak = EXCLUDED.streak,
			last_check_in = EXCLUDED.last_check_in,
			badges = EXCLUDED.badges,
			updated_at = now()
		RETURNING updated_at`

	err = r.db.QueryRowxContext(ctx, query,
		rec.UserID, rec.State.XP, rec.State.Streak, lastCheckIn, badgesJSON).
		Scan(&rec.UpdatedAt)
	if err != nil {
		return persistence.GamificationRecord{}, fmt.Errorf("failed to upsert gamification state: %w", err)
	}
	return rec, nil
}
