package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Sirimanoj/finguru/internal/domain/gamification"
	"github.com/Sirimanoj/finguru/internal/persistence"
)

type settingsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *settingsRepo) Get(ctx context.Context, userID string) (persistence.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var s persistence.Settings
	err := r.db.GetContext(ctx, &s, `
		SELECT user_id, theme, notifications, preferred_avatar, currency, monthly_budget_goal
		FROM settings WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Settings{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

func (r *settingsRepo) Upsert(ctx context.Context, s persistence.Settings) (persistence.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if s.Currency == "" {
		s.Currency = "USD"
	}

	query := `
		INSERT INTO settings (user_id, theme, notifications, preferred_avatar, currency, monthly_budget_goal)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			theme = EXCLUDED.theme,
			notifications = EXCLUDED.notifications,
			preferred_avatar = EXCLUDED.preferred_avatar,
			currency = EXCLUDED.currency,
			monthly_budget_goal = EXCLUDED.monthly_budget_goal`

	_, err := r.db.ExecContext(ctx, query,
		s.UserID, s.Theme, s.Notifications, s.PreferredAvatar, s.Currency, s.MonthlyBudgetGoal)
	if err != nil {
		return persistence.Settings{}, fmt.Errorf("failed to upsert settings: %w", err)
	}
	return s, nil
}

type notificationLogRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// MarkSent relies on the primary key for once-per-day semantics: the
// insert is a no-op when the marker row already exists.
func (r *notificationLogRepo) MarkSent(ctx context.Context, userID string, kind persistence.NotificationKind, day gamification.DateKey) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_log (user_id, kind, sent_on)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		userID, string(kind), string(day))
	if err != nil {
		return false, fmt.Errorf("failed to mark notification sent: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *notificationLogRepo) WasSent(ctx context.Context, userID string, kind persistence.NotificationKind, day gamification.DateKey) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT count(*) FROM notification_log
		WHERE user_id = $1 AND kind = $2 AND sent_on = $3`,
		userID, string(kind), string(day))
	if err != nil {
		return false, fmt.Errorf("failed to check notification log: %w", err)
	}
	return count > 0, nil
}
