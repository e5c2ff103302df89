package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sirimanoj/finguru/internal/persistence"
)

type goalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *goalsRepo) Add(ctx context.Context, g persistence.SavingsGoal) (persistence.SavingsGoal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if g.ID == "" {
		g.ID = uuid.New().String()
	}

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO savings_goals (id, user_id, title, target_amount, current_amount, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		g.ID, g.UserID, g.Title, g.TargetAmount, g.CurrentAmount, g.Deadline).
		Scan(&g.CreatedAt)
	if err != nil {
		return persistence.SavingsGoal{}, fmt.Errorf("failed to add savings goal: %w", err)
	}
	return g, nil
}

func (r *goalsRepo) Update(ctx context.Context, g persistence.SavingsGoal) (persistence.SavingsGoal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE savings_goals
		SET title = $1, target_amount = $2, current_amount = $3, deadline = $4
		WHERE id = $5 AND user_id = $6`,
		g.Title, g.TargetAmount, g.CurrentAmount, g.Deadline, g.ID, g.UserID)
	if err != nil {
		return persistence.SavingsGoal{}, fmt.Errorf("failed to update savings goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return persistence.SavingsGoal{}, persistence.ErrNotFound
	}
	return g, nil
}

func (r *goalsRepo) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM savings_goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete savings goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *goalsRepo) List(ctx context.Context, userID string) ([]persistence.SavingsGoal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out []persistence.SavingsGoal
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, title, target_amount, current_amount, deadline, created_at
		FROM savings_goals
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings goals: %w", err)
	}
	return out, nil
}
