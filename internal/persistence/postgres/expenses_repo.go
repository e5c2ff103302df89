package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sirimanoj/finguru/internal/persistence"
)

type expensesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *expensesRepo) Add(ctx context.Context, e persistence.Expense) (persistence.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Date == "" {
		e.Date = time.Now().UTC().Format("2006-01-02")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, amount, category, note, date)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.UserID, e.Amount, e.Category, e.Note, e.Date)
	if err != nil {
		return persistence.Expense{}, fmt.Errorf("failed to add expense: %w", err)
	}
	return e, nil
}

func (r *expensesRepo) Update(ctx context.Context, e persistence.Expense) (persistence.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount = $1, category = $2, note = $3, date = $4
		WHERE id = $5 AND user_id = $6`,
		e.Amount, e.Category, e.Note, e.Date, e.ID, e.UserID)
	if err != nil {
		return persistence.Expense{}, fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return persistence.Expense{}, persistence.ErrNotFound
	}
	return e, nil
}

func (r *expensesRepo) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *expensesRepo) List(ctx context.Context, userID string) ([]persistence.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out []persistence.Expense
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, amount, category, note, date
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return out, nil
}
