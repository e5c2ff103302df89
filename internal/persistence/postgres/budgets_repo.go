package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sirimanoj/finguru/internal/domain/budget"
	"github.com/Sirimanoj/finguru/internal/persistence"
)

type budgetsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *budgetsRepo) Get(ctx context.Context, userID string, month budget.MonthKey) (persistence.BudgetRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, user_id, month, income, savings_goal, fixed_expenses, variable_expenses, created_at, updated_at
		FROM monthly_budgets
		WHERE user_id = $1 AND month = $2`

	row := r.db.QueryRowxContext(ctx, query, userID, string(month))
	return scanBudget(row)
}

// Upsert inserts or updates the single row for (user, month).
func (r *budgetsRepo) Upsert(ctx context.Context, rec persistence.BudgetRecord) (persistence.BudgetRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if !rec.Month.Valid() {
		return persistence.BudgetRecord{}, fmt.Errorf("invalid month key: %q", rec.Month)
	}

	fixedJSON, err := json.Marshal(orEmpty(rec.FixedExpenses))
	if err != nil {
		return persistence.BudgetRecord{}, fmt.Errorf("failed to marshal fixed expenses: %w", err)
	}
	variableJSON, err := json.Marshal(orEmpty(rec.VariableExpenses))
	if err != nil {
		return persistence.BudgetRecord{}, fmt.Errorf("failed to marshal variable expenses: %w", err)
	}

	query := `
		INSERT INTO monthly_budgets (id, user_id, month, income, savings_goal, fixed_expenses, variable_expenses)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, month) DO UPDATE SET
			income = EXCLUDED.income,
			savings_goal = EXCLUDED.savings_goal,
			fixed_expenses = EXCLUDED.fixed_expenses,
			variable_expenses = EXCLUDED.variable_expenses,
			updated_at = now()
		RETURNING id, user_id, month, income, savings_goal, fixed_expenses, variable_expenses, created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		uuid.New().String(), rec.UserID, string(rec.Month),
		rec.Income, rec.SavingsGoal, fixedJSON, variableJSON)
	out, err := scanBudget(row)
	if err != nil {
		return persistence.BudgetRecord{}, fmt.Errorf("failed to upsert budget: %w", err)
	}
	return out, nil
}

func (r *budgetsRepo) ListMonths(ctx context.Context, userID string) ([]budget.MonthKey, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var months []string
	err := r.db.SelectContext(ctx, &months,
		`SELECT month FROM monthly_budgets WHERE user_id = $1 ORDER BY month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget months: %w", err)
	}
	out := make([]budget.MonthKey, len(months))
	for i, m := range months {
		out[i] = budget.MonthKey(m)
	}
	return out, nil
}

func scanBudget(row *sqlx.Row) (persistence.BudgetRecord, error) {
	var (
		rec          persistence.BudgetRecord
		month        string
		fixedJSON    []byte
		variableJSON []byte
	)
	err := row.Scan(&rec.ID, &rec.UserID, &month, &rec.Income, &rec.SavingsGoal,
		&fixedJSON, &variableJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.BudgetRecord{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.BudgetRecord{}, fmt.Errorf("failed to scan budget: %w", err)
	}
	rec.Month = budget.MonthKey(month)
	if err := json.Unmarshal(fixedJSON, &rec.FixedExpenses); err != nil {
		return persistence.BudgetRecord{}, fmt.Errorf("failed to unmarshal fixed expenses: %w", err)
	}
	if err := json.Unmarshal(variableJSON, &rec.VariableExpenses); err != nil {
		return persistence.BudgetRecord{}, fmt.Errorf("failed to unmarshal variable expenses: %w", err)
	}
	return rec, nil
}

func orEmpty(l budget.Ledger) budget.Ledger {
	if l == nil {
		return budget.Ledger{}
	}
	return l
}
