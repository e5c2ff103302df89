package application

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sirimanoj/finguru/internal/cache"
	"github.com/Sirimanoj/finguru/internal/domain/budget"
	"github.com/Sirimanoj/finguru/internal/metrics"
	"github.com/Sirimanoj/finguru/internal/persistence"
)

const budgetTTL = 5 * time.Minute

// BudgetService stores monthly plans and derives their breakdowns.
type BudgetService struct {
	repo    *persistence.Repository
	cache   cache.Cache
	metrics *metrics.Registry
	gam     *GamificationService
	now     func() time.Time
}

// NewBudgetService wires the service. gam unlocks the first-budget
// badge on save; cache, m, and gam may be nil.
func NewBudgetService(repo *persistence.Repository, c cache.Cache, m *metrics.Registry, gam *GamificationService) *BudgetService {
	return &BudgetService{repo: repo, cache: c, metrics: m, gam: gam, now: time.Now}
}

// WithClock replaces the service clock.
func (b *BudgetService) WithClock(now func() time.Time) *BudgetService {
	b.now = now
	return b
}

// BudgetInput is the caller-supplied plan for one month.
type BudgetInput struct {
	Income           float64       `json:"income"`
	SavingsGoal      float64       `json:"savings_goal"`
	FixedExpenses    budget.Ledger `json:"fixed_expenses"`
	VariableExpenses budget.Ledger `json:"variable_expenses"`
}

// BudgetView is the stored plan plus its derived breakdown.
type BudgetView struct {
	persistence.BudgetRecord
	Breakdown budget.Breakdown `json:"breakdown"`
}

func toView(rec persistence.BudgetRecord) BudgetView {
	return BudgetView{
		BudgetRecord: rec,
		Breakdown:    budget.Compute(rec.Income, rec.SavingsGoal, rec.FixedExpenses, rec.VariableExpenses),
	}
}

func (b *BudgetService) cacheKey(userID string, month budget.MonthKey) string {
	return "budget:" + userID + ":" + string(month)
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Save upserts the plan for the month (the current month when empty)
// and unlocks the first-budget badge.
func (b *BudgetService) Save(ctx context.Context, userID string, month budget.MonthKey, in BudgetInput) (BudgetView, error) {
	if month == "" {
		month = budget.CurrentMonth(b.now())
	}
	if !month.Valid() {
		return BudgetView{}, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidInput)
	}
	if !validAmount(in.Income) || !validAmount(in.SavingsGoal) {
		return BudgetView{}, fmt.Errorf("%w: income and savings goal must be non-negative", ErrInvalidInput)
	}

	rec, err := b.repo.Budgets.Upsert(ctx, persistence.BudgetRecord{
		UserID:           userID,
		Month:            month,
		Income:           in.Income,
		SavingsGoal:      in.SavingsGoal,
		FixedExpenses:    in.FixedExpenses,
		VariableExpenses: in.VariableExpenses,
	})
	if err != nil {
		return BudgetView{}, fmt.Errorf("save budget: %w", err)
	}
	b.fill(rec)

	if b.gam != nil {
		if _, err := b.gam.Unlock(ctx, userID, "first_budget"); err != nil {
			// The plan is saved; the badge catches up on the next save.
			log.Warn().Err(err).Str("user_id", userID).Msg("first-budget badge unlock failed")
		}
	}

	view := toView(rec)
	if view.Breakdown.OverBudget() {
		log.Debug().
			Str("user_id", userID).
			Str("month", string(month)).
			Float64("deficit", view.Breakdown.Deficit).
			Msg("plan saved over budget")
	}
	return view, nil
}

// Get returns the plan and breakdown for the month (the current month
// when empty). Missing plans surface persistence.ErrNotFound.
func (b *BudgetService) Get(ctx context.Context, userID string, month budget.MonthKey) (BudgetView, error) {
	if month == "" {
		month = budget.CurrentMonth(b.now())
	}
	if !month.Valid() {
		return BudgetView{}, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidInput)
	}

	if b.cache != nil {
		if raw, ok := b.cache.Get(b.cacheKey(userID, month)); ok {
			var rec persistence.BudgetRecord
			if err := json.Unmarshal(raw, &rec); err == nil {
				if b.metrics != nil {
					b.metrics.CacheHits.WithLabelValues("budget").Inc()
				}
				return toView(rec), nil
			}
			b.cache.Delete(b.cacheKey(userID, month))
		}
		if b.metrics != nil {
			b.metrics.CacheMisses.WithLabelValues("budget").Inc()
		}
	}

	rec, err := b.repo.Budgets.Get(ctx, userID, month)
	if err != nil {
		return BudgetView{}, err
	}
	b.fill(rec)
	return toView(rec), nil
}

// Preview computes a breakdown without persisting anything, for the
// what-if sliders on the client.
func (b *BudgetService) Preview(in BudgetInput) (budget.Breakdown, error) {
	if !validAmount(in.Income) || !validAmount(in.SavingsGoal) {
		return budget.Breakdown{}, fmt.Errorf("%w: income and savings goal must be non-negative", ErrInvalidInput)
	}
	return budget.Compute(in.Income, in.SavingsGoal, in.FixedExpenses, in.VariableExpenses), nil
}

// Months lists the months the user has plans for, newest first.
func (b *BudgetService) Months(ctx context.Context, userID string) ([]budget.MonthKey, error) {
	return b.repo.Budgets.ListMonths(ctx, userID)
}

func (b *BudgetService) fill(rec persistence.BudgetRecord) {
	if b.cache == nil {
		return
	}
	if raw, err := json.Marshal(rec); err == nil {
		b.cache.Set(b.cacheKey(rec.UserID, rec.Month), raw, budgetTTL)
	}
}
