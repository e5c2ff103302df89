package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sirimanoj/finguru/internal/domain/budget"
	"github.com/Sirimanoj/finguru/internal/domain/gamification"
	"github.com/Sirimanoj/finguru/internal/persistence"
)

func TestBudgets_UpsertByUserAndMonth(t *testing.T) {
	repo := NewRepository().Budgets
	ctx := context.Background()

	_, err := repo.Get(ctx, "u1", "2026-09")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	first, err := repo.Upsert(ctx, persistence.BudgetRecord{
		UserID:        "u1",
		Month:         "2026-09",
		Income:        4000,
		FixedExpenses: budget.Ledger{{Label: "Rent", Amount: 1200}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := repo.Upsert(ctx, persistence.BudgetRecord{
		UserID: "u1",
		Month:  "2026-09",
		Income: 4500,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID) // one row per (user, month)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	got, err := repo.Get(ctx, "u1", "2026-09")
	require.NoError(t, err)
	assert.Equal(t, 4500.0, got.Income)

	// other users and months see nothing
	_, err = repo.Get(ctx, "u2", "2026-09")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = repo.Get(ctx, "u1", "2026-10")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	months, err := repo.ListMonths(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []budget.MonthKey{"2026-09"}, months)
}

func TestChat_ListNewestFirstWithLimit(t *testing.T) {
	repo := NewRepository().Chat
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		_, err := repo.Append(ctx, persistence.ChatMessage{UserID: "u1", AvatarID: "naval", UserMessage: text})
		require.NoError(t, err)
	}
	_, err := repo.Append(ctx, persistence.ChatMessage{UserID: "u1", AvatarID: "dalio", UserMessage: "other"})
	require.NoError(t, err)

	got, err := repo.List(ctx, "u1", "naval", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].UserMessage)
	assert.Equal(t, "two", got[1].UserMessage)
}

func TestChat_DeleteScopedToUser(t *testing.T) {
	repo := NewRepository().Chat
	ctx := context.Background()

	msg, err := repo.Append(ctx, persistence.ChatMessage{UserID: "u1", AvatarID: "buffett", UserMessage: "hi"})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, "u2", msg.ID), persistence.ErrNotFound)
	assert.NoError(t, repo.Delete(ctx, "u1", msg.ID))
}

func TestNotificationLog_MarkSentOnce(t *testing.T) {
	repo := NewRepository().Notifications
	ctx := context.Background()
	day := gamification.DateKey("2026-09-01")

	sent, err := repo.WasSent(ctx, "u1", persistence.NotificationMoodCheck, day)
	require.NoError(t, err)
	assert.False(t, sent)

	first, err := repo.MarkSent(ctx, "u1", persistence.NotificationMoodCheck, day)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.MarkSent(ctx, "u1", persistence.NotificationMoodCheck, day)
	require.NoError(t, err)
	assert.False(t, again)

	// a different kind or day is independent
	other, err := repo.MarkSent(ctx, "u1", persistence.NotificationNewsletter, day)
	require.NoError(t, err)
	assert.True(t, other)
	nextDay, err := repo.MarkSent(ctx, "u1", persistence.NotificationMoodCheck, "2026-09-02")
	require.NoError(t, err)
	assert.True(t, nextDay)
}

func TestExpensesAndGoals_CRUD(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	e, err := repo.Expenses.Add(ctx, persistence.Expense{UserID: "u1", Amount: 12.5, Category: "food"})
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)
	require.NotEmpty(t, e.Date)

	e.Amount = 15
	_, err = repo.Expenses.Update(ctx, e)
	require.NoError(t, err)

	list, err := repo.Expenses.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 15.0, list[0].Amount)

	require.NoError(t, repo.Expenses.Delete(ctx, "u1", e.ID))
	assert.ErrorIs(t, repo.Expenses.Delete(ctx, "u1", e.ID), persistence.ErrNotFound)

	g, err := repo.Goals.Add(ctx, persistence.SavingsGoal{UserID: "u1", Title: "Car", TargetAmount: 9000})
	require.NoError(t, err)
	g.CurrentAmount = 500
	_, err = repo.Goals.Update(ctx, g)
	require.NoError(t, err)
	goals, err := repo.Goals.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, 500.0, goals[0].CurrentAmount)
}

func TestGamification_RoundTrip(t *testing.T) {
	repo := NewRepository().Gamification
	ctx := context.Background()

	_, err := repo.Get(ctx, "u1")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	state := gamification.NewState()
	state.XP = 150
	_, err = repo.Upsert(ctx, persistence.GamificationRecord{UserID: "u1", State: state})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 150, got.State.XP)
}

func TestAvatars_Seeded(t *testing.T) {
	repo := NewRepository().Avatars
	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "buffett", got[0].ID)
}
