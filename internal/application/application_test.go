package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sirimanoj/finguru/internal/cache"
	"github.com/Sirimanoj/finguru/internal/domain/budget"
	"github.com/Sirimanoj/finguru/internal/domain/mentor"
	"github.com/Sirimanoj/finguru/internal/persistence"
	"github.com/Sirimanoj/finguru/internal/persistence/memory"
	"github.com/Sirimanoj/finguru/internal/storage"
)

func TestBudgetSaveComputesBreakdown(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewBudgetService(repo, nil, nil, nil)

	view, err := svc.Save(context.Background(), "u1", "2025-03", BudgetInput{
		Income:           5000,
		SavingsGoal:      1000,
		FixedExpenses:    budget.Ledger{{Label: "Rent", Amount: 1500}, {Label: "Internet", Amount: 200}, {Label: "Gym", Amount: 80}},
		VariableExpenses: budget.Ledger{{Label: "Groceries", Amount: 400}, {Label: "Dining", Amount: 200}, {Label: "Fun", Amount: 150}},
	})
	require.NoError(t, err)

	assert.Equal(t, budget.MonthKey("2025-03"), view.Month)
	assert.InDelta(t, 1780.0, view.Breakdown.TotalFixed, 1e-9)
	assert.InDelta(t, 750.0, view.Breakdown.TotalVariable, 1e-9)
	assert.InDelta(t, 1470.0, view.Breakdown.Leftover, 1e-9)
	assert.Zero(t, view.Breakdown.Deficit)
}

func TestBudgetSaveUpsertsByMonth(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewBudgetService(repo, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.Save(ctx, "u1", "2025-03", BudgetInput{Income: 1000})
	require.NoError(t, err)
	second, err := svc.Save(ctx, "u1", "2025-03", BudgetInput{Income: 2000})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	months, err := svc.Months(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, months, 1)
}

func TestBudgetSaveDefaultsToCurrentMonth(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewBudgetService(repo, nil, nil, nil).
		WithClock(func() time.Time { return time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC) })

	view, err := svc.Save(context.Background(), "u1", "", BudgetInput{Income: 100})
	require.NoError(t, err)
	assert.Equal(t, budget.MonthKey("2025-07"), view.Month)
}

func TestBudgetSaveRejectsBadInput(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewBudgetService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", "march-2025", BudgetInput{Income: 100})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Save(ctx, "u1", "2025-03", BudgetInput{Income: -5})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBudgetSaveUnlocksFirstBudgetBadge(t *testing.T) {
	repo := memory.NewRepository()
	gam := NewGamificationService(repo, nil, nil)
	svc := NewBudgetService(repo, nil, nil, gam)
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", "2025-03", BudgetInput{Income: 100})
	require.NoError(t, err)

	view, err := gam.Get(ctx, "u1")
	require.NoError(t, err)
	var unlocked bool
	for _, b := range view.Badges {
		if b.ID == "first_budget" {
			unlocked = b.Unlocked
		}
	}
	assert.True(t, unlocked)
}

func TestBudgetGetUsesCache(t *testing.T) {
	repo := memory.NewRepository()
	c := cache.NewMemory()
	svc := NewBudgetService(repo, c, nil, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "u1", "2025-03")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	_, err = svc.Save(ctx, "u1", "2025-03", BudgetInput{Income: 300, SavingsGoal: 50})
	require.NoError(t, err)

	view, err := svc.Get(ctx, "u1", "2025-03")
	require.NoError(t, err)
	assert.InDelta(t, 250.0, view.Breakdown.Leftover, 1e-9)
}

func TestGamificationCheckInFlow(t *testing.T) {
	repo := memory.NewRepository()
	day1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := day1
	svc := NewGamificationService(repo, cache.NewMemory(), nil).
		WithClock(func() time.Time { return clock })
	ctx := context.Background()

	view, applied, err := svc.CheckIn(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 50, view.XP)
	assert.Equal(t, 1, view.Streak)
	assert.Equal(t, 1, view.Level)

	// Second check-in the same day is a no-op.
	view, applied, err = svc.CheckIn(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 50, view.XP)

	clock = day1.AddDate(0, 0, 1)
	view, applied, err = svc.CheckIn(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 100, view.XP)
	assert.Equal(t, 2, view.Streak)
	assert.Equal(t, 2, view.Level)
}

func TestGamificationGetNewUserIsZeroState(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewGamificationService(repo, nil, nil)

	view, err := svc.Get(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Zero(t, view.XP)
	assert.Zero(t, view.Streak)
	assert.Equal(t, 1, view.Level)
	assert.NotEmpty(t, view.Badges)
	for _, b := range view.Badges {
		assert.False(t, b.Unlocked)
	}
}

func TestGamificationStreakLapsesInView(t *testing.T) {
	repo := memory.NewRepository()
	clock := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewGamificationService(repo, nil, nil).
		WithClock(func() time.Time { return clock })
	ctx := context.Background()

	_, _, err := svc.CheckIn(ctx, "u1")
	require.NoError(t, err)

	clock = clock.AddDate(0, 0, 3)
	view, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, view.Streak)
	assert.Equal(t, 50, view.XP)
}

type fakeModel struct {
	reply       string
	err         error
	transcript  string
	lastSystem  string
	lastHistory []mentor.Turn
	lastMessage string
	calls       int
}

func (f *fakeModel) Complete(_ context.Context, system string, history []mentor.Turn, message string) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastHistory = history
	f.lastMessage = message
	return f.reply, f.err
}

func (f *fakeModel) Transcribe(context.Context, []byte, string) (string, error) {
	return f.transcript, f.err
}

func TestChatSendStoresExchange(t *testing.T) {
	repo := memory.NewRepository()
	model := &fakeModel{reply: "Buy wonderful companies at fair prices."}
	svc := NewChatService(repo, model, nil)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "u1", "buffett", "How should I think about investing?")
	require.NoError(t, err)
	assert.Equal(t, "buffett", msg.AvatarID)
	require.NotNil(t, msg.AIResponse)
	assert.Equal(t, model.reply, *msg.AIResponse)
	assert.Contains(t, model.lastSystem, "Warren Buffett")

	stored, err := svc.History(ctx, "u1", "buffett", 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestChatSendGuardrailSkipsModel(t *testing.T) {
	repo := memory.NewRepository()
	model := &fakeModel{reply: "should not be used"}
	svc := NewChatService(repo, model, nil)

	msg, err := svc.Send(context.Background(), "u1", "buffett", "Which stock should I buy for guaranteed returns?")
	require.NoError(t, err)
	require.NotNil(t, msg.AIResponse)
	assert.Equal(t, mentor.RefusalReply, *msg.AIResponse)
	assert.Zero(t, model.calls)
}

func TestChatSendForwardsWindowedHistory(t *testing.T) {
	repo := memory.NewRepository()
	model := &fakeModel{reply: "ok"}
	svc := NewChatService(repo, model, nil)
	ctx := context.Background()

	reply := "noted"
	for i := 0; i < 10; i++ {
		_, err := repo.Chat.Append(ctx, persistence.ChatMessage{
			UserID:      "u1",
			AvatarID:    "naval",
			UserMessage: "earlier question",
			AIResponse:  &reply,
			Timestamp:   time.Date(2025, 3, 1, 0, i, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	_, err := svc.Send(ctx, "u1", "naval", "what about leverage?")
	require.NoError(t, err)
	assert.Len(t, model.lastHistory, mentor.HistoryWindow)
	assert.Equal(t, "what about leverage?", model.lastMessage)
}

func TestChatSendRateLimitsBursts(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewChatService(repo, &fakeModel{reply: "ok"}, nil)
	ctx := context.Background()

	var limited bool
	for i := 0; i < 10; i++ {
		_, err := svc.Send(ctx, "u1", "dalio", "tell me about diversification")
		if errors.Is(err, ErrRateLimited) {
			limited = true
			break
		}
		require.NoError(t, err)
	}
	assert.True(t, limited)

	// A different user has their own allowance.
	_, err := svc.Send(ctx, "u2", "dalio", "tell me about diversification")
	require.NoError(t, err)
}

func TestChatSendValidatesInput(t *testing.T) {
	svc := NewChatService(memory.NewRepository(), &fakeModel{}, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, "u1", "buffett", "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Send(ctx, "u1", "", "hello")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChatSendModelErrorNotStored(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewChatService(repo, &fakeModel{err: errors.New("upstream down")}, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, "u1", "buffett", "hello")
	require.Error(t, err)

	stored, err := svc.History(ctx, "u1", "", 0)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestAccountsSettingsDefaults(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewAccountsService(repo)
	ctx := context.Background()

	s, err := svc.Settings(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, s.Notifications)
	assert.Equal(t, "USD", s.Currency)

	s.Notifications = false
	saved, err := svc.UpdateSettings(ctx, s)
	require.NoError(t, err)
	assert.False(t, saved.Notifications)

	again, err := svc.Settings(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, again.Notifications)
}

func TestAccountsEnsureProfileIdempotent(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewAccountsService(repo)
	ctx := context.Background()

	p1, err := svc.EnsureProfile(ctx, "u1", "u1@example.com")
	require.NoError(t, err)
	p2, err := svc.EnsureProfile(ctx, "u1", "changed@example.com")
	require.NoError(t, err)
	assert.Equal(t, p1.Email, p2.Email)
}

func TestAccountsAvatarUpload(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewAccountsService(repo).
		WithMedia(storage.NewDisk(t.TempDir(), "/media"))
	ctx := context.Background()

	_, err := svc.EnsureProfile(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	p, err := svc.SetAvatarImage(ctx, "u1", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	require.NotNil(t, p.AvatarURL)
	assert.Equal(t, "/media/avatars/u1.png", *p.AvatarURL)

	_, err = svc.SetAvatarImage(ctx, "u1", []byte("gif"), "image/gif")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SetAvatarImage(ctx, "u1", nil, "image/png")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAccountsAvatarUploadDisabled(t *testing.T) {
	svc := NewAccountsService(memory.NewRepository())
	_, err := svc.SetAvatarImage(context.Background(), "u1", []byte("x"), "image/png")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAccountsExpenseValidation(t *testing.T) {
	svc := NewAccountsService(memory.NewRepository()).
		WithClock(func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) })
	ctx := context.Background()

	tests := []struct {
		name    string
		expense persistence.Expense
		wantErr bool
	}{
		{"valid", persistence.Expense{UserID: "u1", Amount: 12.50, Category: "food", Date: "2025-03-09"}, false},
		{"empty date defaults to today", persistence.Expense{UserID: "u1", Amount: 5, Category: "coffee"}, false},
		{"zero amount", persistence.Expense{UserID: "u1", Amount: 0, Category: "food"}, true},
		{"negative amount", persistence.Expense{UserID: "u1", Amount: -3, Category: "food"}, true},
		{"missing category", persistence.Expense{UserID: "u1", Amount: 5}, true},
		{"bad date", persistence.Expense{UserID: "u1", Amount: 5, Category: "food", Date: "03/09/2025"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := svc.AddExpense(ctx, tt.expense)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, e.ID)
			assert.NotEmpty(t, e.Date)
		})
	}
}

func TestAccountsGoalLifecycle(t *testing.T) {
	svc := NewAccountsService(memory.NewRepository())
	ctx := context.Background()

	g, err := svc.AddGoal(ctx, persistence.SavingsGoal{UserID: "u1", Title: "Emergency fund", TargetAmount: 3000})
	require.NoError(t, err)

	g.CurrentAmount = 500
	updated, err := svc.UpdateGoal(ctx, g)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, updated.CurrentAmount, 1e-9)

	require.NoError(t, svc.DeleteGoal(ctx, "u1", g.ID))
	goals, err := svc.Goals(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, goals)

	_, err = svc.AddGoal(ctx, persistence.SavingsGoal{UserID: "u1", Title: "", TargetAmount: 100})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
