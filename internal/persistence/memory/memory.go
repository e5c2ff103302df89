// Package memory provides in-memory implementations of the persistence
// interfaces. They back --dev mode and the handler tests; semantics
// (upsert keys, ordering, not-found) mirror the postgres package.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sirimanoj/finguru/internal/domain/budget"
	"github.com/Sirimanoj/finguru/internal/domain/gamification"
	"github.com/Sirimanoj/finguru/internal/persistence"
)

// NewRepository returns a fully wired in-memory repository seeded with
// the default avatar library.
func NewRepository() *persistence.Repository {
	return &persistence.Repository{
		Users:         &usersRepo{rows: map[string]persistence.Profile{}},
		Avatars:       &avatarsRepo{rows: defaultAvatars()},
		Chat:          &chatRepo{},
		Expenses:      &expensesRepo{},
		Goals:         &goalsRepo{},
		Settings:      &settingsRepo{rows: map[string]persistence.Settings{}},
		Budgets:       &budgetsRepo{rows: map[budgetKey]persistence.BudgetRecord{}},
		Gamification:  &gamificationRepo{rows: map[string]persistence.GamificationRecord{}},
		Notifications: &notificationLog{sent: map[sentKey]bool{}},
	}
}

func defaultAvatars() []persistence.Avatar {
	rows := make([]persistence.Avatar, 0, 3)
	for _, p := range []struct{ id, name, bio string }{
		{"buffett", "Warren", "Value investing and long-term thinking."},
		{"naval", "Naval", "Leverage, compounding, and judgment."},
		{"dalio", "Ray", "Principles and diversified portfolios."},
	} {
		bio := p.bio
		rows = append(rows, persistence.Avatar{ID: p.id, Name: p.name, Bio: &bio})
	}
	return rows
}

type usersRepo struct {
	mu   sync.RWMutex
	rows map[string]persistence.Profile
}

func (r *usersRepo) Upsert(_ context.Context, p persistence.Profile) (persistence.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rows[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	r.rows[p.ID] = p
	return p, nil
}

func (r *usersRepo) Get(_ context.Context, userID string) (persistence.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[userID]
	if !ok {
		return persistence.Profile{}, persistence.ErrNotFound
	}
	return p, nil
}

func (r *usersRepo) ListIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type avatarsRepo struct {
	rows []persistence.Avatar
}

func (r *avatarsRepo) List(_ context.Context) ([]persistence.Avatar, error) {
	out := make([]persistence.Avatar, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

type chatRepo struct {
	mu   sync.RWMutex
	rows []persistence.ChatMessage
}

func (r *chatRepo) Append(_ context.Context, msg persistence.ChatMessage) (persistence.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	r.rows = append(r.rows, msg)
	return msg, nil
}

func (r *chatRepo) List(_ context.Context, userID, avatarID string, limit int) ([]persistence.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []persistence.ChatMessage
	for i := len(r.rows) - 1; i >= 0; i-- {
		m := r.rows[i]
		if m.UserID != userID {
			continue
		}
		if avatarID != "" && m.AvatarID != avatarID {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *chatRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.rows {
		if m.ID == id && m.UserID == userID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

type expensesRepo struct {
	mu   sync.RWMutex
	rows []persistence.Expense
}

func (r *expensesRepo) Add(_ context.Context, e persistence.Expense) (persistence.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Date == "" {
		e.Date = time.Now().UTC().Format("2006-01-02")
	}
	r.rows = append(r.rows, e)
	return e, nil
}

func (r *expensesRepo) Update(_ context.Context, e persistence.Expense) (persistence.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == e.ID && row.UserID == e.UserID {
			r.rows[i] = e
			return e, nil
		}
	}
	return persistence.Expense{}, persistence.ErrNotFound
}

func (r *expensesRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == id && row.UserID == userID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (r *expensesRepo) List(_ context.Context, userID string) ([]persistence.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []persistence.Expense
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

type goalsRepo struct {
	mu   sync.RWMutex
	rows []persistence.SavingsGoal
}

func (r *goalsRepo) Add(_ context.Context, g persistence.SavingsGoal) (persistence.SavingsGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	r.rows = append(r.rows, g)
	return g, nil
}

func (r *goalsRepo) Update(_ context.Context, g persistence.SavingsGoal) (persistence.SavingsGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == g.ID && row.UserID == g.UserID {
			g.CreatedAt = row.CreatedAt
			r.rows[i] = g
			return g, nil
		}
	}
	return persistence.SavingsGoal{}, persistence.ErrNotFound
}

func (r *goalsRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == id && row.UserID == userID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (r *goalsRepo) List(_ context.Context, userID string) ([]persistence.SavingsGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []persistence.SavingsGoal
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type settingsRepo struct {
	mu   sync.RWMutex
	rows map[string]persistence.Settings
}

func (r *settingsRepo) Get(_ context.Context, userID string) (persistence.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rows[userID]
	if !ok {
		return persistence.Settings{}, persistence.ErrNotFound
	}
	return s, nil
}

func (r *settingsRepo) Upsert(_ context.Context, s persistence.Settings) (persistence.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Currency == "" {
		s.Currency = "USD"
	}
	r.rows[s.UserID] = s
	return s, nil
}

type budgetKey struct {
	userID string
	month  budget.MonthKey
}

type budgetsRepo struct {
	mu   sync.RWMutex
	rows map[budgetKey]persistence.BudgetRecord
}

func (r *budgetsRepo) Get(_ context.Context, userID string, month budget.MonthKey) (persistence.BudgetRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.rows[budgetKey{userID, month}]
	if !ok {
		return persistence.BudgetRecord{}, persistence.ErrNotFound
	}
	return rec, nil
}

func (r *budgetsRepo) Upsert(_ context.Context, rec persistence.BudgetRecord) (persistence.BudgetRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := budgetKey{rec.UserID, rec.Month}
	now := time.Now().UTC()
	if existing, ok := r.rows[key]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = uuid.New().String()
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	r.rows[key] = rec
	return rec, nil
}

func (r *budgetsRepo) ListMonths(_ context.Context, userID string) ([]budget.MonthKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []budget.MonthKey
	for key := range r.rows {
		if key.userID == userID {
			out = append(out, key.month)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out, nil
}

type gamificationRepo struct {
	mu   sync.RWMutex
	rows map[string]persistence.GamificationRecord
}

func (r *gamificationRepo) Get(_ context.Context, userID string) (persistence.GamificationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.rows[userID]
	if !ok {
		return persistence.GamificationRecord{}, persistence.ErrNotFound
	}
	return rec, nil
}

func (r *gamificationRepo) Upsert(_ context.Context, rec persistence.GamificationRecord) (persistence.GamificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.UpdatedAt = time.Now().UTC()
	r.rows[rec.UserID] = rec
	return rec, nil
}

type sentKey struct {
	userID string
	kind   persistence.NotificationKind
	day    gamification.DateKey
}

type notificationLog struct {
	mu   sync.Mutex
	sent map[sentKey]bool
}

func (r *notificationLog) MarkSent(_ context.Context, userID string, kind persistence.NotificationKind, day gamification.DateKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sentKey{userID, kind, day}
	if r.sent[key] {
		return false, nil
	}
	r.sent[key] = true
	return true, nil
}

func (r *notificationLog) WasSent(_ context.Context, userID string, kind persistence.NotificationKind, day gamification.DateKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[sentKey{userID, kind, day}], nil
}
