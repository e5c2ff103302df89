// Package persistence defines the repository contracts the service
// stores its state behind. All rows are isolated by user ID; callers
// never see another user's data.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/Sirimanoj/finguru/internal/domain/budget"
	"github.com/Sirimanoj/finguru/internal/domain/gamification"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("persistence: not found")

// Profile is one user account row. The ID comes from the fronting auth
// layer; this service never mints identities.
type Profile struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	DisplayName *string   `json:"display_name,omitempty" db:"display_name"`
	AvatarStyle *string   `json:"avatar_style,omitempty" db:"avatar_style"`
	AvatarURL   *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Avatar is one entry of the mentor avatar library.
type Avatar struct {
	ID       string  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Bio      *string `json:"bio,omitempty" db:"bio"`
	ImageURL *string `json:"image_url,omitempty" db:"image_url"`
}

// ChatMessage is one stored mentor exchange: the user's message and the
// model's reply, if any.
type ChatMessage struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	AvatarID    string    `json:"avatar_id" db:"avatar_id"`
	UserMessage string    `json:"user_message" db:"user_message"`
	AIResponse  *string   `json:"ai_response,omitempty" db:"ai_response"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// Expense is one ad-hoc logged expense (distinct from the planned
// monthly ledgers).
type Expense struct {
	ID       string  `json:"id" db:"id"`
	UserID   string  `json:"user_id" db:"user_id"`
	Amount   float64 `json:"amount" db:"amount"`
	Category string  `json:"category" db:"category"`
	Note     *string `json:"note,omitempty" db:"note"`
	Date     string  `json:"date" db:"date"` // YYYY-MM-DD
}

// SavingsGoal is one user-defined savings target.
type SavingsGoal struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Title         string    `json:"title" db:"title"`
	TargetAmount  float64   `json:"target_amount" db:"target_amount"`
	CurrentAmount float64   `json:"current_amount" db:"current_amount"`
	Deadline      *string   `json:"deadline,omitempty" db:"deadline"` // YYYY-MM-DD
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Settings is the per-user preference row. Notifications gates the
// scheduler for this user.
type Settings struct {
	UserID            string   `json:"user_id" db:"user_id"`
	Theme             *string  `json:"theme,omitempty" db:"theme"`
	Notifications     bool     `json:"notifications" db:"notifications"`
	PreferredAvatar   *string  `json:"preferred_avatar,omitempty" db:"preferred_avatar"`
	Currency          string   `json:"currency" db:"currency"`
	MonthlyBudgetGoal *float64 `json:"monthly_budget_goal,omitempty" db:"monthly_budget_goal"`
}

// BudgetRecord is one (user, month) budget row; the ledgers live in
// jsonb. Invariant: at most one row per user per month.
type BudgetRecord struct {
	ID               string          `json:"id" db:"id"`
	UserID           string          `json:"user_id" db:"user_id"`
	Month            budget.MonthKey `json:"month" db:"month"`
	Income           float64         `json:"income" db:"income"`
	SavingsGoal      float64         `json:"savings_goal" db:"savings_goal"`
	FixedExpenses    budget.Ledger   `json:"fixed_expenses" db:"fixed_expenses"`
	VariableExpenses budget.Ledger   `json:"variable_expenses" db:"variable_expenses"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// GamificationRecord is the stored per-user gamification state.
type GamificationRecord struct {
	UserID    string             `json:"user_id" db:"user_id"`
	State     gamification.State `json:"state"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// NotificationKind distinguishes the two daily sends.
type NotificationKind string

const (
	NotificationMoodCheck  NotificationKind = "mood_check"
	NotificationNewsletter NotificationKind = "newsletter"
)

// UsersRepo stores user profiles.
type UsersRepo interface {
	Upsert(ctx context.Context, p Profile) (Profile, error)
	Get(ctx context.Context, userID string) (Profile, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// AvatarsRepo reads the static avatar library.
type AvatarsRepo interface {
	List(ctx context.Context) ([]Avatar, error)
}

// ChatRepo stores mentor chat transcripts.
type ChatRepo interface {
	Append(ctx context.Context, msg ChatMessage) (ChatMessage, error)
	// List returns messages newest-first, optionally filtered by avatar.
	List(ctx context.Context, userID, avatarID string, limit int) ([]ChatMessage, error)
	Delete(ctx context.Context, userID, id string) error
}

// ExpensesRepo stores ad-hoc expenses.
type ExpensesRepo interface {
	Add(ctx context.Context, e Expense) (Expense, error)
	Update(ctx context.Context, e Expense) (Expense, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string) ([]Expense, error)
}

// GoalsRepo stores savings goals.
type GoalsRepo interface {
	Add(ctx context.Context, g SavingsGoal) (SavingsGoal, error)
	Update(ctx context.Context, g SavingsGoal) (SavingsGoal, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string) ([]SavingsGoal, error)
}

// SettingsRepo stores per-user preferences.
type SettingsRepo interface {
	Get(ctx context.Context, userID string) (Settings, error)
	Upsert(ctx context.Context, s Settings) (Settings, error)
}

// BudgetsRepo stores monthly budgets, upserted by (user, month).
type BudgetsRepo interface {
	Get(ctx context.Context, userID string, month budget.MonthKey) (BudgetRecord, error)
	Upsert(ctx context.Context, rec BudgetRecord) (BudgetRecord, error)
	ListMonths(ctx context.Context, userID string) ([]budget.MonthKey, error)
}

// GamificationRepo stores the single gamification row per user.
type GamificationRepo interface {
	Get(ctx context.Context, userID string) (GamificationRecord, error)
	Upsert(ctx context.Context, rec GamificationRecord) (GamificationRecord, error)
}

// NotificationLogRepo deduplicates daily sends. MarkSent atomically
// records (user, kind, day) and reports false when the marker already
// existed, so concurrent schedulers cannot double-send.
type NotificationLogRepo interface {
	MarkSent(ctx context.Context, userID string, kind NotificationKind, day gamification.DateKey) (bool, error)
	WasSent(ctx context.Context, userID string, kind NotificationKind, day gamification.DateKey) (bool, error)
}

// Repository aggregates all persistence interfaces behind one handle.
type Repository struct {
	Users         UsersRepo
	Avatars       AvatarsRepo
	Chat          ChatRepo
	Expenses      ExpensesRepo
	Goals         GoalsRepo
	Settings      SettingsRepo
	Budgets       BudgetsRepo
	Gamification  GamificationRepo
	Notifications NotificationLogRepo
}
