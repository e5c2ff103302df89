package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sirimanoj/finguru/internal/persistence"
	"github.com/Sirimanoj/finguru/internal/storage"
)

// maxAvatarBytes bounds uploaded avatar images.
const maxAvatarBytes = 5 << 20

// AccountsService covers the flat CRUD surfaces: profile, settings,
// avatar library, expenses, and savings goals.
type AccountsService struct {
	repo  *persistence.Repository
	media storage.Store
	now   func() time.Time
}

// NewAccountsService wires the service.
func NewAccountsService(repo *persistence.Repository) *AccountsService {
	return &AccountsService{repo: repo, now: time.Now}
}

// WithClock replaces the service clock.
func (a *AccountsService) WithClock(now func() time.Time) *AccountsService {
	a.now = now
	return a
}

// WithMedia enables avatar image uploads.
func (a *AccountsService) WithMedia(store storage.Store) *AccountsService {
	a.media = store
	return a
}

// EnsureProfile creates the profile row on first sight of a user ID so
// every other table has a parent to hang off.
func (a *AccountsService) EnsureProfile(ctx context.Context, userID, email string) (persistence.Profile, error) {
	p, err := a.repo.Users.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return a.repo.Users.Upsert(ctx, persistence.Profile{ID: userID, Email: email})
}

// Profile returns the user's profile row.
func (a *AccountsService) Profile(ctx context.Context, userID string) (persistence.Profile, error) {
	return a.repo.Users.Get(ctx, userID)
}

// UpdateProfile upserts the mutable profile fields.
func (a *AccountsService) UpdateProfile(ctx context.Context, p persistence.Profile) (persistence.Profile, error) {
	if p.ID == "" {
		return persistence.Profile{}, fmt.Errorf("%w: profile id is required", ErrInvalidInput)
	}
	return a.repo.Users.Upsert(ctx, p)
}

var avatarExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// SetAvatarImage stores an uploaded profile picture and points the
// profile's avatar URL at it.
func (a *AccountsService) SetAvatarImage(ctx context.Context, userID string, data []byte, mimeType string) (persistence.Profile, error) {
	if a.media == nil {
		return persistence.Profile{}, fmt.Errorf("%w: avatar uploads are not enabled", ErrInvalidInput)
	}
	if len(data) == 0 {
		return persistence.Profile{}, fmt.Errorf("%w: image payload is required", ErrInvalidInput)
	}
	if len(data) > maxAvatarBytes {
		return persistence.Profile{}, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, maxAvatarBytes)
	}
	ext, ok := avatarExts[mimeType]
	if !ok {
		return persistence.Profile{}, fmt.Errorf("%w: unsupported image type %q", ErrInvalidInput, mimeType)
	}

	url, err := a.media.Save("avatars/"+userID+ext, data)
	if err != nil {
		return persistence.Profile{}, fmt.Errorf("store avatar image: %w", err)
	}

	p, err := a.repo.Users.Get(ctx, userID)
	if err != nil {
		return persistence.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	p.AvatarURL = &url
	return a.repo.Users.Upsert(ctx, p)
}

// Avatars lists the mentor avatar library.
func (a *AccountsService) Avatars(ctx context.Context) ([]persistence.Avatar, error) {
	return a.repo.Avatars.List(ctx)
}

// Settings returns the user's preferences; absent rows fall back to the
// defaults (notifications on, USD).
func (a *AccountsService) Settings(ctx context.Context, userID string) (persistence.Settings, error) {
	s, err := a.repo.Settings.Get(ctx, userID)
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Settings{UserID: userID, Notifications: true, Currency: "USD"}, nil
	}
	if err != nil {
		return persistence.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// UpdateSettings upserts the user's preferences.
func (a *AccountsService) UpdateSettings(ctx context.Context, s persistence.Settings) (persistence.Settings, error) {
	if s.UserID == "" {
		return persistence.Settings{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if s.Currency == "" {
		s.Currency = "USD"
	}
	return a.repo.Settings.Upsert(ctx, s)
}

func validDay(day string) bool {
	_, err := time.Parse("2006-01-02", day)
	return err == nil
}

// AddExpense validates and stores one ad-hoc expense. An empty date
// defaults to today.
func (a *AccountsService) AddExpense(ctx context.Context, e persistence.Expense) (persistence.Expense, error) {
	if err := a.validateExpense(&e); err != nil {
		return persistence.Expense{}, err
	}
	return a.repo.Expenses.Add(ctx, e)
}

// UpdateExpense replaces one expense owned by the user.
func (a *AccountsService) UpdateExpense(ctx context.Context, e persistence.Expense) (persistence.Expense, error) {
	if e.ID == "" {
		return persistence.Expense{}, fmt.Errorf("%w: expense id is required", ErrInvalidInput)
	}
	if err := a.validateExpense(&e); err != nil {
		return persistence.Expense{}, err
	}
	return a.repo.Expenses.Update(ctx, e)
}

func (a *AccountsService) validateExpense(e *persistence.Expense) error {
	e.Category = strings.TrimSpace(e.Category)
	if e.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if !validAmount(e.Amount) || e.Amount == 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if e.Date == "" {
		e.Date = a.now().UTC().Format("2006-01-02")
	}
	if !validDay(e.Date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return nil
}

// DeleteExpense removes one expense owned by the user.
func (a *AccountsService) DeleteExpense(ctx context.Context, userID, id string) error {
	return a.repo.Expenses.Delete(ctx, userID, id)
}

// Expenses lists the user's expenses.
func (a *AccountsService) Expenses(ctx context.Context, userID string) ([]persistence.Expense, error) {
	return a.repo.Expenses.List(ctx, userID)
}

// AddGoal validates and stores one savings goal.
func (a *AccountsService) AddGoal(ctx context.Context, g persistence.SavingsGoal) (persistence.SavingsGoal, error) {
	if err := validateGoal(&g); err != nil {
		return persistence.SavingsGoal{}, err
	}
	return a.repo.Goals.Add(ctx, g)
}

// UpdateGoal replaces one goal owned by the user.
func (a *AccountsService) UpdateGoal(ctx context.Context, g persistence.SavingsGoal) (persistence.SavingsGoal, error) {
	if g.ID == "" {
		return persistence.SavingsGoal{}, fmt.Errorf("%w: goal id is required", ErrInvalidInput)
	}
	if err := validateGoal(&g); err != nil {
		return persistence.SavingsGoal{}, err
	}
	return a.repo.Goals.Update(ctx, g)
}

func validateGoal(g *persistence.SavingsGoal) error {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !validAmount(g.TargetAmount) || g.TargetAmount == 0 {
		return fmt.Errorf("%w: target amount must be positive", ErrInvalidInput)
	}
	if !validAmount(g.CurrentAmount) {
		return fmt.Errorf("%w: current amount must be non-negative", ErrInvalidInput)
	}
	if g.Deadline != nil && !validDay(*g.Deadline) {
		return fmt.Errorf("%w: deadline must be YYYY-MM-DD", ErrInvalidInput)
	}
	return nil
}

// DeleteGoal removes one goal owned by the user.
func (a *AccountsService) DeleteGoal(ctx context.Context, userID, id string) error {
	return a.repo.Goals.Delete(ctx, userID, id)
}

// Goals lists the user's savings goals.
func (a *AccountsService) Goals(ctx context.Context, userID string) ([]persistence.SavingsGoal, error) {
	return a.repo.Goals.List(ctx, userID)
}
