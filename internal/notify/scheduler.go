// Package notify runs the daily reminder scheduler: at most one
// mood-check and one evening digest per user per calendar day.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sirimanoj/finguru/internal/domain/gamification"
	"github.com/Sirimanoj/finguru/internal/metrics"
	"github.com/Sirimanoj/finguru/internal/persistence"
)

// Notifier delivers pushes to connected clients. Reachable reports
// whether the user currently has a live session; unreachable users are
// skipped without consuming their daily marker, so connecting later the
// same day still gets the reminder.
type Notifier interface {
	Reachable(userID string) bool
	Push(userID string, n Notification) error
}

// Scheduler evaluates the day-boundary conditions on a fixed interval.
// The interval is deliberately much shorter than a day so conditions
// fire promptly after they become true; precision is not the goal.
type Scheduler struct {
	repo       *persistence.Repository
	notifier   Notifier
	metrics    *metrics.Registry
	interval   time.Duration
	digestHour int
	now        func() time.Time
}

// NewScheduler wires a scheduler. metrics may be nil. The clock
// defaults to time.Now and is injectable for tests.
func NewScheduler(repo *persistence.Repository, notifier Notifier, m *metrics.Registry, interval time.Duration, digestHour int) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		repo:       repo,
		notifier:   notifier,
		metrics:    m,
		interval:   interval,
		digestHour: digestHour,
		now:        time.Now,
	}
}

// WithClock replaces the scheduler's clock.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run checks immediately, then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info().
		Dur("interval", s.interval).
		Int("digest_hour", s.digestHour).
		Msg("notification scheduler started")

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notification scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce evaluates both daily conditions for every known user.
func (s *Scheduler) RunOnce(ctx context.Context) {
	userIDs, err := s.repo.Users.ListIDs(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("notification sweep skipped: cannot list users")
		return
	}

	now := s.now()
	today := gamification.ToDateKey(now)
	digestDue := now.Hour() >= s.digestHour
	for _, userID := range userIDs {
		if s.served(ctx, userID, today, digestDue) {
			continue
		}
		if !s.allowed(ctx, userID) {
			continue
		}
		s.deliver(ctx, userID, persistence.NotificationMoodCheck, today, MoodCheck)
		if digestDue {
			s.deliver(ctx, userID, persistence.NotificationNewsletter, today, DailyDigest)
		}
	}
}

// served reports whether every notification due so far today already
// went out, so the sweep can skip the user before the settings lookup.
func (s *Scheduler) served(ctx context.Context, userID string, day gamification.DateKey, digestDue bool) bool {
	sent, err := s.repo.Notifications.WasSent(ctx, userID, persistence.NotificationMoodCheck, day)
	if err != nil || !sent {
		return false
	}
	if !digestDue {
		return true
	}
	sent, err = s.repo.Notifications.WasSent(ctx, userID, persistence.NotificationNewsletter, day)
	return err == nil && sent
}

// allowed mirrors the browser permission gate: notifications must be
// enabled in settings (the default when no row exists) and the user
// must have a live session.
func (s *Scheduler) allowed(ctx context.Context, userID string) bool {
	if !s.notifier.Reachable(userID) {
		return false
	}
	settings, err := s.repo.Settings.Get(ctx, userID)
	if errors.Is(err, persistence.ErrNotFound) {
		return true
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("settings lookup failed, skipping user")
		return false
	}
	return settings.Notifications
}

func (s *Scheduler) deliver(ctx context.Context, userID string, kind persistence.NotificationKind, day gamification.DateKey, build func() Notification) {
	fresh, err := s.repo.Notifications.MarkSent(ctx, userID, kind, day)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("kind", string(kind)).Msg("notification dedup failed")
		return
	}
	if !fresh {
		return
	}

	n := build()
	if err := s.notifier.Push(userID, n); err != nil {
		// At-most-once: the marker stays consumed, matching the
		// original's fire-and-forget browser notifications.
		log.Warn().Err(err).Str("user_id", userID).Str("kind", string(kind)).Msg("notification push failed")
		return
	}
	if s.metrics != nil {
		s.metrics.NotificationsSent.WithLabelValues(string(kind)).Inc()
	}
	log.Debug().Str("user_id", userID).Str("kind", string(kind)).Msg("notification sent")
}
