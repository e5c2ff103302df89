package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sirimanoj/finguru/internal/cache"
	"github.com/Sirimanoj/finguru/internal/domain/gamification"
	"github.com/Sirimanoj/finguru/internal/metrics"
	"github.com/Sirimanoj/finguru/internal/persistence"
)

const gamificationTTL = 5 * time.Minute

// GamificationService owns the XP/streak/badge state transitions.
type GamificationService struct {
	repo    *persistence.Repository
	cache   cache.Cache
	metrics *metrics.Registry
	now     func() time.Time
}

// NewGamificationService wires the service. cache and m may be nil.
func NewGamificationService(repo *persistence.Repository, c cache.Cache, m *metrics.Registry) *GamificationService {
	return &GamificationService{repo: repo, cache: c, metrics: m, now: time.Now}
}

// WithClock replaces the service clock.
func (g *GamificationService) WithClock(now func() time.Time) *GamificationService {
	g.now = now
	return g
}

// GamificationView is the client-facing shape: level is derived and the
// streak already reflects any lapse since the last check-in.
type GamificationView struct {
	XP          int                  `json:"xp"`
	Level       int                  `json:"level"`
	Streak      int                  `json:"streak"`
	LastCheckIn gamification.DateKey `json:"last_check_in,omitempty"`
	Badges      []gamification.Badge `json:"badges"`
}

func (g *GamificationService) view(s gamification.State) GamificationView {
	return GamificationView{
		XP:          s.XP,
		Level:       s.Level(),
		Streak:      s.EffectiveStreak(g.now()),
		LastCheckIn: s.LastCheckIn,
		Badges:      s.Badges,
	}
}

func (g *GamificationService) cacheKey(userID string) string {
	return "gamification:" + userID
}

// load returns the stored state, the zero state for new users.
func (g *GamificationService) load(ctx context.Context, userID string) (gamification.State, error) {
	if g.cache != nil {
		if raw, ok := g.cache.Get(g.cacheKey(userID)); ok {
			var s gamification.State
			if err := json.Unmarshal(raw, &s); err == nil {
				if g.metrics != nil {
					g.metrics.CacheHits.WithLabelValues("gamification").Inc()
				}
				return s, nil
			}
			log.Warn().Str("user_id", userID).Msg("corrupt cached gamification state, dropping")
			g.cache.Delete(g.cacheKey(userID))
		}
		if g.metrics != nil {
			g.metrics.CacheMisses.WithLabelValues("gamification").Inc()
		}
	}

	rec, err := g.repo.Gamification.Get(ctx, userID)
	if errors.Is(err, persistence.ErrNotFound) {
		return gamification.NewState(), nil
	}
	if err != nil {
		return gamification.State{}, fmt.Errorf("load gamification state: %w", err)
	}
	g.fill(userID, rec.State)
	return rec.State, nil
}

func (g *GamificationService) store(ctx context.Context, userID string, s gamification.State) error {
	_, err := g.repo.Gamification.Upsert(ctx, persistence.GamificationRecord{UserID: userID, State: s})
	if err != nil {
		return fmt.Errorf("store gamification state: %w", err)
	}
	g.fill(userID, s)
	return nil
}

func (g *GamificationService) fill(userID string, s gamification.State) {
	if g.cache == nil {
		return
	}
	if raw, err := json.Marshal(s); err == nil {
		g.cache.Set(g.cacheKey(userID), raw, gamificationTTL)
	}
}

// Get returns the current view for the user.
func (g *GamificationService) Get(ctx context.Context, userID string) (GamificationView, error) {
	s, err := g.load(ctx, userID)
	if err != nil {
		return GamificationView{}, err
	}
	return g.view(s), nil
}

// CheckIn applies today's check-in. applied is false when the user has
// already checked in today; the returned view is current either way.
func (g *GamificationService) CheckIn(ctx context.Context, userID string) (GamificationView, bool, error) {
	s, err := g.load(ctx, userID)
	if err != nil {
		return GamificationView{}, false, err
	}

	next, applied := gamification.CheckIn(s, g.now())
	if !applied {
		return g.view(next), false, nil
	}
	if err := g.store(ctx, userID, next); err != nil {
		return GamificationView{}, false, err
	}
	if g.metrics != nil {
		g.metrics.CheckIns.Inc()
	}
	log.Debug().
		Str("user_id", userID).
		Int("xp", next.XP).
		Int("streak", next.Streak).
		Msg("check-in applied")
	return g.view(next), true, nil
}

// Unlock marks one badge unlocked by ID. Unknown IDs and already
// unlocked badges are no-ops.
func (g *GamificationService) Unlock(ctx context.Context, userID, badgeID string) (GamificationView, error) {
	s, err := g.load(ctx, userID)
	if err != nil {
		return GamificationView{}, err
	}
	next, changed := gamification.UnlockBadge(s, badgeID)
	if changed {
		if err := g.store(ctx, userID, next); err != nil {
			return GamificationView{}, err
		}
	}
	return g.view(next), nil
}
