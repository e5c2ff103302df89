package gamification

import "time"

// CheckInXP is the fixed reward for one daily check-in.
const CheckInXP = 50

// levelThresholds is the ascending XP table. Level is the 1-based index
// of the highest threshold reached; it is always derived, never stored.
var levelThresholds = []int{0, 100, 300, 700, 1500, 3000}

// State is the per-user gamification record. Exactly one exists per
// user; only the transitions in this package mutate it.
type State struct {
	XP          int     `json:"xp"`
	Streak      int     `json:"streak"`
	LastCheckIn DateKey `json:"last_check_in,omitempty"`
	Badges      []Badge `json:"badges"`
}

// NewState returns the zero state with the full locked badge catalog.
func NewState() State {
	return State{Badges: Catalog()}
}

// Level derives the current level from XP.
func (s State) Level() int {
	return LevelForXP(s.XP)
}

// LevelForXP maps XP onto the threshold table. XP 0 is level 1.
func LevelForXP(xp int) int {
	level := 1
	for i, min := range levelThresholds {
		if xp >= min {
			level = i + 1
		}
	}
	return level
}

// EffectiveStreak is the streak to display at time now. The stored value
// only changes inside CheckIn (lazy reset); a missed day therefore shows
// as 0 here until the next check-in starts a fresh run.
func (s State) EffectiveStreak(now time.Time) int {
	if s.LastCheckIn == "" {
		return 0
	}
	today := ToDateKey(now)
	if s.LastCheckIn == today || s.LastCheckIn.IsYesterdayOf(today) {
		return s.Streak
	}
	return 0
}

// CheckIn applies the daily check-in transition at time now and returns
// the next state. A second check-in on the same calendar day is a no-op
// with applied == false; callers disable the action in the UI, but the
// guard holds here regardless of client behavior.
func CheckIn(s State, now time.Time) (State, bool) {
	today := ToDateKey(now)
	if s.LastCheckIn == today {
		return s, false
	}

	next := s
	if s.LastCheckIn.IsYesterdayOf(today) {
		next.Streak = s.Streak + 1
	} else {
		next.Streak = 1
	}
	next.XP = s.XP + CheckInXP
	next.LastCheckIn = today
	next.Badges = evaluateBadges(next)
	return next, true
}

// UnlockBadge force-unlocks an event-driven badge (e.g. first saved
// budget). Unknown IDs and already-unlocked badges leave the state
// unchanged.
func UnlockBadge(s State, id string) (State, bool) {
	for i := range s.Badges {
		if s.Badges[i].ID == id {
			if s.Badges[i].Unlocked {
				return s, false
			}
			next := s
			next.Badges = make([]Badge, len(s.Badges))
			copy(next.Badges, s.Badges)
			next.Badges[i].Unlocked = true
			return next, true
		}
	}
	return s, false
}

// MergeCatalog reconciles a stored badge list with the current catalog:
// badges added since the state was persisted appear locked, removed ones
// drop out, and unlock status carries over by ID.
func MergeCatalog(stored []Badge) []Badge {
	unlocked := make(map[string]bool, len(stored))
	for _, b := range stored {
		if b.Unlocked {
			unlocked[b.ID] = true
		}
	}
	out := Catalog()
	for i := range out {
		if unlocked[out[i].ID] {
			out[i].Unlocked = true
		}
	}
	return out
}
