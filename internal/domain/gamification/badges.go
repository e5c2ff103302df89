package gamification

// Badge is one entry of the static achievement catalog. Unlock status is
// the only mutable field and it never reverts to false.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
}

// Catalog returns the canonical badge list, all locked. Keep IDs stable:
// clients and the stored jsonb state reference them.
func Catalog() []Badge {
	return []Badge{
		{ID: "first_steps", Name: "First Steps", Description: "Complete your first daily check-in", Icon: "👣"},
		{ID: "streak_3", Name: "Warming Up", Description: "Check in 3 days in a row", Icon: "🔥"},
		{ID: "streak_7", Name: "Week One", Description: "Check in 7 days in a row", Icon: "📅"},
		{ID: "streak_30", Name: "Habit Formed", Description: "Check in 30 days in a row", Icon: "🏆"},
		{ID: "xp_100", Name: "Getting Serious", Description: "Earn 100 XP", Icon: "⭐"},
		{ID: "xp_500", Name: "Money Mind", Description: "Earn 500 XP", Icon: "🧠"},
		{ID: "first_budget", Name: "Planner", Description: "Save your first monthly budget", Icon: "📊"},
	}
}

// unlockSatisfied evaluates a badge's predicate against the state. The
// first_budget badge is event-driven and handled by UnlockBadge instead.
func unlockSatisfied(id string, s State) bool {
	switch id {
	case "first_steps":
		return s.Streak >= 1
	case "streak_3":
		return s.Streak >= 3
	case "streak_7":
		return s.Streak >= 7
	case "streak_30":
		return s.Streak >= 30
	case "xp_100":
		return s.XP >= 100
	case "xp_500":
		return s.XP >= 500
	default:
		return false
	}
}

// evaluateBadges flips any newly satisfied badge to unlocked. Unlocks are
// monotonic: an already-unlocked badge is never re-evaluated.
func evaluateBadges(s State) []Badge {
	out := make([]Badge, len(s.Badges))
	copy(out, s.Badges)
	for i := range out {
		if !out[i].Unlocked && unlockSatisfied(out[i].ID, s) {
			out[i].Unlocked = true
		}
	}
	return out
}
