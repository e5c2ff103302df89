package gamification

import "time"

// DateKey is a calendar day in the user's local time, "YYYY-MM-DD".
// All streak logic compares days, never instants.
type DateKey string

// ToDateKey truncates an instant to its calendar day.
func ToDateKey(t time.Time) DateKey {
	return DateKey(t.Format("2006-01-02"))
}

func (d DateKey) time() time.Time {
	t, _ := time.Parse("2006-01-02", string(d))
	return t
}

// IsYesterdayOf reports whether d is exactly one calendar day before other.
func (d DateKey) IsYesterdayOf(other DateKey) bool {
	if d == "" || other == "" {
		return false
	}
	return d.time().AddDate(0, 0, 1).Equal(other.time())
}

// DaysUntil returns the whole calendar days from d to other. Zero means
// the same day, negative means other is earlier.
func (d DateKey) DaysUntil(other DateKey) int {
	return int(other.time().Sub(d.time()).Hours() / 24)
}
