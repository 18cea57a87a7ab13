package league

import "time"

// MasteryChestInfo tracks when the next mastery chest can be earned. A zero
// NextChestDate means the date is unknown.
type MasteryChestInfo struct {
	NextChestDate  time.Time `json:"nextChestDate"`
	EarnableChests int       `json:"earnableChests"`
}

// Stale reports whether the cached value should be refetched at now.
func (m MasteryChestInfo) Stale(now time.Time) bool {
	return m.NextChestDate.IsZero() || !now.Before(m.NextChestDate)
}

// RemainingTime is the time left until NextChestDate, zero once passed.
func (m MasteryChestInfo) RemainingTime(now time.Time) time.Duration {
	if m.NextChestDate.IsZero() || !now.Before(m.NextChestDate) {
		return 0
	}
	return m.NextChestDate.Sub(now)
}
