// Package instancelock implements the instance binding system: durable
// locks tying a player (or a shared instance id) to a map+difficulty,
// reset schedules, and completed-encounter tracking.
package instancelock

import (
	"time"

	"github.com/udisondev/wowgo/internal/data"
)

// ResetSchedule computes scheduled reset timestamps for one cadence.
// Pure value type: safe for concurrent use without synchronization.
type ResetSchedule struct {
	Cadence data.ResetCadence
	Hour    int          // 0..23, local server time
	Weekday time.Weekday // weekly cadence only
}

// Period returns the length of one reset cycle.
func (s ResetSchedule) Period() time.Duration {
	if s.Cadence == data.ResetWeekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// NextResetTime returns the next reset strictly after now.
func (s ResetSchedule) NextResetTime(now time.Time) time.Time {
	reset := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, 0, 0, 0, now.Location())

	if s.Cadence == data.ResetDaily {
		if now.Hour() >= s.Hour {
			reset = reset.AddDate(0, 0, 1)
		}
		return reset
	}

	// Weekly: advance to the configured weekday; if today is the day but
	// the hour already passed, advance a full week.
	days := int(s.Weekday - now.Weekday())
	if days < 0 || (days == 0 && now.Hour() >= s.Hour) {
		days += 7
	}
	return reset.AddDate(0, 0, days)
}

// PreviousResetTime returns the most recent reset at or before now.
func (s ResetSchedule) PreviousResetTime(now time.Time) time.Time {
	return s.NextResetTime(now).Add(-s.Period())
}

// NextResetAfter returns the first reset strictly after t.
// Used to resolve the effective expiry of extended locks.
func (s ResetSchedule) NextResetAfter(t time.Time) time.Time {
	return s.NextResetTime(t)
}
