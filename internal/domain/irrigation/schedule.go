package irrigation

import (
	"fmt"
	"time"
)

// SecondsPerDay is the length of a civil day in seconds.
const SecondsPerDay = 24 * 60 * 60

// Schedule is one daily actuation window, expressed in seconds since local midnight.
//
// The window is the half-open interval [StartOffsetSeconds, StartOffsetSeconds+DurationSeconds).
// It never wraps across midnight: a window starting at 23:00 for five hours ends
// arithmetically at 28:00 and is not active between 00:00 and 04:00.
type Schedule struct {
	// StartOffsetSeconds is when the valve opens. Values >= SecondsPerDay are kept as is
	// and simply never match.
	StartOffsetSeconds uint32
	// DurationSeconds is how long the valve stays open. Zero means never.
	DurationSeconds uint32
}

// NewSchedule builds a Schedule from a time of day and a duration.
func NewSchedule(hour, minute int, duration time.Duration) Schedule {
	return Schedule{
		StartOffsetSeconds: uint32(hour*3600 + minute*60), //nolint:gosec // Callers pass a wall clock time.
		DurationSeconds:    uint32(duration / time.Second), //nolint:gosec // Durations are at most a few hours.
	}
}

// End returns the exclusive end of the window. It may exceed SecondsPerDay.
func (s Schedule) End() uint64 {
	return uint64(s.StartOffsetSeconds) + uint64(s.DurationSeconds)
}

// Contains reports whether now (seconds since midnight) falls inside the window.
func (s Schedule) Contains(now uint32) bool {
	return s.StartOffsetSeconds <= now && uint64(now) < s.End()
}

// String renders the window as HH:MM:SS+duration.
func (s Schedule) String() string {
	start := s.StartOffsetSeconds

	return fmt.Sprintf("%02d:%02d:%02d+%s",
		start/3600, start%3600/60, start%60,
		time.Duration(s.DurationSeconds)*time.Second)
}
