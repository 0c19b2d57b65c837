package clock

import (
	"fmt"
	"sync"
	"time"
)

// DefaultUTCOffsetHours is the fixed civil time zone of the installation (UTC-3).
const DefaultUTCOffsetHours = -3

// Clock reports wall time corrected by a persisted offset.
type Clock struct {
	// now returns the uncorrected system time.
	now func() time.Time
	// location is the fixed civil zone used for time-of-day math.
	location *time.Location

	// mu protects offset.
	mu sync.RWMutex
	// offset is added to the system time, in seconds.
	offset int64
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow replaces the system time source.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		if now != nil {
			c.now = now
		}
	}
}

// WithOffset sets the initial correction, usually restored from storage.
func WithOffset(offset int64) Option {
	return func(c *Clock) {
		c.offset = offset
	}
}

// New creates a clock in a fixed zone utcOffsetHours away from UTC.
func New(utcOffsetHours int, opts ...Option) *Clock {
	c := &Clock{
		now:      time.Now,
		location: FixedZone(utcOffsetHours),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FixedZone returns a named fixed zone such as "UTC-3".
func FixedZone(utcOffsetHours int) *time.Location {
	name := "UTC"
	if utcOffsetHours != 0 {
		name = fmt.Sprintf("UTC%+d", utcOffsetHours)
	}

	return time.FixedZone(name, utcOffsetHours*3600)
}

// Location returns the civil zone of the clock.
func (c *Clock) Location() *time.Location {
	return c.location
}

// Offset returns the current correction in seconds.
func (c *Clock) Offset() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.offset
}

// SetOffset replaces the correction.
func (c *Clock) SetOffset(offset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.offset = offset
}

// Now returns the corrected wall time in the clock zone.
// The offset is applied in whole seconds, so offsets beyond the time.Duration range still work.
func (c *Clock) Now() time.Time {
	raw := c.now()

	return time.Unix(raw.Unix()+c.Offset(), int64(raw.Nanosecond())).In(c.location)
}

// SecondsSinceMidnight returns the corrected time of day, 0..86399.
func (c *Clock) SecondsSinceMidnight() uint32 {
	return SecondsSinceMidnight(c.Now(), c.location)
}

// Sync makes the clock report clientEpochSeconds as "now" and returns the new offset.
// The offset is computed against the raw system time, not the corrected one.
func (c *Clock) Sync(clientEpochSeconds int64) int64 {
	offset := clientEpochSeconds - c.now().Unix()
	c.SetOffset(offset)

	return offset
}

// SecondsSinceMidnight converts t into seconds elapsed since midnight in loc.
func SecondsSinceMidnight(t time.Time, loc *time.Location) uint32 {
	local := t.In(loc)

	//nolint:gosec // The sum is below one day of seconds.
	return uint32(local.Hour()*3600 + local.Minute()*60 + local.Second())
}

// FormatTimeOfDay renders seconds since midnight as HH:MM.
func FormatTimeOfDay(seconds uint32) string {
	return fmt.Sprintf("%02d:%02d", seconds/3600, seconds%3600/60)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" into seconds since midnight.
func ParseTimeOfDay(s string) (uint32, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return SecondsSinceMidnight(t, time.UTC), nil
		}
	}

	return 0, fmt.Errorf("invalid time of day %q, want HH:MM or HH:MM:SS", s)
}
