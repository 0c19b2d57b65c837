package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fixedNow returns a time source frozen at t.
func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestSecondsSinceMidnight converts UTC instants into UTC-3 time of day.
func TestSecondsSinceMidnight(t *testing.T) {
	t.Parallel()

	loc := FixedZone(-3)

	// 09:00 UTC is 06:00 in UTC-3.
	require.Equal(t, uint32(21600), SecondsSinceMidnight(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), loc))
	// 02:30:15 UTC is 23:30:15 of the previous day.
	require.Equal(t, uint32(23*3600+30*60+15), SecondsSinceMidnight(time.Date(2026, 3, 1, 2, 30, 15, 0, time.UTC), loc))
}

// TestClockAppliesOffset checks that the offset shifts the time of day.
func TestClockAppliesOffset(t *testing.T) {
	t.Parallel()

	system := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := New(-3, WithNow(fixedNow(system)), WithOffset(90))

	require.Equal(t, int64(90), c.Offset())
	require.Equal(t, uint32(21690), c.SecondsSinceMidnight())
	require.Equal(t, "UTC-3", c.Now().Location().String())
}

// TestClockSync verifies that a sync makes the clock report the client time.
func TestClockSync(t *testing.T) {
	t.Parallel()

	system := time.Date(1970, 1, 1, 0, 16, 40, 0, time.UTC) // epoch 1000, clock never synced
	c := New(-3, WithNow(fixedNow(system)), WithOffset(-5))

	client := time.Date(2026, 10, 18, 9, 45, 30, 0, time.UTC)
	offset := c.Sync(client.Unix())

	require.Equal(t, client.Unix()-1000, offset)
	require.Equal(t, offset, c.Offset())
	require.Equal(t, client.Unix(), c.Now().Unix())
	require.Equal(t, SecondsSinceMidnight(client, FixedZone(-3)), c.SecondsSinceMidnight())
}

// TestClockSync_MillisecondEpoch keeps the time of day consistent for offsets beyond the time.Duration range.
func TestClockSync_MillisecondEpoch(t *testing.T) {
	t.Parallel()

	system := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New(-3, WithNow(fixedNow(system)))

	clientEpoch := int64(1_735_740_000_123)
	offset := c.Sync(clientEpoch)

	require.Equal(t, clientEpoch-system.Unix(), offset)
	require.Equal(t, clientEpoch, c.Now().Unix())
	require.Equal(t, SecondsSinceMidnight(time.Unix(clientEpoch, 0), FixedZone(-3)), c.SecondsSinceMidnight())
}

// TestClockConcurrentAccess exercises the offset lock under the race detector.
func TestClockConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New(0)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c.SetOffset(int64(i))
		}()

		go func() {
			defer wg.Done()
			_ = c.SecondsSinceMidnight()
		}()
	}

	wg.Wait()
}

// TestTimeOfDayHelpers round-trips HH:MM strings.
func TestTimeOfDayHelpers(t *testing.T) {
	t.Parallel()

	s, err := ParseTimeOfDay("06:15")
	require.NoError(t, err)
	require.Equal(t, uint32(22500), s)
	require.Equal(t, "06:15", FormatTimeOfDay(s))

	s, err = ParseTimeOfDay("21:00:30")
	require.NoError(t, err)
	require.Equal(t, uint32(75630), s)

	_, err = ParseTimeOfDay("6h15")
	require.Error(t, err)

	require.Equal(t, "UTC", FixedZone(0).String())
}
