package irrigation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestScheduleContains covers the half-open window, including the 06:00 for 45 minutes scenario.
func TestScheduleContains(t *testing.T) {
	t.Parallel()

	s := Schedule{StartOffsetSeconds: 21600, DurationSeconds: 2700}

	cases := map[uint32]bool{
		21599: false,
		21600: true,
		24299: true,
		24300: false,
		0:     false,
	}
	for now, want := range cases {
		require.Equal(t, want, s.Contains(now), "now=%d", now)
	}
}

// TestScheduleZeroDurationIsAlwaysOff checks that an empty window never matches.
func TestScheduleZeroDurationIsAlwaysOff(t *testing.T) {
	t.Parallel()

	s := Schedule{StartOffsetSeconds: 100}
	for _, now := range []uint32{0, 99, 100, 101, SecondsPerDay - 1} {
		require.False(t, s.Contains(now))
	}
}

// TestScheduleDoesNotWrapMidnight documents that late windows do not spill into the next morning.
func TestScheduleDoesNotWrapMidnight(t *testing.T) {
	t.Parallel()

	s := NewSchedule(23, 0, 5*time.Hour)

	require.Equal(t, uint64(28*3600), s.End())
	require.True(t, s.Contains(23*3600+30*60))
	require.False(t, s.Contains(2*3600))
}

// TestScheduleOutOfRangeStart checks that a start beyond the day never triggers.
func TestScheduleOutOfRangeStart(t *testing.T) {
	t.Parallel()

	s := Schedule{StartOffsetSeconds: SecondsPerDay + 10, DurationSeconds: 600}
	require.False(t, s.Contains(SecondsPerDay-1))
	require.False(t, s.Contains(10))
}

// TestScheduleEndDoesNotOverflow guards the 64-bit end computation.
func TestScheduleEndDoesNotOverflow(t *testing.T) {
	t.Parallel()

	s := Schedule{StartOffsetSeconds: math.MaxUint32, DurationSeconds: math.MaxUint32}
	require.Equal(t, uint64(math.MaxUint32)*2, s.End())
	require.True(t, s.Contains(math.MaxUint32))
}

// TestScheduleString renders the start and duration.
func TestScheduleString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "06:15:00+45m0s", NewSchedule(6, 15, 45*time.Minute).String())
}

// TestSnapshotClone verifies that Clone copies the device slice.
func TestSnapshotClone(t *testing.T) {
	t.Parallel()

	s := &Snapshot{
		ManualMode: true,
		Devices:    []DeviceState{{Name: "goteros", IsOn: true}},
	}

	c := s.Clone()
	c.Devices[0].IsOn = false

	require.True(t, s.Devices[0].IsOn)
	require.True(t, c.ManualMode)

	d, ok := s.Device("goteros")
	require.True(t, ok)
	require.Equal(t, "goteros", d.Name)

	_, ok = s.Device("missing")
	require.False(t, ok)
}

// TestModeString checks the mode labels.
func TestModeString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "auto", ModeAuto.String())
	require.Equal(t, "manual", ModeManual.String())
}
