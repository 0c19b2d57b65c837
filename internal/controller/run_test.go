package controller

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/irrigation/internal/actuator"
	"github.com/oshokin/irrigation/internal/clock"
	"github.com/oshokin/irrigation/internal/domain/irrigation"
	"github.com/oshokin/irrigation/internal/repository/settings"
)

// TestRun ticks on start and on every interval until canceled.
func TestRun(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		// The bubble starts at 2000-01-01 00:00 UTC, 21:00 in UTC-3.
		valve := actuator.NewMemoryLine()
		heartbeat := actuator.NewMemoryLine()

		c, err := New(context.Background(),
			clock.New(clock.DefaultUTCOffsetHours),
			settings.New(settings.NewMemoryStore()),
			[]DeviceSpec{{Name: "atras_pileta", Pin: 26, Line: valve, Schedule: irrigation.NewSchedule(21, 0, 2*time.Second)}},
			WithHeartbeat(heartbeat))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		go func() {
			defer close(done)
			c.Run(ctx, time.Second)
		}()

		synctest.Wait()
		require.Equal(t, 1, heartbeat.Writes())
		require.True(t, isOn(t, c, "atras_pileta"))

		time.Sleep(2 * time.Second)
		synctest.Wait()
		require.Equal(t, 3, heartbeat.Writes())
		require.False(t, isOn(t, c, "atras_pileta"))

		cancel()
		<-done

		time.Sleep(5 * time.Second)
		require.Equal(t, 3, heartbeat.Writes())
		require.Equal(t, 2, valve.Writes())
	})
}
