//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oshokin/irrigation/internal/actuator"
	api "github.com/oshokin/irrigation/internal/api/grpc/irrigation"
	"github.com/oshokin/irrigation/internal/clock"
	"github.com/oshokin/irrigation/internal/controller"
	domain "github.com/oshokin/irrigation/internal/domain/irrigation"
	"github.com/oshokin/irrigation/internal/logger"
	"github.com/oshokin/irrigation/internal/repository/settings"
)

// serverTime is 2026-10-18 06:00:00 in UTC-3.
var serverTime = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// startServer serves a real controller over an in-memory listener and returns
// a client plus the observed server logs.
func startServer(t *testing.T, actor Actor) (*Client, *observer.ObservedLogs) {
	t.Helper()

	clk := clock.New(clock.DefaultUTCOffsetHours, clock.WithNow(func() time.Time { return serverTime }))

	ctrl, err := controller.New(context.Background(), clk, settings.New(settings.NewMemoryStore()),
		[]controller.DeviceSpec{
			{Name: "goteros", Pin: 33, Line: actuator.NewMemoryLine(), Schedule: domain.NewSchedule(16, 0, 5*time.Hour)},
			{Name: "atras_360", Pin: 25, Line: actuator.NewMemoryLine(), Schedule: domain.NewSchedule(3, 30, 90*time.Minute)},
		})
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	withLogger := func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(logger.ToContext(ctx, zap.New(core).Sugar()), req)
	}

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(withLogger, AuditInterceptor()))
	api.RegisterControllerServer(server, api.NewServer(ctrl))

	go func() {
		_ = server.Serve(listener)
	}()

	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	client := &Client{
		conn:        conn,
		api:         api.NewControllerClient(conn),
		callTimeout: time.Second,
		actor:       actor,
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, logs
}

// TestClient_Operations drives every operation against a live controller.
func TestClient_Operations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, _ := startServer(t, Actor{Hostname: "garden-pi", Username: "o.shokin"})

	snapshot, err := client.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Devices, 2)
	require.False(t, snapshot.ManualMode)
	require.Equal(t, serverTime.Unix(), snapshot.Time.Unix())

	require.NoError(t, client.ToggleDevice(ctx, "goteros"))
	require.NoError(t, client.UpdateSchedule(ctx, "atras_360", 7*3600, 600))

	manual, err := client.ToggleManualMode(ctx)
	require.NoError(t, err)
	require.True(t, manual)

	offset, err := client.SyncClock(ctx, serverTime.Unix()+90)
	require.NoError(t, err)
	require.Equal(t, int64(90), offset)

	snapshot, err = client.Snapshot(ctx)
	require.NoError(t, err)
	require.True(t, snapshot.ManualMode)
	require.Equal(t, int64(90), snapshot.ClockOffset)

	goteros, ok := snapshot.Device("goteros")
	require.True(t, ok)
	require.True(t, goteros.IsOn)

	atras, ok := snapshot.Device("atras_360")
	require.True(t, ok)
	require.Equal(t, domain.Schedule{StartOffsetSeconds: 7 * 3600, DurationSeconds: 600}, atras.Schedule)
}

// TestClient_UnknownDevice surfaces NotFound from the server.
func TestClient_UnknownDevice(t *testing.T) {
	t.Parallel()

	client, _ := startServer(t, Actor{})

	err := client.ToggleDevice(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, codes.NotFound, status.Code(err))

	err = client.UpdateSchedule(context.Background(), "missing", 0, 0)
	require.Equal(t, codes.NotFound, status.Code(err))
}

// TestAuditInterceptor logs the method and the actor of each call.
func TestAuditInterceptor(t *testing.T) {
	t.Parallel()

	client, logs := startServer(t, Actor{Hostname: "garden-pi", Username: "o.shokin"})

	require.NoError(t, client.ToggleDevice(context.Background(), "goteros"))
	require.Error(t, client.ToggleDevice(context.Background(), "missing"))

	handled := logs.FilterMessage("RPC handled").All()
	require.Len(t, handled, 1)
	require.Equal(t, api.ToggleDeviceMethod, handled[0].ContextMap()["method"])
	require.Equal(t, "o.shokin@garden-pi", handled[0].ContextMap()["actor"])

	failed := logs.FilterMessage("RPC failed").All()
	require.Len(t, failed, 1)
	require.Equal(t, codes.NotFound.String(), failed[0].ContextMap()["code"])

	changed := logs.FilterMessage("Valve changed").All()
	require.Len(t, changed, 1)
	require.Equal(t, "o.shokin@garden-pi", changed[0].ContextMap()["actor"])
}
