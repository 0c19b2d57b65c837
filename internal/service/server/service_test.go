package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/irrigation/internal/actuator"
	"github.com/oshokin/irrigation/internal/config"
	"github.com/oshokin/irrigation/internal/controller"
	domain "github.com/oshokin/irrigation/internal/domain/irrigation"
	"github.com/oshokin/irrigation/internal/events"
	"github.com/oshokin/irrigation/internal/repository/settings"
)

var errTestList = errors.New("test list error")

// serverTime is 2026-10-18 06:00:00 in UTC-3.
var serverTime = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

// fakeProcess is a minimal ps.Process.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

// recordingSink keeps every event it receives.
type recordingSink struct {
	mu       sync.Mutex
	received []events.Event
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(_ context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received = append(s.received, e)

	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) types() []events.Type {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make([]events.Type, 0, len(s.received))
	for _, e := range s.received {
		types = append(types, e.Type)
	}

	return types
}

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Preset: config.PresetBackYard,
		Store:  config.StoreConfig{Backend: config.StoreMemory},
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// TestResolveListenAddress covers overrides, port extraction and errors.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	addr, err := resolveListenAddress("garden-pi:50051", "")
	require.NoError(t, err)
	require.Equal(t, ":50051", addr)

	addr, err = resolveListenAddress("garden-pi:50051", "127.0.0.1:0")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:0", addr)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("garden-pi", "")
	require.Error(t, err)
}

// TestCheckSingleInstance ignores this process and detects a sibling.
func TestCheckSingleInstance(t *testing.T) {
	t.Parallel()

	list := func() ([]ps.Process, error) {
		return []ps.Process{
			fakeProcess{pid: 10, executable: "irrigation-server"},
			fakeProcess{pid: 11, executable: "sshd"},
		}, nil
	}

	require.NoError(t, checkSingleInstance(list, "irrigation-server", 10))
	require.ErrorIs(t, checkSingleInstance(list, "irrigation-server", 12), ErrAlreadyRunning)
	require.NoError(t, checkSingleInstance(list, "irrigation-ctl", 12))

	failing := func() ([]ps.Process, error) { return nil, errTestList }
	require.ErrorIs(t, checkSingleInstance(failing, "irrigation-server", 1), errTestList)
}

// TestDefaultSchedule converts configured windows into seconds.
func TestDefaultSchedule(t *testing.T) {
	t.Parallel()

	schedule, err := defaultSchedule(config.DeviceConfig{Name: "goteros", Start: "16:00", Duration: 5 * time.Hour})
	require.NoError(t, err)
	require.Equal(t, domain.NewSchedule(16, 0, 5*time.Hour), schedule)

	schedule, err = defaultSchedule(config.DeviceConfig{Name: "late", Start: "23:59:30", Duration: 0})
	require.NoError(t, err)
	require.Equal(t, domain.Schedule{StartOffsetSeconds: 86370}, schedule)

	_, err = defaultSchedule(config.DeviceConfig{Name: "bad", Start: "25:00"})
	require.Error(t, err)

	_, err = defaultSchedule(config.DeviceConfig{Name: "long", Start: "00:00", Duration: 200 * 365 * 24 * time.Hour})
	require.ErrorIs(t, err, errDurationTooLong)
}

// TestNew_BuildsPresetDevices wires the preset devices and the heartbeat line.
func TestNew_BuildsPresetDevices(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	heartbeatPin := 2
	cfg.Hardware.HeartbeatPin = &heartbeatPin

	var (
		mu     sync.Mutex
		opened = make(map[string]int)
	)

	factory := func(name string, pin int) (actuator.Line, error) {
		mu.Lock()
		defer mu.Unlock()

		opened[name] = pin

		return actuator.NewMemoryLine(), nil
	}

	srv, err := New(context.Background(), cfg, WithLineFactory(factory), WithNow(func() time.Time { return serverTime }))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, srv.Close())
	})

	require.Equal(t, map[string]int{
		"microaspersores_frente": 32,
		"goteros":                33,
		"atras_360":              25,
		"atras_pileta":           26,
		controller.HeartbeatName: 2,
	}, opened)

	snapshot := srv.Controller().Snapshot()
	require.Len(t, snapshot.Devices, 4)
	require.Equal(t, "microaspersores_frente", snapshot.Devices[0].Name)
	require.Equal(t, serverTime.Unix(), snapshot.Time.Unix())
}

// TestNew_LineFailureReleasesResources fails when a line cannot be opened.
func TestNew_LineFailureReleasesResources(t *testing.T) {
	t.Parallel()

	errBusy := errors.New("line busy")
	factory := func(name string, _ int) (actuator.Line, error) {
		if name == "goteros" {
			return nil, errBusy
		}

		return actuator.NewMemoryLine(), nil
	}

	_, err := New(context.Background(), memoryConfig(t), WithLineFactory(factory))
	require.ErrorIs(t, err, errBusy)
}

// TestNew_FileStoreSurvivesRestart restores a schedule written by a previous server.
func TestNew_FileStoreSurvivesRestart(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	cfg.Store = config.StoreConfig{Backend: config.StoreFile, Path: filepath.Join(t.TempDir(), "state.json")}

	ctx := context.Background()

	first, err := New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, first.Controller().UpdateSchedule(ctx, "goteros", 3600, 60))
	require.True(t, first.Controller().ToggleManualMode(ctx))
	require.NoError(t, first.Close())

	second, err := New(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = second.Close()
	})

	snapshot := second.Controller().Snapshot()
	goteros, ok := snapshot.Device("goteros")
	require.True(t, ok)
	require.Equal(t, domain.Schedule{StartOffsetSeconds: 3600, DurationSeconds: 60}, goteros.Schedule)
	require.True(t, snapshot.ManualMode)

	value, err := settings.NewFileStore(cfg.Store.Path).GetU8(ctx, settings.KeyManualMode)
	require.NoError(t, err)
	require.Equal(t, uint8(1), value)
}

// TestServe_RunsUntilCanceled serves HTTP, forwards events and stops on cancel.
func TestServe_RunsUntilCanceled(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	sink := new(recordingSink)

	srv, err := New(context.Background(), cfg, WithSinks(sink))
	require.NoError(t, err)

	grpcListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	httpListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- srv.Serve(ctx, grpcListener, httpListener)
	}()

	url := fmt.Sprintf("http://%s/toggle/manual_mode", httpListener.Addr())

	require.Eventually(t, func() bool {
		resp, getErr := http.Get(url) //nolint:noctx // Test helper.
		if getErr != nil {
			return false
		}

		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	require.True(t, srv.Controller().ManualMode())

	require.Eventually(t, func() bool {
		for _, eventType := range sink.types() {
			if eventType == events.TypeModeChanged {
				return true
			}
		}

		return false
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}

	require.NoError(t, srv.Close())
}
