package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/oshokin/irrigation/internal/clock"
	"github.com/oshokin/irrigation/internal/config"
	domain "github.com/oshokin/irrigation/internal/domain/irrigation"
	"github.com/oshokin/irrigation/internal/logger"
	"github.com/oshokin/irrigation/internal/service/common"
)

// Options configures how irrigation-ctl reaches the server.
type Options struct {
	// ConfigPath to YAML settings file. A missing default file selects built-in defaults.
	ConfigPath string
	// ServerAddress overrides the gRPC address from config when specified.
	ServerAddress string
	// Output receives command results. Defaults to stdout.
	Output io.Writer
}

// defaultRetryInterval defines the delay between attempts of retried commands.
const defaultRetryInterval = time.Second

// errDurationOutOfRange is returned for a window length that does not fit the schedule.
var errDurationOutOfRange = errors.New("duration out of range")

// controllerAPI is the subset of the gRPC client used by commands.
type controllerAPI interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	ToggleDevice(ctx context.Context, name string) error
	UpdateSchedule(ctx context.Context, name string, startOffsetSeconds, durationSeconds uint32) error
	ToggleManualMode(ctx context.Context) (bool, error)
	SyncClock(ctx context.Context, epochSeconds int64) (int64, error)
	Close() error
}

// Session is a connected control client.
type Session struct {
	// api talks to the server.
	api controllerAPI
	// out receives command results.
	out io.Writer
	// now is the local clock used for clock sync.
	now func() time.Time
	// retryInterval separates attempts of retried commands.
	retryInterval time.Duration
}

// Connect loads settings, detects the local actor and dials the server.
func Connect(ctx context.Context, opts *Options) (*Session, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "irrigation-ctl")

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.GRPCAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for the server audit log.
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	}

	api, err := common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Timeout),
		common.WithActor(actor))
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Connected to irrigation server", "server_address", serverAddress, "actor", actor.String())

	return newSession(api, opts.Output), nil
}

func newSession(api controllerAPI, out io.Writer) *Session {
	if out == nil {
		out = os.Stdout
	}

	return &Session{
		api:           api,
		out:           out,
		now:           time.Now,
		retryInterval: defaultRetryInterval,
	}
}

// Close releases the connection.
func (s *Session) Close() error {
	return s.api.Close()
}

// Status prints the controller state.
func (s *Session) Status(ctx context.Context) error {
	snapshot, err := s.api.Snapshot(ctx)
	if err != nil {
		return err
	}

	return writeSnapshot(s.out, snapshot)
}

// ToggleDevice inverts one valve and prints its new state.
func (s *Session) ToggleDevice(ctx context.Context, name string) error {
	if err := s.api.ToggleDevice(ctx, name); err != nil {
		return err
	}

	snapshot, err := s.api.Snapshot(ctx)
	if err != nil {
		return err
	}

	if device, ok := snapshot.Device(name); ok {
		_, err = fmt.Fprintf(s.out, "%s is now %s\n", name, onOff(device.IsOn))
	}

	return err
}

// ToggleMode flips between automatic and manual mode.
func (s *Session) ToggleMode(ctx context.Context) error {
	manual, err := s.api.ToggleManualMode(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(s.out, "mode is now %s\n", domain.Mode(manual))

	return err
}

// SetSchedule replaces the daily window of one valve. start is HH:MM or HH:MM:SS.
func (s *Session) SetSchedule(ctx context.Context, name, start string, duration time.Duration) error {
	startSeconds, err := clock.ParseTimeOfDay(start)
	if err != nil {
		return err
	}

	seconds := int64(duration / time.Second)
	if seconds < 0 || seconds > math.MaxUint32 {
		return fmt.Errorf("%w: %s", errDurationOutOfRange, duration)
	}

	if err = s.api.UpdateSchedule(ctx, name, startSeconds, uint32(seconds)); err != nil {
		return err
	}

	_, err = fmt.Fprintf(s.out, "%s runs daily from %s for %s\n", name, clock.FormatTimeOfDay(startSeconds), duration)

	return err
}

// SyncTime sends the local time to the server. With retry it keeps trying
// until the server answers or ctx is canceled.
func (s *Session) SyncTime(ctx context.Context, retry bool) error {
	attempt := func() (bool, error) {
		offset, err := s.api.SyncClock(ctx, s.now().Unix())
		if err != nil {
			if !retry {
				return false, err
			}

			// Log error but continue retrying for transient failures.
			logger.ErrorKV(ctx, "SyncClock failed", "error", err)

			return false, nil
		}

		_, err = fmt.Fprintf(s.out, "clock synchronized, offset %s\n", time.Duration(offset)*time.Second)

		return true, err
	}

	// Attempt immediately before starting retry loop.
	if done, err := attempt(); err != nil || done {
		return err
	}

	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			done, err := attempt()
			if err != nil || done {
				return err
			}
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}

	if errors.Is(err, os.ErrNotExist) && (path == "" || path == config.DefaultConfigFilename) {
		return config.Default(), nil
	}

	return nil, err
}
