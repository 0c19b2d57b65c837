package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"google.golang.org/grpc"

	"github.com/oshokin/irrigation/internal/actuator"
	grpcapi "github.com/oshokin/irrigation/internal/api/grpc/irrigation"
	httpapi "github.com/oshokin/irrigation/internal/api/http/irrigation"
	"github.com/oshokin/irrigation/internal/clock"
	"github.com/oshokin/irrigation/internal/config"
	"github.com/oshokin/irrigation/internal/controller"
	domain "github.com/oshokin/irrigation/internal/domain/irrigation"
	"github.com/oshokin/irrigation/internal/events"
	"github.com/oshokin/irrigation/internal/logger"
	"github.com/oshokin/irrigation/internal/repository/settings"
	"github.com/oshokin/irrigation/internal/service/common"
)

// consumerPrefix labels requested GPIO lines in the kernel.
const consumerPrefix = "irrigation-"

// errDurationTooLong is returned for a default window that does not fit in 32 bits of seconds.
var errDurationTooLong = errors.New("duration exceeds the schedule range")

// Server owns the controller and every resource wired around it.
type Server struct {
	// cfg is the validated configuration the server was built from.
	cfg *config.Config
	// controller holds the valves and the control loop.
	controller *controller.Controller
	// bus fans controller events out to sinks.
	bus *events.Bus
	// sinks receive events from the bus.
	sinks []events.Sink
	// closers release lines and store connections on shutdown.
	closers []io.Closer
	// storeDescription is logged on start.
	storeDescription string
}

// Option tweaks how a Server is assembled.
type Option func(*buildOptions)

type buildOptions struct {
	now   func() time.Time
	lines func(name string, pin int) (actuator.Line, error)
	sinks []events.Sink
}

// WithNow replaces the system clock.
func WithNow(now func() time.Time) Option {
	return func(o *buildOptions) {
		o.now = now
	}
}

// WithLineFactory overrides how output lines are obtained.
func WithLineFactory(factory func(name string, pin int) (actuator.Line, error)) Option {
	return func(o *buildOptions) {
		o.lines = factory
	}
}

// WithSinks adds event sinks besides the configured brokers.
func WithSinks(sinks ...events.Sink) Option {
	return func(o *buildOptions) {
		o.sinks = append(o.sinks, sinks...)
	}
}

// New builds the settings store, the output lines, the controller and the
// configured event sinks. On error every resource acquired so far is released.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	build := new(buildOptions)
	for _, opt := range opts {
		opt(build)
	}

	s := &Server{
		cfg: cfg,
		bus: events.NewBus(),
	}

	ok := false

	defer func() {
		if !ok {
			_ = s.Close()
		}
	}()

	store, err := s.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}

	if build.lines == nil {
		build.lines = s.openLine
	}

	specs, err := s.deviceSpecs(build.lines)
	if err != nil {
		return nil, err
	}

	controllerOptions := []controller.Option{controller.WithBus(s.bus)}

	if pin := cfg.Hardware.HeartbeatPin; pin != nil {
		line, lineErr := build.lines(controller.HeartbeatName, *pin)
		if lineErr != nil {
			return nil, fmt.Errorf("open heartbeat line: %w", lineErr)
		}

		controllerOptions = append(controllerOptions, controller.WithHeartbeat(line))
	}

	var clockOptions []clock.Option
	if build.now != nil {
		clockOptions = append(clockOptions, clock.WithNow(build.now))
	}

	clk := clock.New(cfg.UTCOffset(), clockOptions...)

	s.controller, err = controller.New(ctx, clk, settings.New(store), specs, controllerOptions...)
	if err != nil {
		return nil, fmt.Errorf("build controller: %w", err)
	}

	if err = s.openSinks(); err != nil {
		return nil, err
	}

	s.sinks = append(s.sinks, build.sinks...)
	ok = true

	return s, nil
}

// Controller exposes the running controller.
func (s *Server) Controller() *controller.Controller {
	return s.controller
}

// Serve runs the control loop, the event forwarders, the HTTP server and the
// gRPC server until ctx is canceled or a server fails, then stops them gracefully.
func (s *Server) Serve(ctx context.Context, grpcListener, httpListener net.Listener) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(common.AuditInterceptor()))
	grpcapi.RegisterControllerServer(grpcServer, grpcapi.NewServer(s.controller))

	httpServer := &http.Server{
		Handler: httpapi.NewHandler(s.controller,
			httpapi.WithMetrics(s.cfg.Metrics.Enabled),
			httpapi.WithLogger(logger.FromContext(ctx))),
		ReadHeaderTimeout: s.cfg.Timeout,
		BaseContext: func(net.Listener) context.Context {
			return runCtx
		},
	}

	logger.InfoKV(ctx, "Irrigation server listening",
		"grpc_address", grpcListener.Addr().String(),
		"http_address", httpListener.Addr().String(),
		"store", s.storeDescription,
		"driver", s.cfg.Hardware.Driver,
		"sinks", len(s.sinks))

	var wg sync.WaitGroup

	for _, sink := range s.sinks {
		sub := s.bus.Subscribe()

		wg.Go(func() {
			events.Forward(runCtx, sub, sink)
		})
	}

	wg.Go(func() {
		s.controller.Run(runCtx, s.cfg.TickInterval)
	})

	errs := make(chan error, 2) //nolint:mnd // One slot per server.

	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errs <- fmt.Errorf("serve gRPC: %w", err)
		}
	}()

	go func() {
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("serve HTTP: %w", err)
		}
	}()

	var serveErr error

	select {
	case <-runCtx.Done():
	case serveErr = <-errs:
		logger.ErrorKV(ctx, "Server failed, shutting down", "error", serveErr)
	}

	stop()
	logger.Info(ctx, "Shutting down servers")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WarnKV(ctx, "HTTP server did not stop cleanly", "error", err)
	}

	grpcServer.GracefulStop()
	wg.Wait()

	logger.Info(ctx, "Servers stopped")

	return serveErr
}

// Close releases sinks, lines and the store connection.
func (s *Server) Close() error {
	var errs []error

	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", sink.Name(), err))
		}
	}

	for _, closer := range s.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	s.sinks, s.closers = nil, nil

	return errors.Join(errs...)
}

func (s *Server) openStore(ctx context.Context) (settings.Store, error) {
	store := s.cfg.Store

	switch store.Backend {
	case config.StoreRedis:
		client, err := settings.DialRedis(ctx, store.Redis.Addr, store.Redis.Password, store.Redis.DB)
		if err != nil {
			return nil, err
		}

		s.closers = append(s.closers, client)
		s.storeDescription = "redis " + store.Redis.Addr

		return settings.NewRedisStore(client, store.Redis.Namespace), nil
	case config.StoreMemory:
		s.storeDescription = config.StoreMemory

		return settings.NewMemoryStore(), nil
	default:
		s.storeDescription = "file " + store.Path

		return settings.NewFileStore(store.Path), nil
	}
}

func (s *Server) openLine(name string, pin int) (actuator.Line, error) {
	if s.cfg.Hardware.Driver != config.DriverGPIOCDev {
		return actuator.NewMemoryLine(), nil
	}

	line, err := actuator.OpenGPIOLine(s.cfg.Hardware.Chip, pin, consumerPrefix+name)
	if err != nil {
		return nil, err
	}

	s.closers = append(s.closers, line)

	return line, nil
}

func (s *Server) deviceSpecs(openLine func(name string, pin int) (actuator.Line, error)) ([]controller.DeviceSpec, error) {
	devices, err := s.cfg.ResolveDevices()
	if err != nil {
		return nil, err
	}

	specs := make([]controller.DeviceSpec, 0, len(devices))

	for _, d := range devices {
		schedule, scheduleErr := defaultSchedule(d)
		if scheduleErr != nil {
			return nil, scheduleErr
		}

		line, lineErr := openLine(d.Name, d.Pin)
		if lineErr != nil {
			return nil, fmt.Errorf("open line of %q: %w", d.Name, lineErr)
		}

		specs = append(specs, controller.DeviceSpec{
			Name:     d.Name,
			Pin:      d.Pin,
			Line:     line,
			Schedule: schedule,
		})
	}

	return specs, nil
}

func (s *Server) openSinks() error {
	ev := s.cfg.Events

	if ev.MQTT.Enabled {
		sink, err := events.DialMQTT(events.MQTTConfig{
			Broker:   ev.MQTT.Broker,
			ClientID: ev.MQTT.ClientID,
			Topic:    ev.MQTT.Topic,
			QoS:      ev.MQTT.QoS,
			Username: ev.MQTT.Username,
			Password: ev.MQTT.Password,
			Timeout:  s.cfg.Timeout,
		})
		if err != nil {
			return fmt.Errorf("connect mqtt sink: %w", err)
		}

		s.sinks = append(s.sinks, sink)
	}

	if ev.NATS.Enabled {
		sink, err := events.DialNATS(events.NATSConfig{
			URL:     ev.NATS.URL,
			Subject: ev.NATS.Subject,
			Token:   ev.NATS.Token,
			Timeout: s.cfg.Timeout,
		})
		if err != nil {
			return fmt.Errorf("connect nats sink: %w", err)
		}

		s.sinks = append(s.sinks, sink)
	}

	return nil
}

// defaultSchedule converts a configured device window into seconds.
func defaultSchedule(d config.DeviceConfig) (domain.Schedule, error) {
	start, err := clock.ParseTimeOfDay(d.Start)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("device %q: %w", d.Name, err)
	}

	seconds := int64(d.Duration / time.Second)
	if seconds < 0 || seconds > math.MaxUint32 {
		return domain.Schedule{}, fmt.Errorf("device %q: %w", d.Name, errDurationTooLong)
	}

	return domain.Schedule{
		StartOffsetSeconds: start,
		DurationSeconds:    uint32(seconds),
	}, nil
}
