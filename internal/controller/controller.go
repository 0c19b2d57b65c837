package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/irrigation/internal/actuator"
	"github.com/oshokin/irrigation/internal/clock"
	"github.com/oshokin/irrigation/internal/domain/irrigation"
	"github.com/oshokin/irrigation/internal/events"
	"github.com/oshokin/irrigation/internal/logger"
	"github.com/oshokin/irrigation/internal/repository/settings"
	"github.com/oshokin/irrigation/internal/telemetry"
)

// HeartbeatName labels the heartbeat output in logs and metrics.
const HeartbeatName = "heartbeat"

var (
	errNoDevices     = errors.New("at least one device is required")
	errEmptyName     = errors.New("device name must not be empty")
	errDuplicateName = errors.New("duplicate device name")
)

// DeviceSpec describes one valve at construction time.
type DeviceSpec struct {
	// Name is the unique device identifier.
	Name string
	// Pin is the output line offset, reported in snapshots.
	Pin int
	// Line drives the valve.
	Line actuator.Line
	// Schedule is used when no window has been persisted.
	Schedule irrigation.Schedule
}

// Controller owns the devices and the operating mode.
type Controller struct {
	clock    *clock.Clock
	settings *settings.Settings
	bus      *events.Bus

	// heartbeat blinks once per tick when configured.
	heartbeat *actuator.Actuator
	// devices keeps configuration order.
	devices []*Device
	// byName indexes devices.
	byName map[string]*Device

	// modeMu protects manual.
	modeMu sync.RWMutex
	// manual suspends schedule evaluation.
	manual bool

	// persistMu serializes settings writes.
	persistMu sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithBus publishes state changes on bus.
func WithBus(bus *events.Bus) Option {
	return func(c *Controller) {
		c.bus = bus
	}
}

// WithHeartbeat toggles line on every tick.
func WithHeartbeat(line actuator.Line) Option {
	return func(c *Controller) {
		if line != nil {
			c.heartbeat = actuator.New(HeartbeatName, line)
		}
	}
}

// New builds a controller and restores persisted schedules, mode and clock offset.
// Absent or unreadable settings fall back to the DeviceSpec schedule, automatic mode
// and the clock's current offset.
func New(
	ctx context.Context,
	clk *clock.Clock,
	repo *settings.Settings,
	specs []DeviceSpec,
	opts ...Option,
) (*Controller, error) {
	if len(specs) == 0 {
		return nil, errNoDevices
	}

	c := &Controller{
		clock:    clk,
		settings: repo,
		devices:  make([]*Device, 0, len(specs)),
		byName:   make(map[string]*Device, len(specs)),
	}

	for _, opt := range opts {
		opt(c)
	}

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, errEmptyName
		}

		if _, exists := c.byName[spec.Name]; exists {
			return nil, fmt.Errorf("%w: %s", errDuplicateName, spec.Name)
		}

		act := actuator.New(spec.Name, spec.Line,
			actuator.WithObserver(c.onTransition),
			actuator.WithNow(clk.Now))

		device := NewDevice(spec.Name, spec.Pin, act, repo.LoadSchedule(ctx, spec.Name, spec.Schedule))

		c.devices = append(c.devices, device)
		c.byName[spec.Name] = device

		telemetry.ValveOpen.WithLabelValues(spec.Name).Set(0)
	}

	c.manual = repo.LoadManualMode(ctx, false)
	clk.SetOffset(repo.LoadClockOffset(ctx, clk.Offset()))

	telemetry.ManualMode.Set(telemetry.BoolGauge(c.manual))
	telemetry.ClockOffsetSeconds.Set(float64(clk.Offset()))

	logger.InfoKV(ctx, "Controller restored",
		"devices", len(c.devices),
		"manual_mode", c.manual,
		"clock_offset", clk.Offset())

	return c, nil
}

// Clock returns the controller clock.
func (c *Controller) Clock() *clock.Clock {
	return c.clock
}

// ManualMode reports whether schedule evaluation is suspended.
func (c *Controller) ManualMode() bool {
	c.modeMu.RLock()
	defer c.modeMu.RUnlock()

	return c.manual
}

// Mode returns the operating mode.
func (c *Controller) Mode() irrigation.Mode {
	return irrigation.Mode(c.ManualMode())
}

// Tick evaluates every schedule at now (seconds since midnight) in configuration
// order. In manual mode no device is touched. Tick never blocks.
func (c *Controller) Tick(ctx context.Context, now uint32) {
	started := time.Now()

	defer func() {
		telemetry.TicksTotal.Inc()
		telemetry.TickDuration.Observe(time.Since(started).Seconds())
	}()

	if c.heartbeat != nil {
		c.heartbeat.Toggle(ctx)
	}

	if c.ManualMode() {
		return
	}

	for _, d := range c.devices {
		d.Update(ctx, now)
	}
}

// Run ticks immediately and then every interval until ctx is canceled.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	ctx = logger.WithName(ctx, "control-loop")
	logger.InfoKV(ctx, "Control loop started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Tick(ctx, c.clock.SecondsSinceMidnight())

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Control loop stopped")
			return
		case <-ticker.C:
			c.Tick(ctx, c.clock.SecondsSinceMidnight())
		}
	}
}

// Snapshot returns the current state of the controller.
func (c *Controller) Snapshot() irrigation.Snapshot {
	snapshot := irrigation.Snapshot{
		Time:        c.clock.Now(),
		ClockOffset: c.clock.Offset(),
		ManualMode:  c.ManualMode(),
		Devices:     make([]irrigation.DeviceState, 0, len(c.devices)),
	}

	for _, d := range c.devices {
		snapshot.Devices = append(snapshot.Devices, d.State())
	}

	return snapshot
}

// ToggleDevice inverts the named valve regardless of mode. In automatic mode
// the next tick may drive it back to its scheduled level.
func (c *Controller) ToggleDevice(ctx context.Context, name string) error {
	d, err := c.device(name)
	if err != nil {
		return err
	}

	d.Toggle(ctx)

	return nil
}

// UpdateSchedule replaces the window of the named device and persists it.
// Values are not range checked.
func (c *Controller) UpdateSchedule(ctx context.Context, name string, startOffsetSeconds, durationSeconds uint32) error {
	d, err := c.device(name)
	if err != nil {
		return err
	}

	schedule := irrigation.Schedule{
		StartOffsetSeconds: startOffsetSeconds,
		DurationSeconds:    durationSeconds,
	}

	d.SetSchedule(schedule)

	logger.InfoKV(ctx, "Schedule updated", "device", name, "schedule", schedule.String())
	c.publish(events.TypeScheduleUpdated, events.Payload{
		"device":   name,
		"start":    startOffsetSeconds,
		"duration": durationSeconds,
	})

	c.persist(ctx, settings.DeviceKey(name, ""), func() error {
		return c.settings.SaveSchedule(ctx, name, d.Schedule())
	})

	return nil
}

// ToggleManualMode flips the operating mode and returns true when manual mode is now active.
// No valve is changed.
func (c *Controller) ToggleManualMode(ctx context.Context) bool {
	c.modeMu.Lock()
	c.manual = !c.manual
	manual := c.manual
	c.modeMu.Unlock()

	telemetry.ManualMode.Set(telemetry.BoolGauge(manual))
	logger.InfoKV(ctx, "Mode changed", "mode", irrigation.Mode(manual).String())
	c.publish(events.TypeModeChanged, events.Payload{"manual_mode": manual})

	c.persist(ctx, settings.KeyManualMode, func() error {
		return c.settings.SaveManualMode(ctx, c.ManualMode())
	})

	return manual
}

// SyncClock makes the controller clock report clientEpochSeconds as now and
// returns the resulting offset.
func (c *Controller) SyncClock(ctx context.Context, clientEpochSeconds int64) int64 {
	offset := c.clock.Sync(clientEpochSeconds)

	telemetry.ClockOffsetSeconds.Set(float64(offset))
	logger.InfoKV(ctx, "Clock synchronized", "client_epoch", clientEpochSeconds, "offset", offset)
	c.publish(events.TypeClockSynced, events.Payload{"offset": offset})

	c.persist(ctx, settings.KeyClockOffset, func() error {
		return c.settings.SaveClockOffset(ctx, c.clock.Offset())
	})

	return offset
}

func (c *Controller) device(name string) (*Device, error) {
	d, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", irrigation.ErrNotFound, name)
	}

	return d, nil
}

// persist runs save under persistMu. save must read the latest in-memory
// value so that racing writers cannot store a stale one last.
func (c *Controller) persist(ctx context.Context, key string, save func() error) {
	c.persistMu.Lock()
	err := save()
	c.persistMu.Unlock()

	if err != nil {
		logger.ErrorKV(ctx, "Failed to persist setting", "key", key, "error", err)
		telemetry.PersistenceWriteFailuresTotal.WithLabelValues(key).Inc()
	}
}

func (c *Controller) onTransition(ctx context.Context, t actuator.Transition) {
	state := "off"
	if t.On {
		state = "on"
	}

	telemetry.ValveTransitionsTotal.WithLabelValues(t.Device, state, string(t.Source)).Inc()
	telemetry.ValveOpen.WithLabelValues(t.Device).Set(telemetry.BoolGauge(t.On))

	logger.InfoKV(ctx, "Valve changed", "device", t.Device, "state", state, "source", t.Source)

	c.publishAt(t.At, events.TypeValveChanged, events.Payload{
		"device": t.Device,
		"on":     t.On,
		"source": string(t.Source),
	})
}

func (c *Controller) publish(eventType events.Type, payload events.Payload) {
	if c.bus != nil {
		c.publishAt(c.clock.Now(), eventType, payload)
	}
}

func (c *Controller) publishAt(at time.Time, eventType events.Type, payload events.Payload) {
	if c.bus != nil {
		c.bus.Publish(events.New(eventType, at, payload))
	}
}
