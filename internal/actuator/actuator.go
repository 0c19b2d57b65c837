package actuator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/irrigation/internal/domain/irrigation"
	"github.com/oshokin/irrigation/internal/logger"
	"github.com/oshokin/irrigation/internal/telemetry"
)

// Source tells what caused a transition.
type Source string

const (
	// SourceSchedule marks transitions driven by schedule evaluation.
	SourceSchedule Source = "schedule"
	// SourceManual marks transitions driven by a toggle command.
	SourceManual Source = "manual"
)

// Transition is emitted whenever an output actually changes level.
type Transition struct {
	// Device is the actuator name.
	Device string
	// On is the new level.
	On bool
	// Source is the cause of the change.
	Source Source
	// At is when the line was driven.
	At time.Time
}

// Observer receives transitions. It is called without any actuator lock held.
type Observer func(ctx context.Context, t Transition)

// State is a point-in-time read of an actuator.
type State struct {
	// IsOn is the last successfully applied level.
	IsOn bool
}

// Actuator wraps exactly one output line.
type Actuator struct {
	// name identifies the actuator in logs, metrics and events.
	name string
	// line is the driven output.
	line Line
	// observer is notified after every successful edge.
	observer Observer
	// now stamps transitions.
	now func() time.Time

	// mu serializes read-modify-write cycles on the line.
	mu sync.Mutex
	// isOn is the last level written successfully.
	isOn bool
}

// Option configures an Actuator.
type Option func(*Actuator)

// WithObserver registers the transition observer.
func WithObserver(o Observer) Option {
	return func(a *Actuator) {
		a.observer = o
	}
}

// WithNow replaces the transition timestamp source.
func WithNow(now func() time.Time) Option {
	return func(a *Actuator) {
		if now != nil {
			a.now = now
		}
	}
}

// New wraps line under the given name.
func New(name string, line Line, opts ...Option) *Actuator {
	a := &Actuator{
		name: name,
		line: line,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Name returns the actuator name.
func (a *Actuator) Name() string {
	return a.name
}

// Apply drives the line to shouldBeOn if it is not already there.
// It reports whether a transition happened.
func (a *Actuator) Apply(ctx context.Context, shouldBeOn bool) bool {
	a.mu.Lock()

	if a.read(ctx) == shouldBeOn {
		// The line may have moved even though an earlier write reported failure.
		a.isOn = shouldBeOn
		a.mu.Unlock()

		return false
	}

	transition, ok := a.drive(ctx, shouldBeOn, SourceSchedule)
	a.mu.Unlock()

	if ok {
		a.notify(ctx, transition)
	}

	return ok
}

// Toggle inverts the current output regardless of any schedule and returns the resulting level.
func (a *Actuator) Toggle(ctx context.Context) bool {
	a.mu.Lock()

	current := a.read(ctx)

	transition, ok := a.drive(ctx, !current, SourceManual)
	a.mu.Unlock()

	if !ok {
		return current
	}

	a.notify(ctx, transition)

	return transition.On
}

// Snapshot returns the recorded state without touching the line.
func (a *Actuator) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	return State{IsOn: a.isOn}
}

// read returns the line level, falling back to the recorded state. Callers hold mu.
func (a *Actuator) read(ctx context.Context) bool {
	on, err := a.line.Value()
	if err != nil {
		logger.WarnKV(ctx, "Failed to read back output line", "device", a.name, "error", err)
		return a.isOn
	}

	return on
}

// drive writes the line and records the new level on success. Callers hold mu.
func (a *Actuator) drive(ctx context.Context, on bool, source Source) (Transition, bool) {
	if err := a.line.Set(on); err != nil {
		err = fmt.Errorf("%w: %w", irrigation.ErrHardwareWrite, err)
		logger.ErrorKV(ctx, "Failed to drive output line", "device", a.name, "on", on, "source", source, "error", err)
		telemetry.HardwareWriteFailuresTotal.WithLabelValues(a.name).Inc()

		return Transition{}, false
	}

	a.isOn = on

	return Transition{
		Device: a.name,
		On:     on,
		Source: source,
		At:     a.now(),
	}, true
}

func (a *Actuator) notify(ctx context.Context, t Transition) {
	if a.observer != nil {
		a.observer(ctx, t)
	}
}
