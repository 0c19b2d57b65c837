package controller

import (
	"context"
	"sync"

	"github.com/oshokin/irrigation/internal/actuator"
	"github.com/oshokin/irrigation/internal/domain/irrigation"
)

// Device is a named valve with a daily window.
type Device struct {
	// name is unique within a controller.
	name string
	// pin is the output line offset, reported in snapshots.
	pin int
	// actuator owns the physical state.
	actuator *actuator.Actuator

	// mu protects schedule.
	mu sync.RWMutex
	// schedule is the active daily window.
	schedule irrigation.Schedule
}

// NewDevice binds a schedule to an actuator.
func NewDevice(name string, pin int, act *actuator.Actuator, schedule irrigation.Schedule) *Device {
	return &Device{
		name:     name,
		pin:      pin,
		actuator: act,
		schedule: schedule,
	}
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Pin returns the output line offset.
func (d *Device) Pin() int {
	return d.pin
}

// Schedule returns the active window.
func (d *Device) Schedule() irrigation.Schedule {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.schedule
}

// SetSchedule replaces the window. The next Update uses it.
func (d *Device) SetSchedule(schedule irrigation.Schedule) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.schedule = schedule
}

// Update drives the valve to match the window at now (seconds since midnight).
// It reports whether the output changed.
func (d *Device) Update(ctx context.Context, now uint32) bool {
	return d.actuator.Apply(ctx, d.Schedule().Contains(now))
}

// Toggle inverts the valve and returns the resulting level.
func (d *Device) Toggle(ctx context.Context) bool {
	return d.actuator.Toggle(ctx)
}

// State returns a snapshot of the device.
func (d *Device) State() irrigation.DeviceState {
	return irrigation.DeviceState{
		Name:     d.name,
		Pin:      d.pin,
		IsOn:     d.actuator.Snapshot().IsOn,
		Schedule: d.Schedule(),
	}
}
