package irrigation

import "time"

// Mode is the controller-wide operating mode.
type Mode bool

const (
	// ModeAuto evaluates schedules on every tick.
	ModeAuto Mode = false
	// ModeManual suspends schedule evaluation; valves change only through toggles.
	ModeManual Mode = true
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	if m == ModeManual {
		return "manual"
	}

	return "auto"
}

// DeviceState is the status of one valve at a specific point in time.
type DeviceState struct {
	// Name is the unique device identifier.
	Name string
	// Pin is the output line offset driving the valve.
	Pin int
	// IsOn is the last applied output state.
	IsOn bool
	// Schedule is the current daily window.
	Schedule Schedule
}

// Snapshot is a read-only view of the whole controller.
type Snapshot struct {
	// Time is the offset-corrected wall time in the controller time zone.
	Time time.Time
	// ClockOffset is the correction, in seconds, added to the system clock.
	ClockOffset int64
	// ManualMode reports whether schedule evaluation is suspended.
	ManualMode bool
	// Devices are listed in configuration order.
	Devices []DeviceState
}

// Device returns the state of the named device.
func (s *Snapshot) Device(name string) (DeviceState, bool) {
	for _, d := range s.Devices {
		if d.Name == name {
			return d, true
		}
	}

	return DeviceState{}, false
}

// Clone returns a copy that shares no memory with s.
func (s *Snapshot) Clone() *Snapshot {
	cloned := *s
	cloned.Devices = append([]DeviceState(nil), s.Devices...)

	return &cloned
}
