package irrigation

import "errors"

var (
	// ErrNotFound is returned when a device name is not part of the controller.
	ErrNotFound = errors.New("device not found")
	// ErrHardwareWrite marks a failed attempt to drive an output line.
	ErrHardwareWrite = errors.New("hardware write failed")
	// ErrPersistenceWrite marks a failed attempt to persist a setting.
	ErrPersistenceWrite = errors.New("persistence write failed")
)
