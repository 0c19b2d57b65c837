package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another server process owns the valves.
var ErrAlreadyRunning = errors.New("another irrigation server is already running")

// processLister enumerates running processes.
type processLister func() ([]ps.Process, error)

// ensureSingleInstance fails when a process other than this one runs the same executable.
func ensureSingleInstance(list processLister) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	return checkSingleInstance(list, filepath.Base(executable), os.Getpid())
}

func checkSingleInstance(list processLister, executable string, selfPID int) error {
	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == selfPID {
			continue
		}

		if process.Executable() == executable {
			return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, process.Pid())
		}
	}

	return nil
}
