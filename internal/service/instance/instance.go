// Package instance refuses to start a clock while another process runs the
// same executable. The match is by executable name only: a second clock with
// its own storage image is refused as well, and a renamed copy is not seen.
// alarm-clock offers --skip-instance-check for deliberate side-by-side runs.
package instance

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another process with the same executable is alive.
var ErrAlreadyRunning = errors.New("another instance is already running")

// EnsureSingle fails when a process other than the current one runs the same executable.
func EnsureSingle() error {
	self, err := ps.FindProcess(os.Getpid())
	if err != nil {
		return fmt.Errorf("inspect current process: %w", err)
	}

	if self == nil {
		return nil
	}

	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if others := findOthers(processes, self.Executable(), self.Pid()); len(others) > 0 {
		return fmt.Errorf("%w: %s (pid %v)", ErrAlreadyRunning, self.Executable(), others)
	}

	return nil
}

// findOthers returns the pids of processes named executable, except selfPid
// and its direct children.
func findOthers(processes []ps.Process, executable string, selfPid int) []int {
	var pids []int

	for _, p := range processes {
		if p.Executable() != executable || p.Pid() == selfPid || p.PPid() == selfPid {
			continue
		}

		pids = append(pids, p.Pid())
	}

	return pids
}
