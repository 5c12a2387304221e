package instance

import (
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

// fakeProcess implements ps.Process.
type fakeProcess struct {
	pid, ppid  int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return p.ppid }
func (p fakeProcess) Executable() string { return p.executable }

// TestFindOthers skips the current process and unrelated executables.
func TestFindOthers(t *testing.T) {
	t.Parallel()

	processes := []ps.Process{
		fakeProcess{pid: 1, ppid: 0, executable: "init"},
		fakeProcess{pid: 10, ppid: 1, executable: "alarm-clock"},
		fakeProcess{pid: 20, ppid: 1, executable: "alarm-clock"},
		fakeProcess{pid: 21, ppid: 20, executable: "alarm-clock"},
		fakeProcess{pid: 30, ppid: 1, executable: "alarmctl"},
	}

	require.Equal(t, []int{10}, findOthers(processes, "alarm-clock", 20))
	require.Empty(t, findOthers(processes, "alarm-clock-test", 20))
}

// TestFindOthers_MatchesByNameOnly ignores anything but the executable name.
func TestFindOthers_MatchesByNameOnly(t *testing.T) {
	t.Parallel()

	processes := []ps.Process{
		fakeProcess{pid: 10, ppid: 1, executable: "alarm-clock"},
		fakeProcess{pid: 11, ppid: 1, executable: "alarm-clock"},
		fakeProcess{pid: 12, ppid: 1, executable: "kitchen-clock"},
	}

	// Two clocks are refused whatever images they use.
	require.Equal(t, []int{10, 11}, findOthers(processes, "alarm-clock", 20))

	// A renamed copy is not recognised.
	require.Empty(t, findOthers(processes, "bedroom-clock", 20))
}

// TestEnsureSingle passes for the test binary, which runs once.
func TestEnsureSingle(t *testing.T) {
	t.Parallel()

	require.NoError(t, EnsureSingle())
}
