// BYZRA ⸻ internal/daemon/pid.go
// pid file for watch on|off|status

package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// location of the pid file under the state dir
func PIDFile(stateDir string) string {
	return filepath.Join(stateDir, "watch.pid")
}

func WritePID(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create daemon directory: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644)
}

// pid recorded in path; 0 when there is none
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("corrupt pid file %s: %w", path, err)
	}
	return pid, nil
}

// pid of a live daemon, or 0. A stale pid file is removed.
func RunningPID(path string) int {
	pid, err := ReadPID(path)
	if err != nil || pid == 0 {
		return 0
	}
	if !alive(pid) {
		os.Remove(path)
		return 0
	}
	return pid
}

// asks the daemon to shut down
func Signal(path string) (int, error) {
	pid := RunningPID(path)
	if pid == 0 {
		return 0, fmt.Errorf("daemon is not running")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return pid, fmt.Errorf("could not signal daemon: %w", err)
	}
	return pid, nil
}

func alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
