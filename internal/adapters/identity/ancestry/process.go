package ancestry

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ParentPID returns the parent of pid, reading /proc on Linux and asking ps
// elsewhere.
func ParentPID(pid int) (int, error) {
	if runtime.GOOS == "linux" {
		return procParentPID(pid)
	}
	return psParentPID(pid)
}

func procParentPID(pid int) (int, error) {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return 0, fmt.Errorf("read process stat: %w", err)
	}
	return parseStatParent(string(data))
}

// parseStatParent reads the ppid field of /proc/<pid>/stat. The command
// name is wrapped in parentheses and may itself contain spaces or ')'.
func parseStatParent(stat string) (int, error) {
	end := strings.LastIndexByte(stat, ')')
	if end < 0 {
		return 0, errors.New("malformed process stat")
	}

	fields := strings.Fields(stat[end+1:])
	if len(fields) < 2 {
		return 0, errors.New("malformed process stat")
	}

	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("parse parent pid: %w", err)
	}
	return ppid, nil
}

func psParentPID(pid int) (int, error) {
	out, err := exec.Command("ps", "-o", "ppid=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return 0, fmt.Errorf("run ps: %w", err)
	}

	ppid, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("parse parent pid: %w", err)
	}
	return ppid, nil
}

// processAlive probes pid with signal 0. A permission error still means the
// process exists.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
