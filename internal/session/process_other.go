//go:build !linux

package session

import (
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// processName returns the command name of pid.
func processName(pid int) (string, error) {
	out, err := exec.Command("ps", "-o", "comm=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return "", err
	}
	return filepath.Base(strings.TrimSpace(string(out))), nil
}
