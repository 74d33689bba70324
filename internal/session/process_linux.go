//go:build linux

package session

import (
	"os"
	"strconv"
	"strings"
)

// processName returns the command name of pid.
func processName(pid int) (string, error) {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/comm")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
