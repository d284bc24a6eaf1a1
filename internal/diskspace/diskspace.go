// Package diskspace probes filesystem capacity for the builder-cache guard.
package diskspace

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeGB reports the space available to unprivileged writers on the
// filesystem containing path, in gibibytes.
func FreeGB(path string) (float64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return float64(stat.Bavail) * float64(stat.Bsize) / (1 << 30), nil
}
