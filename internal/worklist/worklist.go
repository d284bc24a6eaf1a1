// Package worklist loads the ordered list of pull-request identifiers the
// pipeline operates on.
package worklist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads newline-separated unit identifiers from r. Blank lines are
// dropped; everything else is kept verbatim, in input order, duplicates
// included. The pipeline stages are idempotent, so a duplicate entry is
// re-checked rather than re-done.
func Load(r io.Reader) ([]string, error) {
	var units []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		units = append(units, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read work list: %w", err)
	}

	return units, nil
}

// LoadFile reads the work list from the file at path. A missing or unreadable
// file is a configuration error and must be surfaced before any unit is
// dispatched.
func LoadFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open work list %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

// Cap truncates the list to at most max entries. A max of zero or less means
// no limit.
func Cap(units []string, max int) []string {
	if max <= 0 || len(units) <= max {
		return units
	}
	return units[:max]
}
