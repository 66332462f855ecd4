package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// LoadWatchlist reads one pattern per line, skipping blank lines and lines
// starting with '#'. Patterns keep file order.
func LoadWatchlist(path string) ([]string, error) {
	file, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoWatchlist, path)
		}
		return nil, fmt.Errorf("open watchlist: %w", err)
	}
	defer func() { _ = file.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: %s has no patterns", ErrNoWatchlist, path)
	}
	return patterns, nil
}
