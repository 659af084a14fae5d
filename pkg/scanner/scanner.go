package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// DefaultPattern matches the save file names the client writes: a work type
// letter, the exponent, up to two numeric suffixes and an optional backup
// extension
const DefaultPattern = `^[emp][0-9]+(_[0-9]+){0,2}(\.bu[0-9]*)?$`

// Scanner lists save files in a directory
type Scanner struct {
	pattern *regexp.Regexp
}

// New creates a scanner for the given pattern. An empty pattern selects DefaultPattern.
func New(pattern string) (*Scanner, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}
	return &Scanner{pattern: re}, nil
}

// Match reports whether name looks like a save file
func (s *Scanner) Match(name string) bool {
	return s.pattern.MatchString(name)
}

// Scan returns the sorted names of the matching regular files in dir
func (s *Scanner) Scan(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !s.Match(entry.Name()) {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err != nil || !target.Mode().IsRegular() {
				continue
			}
		} else if !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Strings(names)
	return names, nil
}
