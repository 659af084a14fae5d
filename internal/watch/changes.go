package watch

import "sort"

// Change is a save file whose status line differs between two runs.
// Before is empty for a new file and After is empty for a removed one.
type Change struct {
	Name   string
	Before string
	After  string
}

// Diff compares two name -> status maps and returns the changes sorted by name
func Diff(before, after map[string]string) []Change {
	var changes []Change
	for name, now := range after {
		if was, ok := before[name]; !ok || was != now {
			changes = append(changes, Change{Name: name, Before: before[name], After: now})
		}
	}
	for name, was := range before {
		if _, ok := after[name]; !ok {
			changes = append(changes, Change{Name: name, Before: was})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes
}

// Removed reports whether the file disappeared
func (c Change) Removed() bool {
	return c.After == ""
}
