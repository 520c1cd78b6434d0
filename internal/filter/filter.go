// Package filter computes filtered views over ordered name lists. It is the
// only matching logic the dashboard's interactive lists use: a plain
// case-insensitive substring scan, recomputed per keystroke.
package filter

import "strings"

// Apply returns the indices of names containing query as a case-insensitive
// substring, preserving original order. An empty query selects everything.
func Apply(names []string, query string) []int {
	view := make([]int, 0, len(names))
	if query == "" {
		for i := range names {
			view = append(view, i)
		}
		return view
	}
	q := strings.ToLower(query)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), q) {
			view = append(view, i)
		}
	}
	return view
}

// Reselect maps a previous selection onto a new view. prevItem is the index
// into the full list of the previously selected entry (-1 for none). If that
// entry survives the filter, selection follows it; otherwise it resets to the
// first entry, or -1 when the view is empty.
func Reselect(view []int, prevItem int) int {
	if len(view) == 0 {
		return -1
	}
	if prevItem >= 0 {
		for vi, item := range view {
			if item == prevItem {
				return vi
			}
		}
	}
	return 0
}

// Clamp bounds a view index to [0, len-1], or -1 for an empty view.
func Clamp(idx, length int) int {
	if length == 0 {
		return -1
	}
	if idx < 0 {
		return 0
	}
	if idx >= length {
		return length - 1
	}
	return idx
}
