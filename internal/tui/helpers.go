package tui

import "strings"

func truncateMiddle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 7 {
		return s[:max]
	}
	left := (max - 3) / 2
	right := max - 3 - left
	return s[:left] + "..." + s[len(s)-right:]
}

// clipLines keeps at most n lines of s, marking the cut.
func clipLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}

func (m *Model) maxRowsOnScreen() int {
	max := m.h - 10
	if max < 3 {
		return 3
	}
	return max
}
