package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// overlay draws fg over bg with its top-left corner at column x, row y.
// Styled text on both sides of fg is kept.
func overlay(bg, fg string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	for i, line := range fgLines {
		row := y + i
		if row < 0 {
			continue
		}
		for row >= len(bgLines) {
			bgLines = append(bgLines, "")
		}

		base := bgLines[row]
		if w := ansi.StringWidth(base); w < x {
			base += strings.Repeat(" ", x-w)
		}

		left := ansi.Truncate(base, x, "")
		right := ansi.TruncateLeft(base, x+lipgloss.Width(line), "")
		bgLines[row] = left + line + right
	}

	return strings.Join(bgLines, "\n")
}
