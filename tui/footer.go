package tui

import (
	"strings"

	"charm.land/lipgloss/v2"

	"visdom/style"
)

// renderFooter renders a status line with left and right text pushed to the edges.
// The left text is cut short when both do not fit.
func renderFooter(left, right string, width int) string {

	room := width - lipgloss.Width(right) - 1
	if room < lipgloss.Width(left) {
		left = truncate(left, max(0, room))
	}

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return style.FooterStyle.Render(left + strings.Repeat(" ", padding) + right)
}

func truncate(in string, width int) string {

	runes := []rune(in)
	if len(runes) <= width {
		return in
	}
	if width < 1 {
		return ""
	}
	return string(runes[:width-1]) + "…"
}
