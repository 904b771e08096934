// Package style holds the colors and table look shared by the views.
package style

import (
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

var (
	TableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // Subtle warm grey border
	HlRowStyle       = lipgloss.NewStyle().Background(lipgloss.Color("235")) // Very subtle warm grey row
	HlCellStyle      = lipgloss.NewStyle().Background(lipgloss.Color("237")) // Slightly warmer cell
	MutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("246")) // Warm muted grey text
	FooterStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	ErrorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("167"))
	TabStyle         = lipgloss.NewStyle().Padding(0, 1)
	ActiveTabStyle   = TabStyle.Background(lipgloss.Color("63"))
	UnStyle          = lipgloss.NewStyle()
)

// RowStyler returns a StyleFunc that highlights the selected row, none when selected is negative.
func RowStyler(selected int) func(row, col int) lipgloss.Style {
	return func(row, col int) lipgloss.Style {
		if row == selected {
			return HlRowStyle
		}
		return UnStyle
	}
}

// StyleTable draws a table with only a rule under the header.
func StyleTable(tbl *table.Table) {
	tbl.Border(lipgloss.Border{
		Top:         "─",
		Middle:      "─",
		MiddleLeft:  "─",
		MiddleRight: "─",
	}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderStyle(TableBorderStyle).
		StyleFunc(RowStyler(-1))
}

// Tabs renders labels in a row, the active one highlighted.
func Tabs(labels []string, active int) string {

	tabs := make([]string, len(labels))
	for i, label := range labels {
		if i == active {
			tabs[i] = ActiveTabStyle.Render(label)
			continue
		}
		tabs[i] = TabStyle.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
