package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	DefaultBarWidth = 40
	barCell         = "█"
)

// BarChart renders series as horizontal bars, one row per label.
//
// Bars are scaled so the largest value spans width cells; any positive value gets at least one cell.
// Extra labels or values beyond the shorter slice are ignored.
func BarChart(labels []string, series []int, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	n := min(len(labels), len(series))
	if n == 0 {
		return ""
	}

	peak, labelWidth := 0, 0
	for i := range n {
		peak = max(peak, series[i])
		labelWidth = max(labelWidth, lipgloss.Width(labels[i]))
	}
	labelStyle := lipgloss.NewStyle().Width(labelWidth)

	rows := make([]string, n)
	for i := range n {
		cells := 0
		if v := series[i]; v > 0 && peak > 0 {
			cells = max(v*width/peak, 1)
		}
		bar := styles.bar.Render(strings.Repeat(barCell, cells))
		rows[i] = fmt.Sprintf("%s │ %s %d", labelStyle.Render(labels[i]), bar, series[i])
	}
	return strings.Join(rows, "\n")
}
