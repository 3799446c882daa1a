package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Bar is one bar of a grouped chart.
type Bar struct {
	Label string
	Value int
}

// BarGroup is a labelled cluster of bars.
type BarGroup struct {
	Label string
	Bars  []Bar
}

const maxBarWidth = 40

// severityPalette colours bars from calm to intense by severity label.
var severityPalette = map[string]string{
	"1": "39", "2": "38", "3": "44", "4": "43", "5": "42",
	"6": "226", "7": "220", "8": "214", "9": "208", "10": "196",
}

// BarChart renders grouped horizontal bars. Bar lengths are scaled to the largest value.
func BarChart(title, xLabel, yLabel string, groups []BarGroup) string {
	maxVal := 0
	labelWidth := 0
	for _, g := range groups {
		for _, b := range g.Bars {
			if b.Value > maxVal {
				maxVal = b.Value
			}
			if w := lipgloss.Width(b.Label); w > labelWidth {
				labelWidth = w
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(title) + "\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%s / %s", xLabel, yLabel)) + "\n")
	if maxVal == 0 {
		sb.WriteString(dimStyle.Render("  (no data)") + "\n")
		return sb.String()
	}

	for _, g := range groups {
		sb.WriteString("\n" + boldStyle.Render(g.Label) + "\n")
		for _, b := range g.Bars {
			width := b.Value * maxBarWidth / maxVal
			if width == 0 && b.Value > 0 {
				width = 1
			}
			color, ok := severityPalette[b.Label]
			if !ok {
				color = "63"
			}
			bar := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", width))
			label := b.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(b.Label))
			sb.WriteString(fmt.Sprintf("  %s │%s %d\n", dimStyle.Render(label), bar, b.Value))
		}
	}
	return sb.String()
}
