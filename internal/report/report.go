// Package report renders a markdown digest of the entry table.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/kokistudios/mood/internal/analysis"
	"github.com/kokistudios/mood/internal/table"
)

// Build returns the markdown report for t. An empty table yields a short notice.
func Build(t table.Table, th analysis.Thresholds, generated time.Time) string {
	var b strings.Builder
	b.WriteString("# Mood Report\n\n")
	fmt.Fprintf(&b, "_Generated %s_\n\n", generated.Format("2006-01-02 15:04"))

	sum, err := analysis.Summarize(t)
	if err != nil {
		b.WriteString("No data to show.\n")
		return b.String()
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Total Entries:** %d\n", sum.Total)
	fmt.Fprintf(&b, "- **Most Common Mood:** %s\n", sum.MostCommonMood)
	fmt.Fprintf(&b, "- **Average Severity:** %.2f\n\n", sum.AverageSeverity)

	b.WriteString("## Mood Trend\n\n")
	b.WriteString("| Mood | Count |\n|---|---|\n")
	for _, c := range analysis.Trend(t) {
		fmt.Fprintf(&b, "| %s | %d |\n", c.Mood, c.Count)
	}
	b.WriteString("\n")

	b.WriteString("## Severity\n\n")
	b.WriteString("| Date | Mood | Severity | Band |\n|---|---|---|---|\n")
	for _, l := range analysis.DescribeSeverity(t) {
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", l.Date, l.Mood, l.Severity, l.Band)
	}
	b.WriteString("\n")

	b.WriteString("## Feedback\n\n")
	advisories := analysis.Feedback(t, th)
	if len(advisories) == 0 {
		b.WriteString("Nothing stood out.\n")
	}
	for _, a := range advisories {
		fmt.Fprintf(&b, "- %s\n", a.Message)
	}
	return b.String()
}
