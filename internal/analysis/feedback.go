package analysis

import (
	"fmt"

	"github.com/kokistudios/mood/internal/entry"
	"github.com/kokistudios/mood/internal/table"
)

// Severity cut-offs for the low and high advisories.
const (
	LowSeverityBelow  = 3
	HighSeverityAbove = 8
)

// SadCount is the fixed number of sad entries that triggers the sad advisory.
const SadCount = 3

// Thresholds are the counts at which the severity advisories fire. Zero disables one.
type Thresholds struct {
	LowSeverityCount  int `yaml:"low_severity_count" json:"low_severity_count"`
	HighSeverityCount int `yaml:"high_severity_count" json:"high_severity_count"`
}

// DefaultThresholds fires each severity advisory at three matching entries.
func DefaultThresholds() Thresholds {
	return Thresholds{LowSeverityCount: 3, HighSeverityCount: 3}
}

type AdvisoryKind string

const (
	AdvisoryLowSeverity  AdvisoryKind = "low_severity"
	AdvisoryHighSeverity AdvisoryKind = "high_severity"
	AdvisorySad          AdvisoryKind = "sad"
)

// Advisory is one triggered pattern with the count that triggered it.
type Advisory struct {
	Kind    AdvisoryKind `json:"kind"`
	Count   int          `json:"count"`
	Message string       `json:"message"`
}

// Feedback flags patterns across the whole table. An empty result means nothing fired.
func Feedback(t table.Table, th Thresholds) []Advisory {
	low, high, sad := 0, 0, 0
	for _, e := range t {
		if e.Severity < LowSeverityBelow {
			low++
		}
		if e.Severity > HighSeverityAbove {
			high++
		}
		if e.Mood == entry.MoodSad {
			sad++
		}
	}

	var out []Advisory
	if th.LowSeverityCount > 0 && low >= th.LowSeverityCount {
		out = append(out, Advisory{
			Kind:    AdvisoryLowSeverity,
			Count:   low,
			Message: fmt.Sprintf("%d entries were rated below %d. Mild feelings are worth noting too; keep tracking them.", low, LowSeverityBelow),
		})
	}
	if th.HighSeverityCount > 0 && high >= th.HighSeverityCount {
		out = append(out, Advisory{
			Kind:    AdvisoryHighSeverity,
			Count:   high,
			Message: fmt.Sprintf("%d entries were rated above %d. Consider talking to someone you trust about these intense moments.", high, HighSeverityAbove),
		})
	}
	if sad >= SadCount {
		out = append(out, Advisory{
			Kind:    AdvisorySad,
			Count:   sad,
			Message: fmt.Sprintf("You have recorded feeling sad %d times. Reaching out to a friend or a professional may help.", sad),
		})
	}
	return out
}
