package analysis

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/kokistudios/mood/internal/entry"
	"github.com/kokistudios/mood/internal/table"
)

var (
	// ErrNoData is returned when an aggregate is requested over an empty table.
	ErrNoData = errors.New("no data to show")
	// ErrNoMatches is returned when a search finds nothing.
	ErrNoMatches = errors.New("no matching entries")
)

// Summary is the headline aggregate of a table.
type Summary struct {
	Total           int        `json:"total_entries"`
	MostCommonMood  entry.Mood `json:"most_common_mood"`
	AverageSeverity float64    `json:"average_severity"`
}

// MoodCount is one row of a trend.
type MoodCount struct {
	Mood  entry.Mood `json:"mood"`
	Count int        `json:"count"`
}

// Summarize counts entries, picks the most frequent mood and averages severity
// to two decimal places. Equal counts go to the mood seen first.
func Summarize(t table.Table) (Summary, error) {
	if len(t) == 0 {
		return Summary{}, ErrNoData
	}
	trend := Trend(t)
	sum := 0
	for _, e := range t {
		sum += e.Severity
	}
	avg := float64(sum) / float64(len(t))
	return Summary{
		Total:           len(t),
		MostCommonMood:  trend[0].Mood,
		AverageSeverity: math.Round(avg*100) / 100,
	}, nil
}

// Trend counts each mood present, highest count first, ties in first-seen order.
func Trend(t table.Table) []MoodCount {
	index := make(map[entry.Mood]int)
	var counts []MoodCount
	for _, e := range t {
		i, ok := index[e.Mood]
		if !ok {
			i = len(counts)
			index[e.Mood] = i
			counts = append(counts, MoodCount{Mood: e.Mood})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(a, b int) bool {
		return counts[a].Count > counts[b].Count
	})
	return counts
}

// Search returns entries whose context contains keyword, ignoring case.
func Search(t table.Table, keyword string) (table.Table, error) {
	needle := strings.ToLower(keyword)
	matches := table.Table{}
	for _, e := range t {
		if strings.Contains(strings.ToLower(e.Context), needle) {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return nil, ErrNoMatches
	}
	return matches, nil
}

type Band string

const (
	BandMarginal Band = "marginal" // 1-2
	BandSlight   Band = "slight"   // 3-5
	BandEnhanced Band = "enhanced" // 6-8
	BandModerate Band = "moderate" // 9-10
)

// BandFor maps a severity to its word form.
func BandFor(severity int) Band {
	switch {
	case severity <= 2:
		return BandMarginal
	case severity <= 5:
		return BandSlight
	case severity <= 8:
		return BandEnhanced
	default:
		return BandModerate
	}
}

// SeverityLine pairs an entry's date with its severity band.
type SeverityLine struct {
	Date     string     `json:"date"`
	Mood     entry.Mood `json:"mood"`
	Severity int        `json:"severity"`
	Band     Band       `json:"band"`
}

// DescribeSeverity emits one line per entry, in table order.
func DescribeSeverity(t table.Table) []SeverityLine {
	lines := make([]SeverityLine, 0, len(t))
	for _, e := range t {
		lines = append(lines, SeverityLine{
			Date:     e.Date,
			Mood:     e.Mood,
			Severity: e.Severity,
			Band:     BandFor(e.Severity),
		})
	}
	return lines
}

// SeverityCount is how many entries of one mood had one severity.
type SeverityCount struct {
	Severity int `json:"severity"`
	Count    int `json:"count"`
}

// MoodSeverities groups severity counts under a mood.
type MoodSeverities struct {
	Mood       entry.Mood      `json:"mood"`
	Severities []SeverityCount `json:"severities"`
}

// SeverityByMood counts (mood, severity) pairs over the last window entries.
// Moods keep first-seen order, severities ascend. window <= 0 means all entries.
func SeverityByMood(t table.Table, window int) []MoodSeverities {
	recent := t.Last(window)
	index := make(map[entry.Mood]int)
	var groups []MoodSeverities
	perMood := make([]map[int]int, 0)
	for _, e := range recent {
		i, ok := index[e.Mood]
		if !ok {
			i = len(groups)
			index[e.Mood] = i
			groups = append(groups, MoodSeverities{Mood: e.Mood})
			perMood = append(perMood, make(map[int]int))
		}
		perMood[i][e.Severity]++
	}
	for i := range groups {
		for sev, n := range perMood[i] {
			groups[i].Severities = append(groups[i].Severities, SeverityCount{Severity: sev, Count: n})
		}
		sort.Slice(groups[i].Severities, func(a, b int) bool {
			return groups[i].Severities[a].Severity < groups[i].Severities[b].Severity
		})
	}
	return groups
}
