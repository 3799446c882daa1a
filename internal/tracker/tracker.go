package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/kokistudios/mood/internal/analysis"
	"github.com/kokistudios/mood/internal/entry"
	"github.com/kokistudios/mood/internal/store"
	"github.com/kokistudios/mood/internal/table"
	"github.com/kokistudios/mood/internal/ui"
)

// User-facing outcome messages shared by the CLI and the MCP tools.
const (
	MsgNoEntries       = "No past entries found. Please add an entry first."
	MsgFileNotFound    = "csv file not found."
	MsgNoData          = "No data to show."
	MsgInvalidAnalysis = "Invalid analysis, use summary or trend."
	MsgNoMatches       = "No entries matched that keyword."
	MsgNoFeedback      = "No patterns stood out. Keep tracking!"
	MsgNoAction        = "No action specified. Use add, view entries, plot, analysis."
)

// Analysis kinds accepted by Analyze.
const (
	AnalysisSummary = "summary"
	AnalysisTrend   = "trend"
)

// Tracker runs one operation at a time against the data file.
// Every method reloads the table from disk.
type Tracker struct {
	Path       string
	Window     int
	Thresholds analysis.Thresholds
	Clock      clockwork.Clock
}

// New builds a Tracker from a loaded store. A non-empty file overrides data.file.
func New(st *store.Store, file string) *Tracker {
	return &Tracker{
		Path:       st.DataPath(file),
		Window:     st.Config.Plot.Window,
		Thresholds: st.Config.Feedback,
		Clock:      clockwork.NewRealClock(),
	}
}

// Add validates raw input and appends it. Validation failures are returned as
// *entry.ValidationError and leave the file untouched.
func (t *Tracker) Add(in entry.Input) (entry.Entry, error) {
	e, err := entry.FromInput(in, t.clock())
	if err != nil {
		return entry.Entry{}, err
	}
	if _, err := table.Append(t.Path, e); err != nil {
		return entry.Entry{}, err
	}
	ui.Logger.Debug("Entry added", "path", t.Path, "mood", e.Mood, "date", e.Date)
	return e, nil
}

// Entries loads the whole table. A missing file yields table.ErrNotFound.
func (t *Tracker) Entries() (table.Table, error) {
	return table.Load(t.Path)
}

// Summary aggregates the table.
func (t *Tracker) Summary() (analysis.Summary, error) {
	tbl, err := table.Load(t.Path)
	if err != nil {
		return analysis.Summary{}, err
	}
	return analysis.Summarize(tbl)
}

// Trend counts moods. An empty table yields analysis.ErrNoData.
func (t *Tracker) Trend() ([]analysis.MoodCount, error) {
	tbl, err := table.Load(t.Path)
	if err != nil {
		return nil, err
	}
	if len(tbl) == 0 {
		return nil, analysis.ErrNoData
	}
	return analysis.Trend(tbl), nil
}

// Analyze renders the summary or trend as text. Missing file, empty table and
// unknown kind come back as their messages; only I/O and parse failures are errors.
func (t *Tracker) Analyze(kind string) (string, error) {
	tbl, err := table.Load(t.Path)
	if errors.Is(err, table.ErrNotFound) {
		return MsgFileNotFound, nil
	}
	if err != nil {
		return "", err
	}
	if len(tbl) == 0 {
		return MsgNoData, nil
	}
	switch kind {
	case AnalysisSummary:
		sum, err := analysis.Summarize(tbl)
		if err != nil {
			return "", err
		}
		return FormatSummary(sum), nil
	case AnalysisTrend:
		return FormatTrend(analysis.Trend(tbl)), nil
	default:
		return MsgInvalidAnalysis, nil
	}
}

// Search returns entries whose context contains keyword, ignoring case.
func (t *Tracker) Search(keyword string) (table.Table, error) {
	tbl, err := table.Load(t.Path)
	if err != nil {
		return nil, err
	}
	return analysis.Search(tbl, keyword)
}

// Describe bands every entry by severity.
func (t *Tracker) Describe() ([]analysis.SeverityLine, error) {
	tbl, err := table.Load(t.Path)
	if err != nil {
		return nil, err
	}
	return analysis.DescribeSeverity(tbl), nil
}

// Feedback evaluates the advisory rules with the configured thresholds.
func (t *Tracker) Feedback() ([]analysis.Advisory, error) {
	tbl, err := table.Load(t.Path)
	if err != nil {
		return nil, err
	}
	return analysis.Feedback(tbl, t.Thresholds), nil
}

// PlotData is the input to the severity chart.
type PlotData struct {
	Window int
	Total  int
	Groups []analysis.MoodSeverities
}

// Short reports whether fewer entries than the window exist.
func (p PlotData) Short() bool {
	return p.Total < p.Window
}

// Plot counts severities per mood over the most recent Window entries.
func (t *Tracker) Plot() (PlotData, error) {
	tbl, err := table.Load(t.Path)
	if err != nil {
		return PlotData{}, err
	}
	window := t.Window
	if window <= 0 {
		window = store.DefaultConfig().Plot.Window
	}
	return PlotData{
		Window: window,
		Total:  len(tbl),
		Groups: analysis.SeverityByMood(tbl, window),
	}, nil
}

func (t *Tracker) clock() clockwork.Clock {
	if t.Clock == nil {
		return clockwork.NewRealClock()
	}
	return t.Clock
}

// FormatSummary renders a summary in the fixed text layout.
func FormatSummary(s analysis.Summary) string {
	return fmt.Sprintf("Summary:\n- Total Entries: %d\n- Most Common Mood: %s\n- Average Severity: %.2f",
		s.Total, s.MostCommonMood, s.AverageSeverity)
}

// FormatTrend renders mood counts one per line, names padded to align the counts.
func FormatTrend(counts []analysis.MoodCount) string {
	width := len("mood")
	for _, c := range counts {
		if len(c.Mood) > width {
			width = len(c.Mood)
		}
	}
	var b strings.Builder
	b.WriteString("mood trend: \nmood\n")
	for i, c := range counts {
		fmt.Fprintf(&b, "%-*s    %d", width, c.Mood, c.Count)
		if i < len(counts)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// FormatAdd is the confirmation printed after a successful add.
func FormatAdd(e entry.Entry) string {
	return fmt.Sprintf("Entry for %s on %s saved successfully!", e.Name, e.Date)
}

// FormatSeverityLine renders one describe line.
func FormatSeverityLine(l analysis.SeverityLine) string {
	return fmt.Sprintf("On %s you felt %s with a %s severity (%d/10).", l.Date, l.Mood, l.Band, l.Severity)
}
