package mcp

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/kokistudios/mood/internal/analysis"
	"github.com/kokistudios/mood/internal/entry"
	"github.com/kokistudios/mood/internal/table"
	"github.com/kokistudios/mood/internal/tracker"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tr := &tracker.Tracker{
		Path:       filepath.Join(t.TempDir(), table.DefaultFile),
		Window:     3,
		Thresholds: analysis.DefaultThresholds(),
		Clock:      clockwork.NewFakeClock(),
	}
	return NewServer(tr, "test")
}

func TestHandlers_NoDataFile(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleEntries(ctx, nil, EntriesArgs{})
	if err != nil {
		t.Fatalf("handleEntries: %v", err)
	}
	if res := out.(EntriesResult); res.Message != tracker.MsgNoEntries || res.Entries == nil {
		t.Errorf("entries = %+v", res)
	}

	_, out, err = s.handleSummary(ctx, nil, EmptyArgs{})
	if err != nil {
		t.Fatalf("handleSummary: %v", err)
	}
	if res := out.(SummaryResult); res.Summary != nil || res.Message != tracker.MsgNoEntries {
		t.Errorf("summary = %+v", res)
	}

	_, out, err = s.handleSearch(ctx, nil, SearchArgs{Keyword: "work"})
	if err != nil {
		t.Fatalf("handleSearch: %v", err)
	}
	if res := out.(SearchResult); res.Message != tracker.MsgNoEntries {
		t.Errorf("search = %+v", res)
	}
}

func TestHandleAdd(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleAdd(ctx, nil, AddArgs{Name: "Ada", Date: "2024-03-01", Mood: "happy", Context: "work went well", Severity: 7})
	if err != nil {
		t.Fatalf("handleAdd: %v", err)
	}
	res := out.(AddResult)
	if res.Message != "Entry for Ada on 2024-03-01 saved successfully!" {
		t.Errorf("message = %q", res.Message)
	}

	_, _, err = s.handleAdd(ctx, nil, AddArgs{Mood: "happy", Severity: 0})
	var verr *entry.ValidationError
	if !errors.As(err, &verr) || verr.Field != "severity" {
		t.Errorf("expected severity validation error, got %v", err)
	}

	_, out, _ = s.handleEntries(ctx, nil, EntriesArgs{})
	if got := out.(EntriesResult); got.Total != 1 {
		t.Errorf("expected only the valid entry stored, got %+v", got)
	}
}

func TestHandlers_WithData(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	for _, a := range []AddArgs{
		{Name: "a", Date: "2024-01-01", Mood: "sad", Context: "bad day at work", Severity: 9},
		{Name: "a", Date: "2024-01-02", Mood: "sad", Context: "rain", Severity: 9},
		{Name: "a", Date: "2024-01-03", Mood: "happy", Context: "family dinner", Severity: 2},
	} {
		if _, _, err := s.handleAdd(ctx, nil, a); err != nil {
			t.Fatalf("handleAdd: %v", err)
		}
	}

	_, out, _ := s.handleEntries(ctx, nil, EntriesArgs{Limit: 2})
	if res := out.(EntriesResult); res.Count != 2 || res.Total != 3 || res.Entries[0].Context != "rain" {
		t.Errorf("entries = %+v", res)
	}

	_, out, _ = s.handleSummary(ctx, nil, EmptyArgs{})
	sum := out.(SummaryResult)
	if sum.Summary == nil || sum.Summary.MostCommonMood != entry.MoodSad || sum.Summary.AverageSeverity != 6.67 {
		t.Errorf("summary = %+v", sum)
	}

	_, out, _ = s.handleTrend(ctx, nil, EmptyArgs{})
	if tr := out.(TrendResult); len(tr.Trend) != 2 || tr.Trend[0].Count != 2 {
		t.Errorf("trend = %+v", tr)
	}

	_, out, _ = s.handleSearch(ctx, nil, SearchArgs{Keyword: "WORK"})
	if res := out.(SearchResult); res.Count != 1 {
		t.Errorf("search = %+v", res)
	}
	_, out, _ = s.handleSearch(ctx, nil, SearchArgs{Keyword: "holiday"})
	if res := out.(SearchResult); res.Message != tracker.MsgNoMatches {
		t.Errorf("search = %+v", res)
	}
	if _, _, err := s.handleSearch(ctx, nil, SearchArgs{}); err == nil {
		t.Error("expected error for empty keyword")
	}

	_, out, _ = s.handleDescribe(ctx, nil, EmptyArgs{})
	if res := out.(DescribeResult); len(res.Lines) != 3 || res.Lines[2].Band != analysis.BandMarginal {
		t.Errorf("describe = %+v", res)
	}

	_, out, _ = s.handleFeedback(ctx, nil, EmptyArgs{})
	if res := out.(FeedbackResult); len(res.Advisories) != 0 || res.Message != tracker.MsgNoFeedback {
		t.Errorf("feedback = %+v", res)
	}
}
