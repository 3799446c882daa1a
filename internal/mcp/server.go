package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kokistudios/mood/internal/analysis"
	"github.com/kokistudios/mood/internal/entry"
	"github.com/kokistudios/mood/internal/table"
	"github.com/kokistudios/mood/internal/tracker"
)

// Server wraps the MCP server with a mood tracker.
type Server struct {
	tracker *tracker.Tracker
	server  *mcp.Server
}

// NewServer creates a new mood MCP server.
func NewServer(tr *tracker.Tracker, version string) *Server {
	s := &Server{tracker: tr}

	impl := &mcp.Implementation{
		Name:    "mood",
		Version: version,
	}

	s.server = mcp.NewServer(impl, nil)
	s.registerTools()

	return s
}

// Run starts the MCP server on stdio.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds all mood tools to the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mood_add",
		Description: "Record one mood entry. mood must be one of: sad, happy, surprised, bad, fearful, angry, disgusted. severity is an integer from 1 to 10. date is YYYY-MM-DD and defaults to today. Invalid input is rejected and nothing is written.",
	}, s.handleAdd)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mood_entries",
		Description: "List recorded mood entries in the order they were added. Use limit to get only the most recent ones.",
	}, s.handleEntries)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mood_summary",
		Description: "Summarize all entries: total count, most common mood, and average severity rounded to two decimals.",
	}, s.handleSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mood_trend",
		Description: "Count entries per mood, most frequent first.",
	}, s.handleTrend)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mood_search",
		Description: "Find entries whose context text contains a keyword (case-insensitive).",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mood_describe",
		Description: "Describe each entry's severity in words: marginal (1-2), slight (3-5), enhanced (6-8), moderate (9-10).",
	}, s.handleDescribe)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mood_feedback",
		Description: "Check the journal for patterns worth attention: repeated sadness, many very mild entries, or many very intense entries.",
	}, s.handleFeedback)
}

// notFound turns a missing data file into a message instead of a tool error.
func notFound(err error) (string, error) {
	if errors.Is(err, table.ErrNotFound) {
		return tracker.MsgNoEntries, nil
	}
	return "", err
}

// AddArgs defines input for mood_add.
type AddArgs struct {
	Name     string `json:"name,omitempty" jsonschema:"Who the entry is for"`
	Date     string `json:"date,omitempty" jsonschema:"Date as YYYY-MM-DD (optional - defaults to today)"`
	Mood     string `json:"mood" jsonschema:"One of: sad, happy, surprised, bad, fearful, angry, disgusted"`
	Context  string `json:"context,omitempty" jsonschema:"Why the user feels this way"`
	Severity int    `json:"severity" jsonschema:"How strong the feeling is, 1 to 10"`
}

// AddResult is the output of mood_add.
type AddResult struct {
	Entry   entry.Entry `json:"entry"`
	Message string      `json:"message"`
}

func (s *Server) handleAdd(ctx context.Context, req *mcp.CallToolRequest, args AddArgs) (*mcp.CallToolResult, any, error) {
	e, err := s.tracker.Add(entry.Input{
		Name:     args.Name,
		Date:     args.Date,
		Mood:     args.Mood,
		Context:  args.Context,
		Severity: strconv.Itoa(args.Severity),
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, AddResult{Entry: e, Message: tracker.FormatAdd(e)}, nil
}

// EntriesArgs defines input for mood_entries.
type EntriesArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"Return only the most recent N entries (optional - all if not specified)"`
}

// EntriesResult is the output of mood_entries.
type EntriesResult struct {
	Entries []entry.Entry `json:"entries"`
	Count   int           `json:"count"`
	Total   int           `json:"total"`
	Message string        `json:"message,omitempty"`
}

func (s *Server) handleEntries(ctx context.Context, req *mcp.CallToolRequest, args EntriesArgs) (*mcp.CallToolResult, any, error) {
	tbl, err := s.tracker.Entries()
	if err != nil {
		msg, err := notFound(err)
		if err != nil {
			return nil, nil, err
		}
		return nil, EntriesResult{Entries: []entry.Entry{}, Message: msg}, nil
	}
	recent := tbl.Last(args.Limit)
	out := EntriesResult{
		Entries: recent,
		Count:   len(recent),
		Total:   len(tbl),
	}
	if len(tbl) == 0 {
		out.Entries = []entry.Entry{}
		out.Message = tracker.MsgNoData
	}
	return nil, out, nil
}

// EmptyArgs is the input for tools that take no arguments.
type EmptyArgs struct{}

// SummaryResult is the output of mood_summary.
type SummaryResult struct {
	Summary *analysis.Summary `json:"summary,omitempty"`
	Text    string            `json:"text,omitempty"`
	Message string            `json:"message,omitempty"`
}

func (s *Server) handleSummary(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
	sum, err := s.tracker.Summary()
	switch {
	case errors.Is(err, analysis.ErrNoData):
		return nil, SummaryResult{Message: tracker.MsgNoData}, nil
	case err != nil:
		msg, err := notFound(err)
		if err != nil {
			return nil, nil, err
		}
		return nil, SummaryResult{Message: msg}, nil
	}
	return nil, SummaryResult{Summary: &sum, Text: tracker.FormatSummary(sum)}, nil
}

// TrendResult is the output of mood_trend.
type TrendResult struct {
	Trend   []analysis.MoodCount `json:"trend"`
	Message string               `json:"message,omitempty"`
}

func (s *Server) handleTrend(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
	counts, err := s.tracker.Trend()
	switch {
	case errors.Is(err, analysis.ErrNoData):
		return nil, TrendResult{Trend: []analysis.MoodCount{}, Message: tracker.MsgNoData}, nil
	case err != nil:
		msg, err := notFound(err)
		if err != nil {
			return nil, nil, err
		}
		return nil, TrendResult{Trend: []analysis.MoodCount{}, Message: msg}, nil
	}
	return nil, TrendResult{Trend: counts}, nil
}

// SearchArgs defines input for mood_search.
type SearchArgs struct {
	Keyword string `json:"keyword" jsonschema:"Text to look for in entry context (e.g. work, family)"`
}

// SearchResult is the output of mood_search.
type SearchResult struct {
	Matches []entry.Entry `json:"matches"`
	Count   int           `json:"count"`
	Message string        `json:"message,omitempty"`
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	if args.Keyword == "" {
		return nil, nil, fmt.Errorf("keyword is required")
	}
	matches, err := s.tracker.Search(args.Keyword)
	switch {
	case errors.Is(err, analysis.ErrNoMatches):
		return nil, SearchResult{Matches: []entry.Entry{}, Message: tracker.MsgNoMatches}, nil
	case err != nil:
		msg, err := notFound(err)
		if err != nil {
			return nil, nil, err
		}
		return nil, SearchResult{Matches: []entry.Entry{}, Message: msg}, nil
	}
	return nil, SearchResult{Matches: matches, Count: len(matches)}, nil
}

// DescribeResult is the output of mood_describe.
type DescribeResult struct {
	Lines   []analysis.SeverityLine `json:"lines"`
	Message string                  `json:"message,omitempty"`
}

func (s *Server) handleDescribe(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
	lines, err := s.tracker.Describe()
	if err != nil {
		msg, err := notFound(err)
		if err != nil {
			return nil, nil, err
		}
		return nil, DescribeResult{Lines: []analysis.SeverityLine{}, Message: msg}, nil
	}
	return nil, DescribeResult{Lines: lines}, nil
}

// FeedbackResult is the output of mood_feedback.
type FeedbackResult struct {
	Advisories []analysis.Advisory `json:"advisories"`
	Message    string              `json:"message,omitempty"`
}

func (s *Server) handleFeedback(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
	adv, err := s.tracker.Feedback()
	if err != nil {
		msg, err := notFound(err)
		if err != nil {
			return nil, nil, err
		}
		return nil, FeedbackResult{Advisories: []analysis.Advisory{}, Message: msg}, nil
	}
	out := FeedbackResult{Advisories: adv}
	if len(adv) == 0 {
		out.Advisories = []analysis.Advisory{}
		out.Message = tracker.MsgNoFeedback
	}
	return nil, out, nil
}
