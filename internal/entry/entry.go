package entry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// DateLayout is the only accepted date format for new entries.
const DateLayout = "2006-01-02"

const (
	MinSeverity = 1
	MaxSeverity = 10
)

type Mood string

const (
	MoodSad       Mood = "sad"
	MoodHappy     Mood = "happy"
	MoodSurprised Mood = "surprised"
	MoodBad       Mood = "bad"
	MoodFearful   Mood = "fearful"
	MoodAngry     Mood = "angry"
	MoodDisgusted Mood = "disgusted"
)

// Moods lists the accepted moods in prompt order.
var Moods = []Mood{MoodSad, MoodHappy, MoodSurprised, MoodBad, MoodFearful, MoodAngry, MoodDisgusted}

// Valid reports whether m is one of the fixed moods.
func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// MoodList renders the accepted moods for prompts and error messages.
func MoodList() string {
	names := make([]string, len(Moods))
	for i, m := range Moods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// Entry is one recorded mood observation.
type Entry struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Mood     Mood   `json:"mood"`
	Context  string `json:"context"`
	Severity int    `json:"severity"`
}

// ValidationError names the field that rejected an entry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validate checks mood, severity and date, in the order they are prompted for.
func (e Entry) Validate() error {
	if !e.Mood.Valid() {
		return &ValidationError{Field: "mood", Reason: "Invalid mood entered. Please choose a valid mood."}
	}
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if e.Severity < MinSeverity || e.Severity > MaxSeverity {
		return &ValidationError{Field: "severity", Reason: fmt.Sprintf("Severity must be between %d and %d.", MinSeverity, MaxSeverity)}
	}
	return nil
}

// ValidateDate requires a real calendar date in YYYY-MM-DD form.
func ValidateDate(date string) error {
	if len(date) != len(DateLayout) {
		return &ValidationError{Field: "date", Reason: "Invalid date format. Please use YYYY-MM-DD."}
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return &ValidationError{Field: "date", Reason: "Invalid date format. Please use YYYY-MM-DD."}
	}
	return nil
}

// ParseMood normalizes raw input and rejects moods outside the fixed set.
func ParseMood(raw string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(raw)))
	if !m.Valid() {
		return "", &ValidationError{Field: "mood", Reason: "Invalid mood entered. Please choose a valid mood."}
	}
	return m, nil
}

// ParseSeverity converts raw input to a severity in [MinSeverity, MaxSeverity].
func ParseSeverity(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValidationError{Field: "severity", Reason: fmt.Sprintf("Invalid severity. Please enter a number between %d and %d.", MinSeverity, MaxSeverity)}
	}
	if n < MinSeverity || n > MaxSeverity {
		return 0, &ValidationError{Field: "severity", Reason: fmt.Sprintf("Severity must be between %d and %d.", MinSeverity, MaxSeverity)}
	}
	return n, nil
}

// Input holds unparsed answers, as typed at a prompt or sent by a tool call.
type Input struct {
	Name     string
	Date     string
	Mood     string
	Context  string
	Severity string
}

// FromInput parses and validates raw answers. A blank date means today.
func FromInput(in Input, clock clockwork.Clock) (Entry, error) {
	mood, err := ParseMood(in.Mood)
	if err != nil {
		return Entry{}, err
	}
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = clock.Now().Format(DateLayout)
	}
	if err := ValidateDate(date); err != nil {
		return Entry{}, err
	}
	severity, err := ParseSeverity(in.Severity)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Name:     strings.TrimSpace(in.Name),
		Date:     date,
		Mood:     mood,
		Context:  strings.TrimSpace(in.Context),
		Severity: severity,
	}, nil
}
