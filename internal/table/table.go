package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kokistudios/mood/internal/entry"
	"github.com/kokistudios/mood/internal/ui"
)

// DefaultFile is the data file name used when nothing else is configured.
const DefaultFile = "mood_data.csv"

// Header is the fixed column order of the data file.
var Header = []string{"name", "date", "mood", "context", "severity"}

// ErrNotFound is returned by Load when the data file does not exist.
var ErrNotFound = errors.New("mood data file not found")

// Table is the ordered set of entries backed by the data file.
type Table []entry.Entry

// Last returns the final n entries, or all of them if there are fewer.
func (t Table) Last(n int) Table {
	if n <= 0 || n >= len(t) {
		return t
	}
	return t[len(t)-n:]
}

// Load reads the data file. A missing file yields ErrNotFound.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	t, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid data file %s: %w", path, err)
	}
	ui.Logger.Debug("Table loaded", "path", path, "entries", len(t))
	return t, nil
}

// LoadOrEmpty is Load with a missing file treated as an empty table.
func LoadOrEmpty(path string) (Table, error) {
	t, err := Load(path)
	if errors.Is(err, ErrNotFound) {
		return Table{}, nil
	}
	return t, err
}

// Append validates e, reloads the table from disk, appends e and rewrites the file.
// Nothing is written when validation fails.
func Append(path string, e entry.Entry) (Table, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	t, err := LoadOrEmpty(path)
	if err != nil {
		return nil, err
	}
	t = append(t, e)
	if err := Persist(path, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Persist overwrites the data file with the full table, header included.
func Persist(path string, t Table) error {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	ui.Logger.Debug("Table written", "path", path, "entries", len(t))
	return nil
}

// Encode writes the table as CSV.
func Encode(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range t {
		rec := []string{e.Name, e.Date, string(e.Mood), e.Context, strconv.Itoa(e.Severity)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode parses CSV produced by Encode. Empty input is an empty table.
// Rows from older files are taken as-is apart from severity, which must be an integer.
func Decode(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return Table{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}
	for i, col := range Header {
		if strings.TrimSpace(head[i]) != col {
			return nil, fmt.Errorf("unexpected header %q, want %q", strings.Join(head, ","), strings.Join(Header, ","))
		}
	}

	t := Table{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		sev, err := parseStoredSeverity(rec[4])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t = append(t, entry.Entry{
			Name:     rec[0],
			Date:     rec[1],
			Mood:     entry.Mood(strings.TrimSpace(rec[2])),
			Context:  rec[3],
			Severity: sev,
		})
	}
	return t, nil
}

// parseStoredSeverity accepts integers and integral floats such as "5.0".
func parseStoredSeverity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("severity %q is not an integer", raw)
	}
	return int(f), nil
}

// Problem is a stored row that no longer passes entry validation.
type Problem struct {
	Row     int // 1-based data row, header excluded
	Field   string
	Message string
}

// Verify checks every row against current validation rules.
func Verify(t Table) []Problem {
	var problems []Problem
	for i, e := range t {
		if err := e.Validate(); err != nil {
			var verr *entry.ValidationError
			field := ""
			if errors.As(err, &verr) {
				field = verr.Field
			}
			problems = append(problems, Problem{Row: i + 1, Field: field, Message: err.Error()})
		}
	}
	return problems
}
