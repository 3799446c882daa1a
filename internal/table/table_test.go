package table

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kokistudios/mood/internal/entry"
)

func sample() entry.Entry {
	return entry.Entry{Name: "Ada", Date: "2024-04-01", Mood: entry.MoodHappy, Context: "sunny walk, with friends", Severity: 7}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadOrEmpty_Missing(t *testing.T) {
	tbl, err := LoadOrEmpty(filepath.Join(t.TempDir(), DefaultFile))
	if err != nil {
		t.Fatalf("LoadOrEmpty: %v", err)
	}
	if len(tbl) != 0 {
		t.Errorf("expected empty table, got %d entries", len(tbl))
	}
}

func TestAppend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	first := sample()
	second := entry.Entry{Name: "Ada", Date: "2024-04-02", Mood: entry.MoodSad, Context: `said "no"`, Severity: 2}

	if _, err := Append(path, first); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := Append(path, second); err != nil {
		t.Fatalf("Append: %v", err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tbl) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tbl))
	}
	if tbl[0] != first {
		t.Errorf("first = %+v, want %+v", tbl[0], first)
	}
	if tbl[len(tbl)-1] != second {
		t.Errorf("last = %+v, want %+v", tbl[len(tbl)-1], second)
	}
}

func TestAppend_AllowsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	for i := 0; i < 3; i++ {
		if _, err := Append(path, sample()); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	tbl, _ := Load(path)
	if len(tbl) != 3 {
		t.Errorf("expected 3 duplicate entries, got %d", len(tbl))
	}
}

func TestAppend_RejectsInvalidWithoutWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if _, err := Append(path, sample()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	before, _ := os.ReadFile(path)

	bad := []entry.Entry{
		{Name: "x", Date: "2024-04-01", Mood: "bored", Severity: 5},
		{Name: "x", Date: "2024-04-01", Mood: entry.MoodSad, Severity: 0},
		{Name: "x", Date: "2024-04-01", Mood: entry.MoodSad, Severity: 11},
		{Name: "x", Date: "April 1", Mood: entry.MoodSad, Severity: 5},
	}
	for _, e := range bad {
		_, err := Append(path, e)
		var verr *entry.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Append(%+v): expected ValidationError, got %v", e, err)
		}
	}

	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Errorf("file changed after rejected appends:\nbefore %q\nafter  %q", before, after)
	}
}

func TestAppend_InvalidDoesNotCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if _, err := Append(path, entry.Entry{Mood: "nope", Date: "2024-01-01", Severity: 3}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file to be created, stat err = %v", err)
	}
}

func TestAppend_ReloadsBeforeWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if _, err := Append(path, sample()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// Simulate another process writing in between.
	other := entry.Entry{Name: "Bo", Date: "2024-04-03", Mood: entry.MoodAngry, Context: "other", Severity: 9}
	tbl, _ := Load(path)
	if err := Persist(path, append(tbl, other)); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := Append(path, sample())
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(got) != 3 || got[1] != other {
		t.Errorf("expected concurrent entry to survive, got %+v", got)
	}
}

func TestAppend_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", DefaultFile)
	if _, err := Append(path, sample()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %s: %v", path, err)
	}
}

func TestPersist_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := Persist(path, Table{sample()}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	data, _ := os.ReadFile(path)
	want := "name,date,mood,context,severity\nAda,2024-04-01,happy,\"sunny walk, with friends\",7\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestPersist_EmptyTableKeepsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := Persist(path, Table{}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tbl) != 0 {
		t.Errorf("expected empty table, got %d", len(tbl))
	}
}

func TestDecode_Lenient(t *testing.T) {
	in := "name,date,mood,context,severity\n" +
		"Ada,yesterday, happy ,legacy row,5.0\n" +
		"Bo,2024-01-01,sad,,3\n"
	tbl, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(tbl) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl))
	}
	if tbl[0].Mood != entry.MoodHappy || tbl[0].Severity != 5 || tbl[0].Date != "yesterday" {
		t.Errorf("row 0 = %+v", tbl[0])
	}
}

func TestDecode_Empty(t *testing.T) {
	tbl, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(tbl) != 0 {
		t.Errorf("expected empty table")
	}
}

func TestDecode_BadHeader(t *testing.T) {
	_, err := Decode(strings.NewReader("date,name,mood,context,severity\n"))
	if err == nil || !strings.Contains(err.Error(), "unexpected header") {
		t.Errorf("expected header error, got %v", err)
	}
}

func TestDecode_BadSeverity(t *testing.T) {
	in := "name,date,mood,context,severity\nAda,2024-01-01,sad,x,high\n"
	_, err := Decode(strings.NewReader(in))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line-numbered severity error, got %v", err)
	}
}

func TestLast(t *testing.T) {
	tbl := Table{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}
	if got := tbl.Last(3); len(got) != 3 || got[0].Name != "b" {
		t.Errorf("Last(3) = %v", got)
	}
	if got := tbl.Last(10); len(got) != 4 {
		t.Errorf("Last(10) should return all, got %d", len(got))
	}
	if got := tbl.Last(0); len(got) != 4 {
		t.Errorf("Last(0) should return all, got %d", len(got))
	}
}

func TestVerify(t *testing.T) {
	tbl := Table{
		sample(),
		{Name: "old", Date: "last week", Mood: entry.MoodSad, Severity: 4},
		{Name: "odd", Date: "2024-01-01", Mood: "meh", Severity: 4},
	}
	problems := Verify(tbl)
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %v", problems)
	}
	if problems[0].Row != 2 || problems[0].Field != "date" {
		t.Errorf("problem 0 = %+v", problems[0])
	}
	if problems[1].Row != 3 || problems[1].Field != "mood" {
		t.Errorf("problem 1 = %+v", problems[1])
	}
}
