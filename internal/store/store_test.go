package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kokistudios/mood/internal/entry"
	"github.com/kokistudios/mood/internal/table"
)

func TestInit(t *testing.T) {
	tmp := t.TempDir()
	home := filepath.Join(tmp, ".mood")

	if err := Init(home, false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// config.yaml should exist
	if _, err := os.Stat(filepath.Join(home, "config.yaml")); err != nil {
		t.Error("expected config.yaml to exist")
	}

	// Second init should fail without force
	if err := Init(home, false); err == nil {
		t.Error("expected error on duplicate init")
	}

	// Force should succeed
	if err := Init(home, true); err != nil {
		t.Errorf("expected force init to succeed: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmp := t.TempDir()
	home := filepath.Join(tmp, ".mood")
	Init(home, false)

	s, err := Load(home)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Home != home {
		t.Errorf("expected Home=%s, got %s", home, s.Home)
	}
}

func TestLoad_MissingConfigUsesDefaults(t *testing.T) {
	home := filepath.Join(t.TempDir(), "never-initialized")
	s, err := Load(home)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Config.Data.File != table.DefaultFile {
		t.Errorf("expected default data file, got %s", s.Config.Data.File)
	}
	if _, err := os.Stat(home); !os.IsNotExist(err) {
		t.Error("Load should not create MOOD_HOME")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := t.TempDir()
	os.WriteFile(filepath.Join(home, "config.yaml"), []byte("plot: [unclosed\n"), 0644)
	if _, err := Load(home); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestPath(t *testing.T) {
	s := &Store{Home: "/tmp/.mood"}
	got := s.Path("exports", "a.tar.gz")
	want := filepath.Join("/tmp/.mood", "exports", "a.tar.gz")
	if got != want {
		t.Errorf("Path() = %s, want %s", got, want)
	}
}

func TestDataPath(t *testing.T) {
	s := &Store{Home: "/tmp/.mood", Config: DefaultConfig()}
	if got, want := s.DataPath(""), filepath.Join("/tmp/.mood", table.DefaultFile); got != want {
		t.Errorf("DataPath() = %s, want %s", got, want)
	}
	if got := s.DataPath("elsewhere.csv"); got != "elsewhere.csv" {
		t.Errorf("override ignored, got %s", got)
	}
	s.Config.Data.File = "/var/data/moods.csv"
	if got := s.DataPath(""); got != "/var/data/moods.csv" {
		t.Errorf("absolute data.file not honored, got %s", got)
	}
}

func TestHomeEnvVar(t *testing.T) {
	t.Setenv("MOOD_HOME", "/custom/path")
	if got := Home(); got != "/custom/path" {
		t.Errorf("Home() = %s, want /custom/path", got)
	}
}

func TestHomeDefault(t *testing.T) {
	t.Setenv("MOOD_HOME", "")
	if got := Home(); filepath.Base(got) != ".mood" {
		t.Errorf("Home() = %s, want a .mood directory", got)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// No .env is fine.
	if err := LoadEnv(); err != nil {
		t.Fatalf("LoadEnv without file: %v", err)
	}

	t.Setenv("MOOD_HOME", "")
	os.Unsetenv("MOOD_HOME")
	os.WriteFile(filepath.Join(dir, ".env"), []byte("MOOD_HOME=/from/dotenv\n"), 0644)
	if err := LoadEnv(); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := Home(); got != "/from/dotenv" {
		t.Errorf("Home() = %s, want /from/dotenv", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Data.File != "mood_data.csv" {
		t.Errorf("expected default data file mood_data.csv, got %s", cfg.Data.File)
	}
	if cfg.Plot.Window != 3 {
		t.Errorf("expected plot window 3, got %d", cfg.Plot.Window)
	}
	if cfg.Feedback.LowSeverityCount != 3 || cfg.Feedback.HighSeverityCount != 3 {
		t.Errorf("expected feedback thresholds of 3, got %+v", cfg.Feedback)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	tmp := t.TempDir()
	home := filepath.Join(tmp, ".mood")
	Init(home, false)

	// Write a minimal config with only version and one override
	os.WriteFile(filepath.Join(home, "config.yaml"), []byte("version: \"1\"\nplot:\n  window: 7\n"), 0644)

	s, err := Load(home)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Config.Plot.Window != 7 {
		t.Errorf("expected window override 7, got %d", s.Config.Plot.Window)
	}
	// Default values should be filled in
	if s.Config.Data.File != table.DefaultFile {
		t.Errorf("expected default data file, got %s", s.Config.Data.File)
	}
	if s.Config.Feedback.HighSeverityCount != 3 {
		t.Errorf("expected default high_severity_count, got %d", s.Config.Feedback.HighSeverityCount)
	}
}

func TestSetConfigValue(t *testing.T) {
	tmp := t.TempDir()
	home := filepath.Join(tmp, ".mood")
	Init(home, false)
	s, _ := Load(home)

	if err := s.SetConfigValue("plot.window", "5"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetConfigValue("feedback.low_severity_count", "0"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetConfigValue("prompt.default_name", "Ada"); err != nil {
		t.Fatal(err)
	}

	// Reload and verify persistence
	s2, _ := Load(home)
	if s2.Config.Plot.Window != 5 {
		t.Errorf("config not persisted, got window %d", s2.Config.Plot.Window)
	}
	if s2.Config.Feedback.LowSeverityCount != 0 {
		t.Errorf("expected low threshold disabled, got %d", s2.Config.Feedback.LowSeverityCount)
	}
	if s2.Config.Prompt.DefaultName != "Ada" {
		t.Errorf("expected default name Ada, got %q", s2.Config.Prompt.DefaultName)
	}
}

func TestSetConfigValue_InvalidKey(t *testing.T) {
	tmp := t.TempDir()
	home := filepath.Join(tmp, ".mood")
	Init(home, false)
	s, _ := Load(home)

	err := s.SetConfigValue("nonexistent.key", "value")
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "plot.window") {
		t.Errorf("expected valid keys in error, got %v", err)
	}
}

func TestSetConfigValue_InvalidInt(t *testing.T) {
	tmp := t.TempDir()
	home := filepath.Join(tmp, ".mood")
	Init(home, false)
	s, _ := Load(home)

	cases := map[string]string{
		"plot.window":                  "0",
		"feedback.high_severity_count": "-1",
		"feedback.low_severity_count":  "notanumber",
	}
	for key, value := range cases {
		if err := s.SetConfigValue(key, value); err == nil {
			t.Errorf("SetConfigValue(%s, %s): expected error", key, value)
		}
	}
}

func TestCheckHealth(t *testing.T) {
	tmp := t.TempDir()
	home := filepath.Join(tmp, ".mood")
	Init(home, false)

	s, _ := Load(home)
	if err := table.Persist(s.DataPath(""), table.Table{}); err != nil {
		t.Fatal(err)
	}

	issues := CheckHealth(home)
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}

	// Break the config to trigger an issue
	os.WriteFile(filepath.Join(home, "config.yaml"), []byte("version: [\n"), 0644)
	issues = CheckHealth(home)
	if len(issues) == 0 || issues[0].Severity != "error" {
		t.Errorf("expected config error, got %v", issues)
	}
}

func TestCheckHealth_MissingHome(t *testing.T) {
	issues := CheckHealth(filepath.Join(t.TempDir(), "nope"))
	if len(issues) != 1 || issues[0].Severity != "error" {
		t.Errorf("expected one error, got %v", issues)
	}
}

func TestCheckData(t *testing.T) {
	path := filepath.Join(t.TempDir(), table.DefaultFile)

	issues := CheckData(path)
	if len(issues) != 1 || issues[0].Severity != "warning" {
		t.Errorf("expected missing-file warning, got %v", issues)
	}

	tbl := table.Table{
		{Name: "a", Date: "2024-01-01", Mood: entry.MoodHappy, Severity: 5},
		{Name: "b", Date: "someday", Mood: entry.MoodSad, Severity: 5},
	}
	table.Persist(path, tbl)
	issues = CheckData(path)
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "row 2") {
		t.Errorf("expected row 2 warning, got %v", issues)
	}

	os.WriteFile(path, []byte("wrong,header,here,at,all\n"), 0644)
	issues = CheckData(path)
	if len(issues) != 1 || issues[0].Severity != "error" {
		t.Errorf("expected unreadable file error, got %v", issues)
	}
}

func TestFixIssues(t *testing.T) {
	tmp := t.TempDir()
	home := filepath.Join(tmp, ".mood")

	fixed := FixIssues(home)
	if len(fixed) != 3 {
		t.Errorf("expected home, config and data fixes, got %v", fixed)
	}

	// Verify config was recreated
	if _, err := os.Stat(filepath.Join(home, "config.yaml")); err != nil {
		t.Error("config.yaml not recreated")
	}
	if _, err := table.Load(filepath.Join(home, table.DefaultFile)); err != nil {
		t.Errorf("expected readable empty entry file: %v", err)
	}

	if again := FixIssues(home); len(again) != 0 {
		t.Errorf("expected nothing left to fix, got %v", again)
	}
}
