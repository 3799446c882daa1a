package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kokistudios/mood/internal/analysis"
	"github.com/kokistudios/mood/internal/table"
	"github.com/kokistudios/mood/internal/ui"
)

// DataConfig locates the entry file.
type DataConfig struct {
	File string `yaml:"file"`
}

// PlotConfig holds chart settings.
type PlotConfig struct {
	Window int `yaml:"window"`
}

// PromptConfig holds defaults for the add form.
type PromptConfig struct {
	DefaultName string `yaml:"default_name,omitempty"`
}

// Config holds mood configuration.
type Config struct {
	Version  string              `yaml:"version"`
	Data     DataConfig          `yaml:"data"`
	Plot     PlotConfig          `yaml:"plot"`
	Feedback analysis.Thresholds `yaml:"feedback"`
	Prompt   PromptConfig        `yaml:"prompt,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version:  "1",
		Data:     DataConfig{File: table.DefaultFile},
		Plot:     PlotConfig{Window: 3},
		Feedback: analysis.DefaultThresholds(),
	}
}

// ConfigKeys lists the keys accepted by SetConfigValue.
var ConfigKeys = []string{
	"data.file",
	"plot.window",
	"feedback.low_severity_count",
	"feedback.high_severity_count",
	"prompt.default_name",
}

// Store represents a resolved MOOD_HOME.
type Store struct {
	Home   string
	Config Config
}

// Issue represents a health check finding.
type Issue struct {
	Severity string // "warning" or "error"
	Message  string
}

// LoadEnv reads .env from the working directory if present.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load .env: %w", err)
	}
	ui.Logger.Debug("Loaded .env")
	return nil
}

// Home returns the MOOD_HOME path, respecting the MOOD_HOME env var.
func Home() string {
	if h := os.Getenv("MOOD_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mood")
	}
	return filepath.Join(home, ".mood")
}

// Init creates MOOD_HOME with a default config.yaml.
func Init(home string, force bool) error {
	cfgPath := filepath.Join(home, "config.yaml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("MOOD_HOME already initialized at %s (use --force to reinitialize)", home)
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", home, err)
	}
	s := &Store{Home: home, Config: DefaultConfig()}
	return s.SaveConfig()
}

// Load reads config.yaml from home. A missing config yields defaults so the
// tool works before init. Missing fields are filled from defaults.
func Load(home string) (*Store, error) {
	cfg := DefaultConfig()
	cfgPath := filepath.Join(home, "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ui.Logger.Debug("No config.yaml, using defaults", "home", home)
			return &Store{Home: home, Config: cfg}, nil
		}
		return nil, fmt.Errorf("cannot read MOOD_HOME config at %s: %w", cfgPath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config.yaml: %w", err)
	}
	if cfg.Data.File == "" {
		cfg.Data.File = table.DefaultFile
	}
	return &Store{Home: home, Config: cfg}, nil
}

// SaveConfig writes the current config to config.yaml.
func (s *Store) SaveConfig() error {
	data, err := yaml.Marshal(s.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(s.Home, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.Home, err)
	}
	cfgPath := filepath.Join(s.Home, "config.yaml")
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SetConfigValue sets a config value by dot-path key (e.g. "plot.window").
func (s *Store) SetConfigValue(key, value string) error {
	switch key {
	case "data.file":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("data.file must not be empty")
		}
		s.Config.Data.File = value
	case "plot.window":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("plot.window must be a positive integer")
		}
		s.Config.Plot.Window = n
	case "feedback.low_severity_count":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("feedback.low_severity_count must be an integer >= 0")
		}
		s.Config.Feedback.LowSeverityCount = n
	case "feedback.high_severity_count":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("feedback.high_severity_count must be an integer >= 0")
		}
		s.Config.Feedback.HighSeverityCount = n
	case "prompt.default_name":
		s.Config.Prompt.DefaultName = value
	default:
		return fmt.Errorf("unknown config key: %s\nValid keys: %s", key, strings.Join(ConfigKeys, ", "))
	}
	return s.SaveConfig()
}

// Path resolves a path within MOOD_HOME.
func (s *Store) Path(parts ...string) string {
	all := append([]string{s.Home}, parts...)
	return filepath.Join(all...)
}

// DataPath returns the entry file path. A non-empty override wins and is used
// as given; otherwise data.file is resolved against MOOD_HOME unless absolute.
func (s *Store) DataPath(override string) string {
	if override != "" {
		return override
	}
	if filepath.IsAbs(s.Config.Data.File) {
		return s.Config.Data.File
	}
	return s.Path(s.Config.Data.File)
}

// CheckHealth verifies MOOD_HOME, its config and the entry file.
func CheckHealth(home string) []Issue {
	var issues []Issue

	info, err := os.Stat(home)
	if err != nil {
		issues = append(issues, Issue{"error", fmt.Sprintf("missing directory: %s", home)})
		return issues
	} else if !info.IsDir() {
		issues = append(issues, Issue{"error", fmt.Sprintf("expected directory but found file: %s", home)})
		return issues
	}

	cfgPath := filepath.Join(home, "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		issues = append(issues, Issue{"warning", fmt.Sprintf("cannot read config.yaml, defaults in use: %v", err)})
	} else {
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			issues = append(issues, Issue{"error", fmt.Sprintf("config.yaml is not valid YAML: %v", err)})
		}
	}

	s, err := Load(home)
	if err != nil {
		return issues
	}
	return append(issues, CheckData(s.DataPath(""))...)
}

// CheckData reports an unreadable entry file and rows that fail validation.
func CheckData(path string) []Issue {
	var issues []Issue
	t, err := table.Load(path)
	if errors.Is(err, table.ErrNotFound) {
		return []Issue{{"warning", fmt.Sprintf("no entry file yet at %s", path)}}
	}
	if err != nil {
		return []Issue{{"error", err.Error()}}
	}
	for _, p := range table.Verify(t) {
		issues = append(issues, Issue{"warning", fmt.Sprintf("row %d: %s: %s", p.Row, p.Field, p.Message)})
	}
	return issues
}

// FixIssues attempts to repair simple issues in MOOD_HOME.
func FixIssues(home string) []string {
	var fixed []string

	if _, err := os.Stat(home); err != nil {
		if err := os.MkdirAll(home, 0755); err == nil {
			fixed = append(fixed, fmt.Sprintf("recreated missing directory: %s", home))
		}
	}

	cfgPath := filepath.Join(home, "config.yaml")
	if _, err := os.Stat(cfgPath); err != nil {
		s := &Store{Home: home, Config: DefaultConfig()}
		if s.SaveConfig() == nil {
			fixed = append(fixed, "recreated missing config.yaml with defaults")
		}
	}

	s, err := Load(home)
	if err != nil {
		return fixed
	}
	path := s.DataPath("")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if table.Persist(path, table.Table{}) == nil {
			fixed = append(fixed, fmt.Sprintf("created empty entry file: %s", path))
		}
	}

	return fixed
}
