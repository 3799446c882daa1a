package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kokistudios/mood/internal/analysis"
	"github.com/kokistudios/mood/internal/bundle"
	"github.com/kokistudios/mood/internal/entry"
	moodmcp "github.com/kokistudios/mood/internal/mcp"
	"github.com/kokistudios/mood/internal/report"
	"github.com/kokistudios/mood/internal/store"
	"github.com/kokistudios/mood/internal/table"
	"github.com/kokistudios/mood/internal/tracker"
	"github.com/kokistudios/mood/internal/ui"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

// Persistent flags shared by every command.
var (
	noColor  bool
	verbose  bool
	dataFile string
)

// actions holds the root flag set. The first one set wins, in field order.
type actions struct {
	add      bool
	view     bool
	plot     bool
	analysis string
	search   string
	describe bool
	feedback bool
}

func main() {
	var act actions

	rootCmd := &cobra.Command{
		Use:   "mood",
		Short: "mood: a personal mood journal",
		Long:  "Record how you feel to a local CSV file, then view, search, describe, summarize, or plot your entries.",
		Example: `  mood --add
  mood --view
  mood --analysis summary
  mood --search work`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.Init(noColor, verbose)
			return store.LoadEnv()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActions(act)
		},
	}

	rootCmd.Version = buildVersion()
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().StringVar(&dataFile, "file", "", "Use this CSV file instead of the configured one")

	flags := rootCmd.Flags()
	flags.BoolVar(&act.add, "add", false, "Add a new mood entry")
	flags.BoolVar(&act.view, "view", false, "View previous mood entries")
	flags.BoolVar(&act.plot, "plot", false, "Plot severity by mood for the most recent entries")
	flags.StringVar(&act.analysis, "analysis", "", "Perform mood analysis: summary or trend")
	flags.StringVar(&act.search, "search", "", "Search mood entries by context keyword")
	flags.BoolVar(&act.describe, "describe", false, "Describe the severity of each entry in words")
	flags.BoolVar(&act.feedback, "feedback", false, "Show advisories about patterns in your entries")

	// Command groups
	rootCmd.AddGroup(
		&cobra.Group{ID: "journal", Title: "Journal Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration:"},
	)

	reportC := reportCmd()
	reportC.GroupID = "journal"
	exportC := exportCmd()
	exportC.GroupID = "journal"
	importC := importCmd()
	importC.GroupID = "journal"

	initC := initCmd()
	initC.GroupID = "config"
	configC := configCmd()
	configC.GroupID = "config"
	doctorC := doctorCmd()
	doctorC.GroupID = "config"

	rootCmd.AddCommand(reportC)
	rootCmd.AddCommand(exportC)
	rootCmd.AddCommand(importC)
	rootCmd.AddCommand(initC)
	rootCmd.AddCommand(configC)
	rootCmd.AddCommand(doctorC)
	rootCmd.AddCommand(completionCmd())
	rootCmd.AddCommand(mcpServeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadStore() (*store.Store, error) {
	s, err := store.Load(store.Home())
	if err != nil {
		return nil, fmt.Errorf("failed to load MOOD_HOME: %w", err)
	}
	return s, nil
}

func loadTracker() (*store.Store, *tracker.Tracker, error) {
	s, err := loadStore()
	if err != nil {
		return nil, nil, err
	}
	tr := tracker.New(s, dataFile)
	ui.Logger.Debug("Using data file", "path", tr.Path)
	return s, tr, nil
}

func runActions(act actions) error {
	s, tr, err := loadTracker()
	if err != nil {
		return err
	}

	switch {
	case act.add:
		return runAdd(tr, s.Config.Prompt.DefaultName)
	case act.view:
		return runView(tr)
	case act.plot:
		return runPlot(tr)
	case act.analysis != "":
		out, err := tr.Analyze(act.analysis)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	case act.search != "":
		return runSearch(tr, act.search)
	case act.describe:
		return runDescribe(tr)
	case act.feedback:
		return runFeedback(tr)
	default:
		ui.Info(tracker.MsgNoAction)
		return nil
	}
}

// handled reports outcomes that are messages rather than failures.
// It returns true when err was consumed.
func handled(err error) bool {
	var verr *entry.ValidationError
	switch {
	case errors.As(err, &verr):
		ui.Error(verr.Error())
	case errors.Is(err, table.ErrNotFound):
		ui.EmptyState(tracker.MsgNoEntries)
	case errors.Is(err, analysis.ErrNoData):
		ui.EmptyState(tracker.MsgNoData)
	case errors.Is(err, analysis.ErrNoMatches):
		ui.EmptyState(tracker.MsgNoMatches)
	case errors.Is(err, ui.ErrCancelled):
		ui.Warning("Cancelled, nothing was saved.")
	default:
		return false
	}
	return true
}

func addQuestions(defaultName string) []ui.Question {
	namePrompt := "Enter your name:"
	if defaultName != "" {
		namePrompt = fmt.Sprintf("Enter your name [%s]:", defaultName)
	}
	return []ui.Question{
		{Key: "name", Prompt: namePrompt, Placeholder: defaultName},
		{Key: "date", Prompt: "Enter the date (YYYY-MM-DD):", Placeholder: "blank for today", Check: func(v string) error {
			if strings.TrimSpace(v) == "" {
				return nil
			}
			return entry.ValidateDate(strings.TrimSpace(v))
		}},
		{Key: "mood", Prompt: fmt.Sprintf("What mood are you feeling? (%s):", entry.MoodList()), Check: func(v string) error {
			_, err := entry.ParseMood(v)
			return err
		}},
		{Key: "context", Prompt: "Why are you feeling this way?"},
		{Key: "severity", Prompt: "On a scale of 1-10, how severe is this emotion?", Check: func(v string) error {
			_, err := entry.ParseSeverity(v)
			return err
		}},
	}
}

func runAdd(tr *tracker.Tracker, defaultName string) error {
	fmt.Fprintln(os.Stderr, ui.Bold("Welcome to your personal Mood Tracker!"))

	answers, err := ui.Ask("New mood entry", addQuestions(defaultName))
	if err != nil {
		if handled(err) {
			return nil
		}
		return err
	}

	name := answers["name"]
	if strings.TrimSpace(name) == "" {
		name = defaultName
	}
	e, err := tr.Add(entry.Input{
		Name:     name,
		Date:     answers["date"],
		Mood:     answers["mood"],
		Context:  answers["context"],
		Severity: answers["severity"],
	})
	if err != nil {
		if handled(err) {
			return nil
		}
		return err
	}
	ui.Success(tracker.FormatAdd(e))
	return nil
}

func runView(tr *tracker.Tracker) error {
	tbl, err := tr.Entries()
	if err != nil {
		if handled(err) {
			return nil
		}
		return err
	}
	if len(tbl) == 0 {
		ui.EmptyState(tracker.MsgNoData)
		return nil
	}

	ui.SectionHeader("Your previous entries")
	rows := make([][]string, 0, len(tbl))
	for i, e := range tbl {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), e.Name, e.Date, string(e.Mood), e.Context, strconv.Itoa(e.Severity),
		})
	}
	ui.Table(append([]string{"#"}, table.Header...), rows)
	return nil
}

func runPlot(tr *tracker.Tracker) error {
	p, err := tr.Plot()
	if err != nil {
		if handled(err) {
			return nil
		}
		return err
	}
	if p.Short() {
		ui.Info(fmt.Sprintf("There are less than %d entries. Showing all available entries.", p.Window))
	}

	groups := make([]ui.BarGroup, 0, len(p.Groups))
	for _, g := range p.Groups {
		bg := ui.BarGroup{Label: string(g.Mood)}
		for _, sc := range g.Severities {
			bg.Bars = append(bg.Bars, ui.Bar{Label: strconv.Itoa(sc.Severity), Value: sc.Count})
		}
		groups = append(groups, bg)
	}
	title := fmt.Sprintf("Mood Severity Distribution for Last %d Entries", p.Window)
	fmt.Print(ui.BarChart(title, "Mood", "Count by severity", groups))
	return nil
}

func runSearch(tr *tracker.Tracker, keyword string) error {
	ui.Status(fmt.Sprintf("Searching for keyword in context: %s", keyword))
	matches, err := tr.Search(keyword)
	if err != nil {
		if handled(err) {
			return nil
		}
		return err
	}
	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode matches: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runDescribe(tr *tracker.Tracker) error {
	lines, err := tr.Describe()
	if err != nil {
		if handled(err) {
			return nil
		}
		return err
	}
	if len(lines) == 0 {
		ui.EmptyState(tracker.MsgNoData)
		return nil
	}
	for _, l := range lines {
		fmt.Println(tracker.FormatSeverityLine(l))
	}
	return nil
}

func runFeedback(tr *tracker.Tracker) error {
	advisories, err := tr.Feedback()
	if err != nil {
		if handled(err) {
			return nil
		}
		return err
	}
	if len(advisories) == 0 {
		ui.Success(tracker.MsgNoFeedback)
		return nil
	}
	for _, a := range advisories {
		ui.Warning(a.Message)
	}
	return nil
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Initialize MOOD_HOME",
		Long:    "Create the MOOD_HOME directory (~/.mood by default) with config.yaml and an empty entry file. mood works without this; init just makes the defaults visible and editable.",
		Example: "  mood init\n  mood init --force",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := store.Home()
			if err := store.Init(home, force); err != nil {
				return err
			}
			s, err := store.Load(home)
			if err != nil {
				return err
			}
			path := s.DataPath("")
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if err := table.Persist(path, table.Table{}); err != nil {
					return err
				}
			}
			ui.Success("mood initialized")
			ui.Detail("Home:", home)
			ui.Detail("Data:", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Rewrite config.yaml with defaults even if it already exists")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and edit mood configuration",
	}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(s.Config)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  fmt.Sprintf("Set a mood configuration value. Valid keys: %s.", strings.Join(store.ConfigKeys, ", ")),
		Example: `  mood config set plot.window 7
  mood config set feedback.high_severity_count 5
  mood config set prompt.default_name Ada`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return store.ConfigKeys, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore()
			if err != nil {
				return err
			}
			if err := s.SetConfigValue(args[0], args[1]); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Set %s = %s", args[0], args[1]))
			return nil
		},
	}
}

func doctorCmd() *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check MOOD_HOME, config, and the entry file",
		Long:  "Check that MOOD_HOME and config.yaml are readable and that every stored entry passes current validation. Exits 0 when healthy, 1 on warnings, 2 on errors.",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := store.Home()

			if fix {
				ui.CommandBanner("DOCTOR", "repair mode")
				fixed := store.FixIssues(home)
				for _, f := range fixed {
					ui.Success(fmt.Sprintf("[FIXED] %s", f))
				}
				if len(fixed) == 0 {
					ui.EmptyState("Nothing to fix.")
				}
			} else {
				ui.CommandBanner("DOCTOR", "health check")
			}

			issues := store.CheckHealth(home)
			if dataFile != "" {
				issues = append(issues, store.CheckData(dataFile)...)
			}

			if len(issues) == 0 {
				ui.Success("Everything looks good")
				os.Exit(0)
			}

			hasError := false
			for _, issue := range issues {
				if issue.Severity == "error" {
					ui.Error(fmt.Sprintf("[ERR]  %s", issue.Message))
					hasError = true
				} else {
					ui.Warning(fmt.Sprintf("[WARN] %s", issue.Message))
				}
			}

			if hasError {
				os.Exit(2)
			}
			os.Exit(1)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "Recreate a missing MOOD_HOME, config.yaml, or entry file")
	return cmd
}

func reportCmd() *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Render a markdown report of summary, trend, severity, and feedback",
		Example: "  mood report\n  mood report -o mood-report.md",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tr, err := loadTracker()
			if err != nil {
				return err
			}
			tbl, err := tr.Entries()
			if err != nil {
				if handled(err) {
					return nil
				}
				return err
			}
			md := report.Build(tbl, tr.Thresholds, time.Now())
			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(md), 0644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				ui.Success(fmt.Sprintf("Report written to %s", outputPath))
				return nil
			}
			ui.RenderMarkdown(md)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write raw markdown to this file instead of rendering it")
	return cmd
}

func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish]",
		Short:     "Generate shell completion scripts",
		Long:      "Generate shell completion scripts for bash, zsh, or fish. Output the script to stdout for sourcing in your shell profile.",
		Example:   "  mood completion bash > ~/.bashrc.d/mood\n  mood completion zsh > ~/.zfunc/_mood\n  mood completion fish > ~/.config/fish/completions/mood.fish",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			default:
				return fmt.Errorf("unsupported shell: %s (use bash, zsh, or fish)", args[0])
			}
		},
	}
}

func exportCmd() *cobra.Command {
	var outputPath string
	var exportedBy string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export entries to a portable .mood bundle",
		Long: `Export all mood entries to a portable .mood bundle file.

The bundle is a gzip tar holding the entry CSV and a manifest.yaml with
the export time, author, and entry count.`,
		Example: `  mood export
  mood export -o ~/Backups/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tr, err := loadTracker()
			if err != nil {
				return err
			}
			if exportedBy == "" {
				exportedBy = os.Getenv("USER")
			}

			ui.Status(fmt.Sprintf("Exporting %s...", tr.Path))

			outPath, err := bundle.Export(tr.Path, outputPath, exportedBy)
			if err != nil {
				if handled(err) {
					return nil
				}
				return fmt.Errorf("export failed: %w", err)
			}

			// Get file info for size display
			info, _ := os.Stat(outPath)
			sizeStr := ""
			if info != nil {
				sizeStr = fmt.Sprintf(" (%d bytes)", info.Size())
			}

			ui.Success(fmt.Sprintf("Exported to %s%s", outPath, sizeStr))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file or directory (default: mood-<timestamp>.mood)")
	cmd.Flags().StringVar(&exportedBy, "by", "", "Author recorded in the manifest (default: $USER)")
	return cmd
}

func importCmd() *cobra.Command {
	var preview bool
	var replace bool
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <bundle-path>",
		Short: "Import entries from a .mood bundle",
		Long: `Import mood entries from a .mood bundle file.

Every bundled row is validated first; if any row is invalid nothing is
written. By default entries are appended after your existing ones.
Use --replace to overwrite the entry file with the bundle's entries.

Use --preview to see what will be imported without making changes.`,
		Example: `  mood import backup.mood
  mood import ~/Downloads/old-journal.mood --preview
  mood import backup.mood --replace --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundlePath := args[0]

			// Preview mode
			if preview {
				manifest, err := bundle.ReadManifest(bundlePath)
				if err != nil {
					return fmt.Errorf("failed to read bundle: %w", err)
				}

				ui.CommandBanner("IMPORT PREVIEW", bundlePath)
				ui.KeyValue("Exported by: ", manifest.ExportedBy)
				ui.KeyValue("Exported at: ", manifest.ExportedAt.Format("2006-01-02 15:04:05"))
				ui.KeyValue("Entries:     ", strconv.Itoa(manifest.EntryCount))

				ui.Info("Use 'mood import' without --preview to import these entries.")
				return nil
			}

			_, tr, err := loadTracker()
			if err != nil {
				return err
			}

			if replace && !yes {
				existing, err := table.LoadOrEmpty(tr.Path)
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					ok, err := ui.Confirm(fmt.Sprintf("Replace %d existing entries in %s?", len(existing), tr.Path))
					if err != nil {
						return err
					}
					if !ok {
						ui.Warning("Import cancelled (use --yes to replace without asking).")
						return nil
					}
				}
			}

			ui.Status(fmt.Sprintf("Importing from %s...", bundlePath))

			result, err := bundle.Import(tr.Path, bundlePath, replace)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			ui.Success(fmt.Sprintf("Imported %d entries", result.Imported))
			ui.KeyValue("Original author:", result.OriginalAuthor)
			ui.KeyValue("Exported at:    ", result.ExportedAt.Format("2006-01-02 15:04:05"))
			ui.KeyValue("Entries now:    ", strconv.Itoa(result.Total))
			return nil
		},
	}
	cmd.Flags().BoolVar(&preview, "preview", false, "Preview bundle contents without importing")
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite existing entries instead of appending")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask before replacing existing entries")
	return cmd
}

func mcpServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Run mood as an MCP server",
		Long:   "Start mood as a Model Context Protocol (MCP) server over stdio, exposing add, entries, summary, trend, search, describe, and feedback as tools.",
		Hidden: true, // Not typically called directly by users
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tr, err := loadTracker()
			if err != nil {
				return err
			}

			server := moodmcp.NewServer(tr, version)
			return server.Run(context.Background())
		},
	}
}
