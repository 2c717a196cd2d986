package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vidyasagar/navsurf/internal/app"
	"github.com/vidyasagar/navsurf/internal/config"
	"github.com/vidyasagar/navsurf/internal/logging"
	"github.com/vidyasagar/navsurf/internal/storage"
	"github.com/vidyasagar/navsurf/internal/theme"
)

var version = "0.1.0"

var (
	configPath string
	themeName  string
	dataDir    string
	logLevel   string
	maxEntries int
	noRestore  bool
	noWarn     bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "navsurf [url]",
	Short: "navsurf - a tabbed terminal browser with session history",
	Long: `navsurf is a terminal web browser. Every tab keeps its own back/forward
history, which is saved and restored between runs.

Settings come from the config file, then NAVSURF_* environment variables,
then flags.

Examples:
  navsurf                          # restore the last session
  navsurf https://example.com      # open a URL
  navsurf golang.org               # auto-adds https://
  navsurf "how to use goroutines"  # search DuckDuckGo
  navsurf --theme nord --no-restore`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowser,
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Print the saved tabs and their history",
	Args:  cobra.NoArgs,
	RunE:  printSession,
}

var clearSessionCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the saved tabs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(cmd, func(_ *config.Config, db *storage.DB) error {
			return storage.NewSessionStore(db).Clear()
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "navsurf %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/navsurf/config.json)")
	pf.StringVar(&dataDir, "data-dir", "", "directory for the session database and log")

	f := rootCmd.Flags()
	f.StringVar(&themeName, "theme", "", "color theme ("+strings.Join(theme.List(), ", ")+")")
	f.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.IntVar(&maxEntries, "max-entries", 0, "history entries kept per tab")
	f.BoolVar(&noRestore, "no-restore", false, "start with a fresh session")
	f.BoolVar(&noWarn, "no-insecure-warning", false, "load plain http pages without a warning")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging in development format")

	sessionCmd.AddCommand(clearSessionCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment and applies flags set
// on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("theme") {
		cfg.Theme = themeName
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("max-entries") {
		cfg.MaxEntries = maxEntries
	}
	if noRestore {
		cfg.RestoreSession = false
	}
	if noWarn {
		cfg.WarnInsecure = false
	}
	if verbose {
		cfg.LogLevel = "debug"
		cfg.LogDev = true
	}
	return cfg, cfg.Validate()
}

// withStores opens the database for a subcommand.
func withStores(cmd *cobra.Command, fn func(*config.Config, *storage.DB) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	db, err := storage.OpenDB(dir)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, db)
}

func runBrowser(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !theme.Set(cfg.Theme) {
		return fmt.Errorf("unknown theme %q (available: %s)", cfg.Theme, strings.Join(theme.List(), ", "))
	}
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}

	// The alt screen owns stderr, so logs go to a file.
	logger := logging.NewOrNop(logging.FileConfig(dir, cfg.LogLevel, cfg.LogDev))
	defer logger.Sync()

	opts := app.Options{
		Config:  cfg,
		Logger:  logger,
		Version: version,
	}
	if len(args) > 0 {
		opts.StartURL = args[0]
	}

	db, err := storage.OpenDB(dir)
	if err != nil {
		logger.Warn("session storage unavailable", zap.Error(err))
	} else {
		defer db.Close()
		opts.Sessions = storage.NewSessionStore(db)
		opts.Visits = storage.NewVisitStore(db, 0)
	}

	logger.Info("starting", zap.String("version", version), zap.String("data_dir", dir))
	p := tea.NewProgram(app.New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	final, err := p.Run()
	if m, ok := final.(app.Model); ok {
		m.Close()
	}
	if err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

func printSession(cmd *cobra.Command, args []string) error {
	return withStores(cmd, func(_ *config.Config, db *storage.DB) error {
		tabs, err := storage.NewSessionStore(db).LoadTabs()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(tabs) == 0 {
			fmt.Fprintln(out, "No saved session.")
			return nil
		}
		for i, t := range tabs {
			fmt.Fprintf(out, "Tab %d (%s)\n", i+1, t.ID)
			for j, e := range t.Entries {
				marker := "  "
				if j == t.Selected {
					marker = "> "
				}
				title := e.Title
				if title == "" {
					title = e.URL
				}
				fmt.Fprintf(out, "  %s%2d. %s\n        %s  [%s]\n", marker, j+1, title, e.URL, e.Transition)
			}
		}
		return nil
	})
}
