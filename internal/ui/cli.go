// Package ui implements the athro command line.
package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/athro-ai/athro/internal/applog"
	"github.com/athro-ai/athro/internal/config"
	"github.com/athro-ai/athro/internal/db"
	"github.com/athro-ai/athro/internal/planner"
	"github.com/athro-ai/athro/internal/study"
	"github.com/athro-ai/athro/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	config *config.Config
	store  *db.Store
	svc    *planner.Service
	root   *cobra.Command
	out    io.Writer
	now    func() time.Time

	debug   bool
	noColor bool
}

// NewApp creates a new CLI application. When store is nil the configured
// database is opened by the first command that needs it.
func NewApp(store *db.Store, cfg *config.Config) *App {
	a := &App{store: store, config: cfg, out: os.Stdout, now: time.Now}

	a.root = &cobra.Command{
		Use:   "athro",
		Short: "Weekly study planner",
		Long: `Athro plans a student's week: recurring preferred study slots,
one-off sessions, quizzes and revision, laid out on a study-hours grid.

Run without arguments to open the week grid.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if a.noColor {
				DisableColor()
			}
			level, err := applog.ParseLevel(a.config.Log.Level)
			if err != nil {
				return err
			}
			return applog.Init(level, a.debug)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runTUI()
		},
	}

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to "+applog.DebugLogPath+")")
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable color output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.editCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.deleteCmd())
	a.root.AddCommand(a.slotsCmd())
	a.root.AddCommand(a.presetsCmd())
	a.root.AddCommand(a.summaryCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.remindCmd())
	a.root.AddCommand(a.serveCmd())
	a.root.AddCommand(a.tuiCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "athro %s (commit: %s)\n", Version, Commit)
		},
	}
}

func (a *App) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive week grid",
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runTUI()
		},
	}
}

func (a *App) runTUI() error {
	if err := a.ensureService(); err != nil {
		return err
	}
	return tui.Run(a.svc, a.config, a.session())
}

// ensureService opens the configured database and builds the planner on
// first use.
func (a *App) ensureService() error {
	if a.svc != nil {
		return nil
	}
	if a.store == nil {
		store, err := db.Open(a.config.Storage)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		a.store = store
	}
	a.store.SetLocation(a.config.Location())

	svc, err := planner.FromConfig(a.store, a.config)
	if err != nil {
		return err
	}
	a.svc = svc
	return nil
}

func (a *App) session() study.Session {
	return a.config.Session()
}

func (a *App) today() time.Time {
	return a.now().In(a.config.Location())
}

// SetOutput redirects command output. Used by tests.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
	a.root.SetOut(w)
	a.root.SetErr(w)
}

// SetArgs sets the arguments Execute parses. Used by tests.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

// Close releases the database, if one was opened, and the debug log.
func (a *App) Close() error {
	defer applog.Close()
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}
