// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, logger setup, and journal opening
// to reduce boilerplate across commands.
package appctx

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Bennylavaa/RealmPortal/internal/config"
	"github.com/Bennylavaa/RealmPortal/internal/journal"
	"github.com/Bennylavaa/RealmPortal/internal/logging"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration
	Config *config.Config

	// Log writes to stderr and, when NeedsLogFile is set, the persistent log file
	Log *logrus.Logger

	// Journal is the run journal (nil if NeedsJournal is false or journaling is off)
	Journal *journal.Journal
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	if a.Journal != nil {
		a.Journal.Close()
		a.Journal = nil
	}
	if a.Log != nil {
		logging.Close(a.Log)
	}
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsJournal opens the run journal unless it is disabled in config.
	NeedsJournal bool

	// NeedsLogFile appends log entries to the configured log file.
	NeedsLogFile bool
}

// DefaultOptions returns default options (no journal, console logging only).
func DefaultOptions() Options {
	return Options{}
}

// ForMigration returns options that open the journal and the log file.
func ForMigration() Options {
	return Options{
		NeedsJournal: true,
		NeedsLogFile: true,
	}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// Resources are released automatically when the wrapped function returns.
func WithApp(opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap initializes the App according to the given options.
// Callers are responsible for calling App.Close() when done.
func Bootstrap(cmd *cobra.Command, opts Options) (*App, error) {
	app := &App{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logOpts := logging.Option{
		Level:      cfg.LogLevel,
		Formatter:  logging.Formatter(cfg.LogFormat),
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Console:    cmd.ErrOrStderr(),
	}
	if opts.NeedsLogFile {
		logOpts.LogFilePath = cfg.LogPath
	}
	log, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	app.Log = log

	if opts.NeedsJournal && cfg.Journal {
		j, err := journal.New(cfg.JournalPath, log)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		app.Journal = j
	}

	return app, nil
}

// applyFlags overrides config values from persistent flags that were set
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *string) {
		if f := cmd.Flag(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	set("output", &cfg.Output)
	set("log-file", &cfg.LogPath)
	set("log-level", &cfg.LogLevel)
	set("journal", &cfg.JournalPath)

	if f := cmd.Flag("no-journal"); f != nil && f.Changed && f.Value.String() == "true" {
		cfg.Journal = false
	}
}
