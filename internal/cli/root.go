package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/grocer/internal/config"
	"github.com/roach88/grocer/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string // overrides the config file's database
	ConfigPath string // "" looks for config.DefaultPath and tolerates its absence

	// Now supplies "today" for prices and coupons logged without a date.
	// Defaults to time.Now.
	Now func() time.Time

	// NewBatchID allows overriding the import batch id generator (for
	// testing). If nil, batch ids are UUIDv7.
	NewBatchID func() string

	// Resolved before any subcommand runs.
	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the grocer CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{Now: time.Now})
}

// NewRootCommandWithOptions creates the root command around opts. Tests use
// it to inject a clock.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cmd := &cobra.Command{
		Use:   "grocer",
		Short: "grocer - grocery price history",
		Long: `Record grocery prices and coupons across stores and items, and
answer which item is the best value, which is bought most often and which
store carries the most in-house products.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.Logger = newLogger(cmd, opts.Verbose)
			// init --write-config creates the file it names.
			writing, _ := cmd.Flags().GetBool("write-config")
			return resolveConfig(opts, !writing)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config, else grocer.db)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to TOML config file (default grocer.toml if present)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAddStoreCommand(opts))
	cmd.AddCommand(NewAddItemCommand(opts))
	cmd.AddCommand(NewTagStoreCommand(opts))
	cmd.AddCommand(NewTagItemCommand(opts))
	cmd.AddCommand(NewLogPriceCommand(opts))
	cmd.AddCommand(NewAddCouponCommand(opts))
	cmd.AddCommand(NewRankCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger logs to the command's stderr: debug with --verbose, warnings
// otherwise so stdout stays clean for scripts.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// resolveConfig loads the config file and applies flag overrides. With
// mustExist, a --config path that names no file is an error.
func resolveConfig(opts *RootOptions, mustExist bool) error {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath
	} else if err := requireFile(path); err != nil && mustExist {
		return WrapExitError(ExitCommandError, "config file not found", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	opts.Config = cfg
	opts.Logger.Debug("config resolved", "path", path, "database", cfg.Database,
		"check_references", cfg.CheckReferences)
	return nil
}

// requireFile fails unless path names an existing file.
func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// openStore opens the configured database. Callers close it.
func openStore(opts *RootOptions) (*store.Store, error) {
	opts.Logger.Debug("opening database", "path", opts.Config.Database)
	return store.Open(opts.Config.Database,
		store.WithReferenceChecks(opts.Config.CheckReferences),
		store.WithLogger(opts.Logger),
	)
}

// closeStore closes st, logging rather than returning a failure.
func closeStore(opts *RootOptions, st *store.Store) {
	if err := st.Close(); err != nil {
		opts.Logger.Error("error closing database", "error", err)
	}
}

// newFormatter builds the formatter for cmd's output streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// today is the date used for rows logged without one.
func (o *RootOptions) today() time.Time {
	return o.Now()
}

// commandContext returns cmd's context, or Background when run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
