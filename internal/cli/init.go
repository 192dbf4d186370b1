package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/grocer/internal/config"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	WriteConfig bool
}

// InitResult is the JSON payload of init.
type InitResult struct {
	Database string `json:"database"`
	Config   string `json:"config,omitempty"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the price database",
		Long: `Create the SQLite price database and its tables.

Running init on an existing database leaves its contents untouched.

Example:
  grocer init --db ./prices.db
  grocer init --write-config`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.WriteConfig, "write-config", false, "also write the effective settings to the config file if it does not exist")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to open database", err)
	}
	closeStore(opts.RootOptions, st)

	result := InitResult{Database: opts.Config.Database}

	if opts.WriteConfig {
		path := opts.ConfigPath
		if path == "" {
			path = config.DefaultPath
		}
		if requireFile(path) == nil {
			formatter.VerboseLog("config %s exists, not overwriting", path)
		} else {
			if err := config.Save(path, opts.Config); err != nil {
				return formatter.Fail(ErrCodeConfig, "failed to write config", err)
			}
			result.Config = path
		}
	}

	return formatter.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Initialized price database at %s\n", result.Database)
		if result.Config != "" {
			fmt.Fprintf(w, "Wrote config to %s\n", result.Config)
		}
		return nil
	})
}
