package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/grocer/internal/batch"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import stores, items, prices and coupons from YAML",
		Long: `Import a YAML batch of stores, items, tags, prices and coupons.

Rows are applied in order: stores, items (with their tags), store tags,
prices, coupons. Every row is saved on its own, so a failing row leaves
the rows before it recorded. Importing the same file twice changes nothing.

Example file:
  stores: [Winco]
  items:
    - {name: banana, brand: Winco, tags: [fruit]}
  prices:
    - {item: banana, brand: Winco, price: "0.59", unit: lb, date: 2024-01-02}

Example:
  grocer import receipts.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	f, err := batch.Load(path)
	if err != nil {
		return formatter.Fail(ErrCodeBatch, "failed to load batch", err)
	}
	formatter.VerboseLog("Loaded %s: %d stores, %d items, %d prices, %d coupons",
		path, len(f.Stores), len(f.Items), len(f.Prices), len(f.Coupons))

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to open database", err)
	}
	defer closeStore(opts.RootOptions, st)

	res, err := batch.Apply(commandContext(cmd), st, f, batch.Options{
		Today:               opts.Now,
		NewID:               opts.NewBatchID,
		DefaultQuantityType: opts.Config.DefaultQuantityType,
		Logger:              opts.Logger,
	})
	if err != nil {
		return formatter.Fail(ErrCodeBatch, "import failed", err)
	}

	return formatter.Render(res, func(w io.Writer) error {
		fmt.Fprintf(w, "Imported %s (batch %s)\n", path, res.BatchID)
		fmt.Fprintf(w, "  Stores:     %d\n", res.Stores)
		fmt.Fprintf(w, "  Items:      %d\n", res.Items)
		fmt.Fprintf(w, "  Item tags:  %d\n", res.ItemTags)
		fmt.Fprintf(w, "  Store tags: %d\n", res.StoreTags)
		fmt.Fprintf(w, "  Prices:     %d\n", res.Prices)
		fmt.Fprintf(w, "  Coupons:    %d\n", res.Coupons)
		return nil
	})
}
