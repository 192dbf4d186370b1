package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/grocer/internal/grocery"
	"github.com/roach88/grocer/internal/store"
)

// EntityResult is the JSON payload of the add and tag commands.
type EntityResult struct {
	Store string `json:"store,omitempty"`
	Item  string `json:"item,omitempty"`
	Brand string `json:"brand,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// NewAddStoreCommand creates the add-store command.
func NewAddStoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-store <name>",
		Short: "Record a store",
		Long: `Record a store. Adding a store that already exists is not an error.

Example:
  grocer add-store Winco`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := grocery.NormalizeName(args[0])
			return runWrite(rootOpts, cmd, "failed to add store", EntityResult{Store: name},
				func(ctx context.Context, st *store.Store) error {
					return st.AddStore(ctx, name)
				},
				func(w io.Writer) {
					fmt.Fprintf(w, "Store %q recorded\n", name)
				})
		},
	}
}

// AddItemOptions holds flags for the add-item command.
type AddItemOptions struct {
	*RootOptions
	Store string
}

// NewAddItemCommand creates the add-item command.
func NewAddItemCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add-item <name> <brand>",
		Short: "Record an item",
		Long: `Record an item, identified by its name and brand.

An in-house product uses the store's name as its brand.

Example:
  grocer add-item banana Winco --store Winco
  grocer add-item cereal Kellogg`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, brand := grocery.NormalizeName(args[0]), grocery.NormalizeName(args[1])
			storeName := grocery.NormalizeName(opts.Store)
			return runWrite(rootOpts, cmd, "failed to add item",
				EntityResult{Store: storeName, Item: name, Brand: brand},
				func(ctx context.Context, st *store.Store) error {
					if storeName != "" {
						if err := st.AddStore(ctx, storeName); err != nil {
							return err
						}
					}
					return st.AddItem(ctx, name, brand)
				},
				func(w io.Writer) {
					fmt.Fprintf(w, "Item %q (%s) recorded\n", name, brand)
				})
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "also record this store")

	return cmd
}

// NewTagStoreCommand creates the tag-store command.
func NewTagStoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tag-store <store> <tag>",
		Short: "Tag a store",
		Long: `Attach a tag to a store. A tag belongs to one store only; tagging a
second store with the same text keeps the first.

Example:
  grocer tag-store Winco bulk`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, tag := grocery.NormalizeName(args[0]), grocery.NormalizeName(args[1])
			return runWrite(rootOpts, cmd, "failed to tag store", EntityResult{Store: name, Tag: tag},
				func(ctx context.Context, st *store.Store) error {
					return st.AddStoreTag(ctx, name, tag)
				},
				func(w io.Writer) {
					fmt.Fprintf(w, "Store %q tagged %q\n", name, tag)
				})
		},
	}
}

// NewTagItemCommand creates the tag-item command.
func NewTagItemCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tag-item <item> <tag>",
		Short: "Tag an item",
		Long: `Attach a tag to every item with the given name, whatever its brand.
A tag belongs to one item name only.

Example:
  grocer tag-item banana fruit`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, tag := grocery.NormalizeName(args[0]), grocery.NormalizeName(args[1])
			return runWrite(rootOpts, cmd, "failed to tag item", EntityResult{Item: name, Tag: tag},
				func(ctx context.Context, st *store.Store) error {
					return st.AddItemTag(ctx, name, tag)
				},
				func(w io.Writer) {
					fmt.Fprintf(w, "Item %q tagged %q\n", name, tag)
				})
		},
	}
}

// runWrite opens the store, runs write and reports result.
func runWrite(opts *RootOptions, cmd *cobra.Command, failure string, result any,
	write func(ctx context.Context, st *store.Store) error, text func(w io.Writer)) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to open database", err)
	}
	defer closeStore(opts, st)

	if err := write(commandContext(cmd), st); err != nil {
		return formatter.Fail(ErrCodeUsage, failure, err)
	}

	return formatter.Render(result, func(w io.Writer) error {
		text(w)
		return nil
	})
}
