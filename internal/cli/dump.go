package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/grocer/internal/grocery"
)

// DumpResult is the JSON payload of dump.
type DumpResult struct {
	Stores    []grocery.Store    `json:"stores"`
	Items     []grocery.Item     `json:"items"`
	StoreTags []grocery.StoreTag `json:"store_tags"`
	ItemTags  []grocery.ItemTag  `json:"item_tags"`
	Prices    []PriceView        `json:"prices"`
	Coupons   []CouponView       `json:"coupons"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the whole database",
		Long: `Print the contents of every table in the order rows were recorded.

Example:
  grocer dump
  grocer dump --format json > backup.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(rootOpts, cmd)
		},
	}
}

func runDump(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to open database", err)
	}
	defer closeStore(opts, st)

	snap, err := st.Dump(commandContext(cmd))
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to read database", err)
	}

	result := DumpResult{
		Stores:    snap.Stores,
		Items:     snap.Items,
		StoreTags: snap.StoreTags,
		ItemTags:  snap.ItemTags,
		Prices:    priceViews(snap.Prices),
		Coupons:   couponViews(snap.Coupons),
	}
	return formatter.Render(result, func(w io.Writer) error {
		writeDump(w, result)
		return nil
	})
}

func writeDump(w io.Writer, d DumpResult) {
	section := func(title string, n int, row func(i int)) {
		fmt.Fprintf(w, "=== %s (%d) ===\n", title, n)
		for i := 0; i < n; i++ {
			row(i)
		}
		fmt.Fprintln(w)
	}

	section("Stores", len(d.Stores), func(i int) {
		fmt.Fprintf(w, "  %s\n", d.Stores[i].Name)
	})
	section("Items", len(d.Items), func(i int) {
		fmt.Fprintf(w, "  %s (%s)\n", d.Items[i].Name, d.Items[i].Brand)
	})
	section("Store tags", len(d.StoreTags), func(i int) {
		fmt.Fprintf(w, "  %s: %s\n", d.StoreTags[i].StoreName, d.StoreTags[i].Tag)
	})
	section("Item tags", len(d.ItemTags), func(i int) {
		fmt.Fprintf(w, "  %s: %s\n", d.ItemTags[i].ItemName, d.ItemTags[i].Tag)
	})
	section("Prices", len(d.Prices), func(i int) {
		p := d.Prices[i]
		fmt.Fprintf(w, "  %s  %s (%s)  %s for %s", p.Date, p.Item, p.Brand, p.Price, p.quantityText())
		if p.CouponUsed {
			fmt.Fprint(w, " [coupon]")
		}
		fmt.Fprintln(w)
	})
	section("Coupons", len(d.Coupons), func(i int) {
		c := d.Coupons[i]
		fmt.Fprintf(w, "  expires %s  %s (%s)  %s", c.Expires, c.Item, c.Brand, c.discountText())
		if c.StoreCard {
			fmt.Fprint(w, " [store card]")
		}
		fmt.Fprintln(w)
	})
}
