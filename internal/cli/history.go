package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/grocer/internal/grocery"
)

// HistoryResult is the JSON payload of history.
type HistoryResult struct {
	Item    string       `json:"item"`
	Brand   string       `json:"brand"`
	Tags    []string     `json:"tags"`
	Prices  []PriceView  `json:"prices"`
	Coupons []CouponView `json:"coupons"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <item> <brand>",
		Short: "Show the price history of an item",
		Long: `Show every price logged for an item, oldest first, with its tags
and coupons.

Example:
  grocer history milk Winco`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runHistory(opts *RootOptions, item, brand string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	item, brand = grocery.NormalizeName(item), grocery.NormalizeName(brand)

	st, err := openStore(opts)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to open database", err)
	}
	defer closeStore(opts, st)

	ctx := commandContext(cmd)
	prices, err := st.PriceHistory(ctx, item, brand)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to read price history", err)
	}
	coupons, err := st.Coupons(ctx, item, brand)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to read coupons", err)
	}
	tags, err := st.ItemTags(ctx, item)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to read tags", err)
	}

	result := HistoryResult{
		Item:    item,
		Brand:   brand,
		Tags:    tags,
		Prices:  priceViews(prices),
		Coupons: couponViews(coupons),
	}
	return formatter.Render(result, func(w io.Writer) error {
		writeHistory(w, result)
		return nil
	})
}

func writeHistory(w io.Writer, h HistoryResult) {
	fmt.Fprintf(w, "History for %s (%s)\n", h.Item, h.Brand)
	if len(h.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(h.Tags, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Prices ===")
	if len(h.Prices) == 0 {
		fmt.Fprintln(w, "  (no prices)")
	}
	for _, p := range h.Prices {
		writePriceLine(w, p)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Coupons ===")
	if len(h.Coupons) == 0 {
		fmt.Fprintln(w, "  (no coupons)")
	}
	for _, c := range h.Coupons {
		writeCouponLine(w, c)
	}
}

func writePriceLine(w io.Writer, p PriceView) {
	line := fmt.Sprintf("  %s  %s for %s", p.Date, p.Price, p.quantityText())
	if p.UnitValue != nil {
		line += fmt.Sprintf(" (%s per unit)", *p.UnitValue)
	}
	if p.CouponUsed {
		line += " [coupon]"
	}
	fmt.Fprintln(w, line)
}

func writeCouponLine(w io.Writer, c CouponView) {
	line := fmt.Sprintf("  expires %s  %s", c.Expires, c.discountText())
	if c.CouponType != "" {
		line += ", " + c.CouponType
	}
	if c.StoreCard {
		line += " [store card]"
	}
	fmt.Fprintln(w, line)
}
