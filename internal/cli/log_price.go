package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/grocer/internal/grocery"
	"github.com/roach88/grocer/internal/store"
)

// LogPriceOptions holds flags for the log-price command.
type LogPriceOptions struct {
	*RootOptions
	Price      string
	Quantity   string
	Unit       string
	CouponUsed bool
	Date       string
	Store      string
}

// NewLogPriceCommand creates the log-price command.
func NewLogPriceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogPriceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log-price <item> <brand>",
		Short: "Log the price of an item",
		Long: `Log the price of an item seen on a given day (today by default).

The item is recorded first if it is new, and so is the store given with
--store. Only the first price logged for an item name on a day is kept.

Use --quantity "" when the quantity is unknown; such prices are left out
of the value ranking.

Example:
  grocer log-price banana Winco --price 0.59 --unit lb --store Winco
  grocer log-price milk Safeway --price 4.19 --coupon --date 2024-01-03`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogPrice(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Price, "price", "", "price paid (required)")
	cmd.Flags().StringVar(&opts.Quantity, "quantity", "1", "quantity the price is for")
	cmd.Flags().StringVar(&opts.Unit, "unit", "", "quantity type (default from config, else Unit)")
	cmd.Flags().BoolVar(&opts.CouponUsed, "coupon", false, "a coupon was used")
	cmd.Flags().StringVar(&opts.Date, "date", "", "day the price was seen, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Store, "store", "", "also record this store")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func runLogPrice(opts *LogPriceOptions, item, brand string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := opts.observation(item, brand)
	if err != nil {
		return formatter.Reject("invalid price", err)
	}
	storeName := grocery.NormalizeName(opts.Store)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to open database", err)
	}
	defer closeStore(opts.RootOptions, st)

	ctx := commandContext(cmd)
	if err := logPrice(ctx, st, storeName, p); err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to log price", err)
	}

	view := priceView(p)
	return formatter.Render(view, func(w io.Writer) error {
		fmt.Fprintf(w, "Logged %s (%s): %s for %s on %s\n",
			view.Item, view.Brand, view.Price, view.quantityText(), view.Date)
		return nil
	})
}

// logPrice records the store and item if new, then the price.
func logPrice(ctx context.Context, st *store.Store, storeName string, p grocery.PriceObservation) error {
	if storeName != "" {
		if err := st.AddStore(ctx, storeName); err != nil {
			return err
		}
	}
	if err := st.AddItem(ctx, p.ItemName, p.ItemBrand); err != nil {
		return err
	}
	return st.AddPrice(ctx, p)
}

// observation builds the price observation from the flags.
func (o *LogPriceOptions) observation(item, brand string) (grocery.PriceObservation, error) {
	date, err := dateFlag(o.Date, o.today())
	if err != nil {
		return grocery.PriceObservation{}, err
	}

	p := grocery.NewPriceObservation(item, brand, date)
	p.QuantityType = o.Config.DefaultQuantityType
	if o.Unit != "" {
		p.QuantityType = o.Unit
	}
	p.CouponUsed = o.CouponUsed

	if p.Price, err = decimal.NewFromString(o.Price); err != nil {
		return p, fmt.Errorf("invalid --price %q", o.Price)
	}
	if o.Quantity == "" {
		p.Quantity = decimal.NullDecimal{}
	} else {
		q, err := decimal.NewFromString(o.Quantity)
		if err != nil {
			return p, fmt.Errorf("invalid --quantity %q", o.Quantity)
		}
		p.Quantity = decimal.NewNullDecimal(q)
	}
	return p.Normalize()
}

// dateFlag parses a YYYY-MM-DD flag value, defaulting to today.
func dateFlag(value string, today time.Time) (time.Time, error) {
	if value == "" {
		return grocery.Day(today), nil
	}
	return grocery.ParseDate(value)
}

