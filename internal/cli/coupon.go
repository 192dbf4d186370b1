package cli

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/grocer/internal/grocery"
)

// AddCouponOptions holds flags for the add-coupon command.
type AddCouponOptions struct {
	*RootOptions
	DiscountType string
	Value        string
	CouponType   string
	StoreCard    bool
	Expires      string
}

// NewAddCouponCommand creates the add-coupon command.
func NewAddCouponCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddCouponOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add-coupon <item> <brand>",
		Short: "Record a coupon for an item",
		Long: `Record a coupon for an item. The item must already be recorded.

Discount types: percent (value is a percentage), amount (value is money
off), multibuy (value is the number of free units).

Only one coupon is kept per expiration date.

Example:
  grocer add-coupon cereal Kellogg --type amount --value 1.00 --expires 2024-02-01
  grocer add-coupon milk Safeway --type percent --value 10 --store-card --coupon-type Store`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddCoupon(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DiscountType, "type", "", "discount type: percent|amount|multibuy (required)")
	cmd.Flags().StringVar(&opts.Value, "value", "", "discount value (required)")
	cmd.Flags().StringVar(&opts.CouponType, "coupon-type", grocery.DefaultCouponType, "coupon type")
	cmd.Flags().BoolVar(&opts.StoreCard, "store-card", false, "the coupon needs a store card")
	cmd.Flags().StringVar(&opts.Expires, "expires", "", "expiration date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func runAddCoupon(opts *AddCouponOptions, item, brand string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	c, err := opts.coupon(item, brand)
	if err != nil {
		return formatter.Reject("invalid coupon", err)
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to open database", err)
	}
	defer closeStore(opts.RootOptions, st)

	if err := st.AddCoupon(commandContext(cmd), c); err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to add coupon", err)
	}

	view := couponView(c)
	return formatter.Render(view, func(w io.Writer) error {
		fmt.Fprintf(w, "Coupon for %s (%s): %s, expires %s\n",
			view.Item, view.Brand, view.discountText(), view.Expires)
		return nil
	})
}

// coupon builds the coupon from the flags.
func (o *AddCouponOptions) coupon(item, brand string) (grocery.Coupon, error) {
	expires, err := dateFlag(o.Expires, o.today())
	if err != nil {
		return grocery.Coupon{}, err
	}
	dt, err := grocery.ParseDiscountType(o.DiscountType)
	if err != nil {
		return grocery.Coupon{}, err
	}
	value, err := decimal.NewFromString(o.Value)
	if err != nil {
		return grocery.Coupon{}, fmt.Errorf("invalid --value %q", o.Value)
	}

	c := grocery.NewCoupon(item, brand, dt, value, expires)
	c.CouponType = o.CouponType
	c.StoreCard = o.StoreCard
	return c.Normalize()
}
