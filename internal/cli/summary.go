package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/grocer/internal/grocery"
)

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize the price history",
		Long: `Summarize the price history: how many items and prices are recorded,
the best value, the most frequently logged item and the store with the
most in-house items.

Example:
  grocer summary
  grocer summary --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(rootOpts, cmd)
		},
	}
}

func runSummary(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to open database", err)
	}
	defer closeStore(opts, st)

	sum, err := st.Summary(commandContext(cmd))
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to compute summary", err)
	}

	return formatter.Render(sum, func(w io.Writer) error {
		fmt.Fprintln(w, "=== Summary ===")
		fmt.Fprintf(w, "  Items tracked:      %d\n", sum.DistinctItems)
		fmt.Fprintf(w, "  Price observations: %d\n", sum.Observations)
		fmt.Fprintf(w, "  Best value:         %s\n", rankedText(sum.BestValue, func(v float64) string {
			return strconv.FormatFloat(v, 'f', 2, 64) + " per unit"
		}))
		fmt.Fprintf(w, "  Most frequent:      %s\n", rankedText(sum.MostFrequent, func(v float64) string {
			return formatCount(v) + " observations"
		}))
		fmt.Fprintf(w, "  Most diverse store: %s\n", rankedText(sum.MostDiverse, func(v float64) string {
			return formatCount(v) + " items"
		}))
		return nil
	})
}

// rankedText renders "label (value)", or "n/a" for a missing part.
func rankedText(r *grocery.Ranked, value func(float64) string) string {
	if r == nil {
		return "n/a"
	}
	return fmt.Sprintf("%s (%s)", r.Label, value(r.Value))
}
