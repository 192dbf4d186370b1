package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/grocer/internal/grocery"
	"github.com/roach88/grocer/internal/store"
)

// Ranking names accepted by the rank command.
const (
	RankValue     = "value"
	RankFrequency = "frequency"
	RankDiversity = "diversity"
)

// RankOptions holds flags for the rank command.
type RankOptions struct {
	*RootOptions
	Limit int
}

// RankResult is the JSON payload of rank.
type RankResult struct {
	Ranking string           `json:"ranking"`
	Limit   int              `json:"limit"`
	Results []grocery.Ranked `json:"results"`
}

// ranking describes one of the analytic rankings.
type ranking struct {
	title  string
	limit  func(o *RootOptions) int
	query  func(st *store.Store, ctx context.Context, limit int) ([]grocery.Ranked, error)
	format func(v float64) string
}

var rankings = map[string]ranking{
	RankValue: {
		title:  "Best value (price per unit)",
		limit:  func(o *RootOptions) int { return o.Config.Limits.Value },
		query:  (*store.Store).ValueRanking,
		format: func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	},
	RankFrequency: {
		title:  "Most frequently logged items",
		limit:  func(o *RootOptions) int { return o.Config.Limits.Frequency },
		query:  (*store.Store).FrequencyRanking,
		format: formatCount,
	},
	RankDiversity: {
		title:  "Stores with the most in-house items",
		limit:  func(o *RootOptions) int { return o.Config.Limits.Diversity },
		query:  (*store.Store).DiversityRanking,
		format: formatCount,
	},
}

// NewRankCommand creates the rank command.
func NewRankCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RankOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rank <value|frequency|diversity>",
		Short: "Show an analytic ranking",
		Long: `Show one of the rankings over the recorded prices:

  value      observations with the lowest price per unit
  frequency  items logged most often
  diversity  stores carrying the most distinct in-house items

Example:
  grocer rank value
  grocer rank diversity --limit 10 --format json`,
		Args:          cobra.ExactArgs(1),
		ValidArgs:     []string{RankValue, RankFrequency, RankDiversity},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "number of results (default from config)")

	return cmd
}

func runRank(opts *RankOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	r, ok := rankings[name]
	if !ok {
		return formatter.Reject("unknown ranking",
			fmt.Errorf("%q: must be one of %s, %s, %s", name, RankValue, RankFrequency, RankDiversity))
	}
	if opts.Limit < 0 {
		return formatter.Reject("invalid limit", fmt.Errorf("--limit %d must not be negative", opts.Limit))
	}
	limit := opts.Limit
	if limit == 0 {
		limit = r.limit(opts.RootOptions)
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to open database", err)
	}
	defer closeStore(opts.RootOptions, st)

	results, err := r.query(st, commandContext(cmd), limit)
	if err != nil {
		return formatter.Fail(ErrCodeUsage, "failed to compute ranking", err)
	}

	result := RankResult{Ranking: name, Limit: limit, Results: results}
	return formatter.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "=== %s ===\n", r.title)
		if len(results) == 0 {
			fmt.Fprintln(w, "  (no data)")
			return nil
		}
		for i, res := range results {
			fmt.Fprintf(w, "  %d. %s: %s\n", i+1, res.Label, r.format(res.Value))
		}
		return nil
	})
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
