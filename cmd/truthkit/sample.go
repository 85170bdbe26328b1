package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"truthkit/pkg/paginator"
	"truthkit/pkg/sampler"
	"truthkit/pkg/truthsocial"
)

var (
	sampleCount  int
	sampleWindow int
	sampleDecay  float64
	sampleSeed   int64
)

// sampleCmd represents the sample command
var sampleCmd = &cobra.Command{
	Use:   "sample <handle>",
	Short: "Sample recent statuses with recency-weighted selection",
	Long: `Crawl an account's recent statuses and draw a weighted random sample
without replacement. Newer statuses are exponentially more likely to be
picked; --decay controls how fast the weight falls off with position.

Passing --seed makes the selection reproducible.`,
	Example: `  # Pick 3 of the 50 most recent posts, biased toward new ones
  truthkit sample realwhoever --count 3 --window 50

  # Reproducible selection
  truthkit sample realwhoever --count 3 --seed 42`,
	Args: cobra.ExactArgs(1),
	Run:  runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().IntVar(&sampleCount, "count", 1, "number of statuses to pick")
	sampleCmd.Flags().IntVar(&sampleWindow, "window", 50, "number of recent statuses to sample from")
	sampleCmd.Flags().Float64Var(&sampleDecay, "decay", sampler.DefaultDecay, "exponential decay rate per position")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 0, "random seed for reproducible sampling (0 uses entropy)")
}

func runSample(cmd *cobra.Command, args []string) {
	session, cfg, log, err := newSession()
	if err != nil {
		fatal("failed to open session", err)
	}

	account, err := session.Lookup(cmd.Context(), args[0])
	if err != nil {
		fatal("account lookup failed", err)
	}

	spec := paginator.CrawlSpec[truthsocial.Status]{
		Fetch: func(ctx context.Context, cursor string) ([]truthsocial.Status, string, error) {
			return session.AccountStatuses(ctx, account.ID, cursor, cfg.Crawl.PageSize)
		},
		Limit:  sampleWindow,
		Logger: log,
	}
	statuses, err := paginator.Crawl(cmd.Context(), spec)
	if err != nil {
		fatal("crawl failed", err)
	}
	if len(statuses) == 0 {
		fatal("no statuses to sample from", nil)
	}

	var s *sampler.Sampler
	if sampleSeed != 0 {
		s = sampler.New(sampleSeed)
	} else {
		s = sampler.NewFromEntropy()
	}

	byID := make(map[string]truthsocial.Status, len(statuses))
	for _, status := range statuses {
		byID[status.ID] = status
	}

	picked := s.Sample(sampler.Pool(statuses, sampleDecay), sampleCount)

	enc := json.NewEncoder(os.Stdout)
	for _, cand := range picked {
		if err := enc.Encode(byID[cand.ID]); err != nil {
			fatal("encode failed", err)
		}
	}
}
