package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/digest"
)

// Stage commands run a single pipeline phase, for debugging and manual
// catch-up runs.

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch and ingest postings from the enabled sources",
	Run: func(_ *cobra.Command, _ []string) {
		runStage("scrape", scrapeStage)
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a batch of unprocessed postings",
	Run: func(_ *cobra.Command, _ []string) {
		runStage("score", scoreStage)
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Dispatch unnotified scored postings to Discord",
	Run: func(_ *cobra.Command, _ []string) {
		runStage("notify", notifyStage)
	},
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Build and email a digest of recently scored postings",
	Run: func(cmd *cobra.Command, _ []string) {
		period, err := digest.ParsePeriod(cmd.Flag("period").Value.String())
		if err != nil {
			log.Fatal(err)
		}
		runStage("digest", func(ctx context.Context, p *pipeline) error {
			return digestStage(ctx, p, period)
		})
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(digestCmd)

	digestCmd.Flags().String("period", string(digest.PeriodDaily), "digest window: daily or evening")
}

func runStage(name string, stage func(ctx context.Context, p *pipeline) error) {
	p, err := setup()
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer p.close()

	if err := stage(context.Background(), p); err != nil {
		p.logger.Fatal(name, zap.Error(err))
	}
}
