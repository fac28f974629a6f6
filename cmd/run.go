package cmd

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full pipeline cycle: scrape, score, and notify",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// run executes the whole pipeline once. Stage failures after scraping
// are fatal; scrape-side source errors only degrade the cycle.
func run() {
	ctx := context.Background()

	p, err := setup()
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer p.close()

	p.logger.Info("starting the jobhunter pipeline", zap.String("version", version))

	if err := scrapeStage(ctx, p); err != nil {
		p.logger.Fatal("scrape stage", zap.Error(err))
	}
	if err := scoreStage(ctx, p); err != nil {
		p.logger.Fatal("score stage", zap.Error(err))
	}
	if err := notifyStage(ctx, p); err != nil {
		p.logger.Fatal("notify stage", zap.Error(err))
	}
}

// scrapeStage fetches from every enabled source, ingests the survivors,
// and reclassifies freshness so downstream stages see current tiers.
func scrapeStage(ctx context.Context, p *pipeline) error {
	runner, err := p.newRunner()
	if err != nil {
		return err
	}

	postings, srcErrs := runner.Run(ctx)
	for _, e := range srcErrs {
		p.logger.Warn("source degraded", zap.String("source", string(e.Source)), zap.Error(e.Err))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	p.newIngestGate().Ingest(ctx, postings)

	_, err = p.newFreshnessEngine().Refresh(ctx, time.Now().UTC())
	return err
}

func scoreStage(ctx context.Context, p *pipeline) error {
	scorer, err := p.newScorer(ctx)
	if err != nil {
		return err
	}

	_, err = scorer.Run(ctx, p.cfg.Limits.ScoreBatch)
	return err
}

// notifyStage reclassifies freshness before dispatching: the alert gate
// reads the stored tier, which must reflect the clock now, not at scrape
// time. A posting that aged out since ingest must not page.
func notifyStage(ctx context.Context, p *pipeline) error {
	if _, err := p.newFreshnessEngine().Refresh(ctx, time.Now().UTC()); err != nil {
		return err
	}

	notifier, err := p.newNotifier()
	if err != nil {
		return err
	}

	_, err = notifier.Run(ctx)
	return err
}
