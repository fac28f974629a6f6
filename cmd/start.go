package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/digest"
	"github.com/ahogan/jobhunter/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the pipeline continuously on the configured schedules",
	Run: func(cmd *cobra.Command, _ []string) {
		start(cmd)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().Bool("run-now", false, "run one pipeline cycle immediately on startup")
}

func start(cmd *cobra.Command) {
	p, err := setup()
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer p.close()

	p.logger.Info("starting the jobhunter scheduler",
		zap.String("version", version),
		zap.String("timezone", p.cfg.Schedule.Timezone),
	)

	sched, err := scheduler.New(p.cfg.Schedule.Timezone, p.logger)
	if err != nil {
		p.logger.Fatal("creating scheduler", zap.Error(err))
	}

	cycle := func(ctx context.Context) {
		if err := scrapeStage(ctx, p); err != nil {
			p.logger.Error("scrape stage", zap.Error(err))
			return
		}
		if err := scoreStage(ctx, p); err != nil {
			p.logger.Error("score stage", zap.Error(err))
			return
		}
		if err := notifyStage(ctx, p); err != nil {
			p.logger.Error("notify stage", zap.Error(err))
		}
	}

	schedules := []struct {
		spec string
		name string
		fn   func(ctx context.Context)
	}{
		{p.cfg.Schedule.Weekday, "weekday pipeline", cycle},
		{p.cfg.Schedule.Weekend, "weekend pipeline", cycle},
		{p.cfg.Schedule.DailyDigest, "daily digest", func(ctx context.Context) {
			if err := digestStage(ctx, p, digest.PeriodDaily); err != nil {
				p.logger.Error("daily digest", zap.Error(err))
			}
		}},
		{p.cfg.Schedule.EveningDigest, "evening digest", func(ctx context.Context) {
			if err := digestStage(ctx, p, digest.PeriodEvening); err != nil {
				p.logger.Error("evening digest", zap.Error(err))
			}
		}},
	}
	for _, s := range schedules {
		if err := sched.Add(s.spec, s.name, s.fn); err != nil {
			p.logger.Fatal("registering schedule", zap.String("job", s.name), zap.Error(err))
		}
	}

	if cmd.Flag("run-now").Value.String() == "true" {
		go cycle(context.Background())
	}

	sched.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	p.logger.Info("shutdown signal received")
	sched.Stop()
}

func digestStage(ctx context.Context, p *pipeline, period digest.Period) error {
	mailer, builder, err := p.newMailer()
	if err != nil {
		return err
	}

	d, err := builder.Build(ctx, period, time.Now().UTC())
	if err != nil {
		return err
	}
	return mailer.Send(ctx, d)
}
