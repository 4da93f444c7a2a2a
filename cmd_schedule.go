package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/marketing-ai/agent/agents/crew"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
)

var scheduleOpts struct {
	cron    string
	topic   string
	timeout time.Duration
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the crew periodically on a cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, release, err := newCrew(ctx)
		if err != nil {
			return err
		}
		defer release()

		scheduler := gocron.NewScheduler(time.Local)
		scheduler.SingletonModeAll()

		_, err = scheduler.Cron(scheduleOpts.cron).Do(func() {
			runCtx, cancel := context.WithTimeout(ctx, scheduleOpts.timeout)
			defer cancel()

			res, err := c.Kickoff(runCtx, crew.KickoffRequest{
				Inputs: contractx.Inputs{Topic: scheduleOpts.topic},
			})
			if err != nil {
				log.Error().Err(err).Str("run_id", res.RunID).Msg("scheduled run failed")
				return
			}
			log.Info().Str("run_id", res.RunID).Str("report", res.ReportPath).Msg("scheduled run finished")
		})
		if err != nil {
			return fmt.Errorf("schedule crew with cron %q: %w", scheduleOpts.cron, err)
		}

		scheduler.StartAsync()
		log.Info().Str("cron", scheduleOpts.cron).Str("topic", scheduleOpts.topic).Msg("crew scheduler started")

		<-ctx.Done()
		scheduler.Stop()
		log.Info().Msg("crew scheduler stopped")
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleOpts.cron, "cron", "0 9 * * 1", "cron expression for kickoffs")
	scheduleCmd.Flags().StringVar(&scheduleOpts.topic, "topic", "AI LLMs", "topic to research")
	scheduleCmd.Flags().DurationVar(&scheduleOpts.timeout, "timeout", 30*time.Minute, "deadline for a single run")
}
