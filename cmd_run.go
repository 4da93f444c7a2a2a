package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tanpawarit/marketing-ai/agent/agents/crew"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
)

var runOpts struct {
	topic string
	year  string
	runID string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the marketing crew for a topic",
	Long: `Run the trend, strategy, campaign and PDF tasks for a topic.

Passing --run-id of a failed run resumes it; completed tasks are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, release, err := newCrew(ctx)
		if err != nil {
			return err
		}
		defer release()

		res, err := c.Kickoff(ctx, crew.KickoffRequest{
			RunID: runOpts.runID,
			Inputs: contractx.Inputs{
				Topic:       runOpts.topic,
				CurrentYear: runOpts.year,
			},
		})
		if err != nil {
			return fmt.Errorf("run %s: %w", res.RunID, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		fmt.Fprintf(cmd.OutOrStdout(), "run id: %s\ncampaigns: %d (%s)\n", res.RunID, len(res.Campaigns), res.CampaignFile)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runOpts.topic, "topic", "AI LLMs", "topic to research")
	runCmd.Flags().StringVar(&runOpts.year, "year", "", "year used in prompts (defaults to the current year)")
	runCmd.Flags().StringVar(&runOpts.runID, "run-id", "", "resume the run with this id")
}
