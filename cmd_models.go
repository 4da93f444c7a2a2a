package main

import (
	"fmt"

	"github.com/spf13/cobra"
	llmx "github.com/tanpawarit/marketing-ai/agent/llm"
	chatmodelx "github.com/tanpawarit/marketing-ai/pkg/chatmodel"
	configx "github.com/tanpawarit/marketing-ai/pkg/config"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models exposed by the configured LLM provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		llmCfg, err := configx.New[llmx.Config]("LLM")
		if err != nil {
			return err
		}
		client, err := chatmodelx.NewClient(llmCfg.Default())
		if err != nil {
			return err
		}
		ids, err := chatmodelx.ListModels(cmd.Context(), client)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}
