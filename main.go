package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/marketing-ai/pkg/config"
	logx "github.com/tanpawarit/marketing-ai/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "marketing-ai",
	Short:         "Research trends, plan campaigns and publish a PDF report",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configx.SetEnvFile(envFile)
		logCfg, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return err
		}
		logx.Init(*logCfg)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (defaults to ./.env when present)")
	rootCmd.AddCommand(runCmd, renderCmd, modelsCmd, scheduleCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
