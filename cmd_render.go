package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <json-file> [output-file]",
	Short: "Render a campaigns JSON file into a PDF report",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := newRenderer()
		if err != nil {
			return err
		}

		output := ""
		if len(args) == 2 {
			output = args[1]
		}
		res, err := renderer.RenderFile(args[0], output)
		if err != nil {
			return fmt.Errorf("error generating PDF: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message())
		return nil
	},
}
