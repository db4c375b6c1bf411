package cmd

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregates stored analyses and outputs the totals",
	Long:  `Prints the number of analyzed developers, the average score, the score distribution in ten-point buckets, and the nations and domains present.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.analyzer.Stats(ctx)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), output, stats)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringP("output", "o", "json", "Output format: json or yaml")
}
