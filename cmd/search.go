package cmd

import (
	"github.com/spf13/cobra"

	"github.com/naka-gawa/talentrank/internal/usecase"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Searches analyzed developers",
	Long:  `Lists stored analyses ordered by TalentRank score, optionally filtered by domain, nation and minimum score.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		var p usecase.SearchParams
		p.Domain, _ = flags.GetString("domain")
		p.Nation, _ = flags.GetString("nation")
		p.Offset, _ = flags.GetInt("offset")
		if flags.Changed("min-rank") {
			v, _ := flags.GetFloat64("min-rank")
			p.MinRank = &v
		}
		if flags.Changed("limit") {
			v, _ := flags.GetInt("limit")
			p.Limit = &v
		}
		output, _ := flags.GetString("output")

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.analyzer.Search(ctx, p)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), output, res)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().String("domain", "", "Technical domain, e.g. Backend")
	searchCmd.Flags().String("nation", "", "ISO 3166-1 alpha-2 country code, e.g. DE")
	searchCmd.Flags().Float64("min-rank", 0, "Minimum TalentRank score (0-100)")
	searchCmd.Flags().Int("limit", usecase.DefaultSearchLimit, "Maximum number of results")
	searchCmd.Flags().Int("offset", 0, "Number of results to skip")
	searchCmd.Flags().StringP("output", "o", "json", "Output format: json or yaml")
}
