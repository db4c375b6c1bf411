package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/talentrank/internal/domain"
	"github.com/naka-gawa/talentrank/internal/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <username>",
	Short: "Analyzes a GitHub developer and prints the result",
	Long: `Collects the public activity of a GitHub developer, computes the TalentRank score,
nation and domain estimates, stores the result, and prints it. A cached result younger
than the cache TTL is printed without contacting GitHub unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		subject, err := domain.NewSubject(args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.analyzer.Analyze(ctx, subject, force)
		if err != nil {
			return err
		}
		if out.Degraded {
			a.logger.Warn(ctx, "result was not cached", logger.String("subject", subject.String()))
		}
		return writeOutput(cmd.OutOrStdout(), output, out.Record)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolP("force", "f", false, "Ignore a fresh cached result and recompute")
	analyzeCmd.Flags().StringP("output", "o", "json", "Output format: json or yaml")
}
