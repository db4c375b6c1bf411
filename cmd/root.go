// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "talentrank",
	Short: "A CLI tool to rank GitHub developers.",
	Long: `talentrank analyzes GitHub developers: it collects their public activity,
computes a TalentRank score from project importance and contribution quality,
and estimates their nation and technical domains. Results are cached and can be
searched, aggregated, or served over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags are available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (defaults to $TALENTRANK_CONFIG)")
}
