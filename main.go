package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/conjugo/conjugo/cmd"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "conjugo [subcommand]",
	Short:        "conjugo derives Gibbs sampler steps for conjugate model graphs",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.StepsCmd)
	rootCmd.AddCommand(cmd.RulesCmd)
}
