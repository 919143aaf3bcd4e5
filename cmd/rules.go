package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conjugo/conjugo/synth"
)

var RulesCmd = &cobra.Command{
	Use:          "rules",
	Short:        "List the registered sampler discovery rules",
	RunE:         runRules,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

func runRules(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, info := range synth.SamplerRules.Rules() {
		fmt.Fprintf(out, "%s\t[%s]\n", info.Name, strings.Join(info.Tags, ", "))
	}
	return nil
}
