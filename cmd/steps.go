package cmd

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conjugo/conjugo/internal/log"
	"github.com/conjugo/conjugo/model"
	"github.com/conjugo/conjugo/rand"
	"github.com/conjugo/conjugo/synth"
)

var StepsCmd = &cobra.Command{
	Use:          "steps <model>",
	Short:        "Derive posterior sampler steps for a built-in demo model",
	RunE:         runSteps,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	depOrder *bool
	seed     *int64
	logLevel *int
)

func init() {
	depOrder = StepsCmd.Flags().BoolP("dependency-order", "d", false, "resolve steps in dependency order instead of declaration order")
	seed = StepsCmd.Flags().Int64P("seed", "s", 0, "seed for the fresh-symbol stream")
	logLevel = StepsCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
}

func runSteps(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))

	observed, err := DemoModel(args[0])
	if err != nil {
		return err
	}

	var opts []synth.Option
	if *depOrder {
		opts = append(opts, synth.WithOrder(synth.DependencyOrder))
	}
	res, err := synth.ConstructSampler(observed, rand.NewStream(*seed), opts...)
	if err != nil {
		return fmt.Errorf("could not construct sampler: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, rv := range sortedKeys(res.Steps) {
		fmt.Fprintf(out, "%s <- %s\n", displayName(rv), res.Steps[rv])
	}
	fmt.Fprintln(out)
	for _, rv := range sortedKeys(res.InitialValues) {
		fmt.Fprintf(out, "init %s = %s\n", displayName(rv), res.InitialValues[rv])
	}
	for _, key := range sortedKeys(res.Updates) {
		fmt.Fprintf(out, "update %s <- %s\n", displayName(key), res.Updates[key])
	}
	return nil
}

func displayName(v *model.Variable) string {
	if v.Name != "" {
		return v.Name
	}
	return v.String()
}

func sortedKeys(m map[*model.Variable]*model.Variable) []*model.Variable {
	keys := make([]*model.Variable, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b *model.Variable) int {
		return strings.Compare(displayName(a), displayName(b))
	})
	return keys
}
