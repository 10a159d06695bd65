// screenctl runs the triage analyzers and conversation engine offline.
//
// Usage:
//
//	screenctl analyze [--email=<addr>] <text|->
//	screenctl replay [--offline-score=N] <transcript.yaml>
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	v "github.com/linnemanlabs/go-core/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var thresholdsFile string

	root := &cobra.Command{
		Use:   "screenctl",
		Short: "Inspect and replay triage conversations",
		Long: `screenctl runs the signal, authenticity, behavior and archetype
analyzers on a single message, or replays a whole transcript through the
triage engine and prints every turn.`,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			return nil
		},
	}
	root.Version = v.Get().Version
	root.PersistentFlags().StringVar(&thresholdsFile, "thresholds", "", "YAML file overlaying the default thresholds")

	root.AddCommand(newAnalyzeCmd(&thresholdsFile))
	root.AddCommand(newReplayCmd(&thresholdsFile))
	return root
}
