package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linnemanlabs/screener/internal/archetype"
	"github.com/linnemanlabs/screener/internal/authenticity"
	"github.com/linnemanlabs/screener/internal/behavior"
	vc "github.com/linnemanlabs/screener/internal/cfg"
	"github.com/linnemanlabs/screener/internal/classify"
	"github.com/linnemanlabs/screener/internal/signals"
)

// analysis is the combined output of every analyzer on one message.
type analysis struct {
	Signals        signals.Result          `json:"signals"`
	SignalStrength string                  `json:"signal_strength"`
	Authenticity   authenticity.Result     `json:"authenticity"`
	Behavior       behavior.Result         `json:"behavior"`
	Archetype      archetype.Assessment    `json:"archetype"`
	Classification classify.Classification `json:"classification"`
}

func newAnalyzeCmd(thresholdsFile *string) *cobra.Command {
	var (
		email      string
		cumulative float64
	)

	cmd := &cobra.Command{
		Use:   "analyze <text|->",
		Short: "Run all analyzers on one message and print JSON",
		Long: `Analyze a single user message as if it were turn 1 of a conversation.
Pass "-" to read the message from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			if text == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(b)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("message is empty")
			}

			var c vc.Config
			th, err := c.LoadThresholds(*thresholdsFile)
			if err != nil {
				return err
			}

			sigs := signals.Extract(text)
			out := analysis{
				Signals:        sigs,
				SignalStrength: signals.Strength(sigs.Count(), 1),
				Authenticity:   authenticity.New(th.Authenticity).Detect(text, cumulative),
				Behavior:       behavior.New(th.Behavior).Analyze(text),
				Archetype:      archetype.New(th.Archetype, nil).Assess(cmd.Context(), text, nil),
				Classification: classify.New().Classify(email, text),
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "contact email used for classification")
	cmd.Flags().Float64Var(&cumulative, "prev-cumulative", 0, "previous cumulative AI score")
	return cmd
}
