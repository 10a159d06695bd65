package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/screener/internal/archetype"
	vc "github.com/linnemanlabs/screener/internal/cfg"
	"github.com/linnemanlabs/screener/internal/llm/claude"
	"github.com/linnemanlabs/screener/internal/triage"
	"github.com/linnemanlabs/screener/internal/triage/memstore"
)

// transcript is a recorded conversation: the intake plus each user message
// in order.
type transcript struct {
	ContactID string   `yaml:"contact_id"`
	Email     string   `yaml:"email"`
	Context   string   `yaml:"context"`
	Messages  []string `yaml:"messages"`
}

func loadTranscript(path string) (*transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer func() { _ = f.Close() }()

	var t transcript
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	if len(t.Messages) == 0 {
		return nil, fmt.Errorf("transcript %s has no messages", path)
	}
	if t.ContactID == "" {
		t.ContactID = "replay"
	}
	return &t, nil
}

// fixedEvaluator returns the same judgment for every conversation. It lets
// a replay run without network access.
type fixedEvaluator struct {
	score int
}

func (f fixedEvaluator) Evaluate(_ context.Context, _ *triage.EvaluationRequest) (*triage.Judgment, error) {
	return &triage.Judgment{
		Score:       f.score,
		Rationale:   []string{"offline replay"},
		AIDetection: triage.AIJudgment{Confidence: "low"},
	}, nil
}

// replayStep is one printed line of a replay.
type replayStep struct {
	Input  string             `json:"input"`
	Result *triage.TurnResult `json:"result"`
}

func newReplayCmd(thresholdsFile *string) *cobra.Command {
	var (
		offlineScore int
		minTurns     int
		maxTurns     int
		claudeModel  string
	)

	cmd := &cobra.Command{
		Use:   "replay <transcript.yaml>",
		Short: "Replay a recorded transcript through the triage engine",
		Long: `Replay feeds each message of a YAML transcript to the triage engine and
prints one JSON line per turn until the conversation is evaluated.

Claude is used when SCREENER_CLAUDE_API_KEY is set. Otherwise, or with
--offline-score, every evaluation returns the given fixed score and the
engine's probe questions stand in for the responder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTranscript(args[0])
			if err != nil {
				return err
			}

			c := vc.Config{MinTurns: minTurns, MaxTurns: maxTurns}
			th, err := c.LoadThresholds(*thresholdsFile)
			if err != nil {
				return err
			}

			deps := triage.Deps{Corpus: archetype.NewMemoryCorpus(0)}
			apiKey := os.Getenv("SCREENER_CLAUDE_API_KEY")
			if apiKey != "" && !cmd.Flags().Changed("offline-score") {
				client := claude.New(claude.Config{APIKey: apiKey, Model: claudeModel}, log.Nop())
				deps.Evaluator, deps.Responder = client, client
			} else {
				if offlineScore < 0 || offlineScore > 10 {
					return fmt.Errorf("offline-score %d out of range 0..10", offlineScore)
				}
				deps.Evaluator = fixedEvaluator{score: offlineScore}
			}

			svc := triage.NewService(memstore.New(), triage.NewEngine(th, deps, log.Nop(), triage.EngineHooks{}), nil, nil, log.Nop())
			return replay(cmd.Context(), svc, t, json.NewEncoder(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().IntVar(&offlineScore, "offline-score", 7, "fixed evaluator score (0..10) when Claude is not used")
	cmd.Flags().IntVar(&minTurns, "min-turns", 0, "earliest turn a signal-based evaluation may trigger (0 = thresholds file)")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "turn at which evaluation always triggers (0 = thresholds file)")
	cmd.Flags().StringVar(&claudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model for live replays")
	return cmd
}

func replay(ctx context.Context, svc *triage.Service, t *transcript, enc *json.Encoder) error {
	start, err := svc.Start(ctx, triage.Intake{ContactID: t.ContactID, Email: t.Email, Context: t.Context})
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	for i, msg := range t.Messages {
		if strings.TrimSpace(msg) == "" {
			continue
		}
		res, err := svc.Turn(ctx, start.ConversationID, msg)
		if errors.Is(err, triage.ErrConversationClosed) {
			return fmt.Errorf("conversation closed before message %d", i+1)
		}
		if err != nil {
			return fmt.Errorf("turn %d: %w", i+1, err)
		}
		res.StateToken = ""
		if err := enc.Encode(replayStep{Input: msg, Result: res}); err != nil {
			return err
		}
		if res.EvaluationComplete {
			return nil
		}
	}
	return nil
}
