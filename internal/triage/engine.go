package triage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/screener/internal/archetype"
	"github.com/linnemanlabs/screener/internal/authenticity"
	"github.com/linnemanlabs/screener/internal/behavior"
	"github.com/linnemanlabs/screener/internal/classify"
	"github.com/linnemanlabs/screener/internal/scoring"
	"github.com/linnemanlabs/screener/internal/signals"
)

var tracer = otel.Tracer("github.com/linnemanlabs/screener/internal/triage")

// maxReportedFlags bounds the detector flags echoed in a TurnResult.
const maxReportedFlags = 3

// EngineHooks are optional callbacks for observability.
type EngineHooks struct {
	OnTurn          func(e *TurnEvent)
	OnEvaluatorCall func(duration float64, inputTokens, outputTokens int, err error)
	OnEvaluation    func(e *EvaluationEvent)
}

// TurnEvent describes one processed turn.
type TurnEvent struct {
	Action     authenticity.Action
	Evaluated  bool
	NewSignals int
	Rejected   bool
	Duration   float64
}

// EvaluationEvent describes one attached evaluation.
type EvaluationEvent struct {
	Recommendation scoring.Recommendation
	FinalScore     int
	Fallback       bool
	Hardcoded      bool
}

// Deps are the engine's collaborators. Evaluator is required; without a
// Responder the probe question is used, without an Embedder the archetype
// matcher runs on keywords only.
type Deps struct {
	Evaluator  Evaluator
	Responder  Responder
	Embedder   Embedder
	Classifier Classifier
	Corpus     archetype.Corpus
}

// Engine runs one turn end to end: analyze, mutate state, check the
// trigger and evaluate when it fires.
type Engine struct {
	th         Thresholds
	detector   *authenticity.Detector
	prober     *behavior.Prober
	matcher    *archetype.Matcher
	scorer     *scoring.Scorer
	evaluator  Evaluator
	responder  Responder
	embedder   Embedder
	classifier Classifier
	logger     log.Logger
	hooks      EngineHooks
	now        func() time.Time
}

// NewEngine creates a new triage engine with the given thresholds and collaborators.
func NewEngine(th Thresholds, deps Deps, logger log.Logger, hooks EngineHooks) *Engine {
	if deps.Evaluator == nil {
		panic(xerrors.New("triage.NewEngine: nil evaluator"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	if deps.Classifier == nil {
		deps.Classifier = classify.New()
	}
	return &Engine{
		th:         th,
		detector:   authenticity.New(th.Authenticity),
		prober:     behavior.New(th.Behavior),
		matcher:    archetype.New(th.Archetype, deps.Corpus),
		scorer:     scoring.New(th.Scoring),
		evaluator:  deps.Evaluator,
		responder:  deps.Responder,
		embedder:   deps.Embedder,
		classifier: deps.Classifier,
		logger:     logger,
		hooks:      hooks,
		now:        time.Now,
	}
}

// TurnDetection is the per-turn authenticity summary returned to callers.
type TurnDetection struct {
	Score      float64             `json:"score"`
	Cumulative float64             `json:"cumulative"`
	Effective  float64             `json:"effective"`
	Flags      []string            `json:"flags"`
	Action     authenticity.Action `json:"action"`
}

// SignalSummary is the per-turn signal summary returned to callers.
type SignalSummary struct {
	TractionCount   int    `json:"traction_count"`
	CredentialCount int    `json:"credential_count"`
	New             int    `json:"new"`
	Strength        string `json:"strength"`
}

// TurnResult is the outcome of one turn.
type TurnResult struct {
	ConversationID     string         `json:"conversation_id"`
	TurnCount          int            `json:"turn_count"`
	Status             Status         `json:"status"`
	Message            string         `json:"message"`
	AIDetection        TurnDetection  `json:"ai_detection"`
	Signals            SignalSummary  `json:"signals"`
	SuggestedProbe     behavior.Probe `json:"suggested_probe,omitempty"`
	EvaluationComplete bool           `json:"evaluation_complete"`
	Evaluation         *Evaluation    `json:"evaluation,omitempty"`
	TriggerReason      string         `json:"trigger_reason,omitempty"`
	StateToken         string         `json:"state_token,omitempty"`
}

// Classify labels a contact at intake.
func (e *Engine) Classify(email, text string) classify.Classification {
	return e.classifier.Classify(email, text)
}

// MaxMessageBytes bounds a single user message.
const MaxMessageBytes = 16 << 10

func checkMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if len(text) > MaxMessageBytes {
		return ErrMessageTooLong
	}
	return nil
}

// Turn processes one user message against s. s is mutated in place; on
// error it is left untouched.
func (e *Engine) Turn(ctx context.Context, s *ConversationState, text string) (*TurnResult, error) {
	if err := checkMessage(text); err != nil {
		return nil, err
	}
	if s.Closed() {
		return nil, ErrConversationClosed
	}

	start := e.now()
	ctx, span := tracer.Start(ctx, "triage.turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("screener.conversation.id", s.ID),
		attribute.Int("screener.turn", s.TurnCount+1),
	)

	L := e.logger.With("conversation_id", s.ID, "turn", s.TurnCount+1)

	// embedding is the only call that leaves the process; run it beside the
	// pure analyzers and join before touching state
	var embedding []float32
	g, gctx := errgroup.WithContext(ctx)
	if e.embedder != nil {
		g.Go(func() error {
			v, err := e.embedder.Embed(gctx, text)
			if err != nil {
				L.Warn(ctx, "embedding unavailable, archetype matching on keywords only", "err", err)
				return nil
			}
			embedding = v
			return nil
		})
	}
	detection := e.detector.Detect(text, s.CumulativeAIScore)
	analysis := e.prober.Analyze(text)
	extracted := signals.Extract(text)
	_ = g.Wait()

	now := e.now()
	s.AddUserMessage(text, now)
	s.AddDetection(detection)
	s.AddBehavioral(analysis)
	added := s.AddSignals(extracted)

	if s.TurnCount == 1 && (s.Classification == "" || s.Classification == scoring.ClassUnknown) {
		s.Classification = e.classifier.Classify(s.Email, text).Label
	}

	assessment := e.matcher.Assess(ctx, text, embedding)
	s.Archetype = &assessment

	history := s.Behavior()
	effective := e.effectiveAI(s.CumulativeAIScore, history)

	if reject, reason := e.detector.ShouldReject(s.CumulativeAIScore, s.TurnCount, s.SignalCount()); reject && !s.HardcodedRejection {
		s.RecordHardcodedRejection(reason)
		L.Warn(ctx, "hardcoded rejection recorded", "reason", reason, "cumulative_ai", s.CumulativeAIScore)
	}

	trigger, reason := e.th.Trigger.ShouldTrigger(s, effective)

	res := &TurnResult{
		ConversationID: s.ID,
		AIDetection: TurnDetection{
			Score:      detection.CurrentScore,
			Cumulative: detection.CumulativeScore,
			Effective:  effective,
			Flags:      firstN(detection.Flags, maxReportedFlags),
			Action:     detection.Action,
		},
		TriggerReason: reason,
	}

	if trigger {
		ev := e.evaluate(ctx, s, effective, reason)
		res.EvaluationComplete = true
		res.Evaluation = ev
		res.Message = ClosingMessage(e.th.Scoring, ev)
	} else {
		probe := e.prober.SuggestProbe(history, s.TurnCount)
		res.SuggestedProbe = probe
		res.Message = e.respond(ctx, L, s, detection, effective, probe)
	}
	s.AddAssistantMessage(res.Message, e.now())

	res.TurnCount = s.TurnCount
	res.Status = s.Status
	res.Signals = SignalSummary{
		TractionCount:   len(s.Signals.Traction),
		CredentialCount: len(s.Signals.Credentials),
		New:             added,
		Strength:        signals.Strength(s.SignalCount(), s.TurnCount),
	}

	span.SetAttributes(
		attribute.Float64("screener.ai.cumulative", s.CumulativeAIScore),
		attribute.Float64("screener.ai.effective", effective),
		attribute.String("screener.ai.action", string(detection.Action)),
		attribute.Bool("screener.evaluated", trigger),
	)

	if e.hooks.OnTurn != nil {
		e.hooks.OnTurn(&TurnEvent{
			Action:     detection.Action,
			Evaluated:  trigger,
			NewSignals: added,
			Rejected:   s.HardcodedRejection,
			Duration:   time.Since(start).Seconds(),
		})
	}

	L.Info(ctx, "turn processed",
		"cumulative_ai", s.CumulativeAIScore,
		"effective_ai", effective,
		"action", detection.Action,
		"signals", s.SignalCount(),
		"trigger_reason", reason,
		"status", s.Status,
	)

	return res, nil
}

// effectiveAI is the carried cumulative score plus the behavioral penalty,
// capped at 1. It is what the trigger and the authenticity axis read.
func (e *Engine) effectiveAI(cumulative float64, history []behavior.Result) float64 {
	return min(1, cumulative+e.prober.Penalty(history))
}

func (e *Engine) respond(ctx context.Context, L log.Logger, s *ConversationState, det authenticity.Result, effective float64, probe behavior.Probe) string {
	question := behavior.Question(probe, s.TurnCount)

	msg := question
	if e.responder != nil {
		var aiContext string
		if det.Action != authenticity.ActionNone && len(det.Flags) > 0 {
			aiContext = "AI detection alert: " + strings.Join(firstN(det.Flags, 2), ", ")
		}
		out, err := e.responder.NextMessage(ctx, &ResponderRequest{
			ConversationID: s.ID,
			Turn:           s.TurnCount,
			History:        slices.Clone(s.Messages),
			Instruction:    TurnInstruction(s.TurnCount) + "\nSuggested probe: " + question,
			Classification: s.Classification,
			AIContext:      aiContext,
		})
		switch {
		case err != nil:
			L.Warn(ctx, "responder failed, using probe question", "err", err)
		case strings.TrimSpace(out) != "":
			msg = strings.TrimSpace(out)
		}
	}

	if e.detector.ShouldChallenge(det) || effective >= e.th.Authenticity.OverrideThreshold {
		msg = authenticity.ChallengeMessage
	}
	return msg
}

func (e *Engine) evaluate(ctx context.Context, s *ConversationState, effective float64, reason string) *Evaluation {
	s.BeginEvaluation()
	L := e.logger.With("conversation_id", s.ID, "trigger_reason", reason)

	history := s.Behavior()
	req := &EvaluationRequest{
		ConversationID: s.ID,
		Transcript:     s.Transcript(),
		AIDetection:    aiSummary(s, effective),
		Behavior: BehaviorSummary{
			EvasionCount:   behavior.EvasionCount(history),
			AvgSpecificity: behavior.AverageSpecificity(history),
			HasTemporal:    behavior.HasTemporalGrounding(history),
			RedFlagCount:   behavior.RedFlagCount(history),
		},
		Signals:        s.Signals,
		Classification: s.Classification,
	}
	if s.Archetype != nil {
		req.Archetype = *s.Archetype
	}

	evalCtx, span := tracer.Start(ctx, "triage.evaluate")
	start := time.Now()
	j, err := e.evaluator.Evaluate(evalCtx, req)
	if err == nil && (j == nil || j.Score < 0 || j.Score > 10) {
		err = fmt.Errorf("%w: score out of range", ErrMalformedJudgment)
	}
	if e.hooks.OnEvaluatorCall != nil {
		var in, out int
		if j != nil {
			in, out = j.InputTokens, j.OutputTokens
		}
		e.hooks.OnEvaluatorCall(time.Since(start).Seconds(), in, out, err)
	}

	fallback := false
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluator failed")
		L.Warn(evalCtx, "evaluator failed, using neutral fallback", "err", err)
		j = FallbackJudgment()
		fallback = true
	}
	span.End()

	strong := s.SignalCount() >= 3 || mentionsStrongCredentials(j.Rationale)
	r := e.scorer.Score(scoring.Inputs{
		CumulativeAI:         effective,
		EvasionCount:         req.Behavior.EvasionCount,
		AvgSpecificity:       req.Behavior.AvgSpecificity,
		BehavioralRedFlags:   req.Behavior.RedFlagCount,
		SignalCount:          s.SignalCount(),
		ArchetypeSimilarity:  req.Archetype.Similarity(),
		Classification:       s.Classification,
		HasStrongCredentials: strong,
		HardcodedRejection:   s.HardcodedRejection,
		HardcodedReason:      s.HardcodedRejectionReason,
		EvaluatorScore:       j.Score,
	})

	ev := &Evaluation{
		Score:                 r.FinalScore,
		Recommendation:        r.Recommendation,
		RecommendationText:    r.RecommendationText,
		AuthenticityScore:     r.AuthenticityScore,
		QualityScore:          r.QualityScore,
		Factors:               r.Factors,
		Rationale:             j.Rationale,
		SuggestedMeetingFocus: j.SuggestedMeetingFocus,
		KeyClaimsToVerify:     j.KeyClaimsToVerify,
		AIDetection:           j.AIDetection,
		OriginalScore:         j.Score,
		HasStrongCredentials:  strong,
		HardcodedOverride:     r.FinalScore != j.Score,
		Fallback:              fallback,
		TriggerReason:         reason,
		CompletedAt:           e.now().UTC(),
	}
	s.AttachEvaluation(ev)

	if e.hooks.OnEvaluation != nil {
		e.hooks.OnEvaluation(&EvaluationEvent{
			Recommendation: ev.Recommendation,
			FinalScore:     ev.Score,
			Fallback:       fallback,
			Hardcoded:      s.HardcodedRejection,
		})
	}

	L.Info(ctx, "evaluation attached",
		"score", ev.Score,
		"recommendation", ev.Recommendation,
		"authenticity", ev.AuthenticityScore,
		"quality", ev.QualityScore,
		"original_score", ev.OriginalScore,
		"fallback", fallback,
	)
	return ev
}

// Learn adds the opening pitch of a conversation evaluated as
// do_not_recommend to the rejected corpus. Callers run it once the
// evaluated state has been committed; other states are ignored.
func (e *Engine) Learn(ctx context.Context, s *ConversationState) {
	ev := s.Evaluation
	if e.embedder == nil || ev == nil || ev.Recommendation != scoring.DoNotRecommend {
		return
	}
	L := e.logger.With("conversation_id", s.ID)
	pitch := s.FirstUserMessage()
	vec, err := e.embedder.Embed(ctx, pitch)
	if err != nil {
		L.Warn(ctx, "skipping corpus update, pitch embedding failed", "err", err)
		return
	}
	reason := ev.RecommendationText
	if s.HardcodedRejection {
		reason = "Hardcoded rejection: " + s.HardcodedRejectionReason
	}
	if _, err := e.matcher.Remember(ctx, pitch, vec, reason); err != nil {
		L.Error(ctx, err, "failed to append rejected pitch to corpus")
	}
}

func aiSummary(s *ConversationState, effective float64) AIDetectionSummary {
	sum := AIDetectionSummary{
		CumulativeScore: s.CumulativeAIScore,
		EffectiveScore:  effective,
		Flags:           []string{},
		TurnScores:      make([]float64, 0, len(s.DetectionHistory)),
	}
	for _, d := range s.DetectionHistory {
		sum.Flags = append(sum.Flags, d.Flags...)
		sum.TurnScores = append(sum.TurnScores, d.CurrentScore)
	}
	return sum
}

var strongCredentialTerms = []string{"education", "iit", "stanford"}

func mentionsStrongCredentials(rationale []string) bool {
	joined := strings.ToLower(strings.Join(rationale, " "))
	for _, t := range strongCredentialTerms {
		if strings.Contains(joined, t) {
			return true
		}
	}
	return false
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return slices.Clone(s)
	}
	return slices.Clone(s[:n])
}
