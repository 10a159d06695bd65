package triage

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	ConversationsStarted *prometheus.CounterVec
	TurnsTotal           *prometheus.CounterVec
	TurnDuration         prometheus.Histogram
	SignalsExtracted     prometheus.Counter
	HardcodedRejections  prometheus.Counter
	EvaluationsTotal     *prometheus.CounterVec
	EvaluatorFallbacks   prometheus.Counter
	EvaluatorCalls       *prometheus.CounterVec
	EvaluatorDuration    prometheus.Histogram
	EvaluatorTokensIn    prometheus.Counter
	EvaluatorTokensOut   prometheus.Counter
	FinalScore           prometheus.Histogram
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConversationsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_conversations_started_total",
			Help: "Conversations opened at intake by classification.",
		}, []string{"classification"}),
		TurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_turns_total",
			Help: "Processed turns by authenticity action and outcome.",
		}, []string{"action", "evaluated"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_turn_duration_seconds",
			Help:    "End-to-end duration of a turn in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms .. ~41s
		}),
		SignalsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_signals_extracted_total",
			Help: "Distinct concrete signals added to conversations.",
		}),
		HardcodedRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_hardcoded_rejections_total",
			Help: "Evaluations decided by a hardcoded rejection.",
		}),
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_evaluations_total",
			Help: "Attached evaluations by final recommendation.",
		}, []string{"recommendation"}),
		EvaluatorFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_evaluator_fallbacks_total",
			Help: "Evaluations that used the neutral fallback judgment.",
		}),
		EvaluatorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_evaluator_calls_total",
			Help: "Evaluator calls by status.",
		}, []string{"status"}),
		EvaluatorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_evaluator_call_duration_seconds",
			Help:    "Duration of evaluator calls in seconds, retries included.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s .. ~128s
		}),
		EvaluatorTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_evaluator_tokens_input_total",
			Help: "Total evaluator input tokens consumed.",
		}),
		EvaluatorTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_evaluator_tokens_output_total",
			Help: "Total evaluator output tokens consumed.",
		}),
		FinalScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_final_score",
			Help:    "Distribution of final scores.",
			Buckets: prometheus.LinearBuckets(0, 1, 11), // 0 .. 10
		}),
	}

	reg.MustRegister(
		m.ConversationsStarted,
		m.TurnsTotal,
		m.TurnDuration,
		m.SignalsExtracted,
		m.HardcodedRejections,
		m.EvaluationsTotal,
		m.EvaluatorFallbacks,
		m.EvaluatorCalls,
		m.EvaluatorDuration,
		m.EvaluatorTokensIn,
		m.EvaluatorTokensOut,
		m.FinalScore,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnTurn: func(e *TurnEvent) {
			m.TurnsTotal.WithLabelValues(string(e.Action), strconv.FormatBool(e.Evaluated)).Inc()
			m.TurnDuration.Observe(e.Duration)
			m.SignalsExtracted.Add(float64(e.NewSignals))
		},
		OnEvaluatorCall: func(duration float64, inputTokens, outputTokens int, err error) {
			status := "success"
			if err != nil {
				status = "error"
			}
			m.EvaluatorCalls.WithLabelValues(status).Inc()
			m.EvaluatorDuration.Observe(duration)
			m.EvaluatorTokensIn.Add(float64(inputTokens))
			m.EvaluatorTokensOut.Add(float64(outputTokens))
		},
		OnEvaluation: func(e *EvaluationEvent) {
			m.EvaluationsTotal.WithLabelValues(string(e.Recommendation)).Inc()
			m.FinalScore.Observe(float64(e.FinalScore))
			if e.Fallback {
				m.EvaluatorFallbacks.Inc()
			}
			if e.Hardcoded {
				m.HardcodedRejections.Inc()
			}
		},
	}
}
