package behavior

// Probe is a category of follow-up question that is hard to answer generically.
type Probe string

const (
	ProbeOwnedFailure      Probe = "owned_failure"
	ProbeTemporalAnchoring Probe = "temporal_anchoring"
	ProbeTradeoffReasoning Probe = "tradeoff_reasoning"
	ProbePersonalCausality Probe = "personal_causality"
)

var probeRotation = []Probe{
	ProbeOwnedFailure,
	ProbeTemporalAnchoring,
	ProbeTradeoffReasoning,
	ProbePersonalCausality,
}

var probeQuestions = map[Probe][]string{
	ProbeOwnedFailure: {
		"What assumption turned out to be wrong, and how did you find out?",
		"What did you try that didn't work? Be specific.",
		"What would you do differently if you started again?",
		"When were you completely wrong about what customers needed?",
	},
	ProbeTemporalAnchoring: {
		"When exactly did you first see customers pull the product? What number showed it?",
		"Walk me through the timeline: when did you start, and when did the first customer pay?",
		"Which month did this happen, and what changed?",
		"How long did it take from idea to first paying customer?",
	},
	ProbeTradeoffReasoning: {
		"What did you choose not to build, and why?",
		"What did you deprioritize to get here?",
		"Growth or unit economics, if you had to pick one right now? Why?",
		"Who is your uncomfortably narrow customer, and who did you exclude?",
	},
	ProbePersonalCausality: {
		"What did you personally do to get those customers?",
		"Which of your own decisions changed the outcome?",
		"What do you know about this problem that others missed?",
		"Why are you the right person to solve this?",
	},
}

// SuggestProbe picks the probe most likely to surface substance given the
// answers so far.
func (p *Prober) SuggestProbe(history []Result, turn int) Probe {
	if len(history) == 0 {
		return ProbeOwnedFailure
	}
	latest := history[len(history)-1]
	switch {
	case !latest.TemporalGrounding:
		return ProbeTemporalAnchoring
	case latest.Evasive:
		return ProbePersonalCausality
	case latest.Specificity < p.cfg.TradeoffProbeMaxSpecs:
		return ProbeTradeoffReasoning
	}
	return probeRotation[modulo(turn, len(probeRotation))]
}

// Question returns a question for the probe, rotated by turn.
func Question(probe Probe, turn int) string {
	qs, ok := probeQuestions[probe]
	if !ok {
		qs = probeQuestions[ProbeOwnedFailure]
	}
	return qs[modulo(turn, len(qs))]
}

func modulo(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
