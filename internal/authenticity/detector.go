// Package authenticity scores how likely a message is to be machine-written.
//
// Detection runs in five layers: phrase tells, formatting structure, length,
// sentence-level patterns and an exponentially weighted cumulative score
// carried from turn to turn. The detector is pure; the caller owns the
// cumulative value between turns.
package authenticity

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Action is the response recommended by the cumulative score.
type Action string

const (
	ActionNone   Action = "none"
	ActionWarn   Action = "warn"
	ActionCap    Action = "cap_score"
	ActionReject Action = "reject"
)

// ChallengeMessage replaces the assistant reply when a message reads as generated.
const ChallengeMessage = "This reads like ChatGPT wrote it. Can you answer in your own words, with specific details from your actual experience?"

const maxReportedPhrases = 5

// Result is the outcome of one detection pass.
type Result struct {
	CurrentScore    float64   `json:"current_score"`
	CumulativeScore float64   `json:"cumulative_score"`
	Flags           []string  `json:"flags,omitempty"`
	Breakdown       Breakdown `json:"breakdown"`
	Action          Action    `json:"action"`
}

// Breakdown carries per-layer details.
type Breakdown struct {
	Phrases   PhraseLayer    `json:"phrases"`
	Structure StructureLayer `json:"structure"`
	Length    LengthLayer    `json:"length"`
	Patterns  PatternLayer   `json:"patterns"`
}

// PhraseLayer reports layer 1.
type PhraseLayer struct {
	Count    int      `json:"count"`
	Detected []string `json:"detected,omitempty"`
	Score    float64  `json:"score"`
}

// StructureLayer reports layer 2.
type StructureLayer struct {
	Count int      `json:"count"`
	Types []string `json:"types,omitempty"`
	Score float64  `json:"score"`
}

// LengthLayer reports layer 3.
type LengthLayer struct {
	Chars int     `json:"chars"`
	Score float64 `json:"score"`
}

// PatternLayer reports layer 4.
type PatternLayer struct {
	Detected []string `json:"detected,omitempty"`
	Count    int      `json:"count"`
	Score    float64  `json:"score"`
}

type structurePattern struct {
	re  *regexp.Regexp
	typ string
}

var structurePatterns = []structurePattern{
	{regexp.MustCompile(`(?m)^\s*\d+[\.\)]\s+`), "numbered_list"},
	{regexp.MustCompile(`\n\s*\d+[\.\)]\s+`), "numbered_list"},
	{regexp.MustCompile(`(?m)^\s*[-•*]\s+`), "bullet_point"},
	{regexp.MustCompile(`\n\s*[-•*]\s+`), "bullet_point"},
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), "markdown_header"},
	{regexp.MustCompile(`\n#{1,6}\s+`), "markdown_header"},
	{regexp.MustCompile(`\*\*[^*]+\*\*`), "bold_text"},
	{regexp.MustCompile(`__[^_]+__`), "bold_text"},
	{regexp.MustCompile("```[\\s\\S]*?```"), "code_block"},
	{regexp.MustCompile("`[^`]+`"), "inline_code"},
}

var formalPatterns = compileAll(
	`\bi am\b`, `\bi will\b`, `\bi have\b`, `\bi would\b`,
	`\bit is\b`, `\bthat is\b`, `\bwhat is\b`, `\bthere is\b`,
	`\bdo not\b`, `\bdoes not\b`, `\bdid not\b`, `\bcannot\b`,
	`\bwill not\b`, `\bwould not\b`, `\bcould not\b`, `\bshould not\b`,
	`\bwe are\b`, `\bthey are\b`, `\byou are\b`,
)

var sentenceSplit = regexp.MustCompile(`[.!?]\s+`)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Detector runs the five detection layers.
type Detector struct {
	cfg Config
}

// New creates a Detector with the given thresholds.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Config returns the thresholds in use.
func (d *Detector) Config() Config {
	return d.cfg
}

// Detect scores text and folds the score into prevCumulative.
func (d *Detector) Detect(text string, prevCumulative float64) Result {
	var (
		res     Result
		flags   []string
		current float64
	)

	// layer 1: phrases
	phrases := detectPhrases(text)
	res.Breakdown.Phrases = PhraseLayer{Count: len(phrases), Score: d.phraseScore(len(phrases))}
	if len(phrases) > 0 {
		res.Breakdown.Phrases.Detected = phrases[:min(len(phrases), maxReportedPhrases)]
		flags = append(flags, fmt.Sprintf("AI phrases detected: %d", len(phrases)))
	}
	current += res.Breakdown.Phrases.Score

	// layer 2: structure
	markers, kinds := detectStructure(text)
	res.Breakdown.Structure = StructureLayer{Count: markers, Types: kinds}
	if markers >= d.cfg.StructureMarkerThreshold {
		res.Breakdown.Structure.Score = d.cfg.StructureScore
	}
	if len(kinds) > 0 {
		flags = append(flags, "AI formatting: "+strings.Join(kinds, ", "))
	}
	current += res.Breakdown.Structure.Score

	// layer 3: length
	chars := utf8.RuneCountInString(text)
	res.Breakdown.Length = LengthLayer{Chars: chars, Score: d.lengthScore(chars)}
	if chars > d.cfg.LengthMediumChars {
		flags = append(flags, fmt.Sprintf("Unusually long message: %d chars", chars))
	}
	current += res.Breakdown.Length.Score

	// layer 4: sentence patterns
	patterns := d.detectPatterns(text)
	res.Breakdown.Patterns = PatternLayer{
		Detected: patterns,
		Count:    len(patterns),
		Score:    float64(len(patterns)) * d.cfg.PatternScoreEach,
	}
	if len(patterns) > 0 {
		flags = append(flags, "AI patterns: "+strings.Join(patterns, ", "))
	}
	current += res.Breakdown.Patterns.Score

	// layer 5: cumulative
	cumulative := prevCumulative*d.cfg.PreviousWeight + current*d.cfg.CurrentWeight

	res.Action = ActionNone
	switch {
	case cumulative >= d.cfg.RejectThreshold:
		res.Action = ActionReject
		flags = append(flags, "HIGH AI PROBABILITY - REJECT")
	case cumulative >= d.cfg.CapThreshold:
		res.Action = ActionCap
		flags = append(flags, "Moderate AI probability - cap score")
	case cumulative >= d.cfg.WarnThreshold:
		res.Action = ActionWarn
		flags = append(flags, "Some AI signals detected")
	}

	res.CurrentScore = round3(current)
	res.CumulativeScore = round3(cumulative)
	res.Flags = flags
	return res
}

// ShouldReject reports whether the conversation must be rejected outright on
// AI-likelihood alone, and why.
func (d *Detector) ShouldReject(cumulative float64, turn, signalCount int) (bool, string) {
	if cumulative >= d.cfg.RejectThreshold {
		return true, "AI probability too high"
	}
	if turn >= d.cfg.RejectNoSignalsTurn && cumulative >= d.cfg.RejectNoSignalsThreshold && signalCount == 0 {
		return true, "High AI probability with no concrete signals"
	}
	return false, ""
}

// ShouldChallenge reports whether the assistant reply should be replaced by
// ChallengeMessage for this detection result.
func (d *Detector) ShouldChallenge(r Result) bool {
	return r.Action == ActionReject || r.CumulativeScore >= d.cfg.OverrideThreshold
}

func (d *Detector) phraseScore(n int) float64 {
	switch {
	case n >= d.cfg.PhraseHighCount:
		return d.cfg.PhraseHighScore
	case n >= 1:
		return d.cfg.PhraseLowScore
	}
	return 0
}

func (d *Detector) lengthScore(chars int) float64 {
	switch {
	case chars > d.cfg.LengthHighChars:
		return d.cfg.LengthHighScore
	case chars > d.cfg.LengthMediumChars:
		return d.cfg.LengthMediumScore
	}
	return 0
}

func detectPhrases(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, cat := range categoryOrder {
		for _, ph := range phraseCategories[cat] {
			if strings.Contains(lower, ph) {
				found = append(found, ph)
			}
		}
	}
	return found
}

func detectStructure(text string) (int, []string) {
	total := 0
	var kinds []string
	seen := make(map[string]bool)
	for _, sp := range structurePatterns {
		n := len(sp.re.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		total += n
		if !seen[sp.typ] {
			seen[sp.typ] = true
			kinds = append(kinds, sp.typ)
		}
	}
	return total, kinds
}

func (d *Detector) detectPatterns(text string) []string {
	var found []string
	sentences := sentenceSplit.Split(strings.TrimSpace(text), -1)

	if perfectGrammar(sentences, d.cfg.MinSentencesFormal) {
		found = append(found, "perfect_grammar")
	}
	if d.noContractions(text) {
		found = append(found, "no_contractions")
	}
	if repeated := repetitiveStarters(sentences, d.cfg.MinSentencesRepeat, d.cfg.RepeatStarterCount); len(repeated) > 0 {
		found = append(found, "repetitive_starters:"+strings.Join(repeated, ","))
	}
	return found
}

func perfectGrammar(sentences []string, minSentences int) bool {
	if len(sentences) < minSentences {
		return false
	}
	for _, s := range sentences {
		r, _ := utf8.DecodeRuneInString(s)
		if s == "" || !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func (d *Detector) noContractions(text string) bool {
	if utf8.RuneCountInString(text) <= d.cfg.FormalMinChars {
		return false
	}
	lower := strings.ToLower(text)
	n := 0
	for _, re := range formalPatterns {
		if re.MatchString(lower) {
			n++
		}
	}
	return n >= d.cfg.FormalMinCount
}

func repetitiveStarters(sentences []string, minSentences, minRepeat int) []string {
	if len(sentences) < minSentences {
		return nil
	}
	counts := make(map[string]int)
	var order []string
	for _, s := range sentences {
		words := strings.Fields(s)
		if len(words) == 0 {
			continue
		}
		w := strings.ToLower(words[0])
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	var repeated []string
	for _, w := range order {
		if counts[w] >= minRepeat {
			repeated = append(repeated, w)
		}
	}
	return repeated
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
