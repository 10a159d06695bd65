// Package signals extracts concrete traction and credential facts from
// free-text messages.
package signals

import (
	"sort"
	"strings"
)

// Kind partitions signals into traction and credentials.
type Kind string

const (
	KindTraction    Kind = "traction"
	KindCredentials Kind = "credentials"
)

// Signal is a single concrete fact lifted from a message.
type Signal struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Value   string `json:"value"`
	Raw     string `json:"raw_match"`
}

// Key is the conversation-level dedup key.
func (s Signal) Key() string {
	return s.Type + ":" + s.Value
}

// Result is the output of a single extraction pass.
type Result struct {
	Traction    []Signal `json:"traction"`
	Credentials []Signal `json:"credentials"`
}

// Count returns the total number of signals.
func (r Result) Count() int {
	return len(r.Traction) + len(r.Credentials)
}

// Summary renders a one-line description of the signal types found.
func (r Result) Summary() string {
	var parts []string
	if len(r.Traction) > 0 {
		parts = append(parts, "Traction signals: "+strings.Join(types(r.Traction), ", "))
	}
	if len(r.Credentials) > 0 {
		parts = append(parts, "Credential signals: "+strings.Join(types(r.Credentials), ", "))
	}
	if len(parts) == 0 {
		return "No concrete signals detected"
	}
	return strings.Join(parts, "; ")
}

func types(sigs []Signal) []string {
	seen := make(map[string]struct{}, len(sigs))
	out := make([]string, 0, len(sigs))
	for _, s := range sigs {
		if _, ok := seen[s.Type]; ok {
			continue
		}
		seen[s.Type] = struct{}{}
		out = append(out, s.Type)
	}
	sort.Strings(out)
	return out
}

// Extract runs every traction and credential pattern over text.
// Signals are deduplicated by raw match within each kind. It never fails.
func Extract(text string) Result {
	lower := strings.ToLower(text)
	return Result{
		Traction:    scan(lower, tractionPatterns, false),
		Credentials: scan(lower, credentialPatterns, true),
	}
}

func scan(text string, patterns []pattern, trim bool) []Signal {
	var out []Signal
	seen := make(map[string]struct{})
	for _, pt := range patterns {
		for _, m := range pt.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[m[0]:m[1]]
			if _, ok := seen[raw]; ok {
				continue
			}
			seen[raw] = struct{}{}

			// missing capture falls back to the whole match
			value := raw
			if len(m) >= 4 && m[2] >= 0 {
				value = text[m[2]:m[3]]
			}
			if trim {
				value = strings.TrimSpace(value)
			}
			out = append(out, Signal{Type: pt.typ, Subtype: pt.subtype, Value: value, Raw: raw})
		}
	}
	return out
}

// Strength grades how many signals a conversation has produced relative to
// how far along it is.
func Strength(signalCount, turn int) string {
	switch {
	case signalCount == 0:
		return "none"
	case turn <= 2:
		if signalCount >= 2 {
			return "strong"
		}
		return "moderate"
	case signalCount >= 3:
		return "strong"
	case signalCount >= 2:
		return "moderate"
	default:
		return "weak"
	}
}
