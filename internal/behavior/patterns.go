package behavior

import "regexp"

const months = `january|february|march|april|may|june|july|august|september|october|november|december`

var evasionPatterns = compile(
	`(?:generally speaking|in general|typically|usually|often)`,
	`(?:it depends|there are many factors|multiple reasons)`,
	`(?:as i mentioned|as stated|as noted|like i said)`,
	`(?:what's more important is|the real question is|let me instead)`,
	`(?:that's a good question|interesting question|great point)`,
	`(?:in a way|sort of|kind of|more or less)`,
)

// directPatterns are matched against lowercased text, so the upper-case unit
// alternatives are inert.
var directPatterns = compile(
	`\d+\s*(?:customers?|users?|%|percent|months?|years?|weeks?|cr|lakh|L|k|K|M)`,
	`(?:`+months+`)\s*\d{4}`,
	`(?:q[1-4])\s*\d{4}`,
	`\d{4}`,
	`(?:we|i)\s+(?:tried|built|launched|shipped|raised|hired|fired|pivoted)`,
	`(?:i|we)\s+(?:decided|chose|realized|learned|failed|succeeded|discovered)`,
)

var specificityHigh = compile(
	`\d+\s*(?:customers?|users?|paying)`,
	`(?:\$|₹|rs\.?)\s*\d+[kKmMlLcC]?`,
	`\d+(?:\.\d+)?%`,
	`(?:q[1-4]|`+months+`)\s*(?:20\d{2})?`,
	`(?:raised|funding)\s*(?:\$|₹)?\d+`,
	`\d+\s*(?:months?|years?|weeks?|days?)`,
	`(?:cac|ltv|arpu|mrr|arr|nps|dau|mau|wau)`,
)

var specificityMedium = compile(
	`(?:we|i)\s+(?:built|launched|shipped|tried|tested)`,
	`(?:first|second|third|initial|early)\s+(?:version|iteration|attempt)`,
	`(?:because|since|due to|reason was)`,
	`(?:specifically|exactly|precisely)`,
)

var specificityLow = compile(
	`(?:some|many|several|various|multiple)\s+(?:customers?|users?|people)`,
	`(?:significant|substantial|considerable)\s+(?:growth|traction|progress)`,
	`(?:innovative|cutting-edge|unique|revolutionary)`,
	`(?:leverage|synergy|optimize|streamline)`,
)

var temporalSpecific = compile(
	`(?:`+months+`)\s*(?:20\d{2})?`,
	`(?:q[1-4])\s*(?:20\d{2})?`,
	`(?:early|mid|late)\s*20\d{2}`,
	`20\d{2}`,
	`\d+\s*(?:months?|years?|weeks?|days?)\s+ago`,
	`(?:last|this|next)\s+(?:month|year|week|quarter)`,
	`(?:since|before|after)\s+(?:`+months+`)`,
	`(?:first|then|after that|next|finally|initially|eventually)`,
)

var temporalVague = compile(
	`(?:recently|soon|eventually|sometime|at some point)`,
	`(?:in the past|in the future|going forward)`,
	`(?:for a while|for some time)`,
)

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// countAll sums non-overlapping matches of every pattern.
func countAll(text string, patterns []*regexp.Regexp) int {
	n := 0
	for _, re := range patterns {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// matchAll collects every non-overlapping match of every pattern, in pattern order.
func matchAll(text string, patterns []*regexp.Regexp) []string {
	var out []string
	for _, re := range patterns {
		out = append(out, re.FindAllString(text, -1)...)
	}
	return out
}

// firstMatches returns the first match of each pattern that matches at all.
func firstMatches(text string, patterns []*regexp.Regexp) []string {
	var out []string
	for _, re := range patterns {
		if loc := re.FindStringIndex(text); loc != nil {
			out = append(out, text[loc[0]:loc[1]])
		}
	}
	return out
}
