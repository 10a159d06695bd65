package archetype

import "strings"

// Archetype is a named, generically low-signal pitch pattern.
type Archetype struct {
	ID           string   `json:"id"`
	Pattern      string   `json:"pattern"`
	Examples     []string `json:"examples"`
	WhyLowSignal string   `json:"why_low_signal"`
}

// Defaults are the archetypes the keyword path recognizes.
var Defaults = []Archetype{
	{
		ID:      "ai_for_x",
		Pattern: "AI solution for [industry]",
		Examples: []string{
			"AI-powered solution for healthcare", "AI platform for education",
			"AI tool for HR and recruitment", "Machine learning solution for retail",
		},
		WhyLowSignal: "Generic AI positioning without a specific problem or differentiation",
	},
	{
		ID:      "marketplace_for_y",
		Pattern: "Marketplace for [category]",
		Examples: []string{
			"Marketplace for freelancers", "Two-sided marketplace for services",
			"Online marketplace for handmade goods",
		},
		WhyLowSignal: "Marketplaces need capital and network effects that first-time founders rarely have",
	},
	{
		ID:      "uber_for_z",
		Pattern: "Uber for [service]",
		Examples: []string{
			"Uber for laundry", "On-demand grocery platform", "Airbnb for parking",
		},
		WhyLowSignal: "Copied business model without an understanding of unit economics",
	},
	{
		ID:      "generic_saas",
		Pattern: "B2B SaaS to help companies [verb]",
		Examples: []string{
			"B2B platform to help companies manage operations", "Software to streamline workflows",
			"Cloud platform for business automation",
		},
		WhyLowSignal: "Too broad, no clear ICP or specific problem",
	},
	{
		ID:      "vague_fintech",
		Pattern: "Financial [solution] for [underserved]",
		Examples: []string{
			"Financial inclusion for the underserved", "Fintech for the unbanked",
			"Digital payments for rural India",
		},
		WhyLowSignal: "Noble goal, usually naive about regulation and distribution",
	},
	{
		ID:      "student_advice_seeking",
		Pattern: "Student seeking career or startup advice",
		Examples: []string{
			"I'm a student interested in startups", "Looking for mentorship and guidance",
			"Student exploring entrepreneurship",
		},
		WhyLowSignal: "Generic mentorship request without a specific, actionable question",
	},
	{
		ID:      "networking_request",
		Pattern: "General networking request",
		Examples: []string{
			"Would love to connect and pick your brain", "Reaching out to expand my network",
			"Coffee chat to discuss the ecosystem",
		},
		WhyLowSignal: "No specific value exchange",
	},
	{
		ID:      "generic_edtech",
		Pattern: "EdTech platform for [learning]",
		Examples: []string{
			"Online learning platform", "EdTech solution for skill development",
			"Learning management system",
		},
		WhyLowSignal: "Crowded space with hard unit economics and distribution",
	},
}

// KeywordMatch is the keyword path's verdict.
type KeywordMatch struct {
	ArchetypeID string  `json:"archetype_id,omitempty"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason,omitempty"`
}

type keywordRule struct {
	id         string
	confidence float64
	reason     string
	anyOf      []string
	requireAll [][]string // each group must have at least one hit
	noneOf     []string
}

func (r keywordRule) matches(text string) bool {
	if !containsAny(text, r.anyOf) {
		return false
	}
	for _, group := range r.requireAll {
		if !containsAny(text, group) {
			return false
		}
	}
	return !containsAny(text, r.noneOf)
}

// keywordRules are checked in order; the first match wins.
var keywordRules = []keywordRule{
	{
		id: "ai_for_x", confidence: 0.8, reason: "Generic AI + industry pattern detected",
		anyOf: []string{"ai", "artificial intelligence", "machine learning", "ml"},
		requireAll: [][]string{
			{"solution", "platform", "tool", "powered", "driven", "based"},
			{"healthcare", "education", "hr", "finance", "retail", "customer service", "business", "enterprise"},
		},
	},
	{
		id: "marketplace_for_y", confidence: 0.7, reason: "Marketplace pattern detected",
		anyOf: []string{"marketplace", "two-sided"},
	},
	{
		id: "uber_for_z", confidence: 0.7, reason: "Uber-for-X pattern detected",
		anyOf: []string{"uber for", "airbnb for", "netflix for", "amazon for", "on-demand", "on demand"},
	},
	{
		id: "generic_saas", confidence: 0.6, reason: "Generic SaaS pattern detected",
		anyOf: []string{"b2b platform", "saas solution", "enterprise software", "streamline operations", "optimize processes", "business automation"},
	},
	{
		id: "vague_fintech", confidence: 0.6, reason: "Vague fintech pattern without traction",
		anyOf:  []string{"financial inclusion", "unbanked", "underserved", "next billion", "rural india", "digital payments"},
		noneOf: []string{"customers", "revenue", "mrr", "users", "transactions"},
	},
	{
		id: "student_advice_seeking", confidence: 0.7, reason: "Student seeking general advice",
		anyOf:  []string{"student", "studying", "career advice", "mentorship", "guidance", "learn about startups", "explore entrepreneurship"},
		noneOf: []string{"building", "launched", "raised", "customers", "revenue"},
	},
	{
		id: "networking_request", confidence: 0.8, reason: "Generic networking request",
		anyOf: []string{"pick your brain", "coffee chat", "expand my network", "connect and learn", "30 minutes of your time", "quick call"},
	},
	{
		id: "generic_edtech", confidence: 0.6, reason: "Generic EdTech without traction",
		anyOf:  []string{"online learning", "edtech", "online courses", "skill development", "lms", "learning platform"},
		noneOf: []string{"students enrolled", "revenue", "completion rate", "paying"},
	},
}

// MatchKeywords runs the ordered keyword rules over text.
func MatchKeywords(text string) KeywordMatch {
	lower := strings.ToLower(text)
	for _, r := range keywordRules {
		if r.matches(lower) {
			return KeywordMatch{ArchetypeID: r.id, Confidence: r.confidence, Reason: r.reason}
		}
	}
	return KeywordMatch{}
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
