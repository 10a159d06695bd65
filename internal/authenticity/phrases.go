package authenticity

// phraseCategories are the AI-tell phrases, matched as case-insensitive substrings.
var phraseCategories = map[string][]string{
	"generic_openings": {
		"i hope this message finds you well", "i wanted to reach out", "i'd be happy to",
		"i am reaching out", "i am writing to", "thank you for your time",
		"thank you for considering", "i appreciate you taking the time", "i look forward to",
		"please feel free to", "don't hesitate to", "at your earliest convenience",
	},
	"corporate_speak": {
		"leverage synergies", "value proposition", "thought leadership", "cutting-edge solutions",
		"innovative approach", "comprehensive suite", "streamline operations", "drive growth",
		"unlock value", "actionable insights", "best-in-class", "end-to-end solution",
		"scalable platform", "seamless integration", "robust framework", "holistic approach",
		"paradigm shift", "game-changer", "disruptive innovation", "synergy",
		"optimize performance", "maximize efficiency", "strategic alignment", "key stakeholders",
		"core competencies",
	},
	"ai_politeness": {
		"i completely understand", "that makes total sense", "i really appreciate",
		"that's a great question", "thank you for asking", "i'd be delighted to", "absolutely",
		"certainly", "indeed", "i understand your concern", "you raise an excellent point",
		"that's very insightful", "i couldn't agree more",
	},
	"filler_patterns": {
		"in order to", "it is important to note that", "it should be noted that",
		"as mentioned earlier", "as i mentioned", "generally speaking", "to be honest",
		"to be frank", "at the end of the day", "moving forward", "going forward",
		"with that being said", "that being said", "having said that", "in terms of",
		"when it comes to", "with respect to", "in this regard",
	},
	"excessive_hedging": {
		"i believe that", "i think that", "in my opinion", "it seems like", "it appears that",
		"arguably", "potentially", "possibly", "perhaps", "might be", "could be", "may be",
	},
}

// categoryOrder fixes iteration order so detected phrases are reported deterministically.
var categoryOrder = []string{
	"generic_openings", "corporate_speak", "ai_politeness", "filler_patterns", "excessive_hedging",
}
