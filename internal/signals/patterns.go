package signals

import (
	"regexp"
	"strings"
)

// Traction types.
const (
	TypeCustomers     = "customers"
	TypeUsers         = "users"
	TypeSubscribers   = "subscribers"
	TypeRevenue       = "revenue"
	TypeFunding       = "funding"
	TypeGrowth        = "growth"
	TypeUnitEconomics = "unit_economics"
	TypeExperience    = "experience"
	TypeProfitability = "profitability"
)

// Credential types.
const (
	TypeEducation         = "education"
	TypeWorkExperience    = "work_experience"
	TypeFounderExperience = "founder_experience"
	TypeBacking           = "backing"
	TypeRole              = "role"
)

var topUniversities = []string{
	"iit", "iit bombay", "iit delhi", "iit madras", "iit kanpur", "iit kharagpur",
	"iit roorkee", "iit guwahati", "iit hyderabad", "iim", "iim ahmedabad",
	"iim bangalore", "iim calcutta", "iim lucknow", "bits pilani", "bits", "nit",
	"iisc", "isb", "xlri", "srcc", "stephens", "stanford", "harvard", "mit",
	"wharton", "yale", "princeton", "columbia", "berkeley", "caltech",
	"carnegie mellon", "cmu", "cornell", "nyu", "oxford", "cambridge", "lse", "imperial",
}

var topCompanies = []string{
	"google", "facebook", "meta", "amazon", "apple", "netflix", "microsoft", "uber",
	"airbnb", "stripe", "coinbase", "openai", "anthropic", "tesla", "salesforce",
	"oracle", "adobe", "linkedin", "twitter", "x.com", "flipkart", "swiggy", "zomato",
	"razorpay", "zerodha", "cred", "phonepe", "paytm", "ola", "byju", "unacademy",
	"meesho", "lenskart", "nykaa", "freshworks", "zoho", "infosys", "tcs", "wipro",
	"mckinsey", "bain", "bcg", "goldman sachs", "morgan stanley", "jpmorgan", "kpmg",
	"deloitte", "ey", "pwc",
}

var acceleratorsAndVCs = []string{
	"y combinator", "yc", "techstars", "500 startups", "500", "plug and play",
	"sequoia", "accel", "matrix", "blume", "kalaari", "elevation", "lightspeed",
	"tiger global", "a16z", "andreessen", "greylock", "benchmark", "peak xv",
	"nexus", "chiratae", "stellaris", "prime", "india quotient",
}

type pattern struct {
	re      *regexp.Regexp
	typ     string
	subtype string
}

func p(expr, typ, subtype string) pattern {
	return pattern{re: regexp.MustCompile(`(?i)` + expr), typ: typ, subtype: subtype}
}

// alternation joins names into a regexp alternation, preserving list order.
func alternation(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return strings.Join(quoted, "|")
}

var tractionPatterns = []pattern{
	p(`(\d+[km]?\+?)\s*(paying\s+)?customers?`, TypeCustomers, "customer_count"),
	p(`(\d+[km]?\+?)\s*(active\s+)?users?`, TypeUsers, "user_count"),
	p(`(\d+[km]?\+?)\s*(monthly\s+)?subscribers?`, TypeSubscribers, "subscriber_count"),

	p(`(\d+(?:\.\d+)?[klc]r?)\s*(?:mrr|monthly\s+recurring)`, TypeRevenue, "mrr"),
	p(`(\d+(?:\.\d+)?[klc]r?)\s*(?:arr|annual\s+recurring)`, TypeRevenue, "arr"),
	p(`[\$₹]\s*(\d+(?:\.\d+)?[kmlc]?)\s*(?:mrr|arr|revenue)`, TypeRevenue, "revenue"),
	p(`(\d+(?:\.\d+)?[klc]r?)\s*revenue`, TypeRevenue, "revenue"),
	p(`revenue\s+(?:of\s+)?[\$₹]?\s*(\d+(?:\.\d+)?[kmlc]?)`, TypeRevenue, "revenue"),

	p(`raised\s+[\$₹]?\s*(\d+(?:\.\d+)?[kmlc]r?)`, TypeFunding, "raised"),
	p(`(\d+(?:\.\d+)?[klc]r?)\s*(?:seed|pre-seed|series\s*[a-z])`, TypeFunding, "round"),
	p(`(?:seed|pre-seed|series\s*[a-z])\s+(?:of\s+)?[\$₹]?\s*(\d+(?:\.\d+)?[kmlc]?)`, TypeFunding, "round"),
	p(`funded\s+by\s+([a-z][a-z\s]+(?:ventures?|capital|partners?))`, TypeFunding, "investor"),

	p(`(\d+x)\s*growth`, TypeGrowth, "multiple"),
	p(`(\d+(?:\.\d+)?%)\s*(?:mom|month[\-\s]over[\-\s]month)`, TypeGrowth, "mom_growth"),
	p(`(\d+(?:\.\d+)?%)\s*(?:yoy|year[\-\s]over[\-\s]year)`, TypeGrowth, "yoy_growth"),
	p(`(?:grew|growth)\s+(?:by\s+)?(\d+(?:\.\d+)?%)`, TypeGrowth, "growth_rate"),
	p(`doubled\s+(?:revenue|customers?|users?)`, TypeGrowth, "doubled"),
	p(`tripled\s+(?:revenue|customers?|users?)`, TypeGrowth, "tripled"),

	p(`(?:cac|customer\s+acquisition\s+cost)\s*(?:of\s+)?[\$₹]?\s*(\d+(?:\.\d+)?k?)`, TypeUnitEconomics, "cac"),
	p(`(?:ltv|lifetime\s+value)\s*(?:of\s+)?[\$₹]?\s*(\d+(?:\.\d+)?k?)`, TypeUnitEconomics, "ltv"),
	p(`ltv[\s/:]cac\s*(?:of\s+)?(\d+(?:\.\d+)?)`, TypeUnitEconomics, "ltv_cac_ratio"),
	p(`churn\s+(?:rate\s+)?(?:of\s+)?(\d+(?:\.\d+)?%)`, TypeUnitEconomics, "churn"),
	p(`(?:nps|net\s+promoter)\s+(?:score\s+)?(?:of\s+)?(\d+)`, TypeUnitEconomics, "nps"),

	p(`(\d+)\s*years?\s+(?:building|running|operating)`, TypeExperience, "years_building"),
	p(`(?:launched|started)\s+(\d+)\s*(?:months?|years?)\s+ago`, TypeExperience, "time_since_launch"),

	p(`(?:profitable|breakeven)\s+(?:in|for)\s+(\d+)\s*months?`, TypeProfitability, "time_to_profit"),
}

var credentialPatterns = func() []pattern {
	unis := alternation(topUniversities)
	cos := alternation(topCompanies)
	vcs := alternation(acceleratorsAndVCs)
	return []pattern{
		p(`(?:studied|graduated|degree|alumni|from)\s+(?:at\s+)?(`+unis+`)`, TypeEducation, "university"),
		p(`(`+unis+`)\s*(?:graduate|alumni|alum)`, TypeEducation, "university"),

		p(`(?:worked|work|working)\s+(?:at|for)\s+(`+cos+`)`, TypeWorkExperience, "company"),
		p(`ex[\-\s]?(`+cos+`)`, TypeWorkExperience, "ex_company"),
		p(`(?:formerly|previously)\s+(?:at\s+)?(`+cos+`)`, TypeWorkExperience, "ex_company"),
		p(`(\d+)\s*years?\s+(?:at|with)\s+(`+cos+`)`, TypeWorkExperience, "tenure"),

		p(`(?:second|third|serial)\s*[\-\s]?time\s+founder`, TypeFounderExperience, "serial_founder"),
		p(`(?:previously|before)\s+(?:founded|started|built)\s+([a-z]+)`, TypeFounderExperience, "previous_company"),
		p(`(?:exited|sold|acquired)\s+(?:my|our|the)?\s*(?:company|startup)`, TypeFounderExperience, "exit"),

		p(`(?:backed|funded|invested)\s+by\s+(`+vcs+`)`, TypeBacking, "investor"),
		p(`(`+vcs+`)\s*(?:portfolio|backed|funded)`, TypeBacking, "investor"),
		p(`(?:part of|in|accepted to)\s+(`+vcs+`)`, TypeBacking, "accelerator"),

		p(`(?:ceo|cto|cfo|coo|founder|co-founder|cofounder)\s+(?:at|of)\s+([a-z]+)`, TypeRole, "executive"),
		p(`(?:vp|vice president|director|head)\s+(?:of\s+)?(?:engineering|product|growth|marketing)`, TypeRole, "senior_role"),
	}
}()
