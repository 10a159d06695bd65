// Package classify labels a contact from their email domain and how they
// describe their current work.
package classify

import (
	"strings"

	"github.com/linnemanlabs/screener/internal/scoring"
)

// Email domain classes.
const (
	DomainIndianStudent = "indian_student"
	DomainUSStudent     = "us_student"
	DomainTechOperator  = "tech_operator"
	DomainGeneric       = "generic"
	DomainUnknown       = "unknown"
)

var (
	indianStudentSuffixes = []string{".ac.in"}
	usStudentSuffixes     = []string{".edu"}
	techDomains           = []string{
		"google.com", "meta.com", "facebook.com", "amazon.com", "microsoft.com",
		"apple.com", "netflix.com", "razorpay.com", "zerodha.com", "flipkart.com",
		"swiggy.com", "zomato.com", "phonepe.com", "paytm.com", "ola.com",
	}
)

// role keywords, checked in priority order
var roleKeywords = []struct {
	role     string
	keywords []string
}{
	{scoring.ClassPartnership, []string{
		"partnership", "collaborate", "opportunity", "offer", "proposal",
		"business development", "sales", "vendor", "service provider",
	}},
	{scoring.ClassFounder, []string{
		"building", "co-founder", "cofounder", "founder", "raised",
		"startup", "bootstrapped", "launched", "started", "ceo", "cto",
	}},
	{scoring.ClassOperator, []string{
		"working at", "employee", "joined", "work at", "engineer at",
		"manager at", "lead at", "director at",
	}},
	{scoring.ClassStudent, []string{
		"studying", "student", "learning", "university", "college",
		"pursuing", "graduating", "undergraduate", "graduate", "phd",
	}},
}

// Classification is the full result; Label is what scoring consumes.
type Classification struct {
	Label        string   `json:"label"`
	EmailDomain  string   `json:"email_domain"`
	CountryHint  string   `json:"country_hint,omitempty"`
	Role         string   `json:"role"`
	RoleKeywords []string `json:"role_keywords,omitempty"`
	Confidence   string   `json:"confidence"`
	LowSignal    bool     `json:"low_signal"`
}

// Classifier is the default keyword classifier.
type Classifier struct{}

// New returns a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify combines the email domain and the role keywords in text.
func (c *Classifier) Classify(email, text string) Classification {
	domain, country := Domain(email)
	role, keywords := Role(text)

	out := Classification{
		EmailDomain:  domain,
		CountryHint:  country,
		Role:         role,
		RoleKeywords: keywords,
		Confidence:   confidence(len(keywords)),
	}

	switch {
	case role == scoring.ClassPartnership:
		out.Label = scoring.ClassPartnership
		out.LowSignal = true
	case domain == DomainIndianStudent || domain == DomainUSStudent || role == scoring.ClassStudent:
		out.Label = scoring.ClassStudent
	case role == scoring.ClassFounder:
		out.Label = scoring.ClassFounder
	case role == scoring.ClassOperator || domain == DomainTechOperator:
		out.Label = scoring.ClassOperator
	default:
		out.Label = scoring.ClassUnknown
	}
	return out
}

// Domain classifies an email address by its domain and returns the class
// with a country hint.
func Domain(email string) (string, string) {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return DomainUnknown, ""
	}
	domain = strings.ToLower(strings.TrimSpace(domain))

	for _, s := range indianStudentSuffixes {
		if strings.HasSuffix(domain, s) {
			return DomainIndianStudent, "India"
		}
	}
	for _, s := range usStudentSuffixes {
		if strings.HasSuffix(domain, s) {
			return DomainUSStudent, "US/International"
		}
	}
	for _, d := range techDomains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return DomainTechOperator, ""
		}
	}
	return DomainGeneric, ""
}

// Role returns the highest-priority role whose keywords appear in text,
// with the keywords that matched.
func Role(text string) (string, []string) {
	lower := strings.ToLower(text)
	for _, rk := range roleKeywords {
		var hits []string
		for _, k := range rk.keywords {
			if strings.Contains(lower, k) {
				hits = append(hits, k)
			}
		}
		if len(hits) > 0 {
			return rk.role, hits
		}
	}
	return scoring.ClassUnknown, nil
}

func confidence(hits int) string {
	switch {
	case hits >= 2:
		return "high"
	case hits == 1:
		return "medium"
	default:
		return "low"
	}
}
