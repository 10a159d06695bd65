package classify

import (
	"testing"

	"github.com/linnemanlabs/screener/internal/scoring"
)

func TestDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  string
	}{
		{"asha@iitb.ac.in", DomainIndianStudent},
		{"sam@cs.stanford.edu", DomainUSStudent},
		{"dev@google.com", DomainTechOperator},
		{"dev@cloud.Google.com", DomainTechOperator},
		{"dev@notgoogle.com", DomainGeneric},
		{"someone@gmail.com", DomainGeneric},
		{"not-an-email", DomainUnknown},
		{"", DomainUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			t.Parallel()
			if got, _ := Domain(tt.email); got != tt.want {
				t.Errorf("Domain(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		email     string
		text      string
		want      string
		lowSignal bool
	}{
		{"partnership beats founder", "a@gmail.com", "Founder here with a partnership proposal", scoring.ClassPartnership, true},
		{"founder", "a@gmail.com", "I'm the co-founder of a bootstrapped startup", scoring.ClassFounder, false},
		{"operator by keyword", "a@gmail.com", "Engineer at a payments company", scoring.ClassOperator, false},
		{"operator by domain", "a@razorpay.com", "Hi there", scoring.ClassOperator, false},
		{"student by domain", "a@iitd.ac.in", "Hi there", scoring.ClassStudent, false},
		{"student domain beats founder role", "a@mit.edu", "I'm building a robotics startup", scoring.ClassStudent, false},
		{"student by keyword", "", "Currently studying economics", scoring.ClassStudent, false},
		{"unknown", "a@gmail.com", "Hello", scoring.ClassUnknown, false},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := c.Classify(tt.email, tt.text)
			if got.Label != tt.want || got.LowSignal != tt.lowSignal {
				t.Errorf("Classify = %+v, want label %q low signal %v", got, tt.want, tt.lowSignal)
			}
		})
	}
}

func TestRole_Confidence(t *testing.T) {
	t.Parallel()

	got := New().Classify("", "Founder and CEO")
	if got.Confidence != "high" || len(got.RoleKeywords) != 2 {
		t.Errorf("got %+v, want two keywords with high confidence", got)
	}
}
