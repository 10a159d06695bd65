package signals

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func hasType(sigs []Signal, typ string) bool {
	for _, s := range sigs {
		if s.Type == typ {
			return true
		}
	}
	return false
}

func TestExtract_TractionMix(t *testing.T) {
	t.Parallel()

	got := Extract("We have 200 customers and 15L MRR. Raised 1.5Cr from Upekkha.")

	for _, typ := range []string{TypeCustomers, TypeRevenue, TypeFunding} {
		if !hasType(got.Traction, typ) {
			t.Errorf("missing traction type %q in %+v", typ, got.Traction)
		}
	}
}

func TestExtract_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		typ     string
		subtype string
		value   string
	}{
		{"customers", "we now serve 200 paying customers", TypeCustomers, "customer_count", "200"},
		{"mrr", "at 15L MRR today", TypeRevenue, "mrr", "15l"},
		{"raised", "Raised 1.5Cr last year", TypeFunding, "raised", "1.5cr"},
		{"mom growth", "growing 20% MoM", TypeGrowth, "mom_growth", "20%"},
		{"doubled", "we doubled revenue", TypeGrowth, "doubled", "doubled revenue"},
		{"churn", "churn rate of 3%", TypeUnitEconomics, "churn", "3%"},
		{"launch", "launched 8 months ago", TypeExperience, "time_since_launch", "8"},
		{"profit", "profitable in 14 months", TypeProfitability, "time_to_profit", "14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Extract(tt.text)
			for _, s := range got.Traction {
				if s.Type == tt.typ && s.Subtype == tt.subtype {
					if s.Value != tt.value {
						t.Errorf("value = %q, want %q", s.Value, tt.value)
					}
					return
				}
			}
			t.Fatalf("no %s/%s signal in %+v", tt.typ, tt.subtype, got.Traction)
		})
	}
}

func TestExtract_Credentials(t *testing.T) {
	t.Parallel()

	got := Extract("I studied at Stanford, worked at Google for 4 years and we are backed by Sequoia. Serial-time founder here.")

	for _, typ := range []string{TypeEducation, TypeWorkExperience, TypeBacking} {
		if !hasType(got.Credentials, typ) {
			t.Errorf("missing credential type %q in %+v", typ, got.Credentials)
		}
	}
	for _, s := range got.Credentials {
		if s.Value != strings.TrimSpace(s.Value) {
			t.Errorf("credential value %q not trimmed", s.Value)
		}
	}
}

func TestExtract_GroupFallsBackToFullMatch(t *testing.T) {
	t.Parallel()

	got := Extract("I am a third time founder")
	if len(got.Credentials) != 1 {
		t.Fatalf("credentials = %+v, want 1", got.Credentials)
	}
	if got.Credentials[0].Value != got.Credentials[0].Raw {
		t.Errorf("value = %q, want full match %q", got.Credentials[0].Value, got.Credentials[0].Raw)
	}
}

func TestExtract_DedupByRawMatch(t *testing.T) {
	t.Parallel()

	got := Extract("500 customers. 500 customers.")
	if n := len(got.Traction); n != 1 {
		t.Errorf("traction = %d signals, want 1: %+v", n, got.Traction)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	t.Parallel()

	text := "We have 1200 users, 40% MoM growth, CAC of 300 and I worked at Flipkart."
	first := Extract(text)
	second := Extract(text)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second extraction differs (-first +second):\n%s", diff)
	}
}

func TestExtract_Total(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"नमस्ते, हमारे पास 200 ग्राहक हैं",
		"数字 ₹ $$$ (((",
		strings.Repeat("revenue of ₹ ", 2000),
	}
	for _, in := range inputs {
		got := Extract(in)
		if in == "" && got.Count() != 0 {
			t.Errorf("Extract(\"\") = %+v, want no signals", got)
		}
	}
}

func TestResult_Summary(t *testing.T) {
	t.Parallel()

	if got := (Result{}).Summary(); got != "No concrete signals detected" {
		t.Errorf("empty summary = %q", got)
	}
	r := Result{
		Traction:    []Signal{{Type: TypeRevenue}, {Type: TypeCustomers}, {Type: TypeRevenue}},
		Credentials: []Signal{{Type: TypeEducation}},
	}
	want := "Traction signals: customers, revenue; Credential signals: education"
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestStrength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count, turn int
		want        string
	}{
		{0, 1, "none"},
		{1, 1, "moderate"},
		{2, 2, "strong"},
		{1, 3, "weak"},
		{2, 4, "moderate"},
		{3, 5, "strong"},
	}
	for _, tt := range tests {
		if got := Strength(tt.count, tt.turn); got != tt.want {
			t.Errorf("Strength(%d, %d) = %q, want %q", tt.count, tt.turn, got, tt.want)
		}
	}
}
