package main

import (
	"strings"
	"testing"

	"github.com/dharanvel/certvault/internal/dashboard"
	"github.com/dharanvel/certvault/internal/model"
	"github.com/dharanvel/certvault/internal/verdict"
)

func TestRenderVerdictValid(t *testing.T) {
	var buf strings.Builder
	renderVerdict(&buf, &verdict.Result{
		Status:        model.StatusValid,
		Confidence:    0.92,
		CertificateID: "cert-1",
		Institution:   "State University",
		StudentName:   "Jordan Lee",
		CourseName:    "Physics",
	})
	out := buf.String()
	for _, want := range []string{"VALID", "92.0%", "State University", "Jordan Lee", "Physics"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderVerdictSuspiciousHidesIdentity(t *testing.T) {
	name := "State University"
	var buf strings.Builder
	renderVerdict(&buf, &verdict.Result{
		Status:     model.StatusSuspicious,
		Confidence: 0.45,
		Message:    "Certificate found but with low similarity score",
		PossibleMatches: []model.PossibleMatch{
			{CertificateID: "cert-1", InstitutionName: &name, Similarity: 0.45},
			{CertificateID: "cert-2", InstitutionName: nil, Similarity: 0.31},
		},
	})
	out := buf.String()
	if !strings.Contains(out, "SUSPICIOUS") {
		t.Fatalf("missing status:\n%s", out)
	}
	if !strings.Contains(out, "1. State University") {
		t.Fatalf("missing first match:\n%s", out)
	}
	if !strings.Contains(out, "2. Unknown") {
		t.Fatalf("nil institution should render as Unknown:\n%s", out)
	}
}

func TestRenderVerdictClampedFlag(t *testing.T) {
	var buf strings.Builder
	renderVerdict(&buf, &verdict.Result{
		Status:            model.StatusInvalid,
		Confidence:        1.0,
		ConfidenceClamped: true,
	})
	if !strings.Contains(buf.String(), "(adjusted)") {
		t.Fatalf("clamped confidence should be marked:\n%s", buf.String())
	}
}

func TestRenderDashboardEmpty(t *testing.T) {
	var buf strings.Builder
	renderDashboard(&buf, &dashboard.Summary{})
	out := buf.String()
	if !strings.Contains(out, "0 total") {
		t.Fatalf("empty dashboard should still show totals:\n%s", out)
	}
	if strings.Contains(out, "Top institutions") {
		t.Fatalf("empty dashboard should omit institutions:\n%s", out)
	}
}

func TestTrendBarBounds(t *testing.T) {
	if got := trendBar(1.0); len(got) != trendBarWidth {
		t.Fatalf("full bar length = %d", len(got))
	}
	if got := trendBar(0); got != "" {
		t.Fatalf("zero bar = %q", got)
	}
	if got := trendBar(2.0); len(got) != trendBarWidth {
		t.Fatalf("overflow bar length = %d", len(got))
	}
}
