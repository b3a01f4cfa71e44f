package verdict

import (
	"errors"
	"math"
	"testing"

	"github.com/dharanvel/certvault/internal/model"
)

func strptr(s string) *string { return &s }

func TestNormalizeValidKeepsIdentity(t *testing.T) {
	raw := &model.VerificationResult{
		Status:        "valid",
		Confidence:    0.92,
		Institution:   "Acme U",
		StudentName:   "Jordan Lee",
		CourseName:    "Physics",
		CertificateID: "C-100",
	}
	res, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.Status != model.StatusValid || res.Confidence != 0.92 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Institution != "Acme U" || res.CertificateID != "C-100" {
		t.Fatalf("identity fields should survive for valid: %+v", res)
	}
	if len(res.PossibleMatches) != 0 {
		t.Fatalf("expected no matches, got %d", len(res.PossibleMatches))
	}
}

func TestNormalizeDropsIdentityForNonValid(t *testing.T) {
	for _, status := range []string{"invalid", "suspicious"} {
		raw := &model.VerificationResult{
			Status:        status,
			Confidence:    0.4,
			Institution:   "Leaked U",
			StudentName:   "Leaked Name",
			CourseName:    "Leaked Course",
			CertificateID: "C-LEAK",
		}
		res, err := Normalize(raw)
		if err != nil {
			t.Fatalf("%s: normalize: %v", status, err)
		}
		if res.Institution != "" || res.StudentName != "" || res.CourseName != "" || res.CertificateID != "" {
			t.Fatalf("%s: identity fields must be dropped: %+v", status, res)
		}
	}
}

func TestNormalizeUnknownStatus(t *testing.T) {
	_, err := Normalize(&model.VerificationResult{Status: "pending", Confidence: 0.5})
	var nerr *NormalizationError
	if !errors.As(err, &nerr) || nerr.Kind != "unknown-status" || nerr.Raw != "pending" {
		t.Fatalf("expected unknown-status error, got %v", err)
	}
}

func TestNormalizeNil(t *testing.T) {
	_, err := Normalize(nil)
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected normalization error, got %v", err)
	}
}

func TestNormalizeClampsConfidence(t *testing.T) {
	cases := []struct {
		in      float64
		want    float64
		clamped bool
	}{
		{1.7, 1.0, true},
		{-0.2, 0.0, true},
		{0.853, 0.853, false},
		{0, 0, false},
		{1, 1, false},
		{math.NaN(), 0, true},
	}
	for _, tc := range cases {
		res, err := Normalize(&model.VerificationResult{Status: "invalid", Confidence: tc.in})
		if err != nil {
			t.Fatalf("confidence %v: %v", tc.in, err)
		}
		if res.Confidence != tc.want || res.ConfidenceClamped != tc.clamped {
			t.Fatalf("confidence %v: got (%v, clamped=%v), want (%v, clamped=%v)",
				tc.in, res.Confidence, res.ConfidenceClamped, tc.want, tc.clamped)
		}
	}
}

func TestNormalizeSuspiciousKeepsMatchesInOrder(t *testing.T) {
	raw := &model.VerificationResult{
		Status:     "suspicious",
		Confidence: 0.4,
		PossibleMatches: []model.PossibleMatch{
			{InstitutionName: strptr("X"), Similarity: 0.6},
			{InstitutionName: strptr("Y"), Similarity: 0.3},
		},
	}
	res, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(res.PossibleMatches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(res.PossibleMatches))
	}
	if *res.PossibleMatches[0].InstitutionName != "X" || *res.PossibleMatches[1].InstitutionName != "Y" {
		t.Fatalf("match order must be preserved: %+v", res.PossibleMatches)
	}
	if res.Institution != "" || res.CertificateID != "" {
		t.Fatalf("suspicious verdict must not expose identity fields: %+v", res)
	}
}

func TestNormalizeTruncatesMatches(t *testing.T) {
	raw := &model.VerificationResult{Status: "suspicious", Confidence: 0.5}
	for i := 0; i < 5; i++ {
		raw.PossibleMatches = append(raw.PossibleMatches, model.PossibleMatch{Similarity: 0.9 - float64(i)*0.1})
	}
	res, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(res.PossibleMatches) != maxDisplayMatches {
		t.Fatalf("expected %d matches, got %d", maxDisplayMatches, len(res.PossibleMatches))
	}
	for i := 1; i < len(res.PossibleMatches); i++ {
		if res.PossibleMatches[i].Similarity > res.PossibleMatches[i-1].Similarity {
			t.Fatalf("truncation must not reorder matches: %+v", res.PossibleMatches)
		}
	}
	if len(raw.PossibleMatches) != 5 {
		t.Fatalf("input slice must not be mutated, got %d", len(raw.PossibleMatches))
	}
}
