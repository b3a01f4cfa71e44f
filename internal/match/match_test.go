package match

import (
	"testing"

	"github.com/dharanvel/certvault/internal/model"
)

func strptr(s string) *string { return &s }

const acmeText = "acme university certificate of completion awarded to jordan lee for applied physics june 2023"

func corpus() []Record {
	return []Record{
		{
			CertificateID:  "C-1",
			Institution:    strptr("Acme University"),
			StudentName:    "Jordan Lee",
			CourseName:     "Applied Physics",
			NormalizedText: acmeText,
		},
		{
			CertificateID:  "C-2",
			Institution:    strptr("Northfield College"),
			NormalizedText: "northfield college diploma in fine arts granted to casey morgan spring 2021",
		},
		{
			CertificateID: "C-3",
			// No corpus text yet; must be skipped, never matched.
		},
	}
}

func TestNormalizeText(t *testing.T) {
	got := NormalizeText("  Acme University,\n Certificate #42!  ")
	if got != "acme university certificate 42" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestEvaluateExactMatchIsValid(t *testing.T) {
	res := Evaluate("Acme University Certificate of Completion awarded to Jordan Lee for Applied Physics June 2023", corpus())
	if res.Status != string(model.StatusValid) {
		t.Fatalf("expected valid, got %s (%s)", res.Status, res.Message)
	}
	if res.CertificateID != "C-1" || res.Institution != "Acme University" {
		t.Fatalf("unexpected identity: %+v", res)
	}
	if res.Confidence < validThreshold {
		t.Fatalf("confidence %v below valid threshold", res.Confidence)
	}
	if len(res.PossibleMatches) != 0 {
		t.Fatalf("valid verdict must not list matches: %+v", res.PossibleMatches)
	}
}

func TestEvaluateNoMatchIsInvalid(t *testing.T) {
	res := Evaluate("completely unrelated shipping manifest with container numbers", corpus())
	if res.Status != string(model.StatusInvalid) {
		t.Fatalf("expected invalid, got %s", res.Status)
	}
	if res.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %v", res.Confidence)
	}
}

func TestEvaluateEmptyTextIsInvalid(t *testing.T) {
	res := Evaluate("   \n  ", corpus())
	if res.Status != string(model.StatusInvalid) || res.Message == "" {
		t.Fatalf("expected invalid with message, got %+v", res)
	}
}

func TestEvaluatePartialMatchIsSuspicious(t *testing.T) {
	// Shares roughly half its content with C-1: enough to be a candidate,
	// not enough to clear the valid threshold.
	res := Evaluate("acme university certificate of completion for an entirely different graduate in economics class of 1999 with honors distinction", corpus())
	if res.Status != string(model.StatusSuspicious) {
		t.Fatalf("expected suspicious, got %s (confidence %v)", res.Status, res.Confidence)
	}
	if len(res.PossibleMatches) == 0 {
		t.Fatal("suspicious verdict must carry possible matches")
	}
	for i := 1; i < len(res.PossibleMatches); i++ {
		if res.PossibleMatches[i].Similarity > res.PossibleMatches[i-1].Similarity {
			t.Fatalf("matches must be sorted by descending similarity: %+v", res.PossibleMatches)
		}
	}
	if res.Institution != "" || res.StudentName != "" {
		t.Fatalf("suspicious verdict must not carry identity fields: %+v", res)
	}
	if res.Confidence != res.PossibleMatches[0].Similarity {
		t.Fatalf("confidence must equal the best similarity: %+v", res)
	}
}

func TestEvaluateCapsReportedMatches(t *testing.T) {
	var records []Record
	base := "acme university certificate of completion awarded for study"
	for i := 0; i < 6; i++ {
		records = append(records, Record{
			CertificateID:  string(rune('A' + i)),
			NormalizedText: base + " variant " + string(rune('a'+i)),
		})
	}
	res := Evaluate("acme university certificate of completion awarded to somebody else for maritime navigation", records)
	if res.Status != string(model.StatusSuspicious) {
		t.Fatalf("expected suspicious, got %s", res.Status)
	}
	if len(res.PossibleMatches) > maxReportedMatches {
		t.Fatalf("expected at most %d matches, got %d", maxReportedMatches, len(res.PossibleMatches))
	}
}
