// Package verdict normalizes the heterogeneous verification payload into a
// single well-defined shape for presentation. It never trusts upstream to be
// consistent: identity fields are dropped for non-valid statuses and numeric
// noise in the confidence score is clamped rather than surfaced.
package verdict

import (
	"fmt"
	"math"

	"github.com/dharanvel/certvault/internal/model"
)

// maxDisplayMatches bounds how many possible matches are kept for display.
// Order is preserved; upstream sorts by descending similarity.
const maxDisplayMatches = 3

// Result is the normalized verdict. Identity fields are populated only when
// Status is valid.
type Result struct {
	Status            model.VerificationStatus
	Confidence        float64
	ConfidenceClamped bool
	Institution       string
	StudentName       string
	CourseName        string
	CertificateID     string
	IssueDate         string
	CertificateType   string
	Message           string
	PossibleMatches   []model.PossibleMatch
}

// NormalizationError reports a verdict shape the client does not understand.
// Callers surface it as a generic "unable to interpret result" message
// rather than exposing the raw payload.
type NormalizationError struct {
	Kind string
	Raw  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("unable to interpret verification result (%s: %q)", e.Kind, e.Raw)
}

// Normalize converts a raw wire verdict into a Result. Unknown statuses are
// an error; an out-of-range confidence is clamped to the nearest boundary
// and flagged, because upstream numeric noise should not break display.
func Normalize(raw *model.VerificationResult) (*Result, error) {
	if raw == nil {
		return nil, &NormalizationError{Kind: "missing-result"}
	}
	status, ok := parseStatus(raw.Status)
	if !ok {
		return nil, &NormalizationError{Kind: "unknown-status", Raw: raw.Status}
	}
	confidence, clamped := clampConfidence(raw.Confidence)
	out := &Result{
		Status:            status,
		Confidence:        confidence,
		ConfidenceClamped: clamped,
		Message:           raw.Message,
	}
	if status == model.StatusValid {
		out.Institution = raw.Institution
		out.StudentName = raw.StudentName
		out.CourseName = raw.CourseName
		out.CertificateID = raw.CertificateID
		out.IssueDate = raw.IssueDate
		out.CertificateType = raw.CertificateType
	}
	if len(raw.PossibleMatches) > 0 {
		matches := raw.PossibleMatches
		if len(matches) > maxDisplayMatches {
			matches = matches[:maxDisplayMatches]
		}
		out.PossibleMatches = append([]model.PossibleMatch(nil), matches...)
	}
	return out, nil
}

func parseStatus(s string) (model.VerificationStatus, bool) {
	switch model.VerificationStatus(s) {
	case model.StatusValid, model.StatusInvalid, model.StatusSuspicious:
		return model.VerificationStatus(s), true
	}
	return "", false
}

func clampConfidence(v float64) (float64, bool) {
	if math.IsNaN(v) {
		return 0, true
	}
	if v < 0 {
		return 0, true
	}
	if v > 1 {
		return 1, true
	}
	return v, false
}
