// Package match compares an uploaded certificate's text against the stored
// corpus and builds the verification verdict: valid above the similarity
// threshold, suspicious when candidates exist but none clears it, invalid
// when nothing in the corpus comes close.
package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/dharanvel/certvault/internal/model"
)

const (
	// candidateThreshold is the minimum similarity for a record to count as
	// a possible match at all.
	candidateThreshold = 0.3
	// validThreshold is the similarity at which the best match is accepted
	// as authentic.
	validThreshold = 0.7
	// maxReportedMatches caps the possible_matches list in a suspicious
	// verdict.
	maxReportedMatches = 3
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
)

// NormalizeText lowercases, strips punctuation, and collapses whitespace so
// OCR noise does not dominate the comparison.
func NormalizeText(text string) string {
	text = strings.ToLower(text)
	text = nonAlnumRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Record is one corpus entry eligible for matching.
type Record struct {
	CertificateID   string
	Institution     *string
	StudentName     string
	CourseName      string
	CertificateType string
	NormalizedText  string
}

type scored struct {
	record     Record
	similarity float64
}

// Evaluate scores sampleText against the corpus and returns the verdict. The
// possible_matches list is sorted by descending similarity before it leaves
// this package; consumers rely on that order.
func Evaluate(sampleText string, corpus []Record) *model.VerificationResult {
	sample := NormalizeText(sampleText)
	if sample == "" {
		return &model.VerificationResult{
			Status:     string(model.StatusInvalid),
			Confidence: 0,
			Message:    "No readable text could be extracted from the document",
		}
	}

	// Normalized Levenshtein keeps unrelated documents well below the
	// candidate threshold, unlike bag-of-ngram metrics which reward any
	// shared English text.
	metric := metrics.NewLevenshtein()
	var candidates []scored
	for _, rec := range corpus {
		if rec.NormalizedText == "" {
			continue
		}
		similarity := strutil.Similarity(sample, rec.NormalizedText, metric)
		if similarity > candidateThreshold {
			candidates = append(candidates, scored{record: rec, similarity: similarity})
		}
	}
	if len(candidates) == 0 {
		return &model.VerificationResult{
			Status:     string(model.StatusInvalid),
			Confidence: 0,
			Message:    "No matching certificate found in database",
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})
	best := candidates[0]
	if best.similarity >= validThreshold {
		result := &model.VerificationResult{
			Status:        string(model.StatusValid),
			Confidence:    best.similarity,
			CertificateID: best.record.CertificateID,
			Institution:   institutionName(best.record),
			StudentName:   best.record.StudentName,
			CourseName:    best.record.CourseName,
		}
		return result
	}

	limit := maxReportedMatches
	if len(candidates) < limit {
		limit = len(candidates)
	}
	matches := make([]model.PossibleMatch, 0, limit)
	for _, c := range candidates[:limit] {
		matches = append(matches, model.PossibleMatch{
			CertificateID:   c.record.CertificateID,
			InstitutionName: c.record.Institution,
			Similarity:      c.similarity,
		})
	}
	return &model.VerificationResult{
		Status:          string(model.StatusSuspicious),
		Confidence:      best.similarity,
		Message:         "Certificate found but with low similarity score",
		PossibleMatches: matches,
	}
}

func institutionName(rec Record) string {
	if rec.Institution != nil && *rec.Institution != "" {
		return *rec.Institution
	}
	return "Unknown"
}
