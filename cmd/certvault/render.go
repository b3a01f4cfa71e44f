package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dharanvel/certvault/internal/certfile"
	"github.com/dharanvel/certvault/internal/dashboard"
	"github.com/dharanvel/certvault/internal/model"
	"github.com/dharanvel/certvault/internal/verdict"
)

// trendBarWidth is the character width of a full dashboard trend bar.
const trendBarWidth = 20

func renderVerdict(w io.Writer, r *verdict.Result) {
	fmt.Fprintf(w, "Status:     %s\n", strings.ToUpper(string(r.Status)))
	adjusted := ""
	if r.ConfidenceClamped {
		adjusted = " (adjusted)"
	}
	fmt.Fprintf(w, "Confidence: %.1f%%%s\n", r.Confidence*100, adjusted)
	if r.Message != "" {
		fmt.Fprintf(w, "Note:       %s\n", r.Message)
	}
	if r.Status == model.StatusValid {
		fmt.Fprintln(w)
		if r.CertificateID != "" {
			fmt.Fprintf(w, "Certificate: %s\n", r.CertificateID)
		}
		if r.Institution != "" {
			fmt.Fprintf(w, "Institution: %s\n", r.Institution)
		}
		if r.StudentName != "" {
			fmt.Fprintf(w, "Student:     %s\n", r.StudentName)
		}
		if r.CourseName != "" {
			fmt.Fprintf(w, "Course:      %s\n", r.CourseName)
		}
		if r.IssueDate != "" {
			fmt.Fprintf(w, "Issued:      %s\n", r.IssueDate)
		}
		if r.CertificateType != "" {
			fmt.Fprintf(w, "Type:        %s\n", r.CertificateType)
		}
	}
	if len(r.PossibleMatches) > 0 {
		fmt.Fprintf(w, "\nPossible matches:\n")
		for i, m := range r.PossibleMatches {
			name := "Unknown"
			if m.InstitutionName != nil && *m.InstitutionName != "" {
				name = *m.InstitutionName
			}
			fmt.Fprintf(w, "  %d. %s (%.1f%% similar, id %s)\n", i+1, name, m.Similarity*100, m.CertificateID)
		}
	}
}

func renderArtifact(w io.Writer, intent certfile.Intent, a *model.UploadArtifact) {
	if a == nil {
		return
	}
	fmt.Fprintf(w, "%s\n", a.Message)
	fmt.Fprintf(w, "Certificate: %s\n", a.CertificateID)
	if intent == certfile.IntentDigitalUpload {
		fmt.Fprintf(w, "QR code:     %s\n", a.QRCodeURL)
		fmt.Fprintf(w, "Verify at:   %s\n", a.VerificationURL)
		return
	}
	if a.ExtractedText != "" {
		fmt.Fprintf(w, "\nExtracted text:\n%s\n", a.ExtractedText)
	}
}

func renderDashboard(w io.Writer, s *dashboard.Summary) {
	fmt.Fprintf(w, "Certificates:  %d total, %d in the last 30 days\n",
		s.Totals.TotalCertificates, s.Totals.RecentUploads)
	fmt.Fprintf(w, "Verifications: %d total, %d in the last 7 days\n",
		s.Totals.TotalVerifications, s.Totals.RecentVerifications)

	if len(s.TypeShares) > 0 {
		fmt.Fprintf(w, "\nBy type:\n")
		for _, share := range s.TypeShares {
			fmt.Fprintf(w, "  %-12s %5d  %5.1f%%\n", share.Label, share.Count, share.Fraction*100)
		}
	}
	if len(s.OutcomeShares) > 0 {
		fmt.Fprintf(w, "\nBy outcome:\n")
		for _, share := range s.OutcomeShares {
			fmt.Fprintf(w, "  %-12s %5d  %5.1f%%\n", share.Label, share.Count, share.Fraction*100)
		}
	}
	if len(s.TopInstitutions) > 0 {
		fmt.Fprintf(w, "\nTop institutions:\n")
		for i, inst := range s.TopInstitutions {
			fmt.Fprintf(w, "  %d. %s (%d)\n", i+1, inst.Name, inst.Count)
		}
	}
	if len(s.Trend) > 0 {
		fmt.Fprintf(w, "\nUploads:\n")
		for _, point := range s.Trend {
			fmt.Fprintf(w, "  %s %-*s %d\n", point.Date, trendBarWidth, trendBar(point.BarFraction), point.Count)
		}
	}
}

func trendBar(fraction float64) string {
	n := int(fraction*trendBarWidth + 0.5)
	if n > trendBarWidth {
		n = trendBarWidth
	}
	if n < 0 {
		n = 0
	}
	return strings.Repeat("#", n)
}
