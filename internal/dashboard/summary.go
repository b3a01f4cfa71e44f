// Package dashboard reshapes the raw analytics payload into the ranked and
// bucketed views the dashboard renders. It tolerates missing fields and an
// empty store; it never re-derives ordering the service already provides.
package dashboard

import "github.com/dharanvel/certvault/internal/model"

const (
	// trendWindow is how many trailing days of the upload series are shown.
	trendWindow = 10
	// institutionLimit bounds the institution ranking for display.
	institutionLimit = 8
	// unknownInstitution stands in for records without a parsed name.
	unknownInstitution = "Unknown"
)

// Share is one entry of a distribution with its fraction of the total.
type Share struct {
	Label    string
	Count    int
	Fraction float64
}

// RankedInstitution is one row of the institution leaderboard.
type RankedInstitution struct {
	Name  string
	Count int
}

// TrendPoint is one day of the windowed upload trend. BarFraction is scaled
// against the maximum of the full provided series, not just the window, so a
// recent quiet day does not render as a misleading near-zero bar.
type TrendPoint struct {
	Date        string
	Count       int
	BarFraction float64
}

// Summary is the display-ready analytics view.
type Summary struct {
	Totals          model.AnalyticsTotals
	TypeShares      []Share
	OutcomeShares   []Share
	TopInstitutions []RankedInstitution
	Trend           []TrendPoint
}

// Summarize reshapes a raw analytics payload. It assumes the service already
// ranked institutions by descending count and only takes a bounded prefix.
func Summarize(raw *model.Analytics) *Summary {
	if raw == nil {
		return &Summary{}
	}
	s := &Summary{Totals: raw.Summary}

	for _, tc := range raw.CertificateTypes {
		s.TypeShares = append(s.TypeShares, Share{
			Label:    tc.Type,
			Count:    tc.Count,
			Fraction: fraction(tc.Count, raw.Summary.TotalCertificates),
		})
	}
	for _, rc := range raw.VerificationResults {
		s.OutcomeShares = append(s.OutcomeShares, Share{
			Label:    rc.Result,
			Count:    rc.Count,
			Fraction: fraction(rc.Count, raw.Summary.TotalVerifications),
		})
	}

	institutions := raw.TopInstitutions
	if len(institutions) > institutionLimit {
		institutions = institutions[:institutionLimit]
	}
	for _, inst := range institutions {
		name := unknownInstitution
		if inst.Name != nil && *inst.Name != "" {
			name = *inst.Name
		}
		s.TopInstitutions = append(s.TopInstitutions, RankedInstitution{Name: name, Count: inst.Count})
	}

	s.Trend = trend(raw.DailyUploads)
	return s
}

func trend(series []model.DailyCount) []TrendPoint {
	if len(series) == 0 {
		return nil
	}
	seriesMax := 0
	for _, d := range series {
		if d.Count > seriesMax {
			seriesMax = d.Count
		}
	}
	window := series
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}
	out := make([]TrendPoint, 0, len(window))
	for _, d := range window {
		out = append(out, TrendPoint{
			Date:        d.Date,
			Count:       d.Count,
			BarFraction: fraction(d.Count, seriesMax),
		})
	}
	return out
}

func fraction(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total)
}
