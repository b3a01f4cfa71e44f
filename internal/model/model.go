// Package model contains the wire-level types shared between the API server
// and the client: verification verdicts, upload artifacts, and the dashboard
// analytics payload.
package model

// VerificationStatus is the outcome of a verification attempt.
type VerificationStatus string

const (
	StatusValid      VerificationStatus = "valid"
	StatusInvalid    VerificationStatus = "invalid"
	StatusSuspicious VerificationStatus = "suspicious"
)

// PossibleMatch is a candidate institutional record returned when no exact
// match could be established. The service sorts matches by descending
// similarity; consumers rely on that order and never re-sort.
type PossibleMatch struct {
	CertificateID   string  `json:"certificate_id,omitempty"`
	InstitutionName *string `json:"institution_name"`
	Similarity      float64 `json:"similarity"`
}

// VerificationResult is the raw verdict as it travels over the wire. Identity
// fields are only meaningful when Status is "valid"; the client drops them
// otherwise regardless of what the service sent.
type VerificationResult struct {
	Status          string          `json:"status"`
	Confidence      float64         `json:"confidence"`
	Institution     string          `json:"institution,omitempty"`
	StudentName     string          `json:"student_name,omitempty"`
	CourseName      string          `json:"course_name,omitempty"`
	CertificateID   string          `json:"certificate_id,omitempty"`
	IssueDate       string          `json:"issue_date,omitempty"`
	CertificateType string          `json:"certificate_type,omitempty"`
	Message         string          `json:"message,omitempty"`
	PossibleMatches []PossibleMatch `json:"possible_matches,omitempty"`
}

// VerifyResponse wraps a verdict for the verify endpoints.
type VerifyResponse struct {
	Success            bool               `json:"success"`
	CertificateID      string             `json:"certificate_id,omitempty"`
	VerificationResult VerificationResult `json:"verification_result"`
	Timestamp          string             `json:"timestamp,omitempty"`
}

// LegacyUploadResponse is returned after OCR processing of a scanned
// certificate.
type LegacyUploadResponse struct {
	Success       bool   `json:"success"`
	CertificateID string `json:"certificate_id"`
	ExtractedText string `json:"extracted_text"`
	Message       string `json:"message"`
}

// DigitalUploadResponse is returned after a QR artifact has been generated
// for a natively digital certificate.
type DigitalUploadResponse struct {
	Success         bool   `json:"success"`
	CertificateID   string `json:"certificate_id"`
	QRCodeURL       string `json:"qr_code_url"`
	VerificationURL string `json:"verification_url"`
	Message         string `json:"message"`
}

// UploadArtifact is the client-side view of a successful upload. Exactly one
// of ExtractedText (legacy) or QRCodeURL (digital) is populated.
type UploadArtifact struct {
	CertificateID   string
	ExtractedText   string
	QRCodeURL       string
	VerificationURL string
	Message         string
}

// ErrorResponse is the failure shape shared by every endpoint. Detail is
// optional; clients fall back to an operation-specific message when absent.
type ErrorResponse struct {
	Detail string `json:"detail,omitempty"`
}

// AnalyticsTotals holds the headline counters of the dashboard payload.
type AnalyticsTotals struct {
	TotalCertificates   int `json:"total_certificates"`
	RecentUploads       int `json:"recent_uploads"`
	TotalVerifications  int `json:"total_verifications"`
	RecentVerifications int `json:"recent_verifications"`
}

// TypeCount is one entry of the certificate-type distribution.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ResultCount is one entry of the verification-outcome distribution.
type ResultCount struct {
	Result string `json:"result"`
	Count  int    `json:"count"`
}

// InstitutionCount ranks an institution by certificate volume. Name is
// nullable because legacy records may predate institution parsing.
type InstitutionCount struct {
	Name  *string `json:"name"`
	Count int     `json:"count"`
}

// DailyCount is one day of the upload trend series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Analytics is the aggregate dashboard snapshot. It is read-only for clients
// and re-fetched wholesale on each view entry.
type Analytics struct {
	Summary             AnalyticsTotals    `json:"summary"`
	CertificateTypes    []TypeCount        `json:"certificate_types"`
	VerificationResults []ResultCount      `json:"verification_results"`
	TopInstitutions     []InstitutionCount `json:"top_institutions"`
	DailyUploads        []DailyCount       `json:"daily_uploads"`
}
