package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharanvel/certvault/internal/model"
)

// ErrNotFound is returned when a certificate id has no record.
var ErrNotFound = errors.New("certificate not found")

// CertificateType distinguishes scanned from natively digital documents.
type CertificateType string

const (
	TypeLegacy  CertificateType = "legacy"
	TypeDigital CertificateType = "digital"
)

// Certificate represents a row in the certificates table.
type Certificate struct {
	ID              string          `json:"id"`
	CertificateType CertificateType `json:"certificateType"`
	InstitutionName *string         `json:"institutionName,omitempty"`
	StudentName     *string         `json:"studentName,omitempty"`
	CourseName      *string         `json:"courseName,omitempty"`
	ExtractedText   string          `json:"extractedText,omitempty"`
	NormalizedText  string          `json:"-"`
	IssueDate       *time.Time      `json:"issueDate,omitempty"`
	FileName        string          `json:"fileName"`
	FileType        string          `json:"fileType"`
	FileSize        int64           `json:"fileSize"`
	ObjectKey       string          `json:"objectKey"`
	QRObjectKey     *string         `json:"qrObjectKey,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// VerificationLog records one verification attempt for the dashboard.
type VerificationLog struct {
	ID            string
	CertificateID string
	Result        string
	Confidence    float64
	ClientIP      string
	CreatedAt     time.Time
}

// CertificateRepository wraps all SQL used by the API and worker.
type CertificateRepository struct {
	pool *pgxpool.Pool
}

// NewCertificateRepository constructs a repository.
func NewCertificateRepository(pool *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{pool: pool}
}

// Create inserts a freshly uploaded certificate.
func (r *CertificateRepository) Create(ctx context.Context, cert *Certificate) error {
	now := time.Now().UTC()
	cert.CreatedAt = now
	cert.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO certificates
			(id, certificate_type, institution_name, student_name, course_name,
			 extracted_text, normalized_text, issue_date, file_name, file_type,
			 file_size, object_key, qr_object_key, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, cert.ID, cert.CertificateType, cert.InstitutionName, cert.StudentName,
		cert.CourseName, cert.ExtractedText, cert.NormalizedText, cert.IssueDate,
		cert.FileName, cert.FileType, cert.FileSize, cert.ObjectKey,
		cert.QRObjectKey, cert.CreatedAt, cert.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

// Get returns a certificate by id.
func (r *CertificateRepository) Get(ctx context.Context, id string) (*Certificate, error) {
	var cert Certificate
	row := r.pool.QueryRow(ctx, `
		SELECT id, certificate_type, institution_name, student_name, course_name,
			COALESCE(extracted_text,''), COALESCE(normalized_text,''), issue_date,
			file_name, file_type, file_size, object_key, qr_object_key,
			created_at, updated_at
		FROM certificates WHERE id=$1
	`, id)
	err := row.Scan(&cert.ID, &cert.CertificateType, &cert.InstitutionName,
		&cert.StudentName, &cert.CourseName, &cert.ExtractedText,
		&cert.NormalizedText, &cert.IssueDate, &cert.FileName, &cert.FileType,
		&cert.FileSize, &cert.ObjectKey, &cert.QRObjectKey, &cert.CreatedAt,
		&cert.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select certificate: %w", err)
	}
	return &cert, nil
}

// SetNormalizedText stores the match-corpus text produced by the indexer.
func (r *CertificateRepository) SetNormalizedText(ctx context.Context, id, normalized string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE certificates SET normalized_text=$1, updated_at=$2 WHERE id=$3
	`, normalized, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update normalized text: %w", err)
	}
	return nil
}

// CorpusEntry is the slice of a certificate row the matcher needs.
type CorpusEntry struct {
	ID              string
	InstitutionName *string
	StudentName     *string
	CourseName      *string
	CertificateType CertificateType
	NormalizedText  string
}

// ListCorpus returns every certificate with indexed text, the candidate pool
// for file verification.
func (r *CertificateRepository) ListCorpus(ctx context.Context) ([]CorpusEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, institution_name, student_name, course_name, certificate_type,
			normalized_text
		FROM certificates
		WHERE normalized_text IS NOT NULL AND normalized_text <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("select corpus: %w", err)
	}
	defer rows.Close()
	var out []CorpusEntry
	for rows.Next() {
		var entry CorpusEntry
		if err := rows.Scan(&entry.ID, &entry.InstitutionName, &entry.StudentName,
			&entry.CourseName, &entry.CertificateType, &entry.NormalizedText); err != nil {
			return nil, fmt.Errorf("scan corpus row: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corpus: %w", err)
	}
	return out, nil
}

// LogVerification records a verification attempt.
func (r *CertificateRepository) LogVerification(ctx context.Context, entry *VerificationLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO verification_logs (id, certificate_id, result, confidence, client_ip, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.CertificateID, entry.Result, entry.Confidence, entry.ClientIP, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert verification log: %w", err)
	}
	return nil
}

// Analytics aggregates the dashboard snapshot: headline totals, type and
// outcome distributions, the institution leaderboard, and the 30-day upload
// trend. Institutions and daily buckets come back pre-sorted; clients trust
// that order.
func (r *CertificateRepository) Analytics(ctx context.Context, now time.Time) (*model.Analytics, error) {
	out := &model.Analytics{}
	thirtyDaysAgo := now.AddDate(0, 0, -30)
	sevenDaysAgo := now.AddDate(0, 0, -7)

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM certificates),
			(SELECT COUNT(*) FROM certificates WHERE created_at >= $1),
			(SELECT COUNT(*) FROM verification_logs),
			(SELECT COUNT(*) FROM verification_logs WHERE created_at >= $2)
	`, thirtyDaysAgo, sevenDaysAgo).Scan(
		&out.Summary.TotalCertificates,
		&out.Summary.RecentUploads,
		&out.Summary.TotalVerifications,
		&out.Summary.RecentVerifications,
	)
	if err != nil {
		return nil, fmt.Errorf("select totals: %w", err)
	}

	if err := r.queryCounts(ctx, `
		SELECT certificate_type, COUNT(*) FROM certificates GROUP BY certificate_type
	`, func(label string, count int) {
		out.CertificateTypes = append(out.CertificateTypes, model.TypeCount{Type: label, Count: count})
	}); err != nil {
		return nil, fmt.Errorf("select type counts: %w", err)
	}

	if err := r.queryCounts(ctx, `
		SELECT result, COUNT(*) FROM verification_logs GROUP BY result
	`, func(label string, count int) {
		out.VerificationResults = append(out.VerificationResults, model.ResultCount{Result: label, Count: count})
	}); err != nil {
		return nil, fmt.Errorf("select result counts: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT institution_name, COUNT(*) AS n
		FROM certificates
		WHERE institution_name IS NOT NULL
		GROUP BY institution_name
		ORDER BY n DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("select top institutions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entry model.InstitutionCount
		if err := rows.Scan(&entry.Name, &entry.Count); err != nil {
			return nil, fmt.Errorf("scan institution row: %w", err)
		}
		out.TopInstitutions = append(out.TopInstitutions, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate institutions: %w", err)
	}

	dailyRows, err := r.pool.Query(ctx, `
		SELECT TO_CHAR(created_at::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM certificates
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`, thirtyDaysAgo)
	if err != nil {
		return nil, fmt.Errorf("select daily uploads: %w", err)
	}
	defer dailyRows.Close()
	for dailyRows.Next() {
		var entry model.DailyCount
		if err := dailyRows.Scan(&entry.Date, &entry.Count); err != nil {
			return nil, fmt.Errorf("scan daily row: %w", err)
		}
		out.DailyUploads = append(out.DailyUploads, entry)
	}
	if err := dailyRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily uploads: %w", err)
	}

	return out, nil
}

func (r *CertificateRepository) queryCounts(ctx context.Context, query string, visit func(label string, count int)) error {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return err
		}
		visit(label, count)
	}
	return rows.Err()
}
