// Package api exposes the HTTP surface of the certificate validator: upload,
// verification, and dashboard endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/dharanvel/certvault/internal/certfile"
	"github.com/dharanvel/certvault/internal/config"
	"github.com/dharanvel/certvault/internal/extract"
	"github.com/dharanvel/certvault/internal/match"
	"github.com/dharanvel/certvault/internal/model"
	"github.com/dharanvel/certvault/internal/qr"
	"github.com/dharanvel/certvault/internal/queue"
	"github.com/dharanvel/certvault/internal/repository"
	"github.com/dharanvel/certvault/internal/s3storage"
)

// extractedTextPreview bounds how much OCR text the upload response echoes.
const extractedTextPreview = 500

// Server exposes HTTP endpoints for certificate uploads and verification.
type Server struct {
	cfg    *config.Config
	log    *logrus.Logger
	repo   *repository.CertificateRepository
	store  *s3storage.Storage
	queue  *asynq.Client
	server *http.Server
	once   sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, log *logrus.Logger, repo *repository.CertificateRepository, store *s3storage.Storage, queueClient *asynq.Client) *Server {
	return &Server{
		cfg:   cfg,
		log:   log,
		repo:  repo,
		store: store,
		queue: queueClient,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/", s.handleRoot)
		mux.HandleFunc("/healthz", s.handleHealth)
		mux.HandleFunc("/api/upload/legacy", s.handleLegacyUpload)
		mux.HandleFunc("/api/upload/digital", s.handleDigitalUpload)
		mux.HandleFunc("/api/verify/", s.handleVerifyRoute)
		mux.HandleFunc("/api/dashboard/analytics", s.handleAnalytics)
		s.server = &http.Server{
			Addr:    s.cfg.Address,
			Handler: corsMiddleware(s.loggingMiddleware(mux)),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.log.WithField("address", s.cfg.Address).Info("api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Certificate Authenticity Validator API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLegacyUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()
	up, ok := s.readUpload(w, r, certfile.IntentLegacyUpload, "Only PDF files are allowed for legacy certificates")
	if !ok {
		return
	}

	text, err := extract.TextFromPDF(up.data)
	if err != nil {
		s.log.WithError(err).Warn("legacy text extraction failed")
		respondDetail(w, http.StatusInternalServerError, fmt.Sprintf("Processing failed: %v", err))
		return
	}
	fields := extract.ParseFields(text)

	certificateID := uuid.NewString()
	objectKey := fmt.Sprintf("uploads/%s/%s", certificateID, filepath.Base(up.filename))
	if err := s.store.UploadCertificate(ctx, objectKey, up.data, up.contentType); err != nil {
		s.log.WithError(err).Error("store certificate failed")
		respondDetail(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	cert := &repository.Certificate{
		ID:              certificateID,
		CertificateType: repository.TypeLegacy,
		InstitutionName: optional(fields.Institution),
		StudentName:     optional(fields.Student),
		CourseName:      optional(fields.Course),
		ExtractedText:   text,
		IssueDate:       fields.IssueDate,
		FileName:        up.filename,
		FileType:        up.contentType,
		FileSize:        up.size,
		ObjectKey:       objectKey,
	}
	if err := s.repo.Create(ctx, cert); err != nil {
		s.log.WithError(err).Error("store certificate metadata failed")
		respondDetail(w, http.StatusInternalServerError, "failed to store metadata")
		return
	}
	s.enqueueIndex(ctx, cert)

	respondJSON(w, http.StatusOK, model.LegacyUploadResponse{
		Success:       true,
		CertificateID: certificateID,
		ExtractedText: extract.Truncate(text, extractedTextPreview),
		Message:       "Legacy certificate processed successfully",
	})
}

func (s *Server) handleDigitalUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()
	up, ok := s.readUpload(w, r, certfile.IntentDigitalUpload, "Only PDF, JPEG, and PNG files are allowed")
	if !ok {
		return
	}

	// Text extraction is best effort for digital uploads: image OCR is
	// delegated to an external engine and PDFs may be image-only scans.
	var text string
	if up.contentType == "application/pdf" {
		if extracted, err := extract.TextFromPDF(up.data); err == nil {
			text = extracted
		}
	}
	fields := extract.ParseFields(text)

	certificateID := uuid.NewString()
	verificationURL := qr.VerificationURL(s.cfg.PublicBaseURL, certificateID)
	png, err := qr.EncodePNG(verificationURL)
	if err != nil {
		s.log.WithError(err).Error("qr generation failed")
		respondDetail(w, http.StatusInternalServerError, fmt.Sprintf("Processing failed: %v", err))
		return
	}
	qrKey := fmt.Sprintf("%s.png", certificateID)
	if err := s.store.UploadQRCode(ctx, qrKey, png); err != nil {
		s.log.WithError(err).Error("store qr code failed")
		respondDetail(w, http.StatusInternalServerError, "failed to store QR code")
		return
	}
	qrURL, err := s.store.PresignQRCodeURL(ctx, qrKey, s.cfg.QRCodeURLTTL)
	if err != nil {
		s.log.WithError(err).Error("presign qr code failed")
		respondDetail(w, http.StatusInternalServerError, "failed to generate QR url")
		return
	}

	objectKey := fmt.Sprintf("uploads/%s/%s", certificateID, filepath.Base(up.filename))
	if err := s.store.UploadCertificate(ctx, objectKey, up.data, up.contentType); err != nil {
		s.log.WithError(err).Error("store certificate failed")
		respondDetail(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	cert := &repository.Certificate{
		ID:              certificateID,
		CertificateType: repository.TypeDigital,
		InstitutionName: optional(fields.Institution),
		StudentName:     optional(fields.Student),
		CourseName:      optional(fields.Course),
		ExtractedText:   text,
		IssueDate:       fields.IssueDate,
		FileName:        up.filename,
		FileType:        up.contentType,
		FileSize:        up.size,
		ObjectKey:       objectKey,
		QRObjectKey:     &qrKey,
	}
	if err := s.repo.Create(ctx, cert); err != nil {
		s.log.WithError(err).Error("store certificate metadata failed")
		respondDetail(w, http.StatusInternalServerError, "failed to store metadata")
		return
	}
	s.enqueueIndex(ctx, cert)

	respondJSON(w, http.StatusOK, model.DigitalUploadResponse{
		Success:         true,
		CertificateID:   certificateID,
		QRCodeURL:       qrURL,
		VerificationURL: verificationURL,
		Message:         "Digital certificate processed successfully",
	})
}

func (s *Server) handleVerifyRoute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/verify/")
	switch {
	case rest == "":
		s.handleVerifyFile(w, r)
	case !strings.Contains(rest, "/"):
		s.handleVerifyByID(w, r, rest)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleVerifyFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()
	up, ok := s.readUpload(w, r, certfile.IntentVerify, "Only JPEG, PNG, and PDF files are allowed")
	if !ok {
		return
	}

	var text string
	if up.contentType == "application/pdf" {
		if extracted, err := extract.TextFromPDF(up.data); err == nil {
			text = extracted
		}
	}

	corpus, err := s.repo.ListCorpus(ctx)
	if err != nil {
		s.log.WithError(err).Error("load corpus failed")
		respondDetail(w, http.StatusInternalServerError, "Verification failed")
		return
	}
	result := match.Evaluate(text, matchRecords(corpus))

	logEntry := &repository.VerificationLog{
		ID:            uuid.NewString(),
		CertificateID: logCertificateID(result),
		Result:        result.Status,
		Confidence:    result.Confidence,
		ClientIP:      clientIP(r),
	}
	if err := s.repo.LogVerification(ctx, logEntry); err != nil {
		// The verdict still stands; losing one log row only skews analytics.
		s.log.WithError(err).Warn("log verification failed")
	}

	respondJSON(w, http.StatusOK, model.VerifyResponse{
		Success:            true,
		VerificationResult: *result,
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVerifyByID(w http.ResponseWriter, r *http.Request, certificateID string) {
	if r.Method != http.MethodGet {
		respondDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()
	cert, err := s.repo.Get(ctx, certificateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondJSON(w, http.StatusOK, model.VerifyResponse{
				Success:       true,
				CertificateID: certificateID,
				VerificationResult: model.VerificationResult{
					Status:     string(model.StatusInvalid),
					Confidence: 0,
					Message:    "Certificate ID not found",
				},
			})
			return
		}
		s.log.WithError(err).Error("load certificate failed")
		respondDetail(w, http.StatusInternalServerError, "Verification failed")
		return
	}

	result := model.VerificationResult{
		Status:          string(model.StatusValid),
		Confidence:      1.0,
		CertificateID:   cert.ID,
		Institution:     deref(cert.InstitutionName),
		StudentName:     deref(cert.StudentName),
		CourseName:      deref(cert.CourseName),
		CertificateType: string(cert.CertificateType),
	}
	if cert.IssueDate != nil {
		result.IssueDate = cert.IssueDate.Format(time.RFC3339)
	}
	logEntry := &repository.VerificationLog{
		ID:            uuid.NewString(),
		CertificateID: cert.ID,
		Result:        result.Status,
		Confidence:    result.Confidence,
		ClientIP:      clientIP(r),
	}
	if err := s.repo.LogVerification(ctx, logEntry); err != nil {
		s.log.WithError(err).Warn("log verification failed")
	}

	respondJSON(w, http.StatusOK, model.VerifyResponse{
		Success:            true,
		CertificateID:      certificateID,
		VerificationResult: result,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	analytics, err := s.repo.Analytics(r.Context(), time.Now().UTC())
	if err != nil {
		s.log.WithError(err).Error("analytics aggregation failed")
		respondDetail(w, http.StatusInternalServerError, "Analytics fetch failed")
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}

// upload is a fully received multipart file.
type upload struct {
	filename    string
	contentType string
	size        int64
	data        []byte
}

// readUpload streams the multipart file part into memory, sniffing the real
// content type and enforcing the size limit, then applies the intent's
// validation policy. It writes the error response itself when the upload is
// unacceptable.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, intent certfile.Intent, typeDetail string) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+1024)
	mr, err := r.MultipartReader()
	if err != nil {
		respondDetail(w, http.StatusBadRequest, "expecting multipart form")
		return nil, false
	}
	part, err := nextFilePart(mr)
	if err != nil {
		respondDetail(w, http.StatusBadRequest, "missing file part")
		return nil, false
	}
	defer part.Close()

	up, err := readPart(part, s.cfg.MaxFileSize)
	if err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	f := &certfile.File{Name: up.filename, ContentType: up.contentType, Size: up.size}
	if verr := certfile.Validate(f, intent); verr != nil {
		detail := verr.Error()
		if verr.Kind == certfile.ErrInvalidType {
			detail = typeDetail
		}
		respondDetail(w, http.StatusBadRequest, detail)
		return nil, false
	}
	return up, true
}

func readPart(part *multipart.Part, maxSize int64) (*upload, error) {
	var data []byte
	var sniff []byte
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, readErr := part.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > maxSize {
				return nil, fmt.Errorf("file exceeds limit (%d bytes)", maxSize)
			}
			if len(sniff) < 512 {
				chunk := n
				if remain := 512 - len(sniff); chunk > remain {
					chunk = remain
				}
				sniff = append(sniff, buf[:chunk]...)
			}
			data = append(data, buf[:n]...)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read file: %w", readErr)
		}
	}
	if written == 0 {
		return nil, errors.New("empty file")
	}
	filename := part.FileName()
	if filename == "" {
		filename = "upload"
	}
	return &upload{
		filename:    filename,
		contentType: http.DetectContentType(sniff),
		size:        written,
		data:        data,
	}, nil
}

func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

func (s *Server) enqueueIndex(ctx context.Context, cert *repository.Certificate) {
	payload := queue.IndexPayload{
		CertificateID: cert.ID,
		ObjectKey:     cert.ObjectKey,
		FileType:      cert.FileType,
	}
	if err := queue.EnqueueIndex(ctx, s.queue, payload); err != nil {
		// Uploads still succeed; the certificate is simply not matchable
		// until a later re-index.
		s.log.WithError(err).WithField("certificate_id", cert.ID).Warn("enqueue index failed")
	}
}

func matchRecords(corpus []repository.CorpusEntry) []match.Record {
	records := make([]match.Record, 0, len(corpus))
	for _, entry := range corpus {
		records = append(records, match.Record{
			CertificateID:   entry.ID,
			Institution:     entry.InstitutionName,
			StudentName:     deref(entry.StudentName),
			CourseName:      deref(entry.CourseName),
			CertificateType: string(entry.CertificateType),
			NormalizedText:  entry.NormalizedText,
		})
	}
	return records
}

func logCertificateID(result *model.VerificationResult) string {
	if result.CertificateID != "" {
		return result.CertificateID
	}
	return "unknown"
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Warn("encode response")
	}
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, model.ErrorResponse{Detail: detail})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}
