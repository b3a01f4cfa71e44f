// Package client implements the backend operations the submission layer
// dispatches to: legacy and digital uploads, verification by file or
// identifier, and the dashboard analytics fetch.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/dharanvel/certvault/internal/certfile"
	"github.com/dharanvel/certvault/internal/model"
)

// Client talks to the certificate validator API. It performs no timeouts of
// its own; cancellation is the caller's context.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client for the given base URL, e.g. "http://localhost:8000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// NewWithHTTPClient injects a custom http.Client, used by tests.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL)
	c.http = hc
	return c
}

// APIError is a failed backend call. Detail carries the upstream-provided
// human-readable reason when present; Fallback is the operation-specific
// generic message used otherwise. The raw transport error is never shown.
type APIError struct {
	StatusCode int
	Detail     string
	Fallback   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Fallback
}

// StatusDetail reports the upstream detail, empty when none was provided.
func (e *APIError) StatusDetail() string { return e.Detail }

// UploadLegacy submits a scanned certificate for OCR processing.
func (c *Client) UploadLegacy(ctx context.Context, f *certfile.File) (*model.UploadArtifact, error) {
	var resp model.LegacyUploadResponse
	if err := c.postFile(ctx, "/api/upload/legacy", f, "Upload failed", &resp); err != nil {
		return nil, err
	}
	return &model.UploadArtifact{
		CertificateID: resp.CertificateID,
		ExtractedText: resp.ExtractedText,
		Message:       resp.Message,
	}, nil
}

// UploadDigital submits a digital certificate and receives a QR artifact.
func (c *Client) UploadDigital(ctx context.Context, f *certfile.File) (*model.UploadArtifact, error) {
	var resp model.DigitalUploadResponse
	if err := c.postFile(ctx, "/api/upload/digital", f, "Upload failed", &resp); err != nil {
		return nil, err
	}
	return &model.UploadArtifact{
		CertificateID:   resp.CertificateID,
		QRCodeURL:       resp.QRCodeURL,
		VerificationURL: resp.VerificationURL,
		Message:         resp.Message,
	}, nil
}

// Verify submits a certificate file for an authenticity verdict.
func (c *Client) Verify(ctx context.Context, f *certfile.File) (*model.VerificationResult, error) {
	var resp model.VerifyResponse
	if err := c.postFile(ctx, "/api/verify/", f, "Verification failed", &resp); err != nil {
		return nil, err
	}
	return &resp.VerificationResult, nil
}

// VerifyByID looks a certificate up directly, the path a scanned QR code
// takes.
func (c *Client) VerifyByID(ctx context.Context, certificateID string) (*model.VerificationResult, error) {
	var resp model.VerifyResponse
	path := "/api/verify/" + url.PathEscape(certificateID)
	if err := c.get(ctx, path, "Verification failed", &resp); err != nil {
		return nil, err
	}
	return &resp.VerificationResult, nil
}

// Analytics fetches the dashboard snapshot.
func (c *Client) Analytics(ctx context.Context) (*model.Analytics, error) {
	var resp model.Analytics
	if err := c.get(ctx, "/api/dashboard/analytics", "Failed to fetch analytics", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) postFile(ctx context.Context, path string, f *certfile.File, fallback string, out interface{}) error {
	if f == nil || f.Open == nil {
		return &APIError{Fallback: fallback, Detail: "no file content available"}
	}
	body, contentType, err := multipartBody(f)
	if err != nil {
		return fmt.Errorf("build request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, fallback, out)
}

func (c *Client) get(ctx context.Context, path, fallback string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, fallback, out)
}

func (c *Client) do(req *http.Request, fallback string, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		// Dial and transport failures surface as the generic fallback;
		// the raw error is never shown to the user.
		return &APIError{Fallback: fallback}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, fallback)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Fallback: fallback}
	}
	return nil
}

// decodeError turns a non-2xx response into an APIError, preferring the
// structured detail field over the fallback message.
func decodeError(resp *http.Response, fallback string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Fallback: fallback}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var payload model.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}

// multipartBody assembles the single-file form the upload endpoints expect.
// Validated files are bounded at 10 MiB, so buffering in memory is fine.
func multipartBody(f *certfile.File) (*bytes.Buffer, string, error) {
	src, err := f.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open file: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	header.Set("Content-Type", f.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("copy file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
