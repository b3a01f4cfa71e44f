package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func multipartRequest(t *testing.T, field, filename string, content []byte) *multipart.Reader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return multipart.NewReader(&body, w.Boundary())
}

func TestReadPartSniffsContentType(t *testing.T) {
	pdfBytes := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 600)...)
	mr := multipartRequest(t, "file", "cert.pdf", pdfBytes)
	part, err := nextFilePart(mr)
	if err != nil {
		t.Fatalf("next file part: %v", err)
	}
	up, err := readPart(part, 1<<20)
	if err != nil {
		t.Fatalf("read part: %v", err)
	}
	if up.contentType != "application/pdf" {
		t.Fatalf("content type = %q, want application/pdf", up.contentType)
	}
	if up.filename != "cert.pdf" {
		t.Fatalf("filename = %q", up.filename)
	}
	if up.size != int64(len(pdfBytes)) {
		t.Fatalf("size = %d, want %d", up.size, len(pdfBytes))
	}
}

func TestReadPartRejectsOversize(t *testing.T) {
	mr := multipartRequest(t, "file", "big.pdf", bytes.Repeat([]byte("a"), 2048))
	part, err := nextFilePart(mr)
	if err != nil {
		t.Fatalf("next file part: %v", err)
	}
	if _, err := readPart(part, 1024); err == nil {
		t.Fatal("expected oversize error")
	}
}

func TestReadPartSizeBoundary(t *testing.T) {
	mr := multipartRequest(t, "file", "exact.pdf", bytes.Repeat([]byte("a"), 1024))
	part, err := nextFilePart(mr)
	if err != nil {
		t.Fatalf("next file part: %v", err)
	}
	up, err := readPart(part, 1024)
	if err != nil {
		t.Fatalf("a part of exactly the limit must pass: %v", err)
	}
	if up.size != 1024 {
		t.Fatalf("size = %d", up.size)
	}

	mr = multipartRequest(t, "file", "over.pdf", bytes.Repeat([]byte("a"), 1025))
	part, err = nextFilePart(mr)
	if err != nil {
		t.Fatalf("next file part: %v", err)
	}
	if _, err := readPart(part, 1024); err == nil {
		t.Fatal("one byte over the limit must be rejected")
	}
}

func TestReadPartRejectsEmpty(t *testing.T) {
	mr := multipartRequest(t, "file", "empty.pdf", nil)
	part, err := nextFilePart(mr)
	if err != nil {
		t.Fatalf("next file part: %v", err)
	}
	if _, err := readPart(part, 1024); err == nil {
		t.Fatal("expected empty-file error")
	}
}

func TestNextFilePartSkipsOtherFields(t *testing.T) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("note", "ignored"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := w.CreateFormFile("file", "cert.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte("%PDF-1.4"))
	w.Close()

	mr := multipart.NewReader(&body, w.Boundary())
	part, err := nextFilePart(mr)
	if err != nil {
		t.Fatalf("next file part: %v", err)
	}
	if part.FormName() != "file" {
		t.Fatalf("form name = %q", part.FormName())
	}
}

func TestRespondDetailShape(t *testing.T) {
	rec := httptest.NewRecorder()
	respondDetail(rec, http.StatusBadRequest, "Only PDF files are allowed for legacy certificates")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["detail"] != "Only PDF files are allowed for legacy certificates" {
		t.Fatalf("detail = %q", payload["detail"])
	}
}

func TestClientIPStripsPort(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:51442"
	if got := clientIP(r); got != "203.0.113.9" {
		t.Fatalf("client ip = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/verify/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin = %q", got)
	}
}

func TestVerifyRouteDispatch(t *testing.T) {
	s := &Server{}

	rec := httptest.NewRecorder()
	s.handleVerifyRoute(rec, httptest.NewRequest(http.MethodGet, "/api/verify/abc/extra", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deep path status = %d, want 404", rec.Code)
	}

	// GET on the bare verify path is a method mismatch for file verification.
	rec = httptest.NewRecorder()
	s.handleVerifyRoute(rec, httptest.NewRequest(http.MethodGet, "/api/verify/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("bare path GET status = %d, want 405", rec.Code)
	}
}
