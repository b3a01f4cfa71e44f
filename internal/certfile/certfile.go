// Package certfile validates a candidate certificate file against the
// type/size policy of a submission intent before any network traffic happens.
package certfile

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Intent identifies which backend operation a submission targets. An intent
// is fixed for the lifetime of one submission attempt.
type Intent string

const (
	IntentLegacyUpload  Intent = "legacy-upload"
	IntentDigitalUpload Intent = "digital-upload"
	IntentVerify        Intent = "verify"
)

// MaxSize is the inclusive upload limit: files strictly larger are rejected.
const MaxSize = 10 << 20 // 10 MiB

// File is a candidate file between selection and submission. Open yields the
// binary content when the file is actually submitted; validation only ever
// looks at the metadata.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Validation error kinds.
const (
	ErrNoFile      = "no-file"
	ErrInvalidType = "invalid-type"
	ErrTooLarge    = "too-large"
)

// ValidationError describes why a candidate file was rejected. It is always
// recoverable locally by selecting another file.
type ValidationError struct {
	Kind    string
	Allowed []string
	Limit   int64
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrNoFile:
		return "no file selected"
	case ErrInvalidType:
		return fmt.Sprintf("file type not allowed (allowed: %s)", strings.Join(e.Allowed, ", "))
	case ErrTooLarge:
		return fmt.Sprintf("file exceeds limit (%d bytes)", e.Limit)
	}
	return "invalid file"
}

// AllowedTypes returns the MIME allow-list for an intent. Legacy uploads go
// through OCR and accept PDFs only; the other intents also take images.
func AllowedTypes(intent Intent) []string {
	if intent == IntentLegacyUpload {
		return []string{"application/pdf"}
	}
	return []string{"application/pdf", "image/jpeg", "image/png"}
}

// Validate checks a candidate file against the policy for the given intent.
// It is pure and idempotent; nil means the file is acceptable.
func Validate(f *File, intent Intent) *ValidationError {
	if f == nil {
		return &ValidationError{Kind: ErrNoFile}
	}
	// Size is checked before type so an oversize file is reported as
	// too-large no matter what it claims to be.
	if f.Size > MaxSize {
		return &ValidationError{Kind: ErrTooLarge, Limit: MaxSize}
	}
	allowed := AllowedTypes(intent)
	if !contains(allowed, f.ContentType) {
		return &ValidationError{Kind: ErrInvalidType, Allowed: allowed}
	}
	return nil
}

// FromPath builds a File from a path on disk, deriving the MIME type from the
// extension and falling back to content sniffing for unknown extensions.
func FromPath(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	contentType := typeForExtension(filepath.Ext(path))
	if contentType == "" {
		contentType, err = sniffType(path)
		if err != nil {
			return nil, err
		}
	}
	return &File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func typeForExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	return ""
}

func sniffType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read file: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
