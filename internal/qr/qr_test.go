package qr

import (
	"bytes"
	"testing"
)

func TestVerificationURL(t *testing.T) {
	got := VerificationURL("http://localhost:8000/", "C-42")
	if got != "http://localhost:8000/api/verify/C-42" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestEncodePNG(t *testing.T) {
	png, err := EncodePNG("http://localhost:8000/api/verify/C-42")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("expected PNG magic, got %x", png[:8])
	}
}
