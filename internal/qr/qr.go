// Package qr generates the scannable verification artifact for digital
// certificates.
package qr

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// imageSize is the QR PNG edge length in pixels.
const imageSize = 256

// VerificationURL builds the public lookup URL a scanned code resolves to.
func VerificationURL(publicBaseURL, certificateID string) string {
	return fmt.Sprintf("%s/api/verify/%s", strings.TrimRight(publicBaseURL, "/"), certificateID)
}

// EncodePNG renders the verification URL as a QR code image.
func EncodePNG(verificationURL string) ([]byte, error) {
	png, err := qrcode.Encode(verificationURL, qrcode.Medium, imageSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
