// Package share builds public display links and their QR codes.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length of generated QR codes in pixels.
const DefaultQRSize = 256

// ErrNoBaseURL is returned when links are requested without a base URL.
var ErrNoBaseURL = errors.New("share base URL is not configured")

// Link returns <baseURL>/display/<id>. An empty baseURL yields "".
func Link(baseURL, id string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" || id == "" {
		return ""
	}
	return base + "/display/" + url.PathEscape(id)
}

// QRCode renders link as a PNG QR code of size pixels.
func QRCode(link string, size int) ([]byte, error) {
	if link == "" {
		return nil, ErrNoBaseURL
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
