// Package qr renders the QR codes customers scan at a table.
package qr

import (
	"bytes"
	"fmt"
	"image/png"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// TableURL is the page a table's QR code points at
func TableURL(baseURL, tableID string) string {
	return fmt.Sprintf("%s/session?table_id=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(tableID))
}

// PNG encodes content as a QR code PNG of the given size
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, code.Image(size)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// TablePNG renders the session QR code for a table
func TablePNG(baseURL, tableID string, size int) ([]byte, error) {
	return PNG(TableURL(baseURL, tableID), size)
}
