package qr

import (
	"errors"

	"github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels of a ticket QR image.
const DefaultSize = 256

// Encode renders the ticket code as a PNG QR image. The code itself is the
// payload scanned at the door.
func Encode(ticketCode string, size int) ([]byte, error) {
	if ticketCode == "" {
		return nil, errors.New("empty ticket code")
	}
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(ticketCode, qrcode.Medium, size)
}
