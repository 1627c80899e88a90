package footprints

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QR renders a link as a block-character QR code for terminals
func QR(link string) (string, error) {
	if link == "" {
		return "", fmt.Errorf("no link to encode")
	}
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return q.ToSmallString(false), nil
}

// QRPNG renders a link as a PNG image of the given pixel size
func QRPNG(link string, size int) ([]byte, error) {
	if link == "" {
		return nil, fmt.Errorf("no link to encode")
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
