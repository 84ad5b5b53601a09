package qrcode

import (
	"errors"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	MinSize     = 128
	MaxSize     = 1024
)

var ErrInvalidSize = fmt.Errorf("size must be between %d and %d", MinSize, MaxSize)

// PNG encodes url as a square PNG QR code of size pixels.
func PNG(url string, size int) ([]byte, error) {
	if url == "" {
		return nil, errors.New("form url is not configured")
	}
	if size == 0 {
		size = DefaultSize
	}
	if size < MinSize || size > MaxSize {
		return nil, ErrInvalidSize
	}

	png, err := qr.Encode(url, qr.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
