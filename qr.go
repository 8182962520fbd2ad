package verusconnect

import (
	qrcode "github.com/skip2/go-qrcode"
)

// EncodeFunc renders a delivery URI into a scannable image
type EncodeFunc func(uri string, size int) ([]byte, error)

// DefaultCodeSize is the pixel size of generated codes
const DefaultCodeSize = 256

// EncodeQR is the default EncodeFunc: a PNG QR code
func EncodeQR(uri string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultCodeSize
	}
	return qrcode.Encode(uri, qrcode.Medium, size)
}
