// Package qr кодирует пейлоады карт в PNG-изображения QR-кодов.
package qr

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"

	"RewardCardPlatform/pkg/errors"
)

// DataURIPrefix префикс data URI для PNG
const DataURIPrefix = "data:image/png;base64,"

// DefaultSize размер стороны изображения в пикселях
const DefaultSize = 256

// Encoder превращает строковый пейлоад в изображение
type Encoder interface {
	Encode(payload string) (string, error)
}

// PNGEncoder кодирует пейлоад в PNG и возвращает его как data URI
type PNGEncoder struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewPNGEncoder создает кодировщик; size <= 0 заменяется на DefaultSize
func NewPNGEncoder(size int) *PNGEncoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &PNGEncoder{size: size, level: qrcode.Medium}
}

// Encode возвращает data:image/png;base64,... для пейлоада
func (e *PNGEncoder) Encode(payload string) (string, error) {
	if payload == "" {
		return "", errors.New(errors.ErrValidation, "qr payload is empty")
	}
	png, err := qrcode.Encode(payload, e.level, e.size)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to encode qr code")
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
