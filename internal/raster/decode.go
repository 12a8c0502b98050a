// Package raster decodes the (bytes, mime type) image pairs that travel
// through the studio. Raw bytes are never self-describing, so every decode
// takes the declared mime type alongside the payload.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"studio/internal/domain"
)

const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeGIF  = "image/gif"
)

// Decode interprets data as a raster image of the declared mime type.
// Unknown mime types fall back to content sniffing. Failures wrap
// domain.ErrDecode so callers can fail the whole operation.
func Decode(data []byte, mimeType string) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrDecode)
	}

	var (
		img image.Image
		err error
	)
	switch normalizeMime(mimeType) {
	case MimePNG:
		img, err = png.Decode(bytes.NewReader(data))
	case MimeJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case MimeGIF:
		img, err = gif.Decode(bytes.NewReader(data))
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return img, nil
}

// Dimensions reports the pixel size of an encoded image without a full decode.
func Dimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func normalizeMime(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "image/jpg" {
		return MimeJPEG
	}
	return mimeType
}
