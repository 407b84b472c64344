package banner

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned when input bytes cannot be decoded as a
// raster image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Decode decodes PNG, JPEG or WebP bytes. The registered decoders are tried
// first, then an explicit WebP decode for streams the detector misses.
func Decode(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, ErrUnsupportedFormat
}

// EncodePNG encodes the final banner losslessly. PNG encoding is
// deterministic, so identical pixel data always yields identical bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}
