// Package thumbnail derives width-bounded raster variants of uploaded images.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Widths are the variant sizes produced for every image upload.
var Widths = []int{500, 250, 100}

// IsVariantSize reports whether size names a generated variant.
func IsVariantSize(size int) bool {
	for _, w := range Widths {
		if w == size {
			return true
		}
	}
	return false
}

// Resize decodes an encoded image, scales it to width keeping the aspect
// ratio and re-encodes it in the source format (PNG when the format cannot
// be written back).
func Resize(data []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid thumbnail width %d", width)
	}

	_, formatName, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	format, err := imaging.FormatFromExtension(formatName)
	if err != nil {
		format = imaging.PNG
	}

	resized := imaging.Resize(src, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return nil, fmt.Errorf("encoding %d px thumbnail: %w", width, err)
	}
	return buf.Bytes(), nil
}
