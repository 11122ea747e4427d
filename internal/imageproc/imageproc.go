// Package imageproc decodes uploaded image bytes and applies the
// pre-inference resize policy: when either dimension exceeds the configured
// cap, the image is scaled proportionally so the longer side equals the cap.
package imageproc

import (
	"bytes"
	"errors"
	"image"

	"github.com/disintegration/imaging"

	// Register decoders beyond the stdlib JPEG/PNG/GIF set.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrUndecodable is returned when the uploaded bytes are not a supported image
var ErrUndecodable = errors.New("could not decode image")

// Decode parses raw upload bytes into an in-memory image
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUndecodable
	}
	return img, nil
}

// FitWithin scales img down so its longer side equals max, preserving aspect
// ratio. Images already within the cap are returned untouched; FitWithin
// never upscales.
func FitWithin(img image.Image, max int) image.Image {
	if max <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= max && b.Dy() <= max {
		return img
	}
	return imaging.Fit(img, max, max, imaging.Lanczos)
}

// EncodePNG re-encodes a processed image for transport to the model runtime.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
