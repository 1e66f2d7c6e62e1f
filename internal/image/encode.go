package imagepkg

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

// JPEGQuality is the quality setting for every encoded collage.
const JPEGQuality = 92

// Flatten composites canvas over an opaque bg using the canvas alpha.
func Flatten(canvas image.Image, bg color.NRGBA) *image.NRGBA {
	bg.A = 0xff
	b := canvas.Bounds()
	flat := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(flat, canvas, image.Pt(0, 0), 1.0)
}

// Encode flattens canvas onto bg and writes it to w as JPEG.
func Encode(w io.Writer, canvas image.Image, bg color.NRGBA) error {
	if err := imaging.Encode(w, Flatten(canvas, bg), imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return &EncodeError{Err: err}
	}
	return nil
}

// EncodeBytes is Encode into a byte slice.
func EncodeBytes(canvas image.Image, bg color.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, canvas, bg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
