// Package fixture generates sample photos: solid colour prints stamped with
// a QR code of their label, so every generated photo is distinct and easy
// to recognise. The collage CLI uses them for -demo and tests use them as
// deterministic inputs.
package fixture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
)

var palette = []color.NRGBA{
	{R: 0xd9, G: 0x4f, B: 0x3d, A: 0xff},
	{R: 0x3d, G: 0x7e, B: 0xd9, A: 0xff},
	{R: 0x4c, G: 0xa6, B: 0x5a, A: 0xff},
	{R: 0xe8, G: 0xb9, B: 0x3a, A: 0xff},
	{R: 0x8e, G: 0x55, B: 0xb5, A: 0xff},
	{R: 0x2f, G: 0xa8, B: 0xa8, A: 0xff},
}

// sizes cycles through landscape, portrait and square prints.
var sizes = []image.Point{
	{X: 640, Y: 480},
	{X: 480, Y: 640},
	{X: 512, Y: 512},
}

// Photo returns a w×h print filled with c and stamped with a QR code of
// label in its centre.
func Photo(w, h int, c color.NRGBA, label string) (*image.NRGBA, error) {
	img := imaging.New(w, h, c)
	q, err := qrcode.New(label, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr %q: %w", label, err)
	}
	side := min(w, h) / 2
	if side < 1 {
		return img, nil
	}
	stamp := q.Image(side)
	sb := stamp.Bounds()
	pos := image.Pt((w-sb.Dx())/2, (h-sb.Dy())/2)
	return imaging.Paste(img, stamp, pos), nil
}

// Sample returns the i-th generated photo.
func Sample(i int) (*image.NRGBA, error) {
	s := sizes[i%len(sizes)]
	return Photo(s.X, s.Y, palette[i%len(palette)], fmt.Sprintf("collage-sample-%d", i))
}

// SamplePNG returns Sample(i) encoded as PNG.
func SamplePNG(i int) ([]byte, error) {
	img, err := Sample(i)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}

// SampleJPEG returns Sample(i) encoded as JPEG.
func SampleJPEG(i int) ([]byte, error) {
	img, err := Sample(i)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
