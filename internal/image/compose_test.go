package imagepkg

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/collageapp/internal/layout"
)

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	blue  = color.NRGBA{B: 0xff, A: 0xff}
	paper = color.NRGBA{R: 245, G: 245, B: 245, A: 0xff}
)

func TestNewCanvas_IsOpaque(t *testing.T) {
	c := NewCanvas(10, color.NRGBA{R: 1, G: 2, B: 3})
	assert.Equal(t, image.Pt(10, 10), c.Bounds().Size())
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 0xff}, c.NRGBAAt(9, 9))
}

func TestComposite_IndexOrderIsZOrder(t *testing.T) {
	slots := []layout.Slot{
		{CenterX: 40, CenterY: 40},
		{CenterX: 60, CenterY: 60},
	}
	canvas, origins := Composite(NewCanvas(100, paper), []*image.NRGBA{solid(41, 41, red), solid(40, 40, blue)}, slots)

	assert.Equal(t, []image.Point{{20, 20}, {40, 40}}, origins)
	assert.Equal(t, red, canvas.NRGBAAt(25, 25))
	assert.Equal(t, blue, canvas.NRGBAAt(50, 50), "later image covers earlier one")
	assert.Equal(t, paper, canvas.NRGBAAt(95, 5))

	swapped, _ := Composite(NewCanvas(100, paper), []*image.NRGBA{solid(40, 40, blue), solid(41, 41, red)},
		[]layout.Slot{slots[1], slots[0]})
	assert.Equal(t, red, swapped.NRGBAAt(50, 50))
}

func TestComposite_UsesImageAlpha(t *testing.T) {
	half := solid(10, 10, color.NRGBA{A: 0x80})
	canvas, _ := Composite(NewCanvas(10, color.NRGBA{R: 0xff, G: 0xff, B: 0xff}), []*image.NRGBA{half},
		[]layout.Slot{{CenterX: 5, CenterY: 5}})

	px := canvas.NRGBAAt(5, 5)
	assert.Equal(t, uint8(0xff), px.A)
	assert.InDelta(t, 0x7f, int(px.R), 2)
}

func TestComposite_ExtraImagesWithoutSlots(t *testing.T) {
	canvas, origins := Composite(NewCanvas(50, paper), []*image.NRGBA{solid(10, 10, red), solid(50, 50, blue)},
		[]layout.Slot{{CenterX: 10, CenterY: 10}})
	assert.Len(t, origins, 1)
	assert.Equal(t, paper, canvas.NRGBAAt(40, 40))
}

func TestComposite_ClipsAtCanvasEdge(t *testing.T) {
	canvas, origins := Composite(NewCanvas(20, paper), []*image.NRGBA{solid(20, 20, red)},
		[]layout.Slot{{CenterX: 0, CenterY: 0}})
	assert.Equal(t, image.Pt(-10, -10), origins[0])
	assert.Equal(t, red, canvas.NRGBAAt(5, 5))
	assert.Equal(t, paper, canvas.NRGBAAt(15, 15))
	assert.Equal(t, image.Pt(20, 20), canvas.Bounds().Size())
}

func TestFlatten_TransparentAreasTakeBackground(t *testing.T) {
	canvas := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	canvas.SetNRGBA(0, 0, red)

	flat := Flatten(canvas, paper)
	assert.Equal(t, red, flat.NRGBAAt(0, 0))
	assert.Equal(t, paper, flat.NRGBAAt(3, 3))
}

func TestEncode_OpaqueJPEGOfCanvasSize(t *testing.T) {
	canvas := NewCanvas(120, paper)
	data, err := EncodeBytes(canvas, paper)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(120, 120), img.Bounds().Size())
	assert.True(t, isOpaque(img))

	again, err := EncodeBytes(canvas, paper)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestEncode_WriteFailureIsEncodeError(t *testing.T) {
	err := Encode(failingWriter{}, NewCanvas(16, paper), paper)
	var ee *EncodeError
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, assert.AnError)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
