package imagepkg

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/youruser/collageapp/internal/layout"
)

// NewCanvas returns an opaque size×size canvas filled with bg.
func NewCanvas(size int, bg color.NRGBA) *image.NRGBA {
	bg.A = 0xff
	return imaging.New(size, size, bg)
}

// Composite paints images onto canvas, each centred on its slot, using the
// image's own alpha as the blend mask. Images are painted in slice order so
// later ones cover earlier ones; callers wanting another stacking order must
// reorder the slice. Images without a slot are not painted. It returns the
// resulting canvas and the top-left origin of every painted image.
func Composite(canvas *image.NRGBA, images []*image.NRGBA, slots []layout.Slot) (*image.NRGBA, []image.Point) {
	n := min(len(images), len(slots))
	origins := make([]image.Point, 0, n)
	for i := 0; i < n; i++ {
		img, slot := images[i], slots[i]
		origin := image.Pt(
			slot.CenterX-img.Bounds().Dx()/2,
			slot.CenterY-img.Bounds().Dy()/2,
		)
		canvas = imaging.Overlay(canvas, img, origin, 1.0)
		origins = append(origins, origin)
	}
	return canvas, origins
}
