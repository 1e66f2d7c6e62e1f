package imagepkg

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/youruser/collageapp/internal/layout"
)

// Style holds the print look shared by every photo in a collage.
type Style struct {
	Border       int         // frame width in pixels
	BorderColor  color.NRGBA // frame colour
	ShadowOffset int         // shadow displacement, right and down
	ShadowBlur   int         // gaussian sigma and margin around the print
	ShadowAlpha  uint8       // shadow opacity at full coverage
}

// DefaultStyle is the scattered-prints look: white 6px frame, soft shadow
// offset by 6px with a 12px blur at about 31% opacity.
var DefaultStyle = Style{
	Border:       6,
	BorderColor:  color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	ShadowOffset: 6,
	ShadowBlur:   12,
	ShadowAlpha:  80,
}

// Transform scales img so its longer side is slot.TargetSize*variation,
// frames it, tilts it by slot.Rotation and bakes in a drop shadow.
func Transform(img image.Image, slot layout.Slot, variation float64, style Style) *image.NRGBA {
	target := int(float64(slot.TargetSize) * variation)
	w, h := fitLongerSide(img.Bounds().Dx(), img.Bounds().Dy(), target)

	out := imaging.Resize(img, w, h, imaging.Lanczos)
	out = addBorder(out, style.Border, style.BorderColor)
	if slot.Rotation != 0 {
		out = imaging.Rotate(out, slot.Rotation, color.Transparent)
	}
	return addShadow(out, style)
}

// fitLongerSide returns the size of a w×h image scaled so that its longer
// side is target, never collapsing a side below one pixel.
func fitLongerSide(w, h, target int) (int, int) {
	if target < 1 {
		target = 1
	}
	ratio := float64(w) / float64(h)
	var nw, nh int
	if ratio > 1 {
		nw = target
		nh = int(float64(target) / ratio)
	} else {
		nh = target
		nw = int(float64(target) * ratio)
	}
	return max(nw, 1), max(nh, 1)
}

func addBorder(img *image.NRGBA, width int, c color.NRGBA) *image.NRGBA {
	if width <= 0 {
		return img
	}
	b := img.Bounds()
	framed := imaging.New(b.Dx()+2*width, b.Dy()+2*width, c)
	return imaging.Paste(framed, img, image.Pt(width, width))
}

// addShadow places img on a transparent canvas grown by offset+2*blur with
// a blurred copy of its silhouette underneath.
func addShadow(img *image.NRGBA, style Style) *image.NRGBA {
	blur, offset := style.ShadowBlur, style.ShadowOffset
	b := img.Bounds()
	canvas := imaging.New(b.Dx()+offset+2*blur, b.Dy()+offset+2*blur, color.Transparent)

	canvas = imaging.Paste(canvas, silhouette(img, style.ShadowAlpha), image.Pt(blur+offset, blur+offset))
	if blur > 0 {
		canvas = imaging.Blur(canvas, float64(blur))
	}
	return imaging.Overlay(canvas, img, image.Pt(blur, blur), 1.0)
}

// silhouette returns a black copy of img whose alpha is img's alpha scaled
// by alpha/255.
func silhouette(img *image.NRGBA, alpha uint8) *image.NRGBA {
	b := img.Bounds()
	s := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		src := img.Pix[off : off+b.Dx()*4]
		dst := s.Pix[y*s.Stride : y*s.Stride+b.Dx()*4]
		for i := 3; i < len(src); i += 4 {
			dst[i] = uint8(uint16(src[i]) * uint16(alpha) / 0xff)
		}
	}
	return s
}
