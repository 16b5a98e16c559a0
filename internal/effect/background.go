package effect

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// layer is an RGBA pixel source with its own stride. Both *image.RGBA (bild)
// and *image.NRGBA (imaging) outputs reduce to one; for opaque images the two
// layouts carry identical bytes, so bild only ever sees opaque input.
type layer struct {
	pix    []byte
	stride int
}

func (l layer) at(x, y int) (r, g, b uint8) {
	i := y*l.stride + x*4
	return l.pix[i], l.pix[i+1], l.pix[i+2]
}

// background renders the treated background for kinds that derive it from
// the frame. Remove and ReplaceColor have no frame-derived background and
// return ok=false.
func (c *Compositor) background(src *image.NRGBA, p Params) (l layer, ok bool) {
	switch p.Kind {
	case Blur:
		b := blur.Gaussian(opaque(src), p.BlurRadius)
		return layer{pix: b.Pix, stride: b.Stride}, true
	case Desaturate:
		d := imaging.Grayscale(imaging.AdjustSaturation(src, -c.opts.DesaturateAmount))
		return layer{pix: d.Pix, stride: d.Stride}, true
	case IsolateColor:
		d := imaging.AdjustContrast(imaging.Grayscale(src), c.opts.IsolateContrast)
		return layer{pix: d.Pix, stride: d.Stride}, true
	default:
		return layer{}, false
	}
}

// opaque returns a copy of src with every alpha set to 255. Frame alpha is
// not part of the composite.
func opaque(src *image.NRGBA) *image.NRGBA {
	dst := imaging.Clone(src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// boostSaturation scales the HSV saturation of one pixel.
func boostSaturation(r, g, b uint8, factor float64) (uint8, uint8, uint8) {
	col := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := col.Hsv()
	s *= factor
	if s > 1 {
		s = 1
	}
	return colorful.Hsv(h, s, v).Clamped().RGB255()
}
