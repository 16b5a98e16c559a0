package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultExclusionColor marks excluded pixels in mask previews.
const DefaultExclusionColor = "#FF00FF"

// MaskPreview renders an accumulated mask as a grayscale image, 255*accum per
// pixel, and paints excluded pixels with exclusionHex blended by its alpha.
// exclude may be nil. An empty exclusionHex selects DefaultExclusionColor.
func MaskPreview(accum []float64, exclude []bool, width, height int, exclusionHex string) (*image.NRGBA, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	n := width * height
	if len(accum) != n {
		return nil, fmt.Errorf("mask has %d pixels, want %d for %dx%d", len(accum), n, width, height)
	}
	if exclude != nil && len(exclude) != n {
		return nil, fmt.Errorf("exclusion map has %d pixels, want %d for %dx%d", len(exclude), n, width, height)
	}
	if exclusionHex == "" {
		exclusionHex = DefaultExclusionColor
	}
	mark, err := parseHexColor(exclusionHex)
	if err != nil {
		return nil, fmt.Errorf("invalid exclusion color %q: %w", exclusionHex, err)
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	a := float64(mark.A) / 255
	for p := 0; p < n; p++ {
		v := accum[p]
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		g := uint8(math.Round(v * 255))
		i := p * 4
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = g, g, g, 255

		if exclude != nil && exclude[p] {
			out.Pix[i] = blend(mark.R, g, a)
			out.Pix[i+1] = blend(mark.G, g, a)
			out.Pix[i+2] = blend(mark.B, g, a)
		}
	}
	return out, nil
}

func blend(fg, bg uint8, a float64) uint8 {
	return uint8(math.Round(float64(fg)*a + float64(bg)*(1-a)))
}

// parseHexColor parses "#rgb", "#rrggbb" or "#rrggbbaa", with or without the
// leading '#'. The RGB part goes through go-colorful; alpha defaults to 255.
func parseHexColor(hex string) (color.RGBA, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}

	a := uint8(255)
	switch len(hex) {
	case 3, 6:
	case 8:
		v, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha %q: %w", hex[6:], err)
		}
		a = uint8(v)
		hex = hex[:6]
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
