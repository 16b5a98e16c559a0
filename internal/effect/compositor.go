package effect

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// Options holds compositor tuning shared by every frame of a session.
type Options struct {
	// ExclusionAlphaScale multiplies the opacity of excluded pixels.
	ExclusionAlphaScale float64

	// FeatherSigma softens mask edges with a Gaussian blur of the alpha map.
	// Zero disables feathering.
	FeatherSigma float64

	// DesaturateAmount is the saturation reduction (percent) applied before
	// the grayscale conversion of the Desaturate background.
	DesaturateAmount float64

	// IsolateContrast is the contrast change (percent, negative reduces) of
	// the IsolateColor background.
	IsolateContrast float64

	// IsolateSaturationBoost multiplies foreground saturation for IsolateColor.
	IsolateSaturationBoost float64

	// Workers bounds the number of row chunks composited in parallel.
	// Zero uses GOMAXPROCS.
	Workers int
}

// DefaultOptions returns the stock compositor tuning.
func DefaultOptions() Options {
	return Options{
		ExclusionAlphaScale:    0.6,
		FeatherSigma:           0,
		DesaturateAmount:       40,
		IsolateContrast:        -30,
		IsolateSaturationBoost: 1.3,
		Workers:                0,
	}
}

// Compositor renders output frames. It holds no per-frame state and is safe
// for concurrent use.
type Compositor struct {
	opts Options
}

// NewCompositor creates a compositor with opts.
func NewCompositor(opts Options) *Compositor {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Compositor{opts: opts}
}

// Alpha builds the opacity map for width*height pixels. accum and exclude
// that do not have exactly width*height entries are treated as absent: a
// missing accum yields all zeros, a missing exclude disables the
// exclusion scale.
func (c *Compositor) Alpha(accum []float64, exclude []bool, width, height int) []float64 {
	n := width * height
	alpha := make([]float64, n)
	if len(accum) != n {
		return alpha
	}
	useExclude := len(exclude) == n

	for p, v := range accum {
		if useExclude && exclude[p] {
			v *= c.opts.ExclusionAlphaScale
		}
		alpha[p] = clamp01(v)
	}

	if c.opts.FeatherSigma > 0 && n > 0 {
		feather(alpha, width, height, c.opts.FeatherSigma)
	}
	return alpha
}

// feather blurs the alpha map in place through an 8-bit gray image.
func feather(alpha []float64, width, height int, sigma float64) {
	gray := image.NewGray(image.Rect(0, 0, width, height))
	for p, a := range alpha {
		gray.Pix[p] = uint8(math.Round(a * 255))
	}
	blurred := imaging.Blur(gray, sigma)
	for p := range alpha {
		alpha[p] = float64(blurred.Pix[p*4]) / 255
	}
}

// Composite renders frame with p using accum and exclude as the mask and
// returns a new width*height*4 buffer. frame, accum and exclude are not
// modified. A panic while rendering is recovered and returned as an error.
func (c *Compositor) Composite(ctx context.Context, frame []byte, width, height int, accum []float64, exclude []bool, p Params) (out []byte, err error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	if len(frame) != width*height*4 {
		return nil, fmt.Errorf("frame has %d bytes, want %d for %dx%d", len(frame), width*height*4, width, height)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("failed to composite %s: %v", p.Kind, r)
		}
	}()

	var fill [3]uint8
	if p.Kind == ReplaceColor {
		col, err := parseColor(p.ReplaceColor)
		if err != nil {
			return nil, err
		}
		fill[0], fill[1], fill[2] = col.RGB255()
	}

	alpha := c.Alpha(accum, exclude, width, height)
	src := &image.NRGBA{Pix: frame, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	bg, hasBG := c.background(src, p)

	out = make([]byte, width*height*4)

	rowsPer := (height + c.opts.Workers - 1) / c.opts.Workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for y0 := 0; y0 < height; y0 += rowsPer {
		y0, y1 := y0, y0+rowsPer
		if y1 > height {
			y1 = height
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("failed to composite rows %d-%d: %v", y0, y1, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			for y := y0; y < y1; y++ {
				for x := 0; x < width; x++ {
					pi := y*width + x
					i := pi * 4
					a := alpha[pi]
					r, gr, b := frame[i], frame[i+1], frame[i+2]

					switch p.Kind {
					case Remove:
						out[i], out[i+1], out[i+2] = r, gr, b
						out[i+3] = uint8(math.Round(a * 255))
						continue
					case ReplaceColor:
						out[i] = mix(r, fill[0], a)
						out[i+1] = mix(gr, fill[1], a)
						out[i+2] = mix(b, fill[2], a)
					case IsolateColor:
						fr, fg, fb := boostSaturation(r, gr, b, c.opts.IsolateSaturationBoost)
						br, bgc, bb := bg.at(x, y)
						out[i] = mix(fr, br, a)
						out[i+1] = mix(fg, bgc, a)
						out[i+2] = mix(fb, bb, a)
					default:
						if !hasBG {
							return fmt.Errorf("no background for effect %s", p.Kind)
						}
						br, bgc, bb := bg.at(x, y)
						out[i] = mix(r, br, a)
						out[i+1] = mix(gr, bgc, a)
						out[i+2] = mix(b, bb, a)
					}
					out[i+3] = 255
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func mix(fg, bg uint8, a float64) uint8 {
	return uint8(math.Round(float64(fg)*a + float64(bg)*(1-a)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
