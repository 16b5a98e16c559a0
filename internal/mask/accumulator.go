package mask

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Accumulator folds raw masks into the persistent confidence buffer:
//
//	accum = accum*(1-Sway) + raw/255*Sway
//	accum *= Decay               (excluded pixels only)
//
// so a misclassified periodic region fades out over a few seconds instead of
// flickering off in one frame.
type Accumulator struct {
	Sway  float64
	Decay float64
}

// NewAccumulator creates an accumulator from p.
func NewAccumulator(p Params) Accumulator {
	return Accumulator{Sway: p.Sway, Decay: p.ExclusionDecay}
}

// Blend updates accum in place with one observation. exclude may be nil.
// Callers guarantee len(raw) == len(accum).
func (a Accumulator) Blend(accum []float64, raw []byte, exclude []bool) {
	keep := 1 - a.Sway
	for p := range accum {
		v := accum[p]*keep + float64(raw[p])/255*a.Sway
		if exclude != nil && exclude[p] {
			v *= a.Decay
		}
		accum[p] = Clamp01(v)
	}
}

// MotionMask builds a substitute observation for a frame that arrived
// without a raw mask: the per-pixel absolute difference between the two
// newest samples. It returns nil when fewer than two samples exist.
func MotionMask(samples [][]byte) []byte {
	if len(samples) < 2 {
		return nil
	}
	cur := samples[len(samples)-1]
	prev := samples[len(samples)-2]
	if len(cur) != len(prev) {
		return nil
	}

	out := make([]byte, len(cur))
	for p := range cur {
		if cur[p] >= prev[p] {
			out[p] = cur[p] - prev[p]
		} else {
			out[p] = prev[p] - cur[p]
		}
	}
	return out
}

// Clamp01 limits v to [0,1]; NaN maps to 0.
func Clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Mean returns the average confidence, 0 for an empty buffer.
func Mean(accum []float64) float64 {
	if len(accum) == 0 {
		return 0
	}
	return stat.Mean(accum, nil)
}
