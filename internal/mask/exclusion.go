package mask

import "gonum.org/v1/gonum/stat"

// Detector flags pixels whose raw-mask value keeps flipping between
// foreground and background, which is what a spinning fan or a flickering
// screen looks like to a segmentation model. A person moving through the
// frame produces a change in mean, not a sustained oscillation.
//
// For every pixel the detector takes the population mean and variance of
// raw/255 across the buffered samples and marks
//
//	exclude = variance > VarianceThreshold && MeanLow < mean < MeanHigh
type Detector struct {
	minSamples int
	variance   float64
	meanLow    float64
	meanHigh   float64

	scratch []float64
}

// NewDetector creates a detector from the exclusion fields of p.
func NewDetector(p Params) *Detector {
	return &Detector{
		minSamples: p.MinSamples,
		variance:   p.VarianceThreshold,
		meanLow:    p.MeanLow,
		meanHigh:   p.MeanHigh,
	}
}

// Compute rewrites exclude from samples and reports whether it did.
//
// With fewer than the minimum number of samples, or when any sample length
// differs from len(exclude), exclude is left as it was and Compute returns
// false.
func (d *Detector) Compute(samples [][]byte, exclude []bool) bool {
	if len(samples) < d.minSamples || len(samples) == 0 {
		return false
	}
	for _, s := range samples {
		if len(s) != len(exclude) {
			return false
		}
	}

	if cap(d.scratch) < len(samples) {
		d.scratch = make([]float64, len(samples))
	}
	x := d.scratch[:len(samples)]

	for p := range exclude {
		for k, s := range samples {
			x[k] = float64(s[p]) / 255
		}
		mean, variance := stat.PopMeanVariance(x, nil)
		exclude[p] = variance > d.variance && mean > d.meanLow && mean < d.meanHigh
	}
	return true
}

// CountExcluded returns the number of flagged pixels.
func CountExcluded(exclude []bool) int {
	n := 0
	for _, e := range exclude {
		if e {
			n++
		}
	}
	return n
}
