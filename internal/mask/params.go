package mask

// Params holds the tunable constants of the temporal pipeline.
type Params struct {
	// HistoryCapacity is the number of raw masks kept for statistics.
	HistoryCapacity int

	// MinSamples is the number of buffered masks required before the
	// exclusion detector produces a map. Below it the detector is a no-op.
	MinSamples int

	// VarianceThreshold is the per-pixel variance (of raw/255) above which a
	// pixel is considered oscillating.
	VarianceThreshold float64

	// MeanLow and MeanHigh bound (exclusively) the per-pixel mean for a pixel
	// to be excluded. Pixels that are almost always background or almost
	// always foreground are never excluded.
	MeanLow  float64
	MeanHigh float64

	// ExclusionInterval recomputes the exclusion map every k-th frame.
	ExclusionInterval int

	// ExclusionDecay multiplies the accumulated value of excluded pixels
	// once per frame.
	ExclusionDecay float64

	// Sway is the weight of the new observation in the moving average.
	Sway float64

	// FeedbackInfluence is the default weight of a feedback correction.
	FeedbackInfluence float64

	// FeedbackActivity is the normalized target value a pixel must exceed to
	// be affected by feedback.
	FeedbackActivity float64

	// FeedbackRecomputeSamples is the history length at which feedback
	// triggers an opportunistic exclusion recompute.
	FeedbackRecomputeSamples int
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		HistoryCapacity:          16,
		MinSamples:               6,
		VarianceThreshold:        0.02,
		MeanLow:                  0.04,
		MeanHigh:                 0.96,
		ExclusionInterval:        1,
		ExclusionDecay:           0.95,
		Sway:                     0.25,
		FeedbackInfluence:        0.85,
		FeedbackActivity:         0.25,
		FeedbackRecomputeSamples: 4,
	}
}
