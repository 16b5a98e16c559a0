package mask

import (
	"fmt"
	"math"
	"strings"
)

// FeedbackKind tells which way a correction pushes the accumulated mask.
type FeedbackKind int

const (
	// Reinforce pushes active pixels toward foreground.
	Reinforce FeedbackKind = iota + 1
	// Suppress pushes active pixels toward background.
	Suppress
)

func (k FeedbackKind) String() string {
	switch k {
	case Reinforce:
		return "reinforce"
	case Suppress:
		return "suppress"
	default:
		return fmt.Sprintf("FeedbackKind(%d)", int(k))
	}
}

// ParseFeedbackKind accepts "reinforce"/"like" and "suppress"/"dislike".
func ParseFeedbackKind(s string) (FeedbackKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reinforce", "like":
		return Reinforce, nil
	case "suppress", "dislike":
		return Suppress, nil
	default:
		return 0, fmt.Errorf("unknown feedback kind: %q", s)
	}
}

// Feedback is one explicit correction from the user.
type Feedback struct {
	Kind FeedbackKind

	// Region optionally restricts the correction to pixels whose value
	// exceeds the activity threshold. Nil means "use the session default
	// target" (see session.Session.Feedback).
	Region []byte

	// Influence is the correction weight in [0,1]; 0 selects the default.
	Influence float64
}

// ApplyFeedback nudges accum toward 1 (Reinforce) or 0 (Suppress) for every
// pixel whose target value, normalized to [0,1], exceeds activity:
//
//	Reinforce: accum = accum*(1-influence) + influence
//	Suppress:  accum = accum*(1-influence)
//
// A nil target selects every pixel. The two operations are not inverses:
// Reinforce then Suppress from 0 leaves influence*(1-influence).
// ApplyFeedback returns the number of adjusted pixels.
func ApplyFeedback(accum []float64, target []byte, kind FeedbackKind, influence, activity float64) (int, error) {
	if math.IsNaN(influence) || influence < 0 || influence > 1 {
		return 0, fmt.Errorf("feedback influence must be within [0,1], got %g", influence)
	}
	if target != nil && len(target) != len(accum) {
		return 0, fmt.Errorf("feedback target has %d pixels, want %d", len(target), len(accum))
	}

	var apply func(v float64) float64
	switch kind {
	case Reinforce:
		apply = func(v float64) float64 { return v*(1-influence) + 1.0*influence }
	case Suppress:
		apply = func(v float64) float64 { return v * (1 - influence) }
	default:
		return 0, fmt.Errorf("unknown feedback kind: %v", kind)
	}

	adjusted := 0
	for p := range accum {
		if target != nil && float64(target[p])/255 <= activity {
			continue
		}
		accum[p] = Clamp01(apply(accum[p]))
		adjusted++
	}
	return adjusted, nil
}
