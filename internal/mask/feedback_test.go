package mask

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFeedback_ReinforceThenSuppressAlgebra(t *testing.T) {
	const influence = 0.85
	accum := []float64{0}

	_, err := ApplyFeedback(accum, nil, Reinforce, influence, 0.25)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, accum[0], 1e-12)

	_, err = ApplyFeedback(accum, nil, Suppress, influence, 0.25)
	require.NoError(t, err)

	// Not an inverse pair: the result is influence*(1-influence).
	assert.InDelta(t, 0.1275, accum[0], 1e-12)
	assert.Equal(t, influence*(1-influence), accum[0])
}

func TestApplyFeedback_TargetActivity(t *testing.T) {
	accum := []float64{0.5, 0.5, 0.5}
	// 64/255 = 0.251 is active, 63/255 = 0.247 is not
	target := []byte{255, 63, 64}

	n, err := ApplyFeedback(accum, target, Suppress, 0.5, 0.25)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{0.25, 0.5, 0.25}, accum)
}

func TestApplyFeedback_Cumulative(t *testing.T) {
	accum := []float64{0.2}
	prev := accum[0]
	for i := 0; i < 5; i++ {
		_, err := ApplyFeedback(accum, nil, Reinforce, 0.3, 0.25)
		require.NoError(t, err)
		assert.Greater(t, accum[0], prev)
		prev = accum[0]
	}
	assert.LessOrEqual(t, accum[0], 1.0)
}

func TestApplyFeedback_Errors(t *testing.T) {
	tests := []struct {
		name      string
		target    []byte
		kind      FeedbackKind
		influence float64
	}{
		{"influence above one", nil, Reinforce, 1.5},
		{"negative influence", nil, Suppress, -0.1},
		{"NaN influence", nil, Reinforce, math.NaN()},
		{"unknown kind", nil, FeedbackKind(9), 0.5},
		{"target size", []byte{1}, Reinforce, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accum := []float64{0.4, 0.4}
			_, err := ApplyFeedback(accum, tt.target, tt.kind, tt.influence, 0.25)
			assert.Error(t, err)
			assert.Equal(t, []float64{0.4, 0.4}, accum, "failed feedback must not touch accum")
		})
	}
}

func TestParseFeedbackKind(t *testing.T) {
	tests := []struct {
		in      string
		want    FeedbackKind
		wantErr bool
	}{
		{"reinforce", Reinforce, false},
		{"Like", Reinforce, false},
		{"suppress", Suppress, false},
		{" dislike ", Suppress, false},
		{"maybe", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFeedbackKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) FeedbackKind {
	t.Helper()
	k, err := ParseFeedbackKind(s)
	require.NoError(t, err)
	return k
}
