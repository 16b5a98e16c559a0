package session

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/ironsheep/bgeffect-mcp/internal/effect"
	"github.com/ironsheep/bgeffect-mcp/internal/mask"
)

// Options configures a Session.
type Options struct {
	Mask       mask.Params
	Compositor effect.Options

	// Effect is the initial effect; Reset keeps whatever is current.
	Effect effect.Params

	// Logger receives notices and frame errors. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the stock tuning with background removal.
func DefaultOptions() Options {
	return Options{
		Mask:       mask.DefaultParams(),
		Compositor: effect.DefaultOptions(),
		Effect:     effect.DefaultParams(),
	}
}

// Frame is one input to ProcessFrame.
type Frame struct {
	// Pixels is the W*H*4 RGBA frame.
	Pixels []byte

	// Mask is the W*H raw foreground mask. Nil means the segmentation
	// source produced nothing for this frame.
	Mask []byte

	// Effect overrides the session effect. A frame that renders with an
	// override makes it the session's current effect.
	Effect *effect.Params
}

// Result is one rendered frame.
type Result struct {
	Pixels  []byte   `json:"-"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Seq     uint64   `json:"seq"`
	Notices []Notice `json:"notices,omitempty"`
}

// Status is a point-in-time view of a session.
type Status struct {
	ID              string        `json:"session_id"`
	State           State         `json:"state"`
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	Frames          uint64        `json:"frames"`
	HistoryLen      int           `json:"history_len"`
	ExcludedPixels  int           `json:"excluded_pixels"`
	MeanConfidence  float64       `json:"mean_confidence"`
	PendingFeedback int           `json:"pending_feedback"`
	Busy            bool          `json:"busy"`
	Effect          effect.Params `json:"effect"`
}

// Session owns all per-run state of the engine.
type Session struct {
	id     string
	logger *zap.Logger
	params mask.Params
	comp   *effect.Compositor
	busy   atomic.Bool
	status atomic.Pointer[Status]

	mu       sync.Mutex
	state    State
	width    int
	height   int
	fx       effect.Params
	history  *mask.Ring
	detector *mask.Detector
	acc      mask.Accumulator

	accum        []float64
	exclude      []bool
	stageAccum   []float64
	stageExclude []bool

	pending []mask.Feedback
	notices []Notice
	frames  uint64 // committed frames since the last init or reset
	seq     uint64 // committed frames over the session lifetime
}

// New creates an uninitialized session.
func New(opts Options) (*Session, error) {
	if opts.Mask.ExclusionInterval < 1 {
		return nil, fmt.Errorf("exclusion interval must be at least 1, got %d", opts.Mask.ExclusionInterval)
	}
	history, err := mask.NewRing(opts.Mask.HistoryCapacity)
	if err != nil {
		return nil, err
	}
	if err := opts.Effect.Validate(); err != nil {
		return nil, fmt.Errorf("failed to set initial effect: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()

	s := &Session{
		id:       id,
		logger:   logger.With(zap.String("session", id)),
		params:   opts.Mask,
		comp:     effect.NewCompositor(opts.Compositor),
		fx:       opts.Effect,
		history:  history,
		detector: mask.NewDetector(opts.Mask),
		acc:      mask.NewAccumulator(opts.Mask),
	}
	s.publish()
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Busy reports whether a frame is being processed. It does not block.
func (s *Session) Busy() bool { return s.busy.Load() }

// Init sets the session dimensions. The first call allocates the per-pixel
// buffers; later calls with a different size reallocate them, discarding
// history and the accumulated mask. Calling Init with the current size is a
// no-op. Non-positive dimensions fail with InvalidDimensions and leave the
// session unchanged.
func (s *Session) Init(width, height int) error {
	if width <= 0 || height <= 0 {
		return newError(InvalidDimensions, nil, "got %dx%d", width, height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	switch s.state {
	case Finalizing, Done:
		return newError(SessionClosed, nil, "cannot init a finalized session")
	case Uninitialized:
		s.allocate(width, height)
		s.state = Ready
		s.raise(NoticeInitialized, "session initialized at %dx%d", width, height)
	default:
		if width == s.width && height == s.height {
			return nil
		}
		old := fmt.Sprintf("%dx%d", s.width, s.height)
		s.allocate(width, height)
		s.state = Ready
		s.raise(NoticeMasksReinitialized, "masks reinitialized: %s -> %dx%d", old, width, height)
	}
	return nil
}

func (s *Session) allocate(width, height int) {
	n := width * height
	s.width, s.height = width, height
	s.accum = make([]float64, n)
	s.exclude = make([]bool, n)
	s.stageAccum = make([]float64, n)
	s.stageExclude = make([]bool, n)
	s.history.Reset()
	s.pending = nil
	s.frames = 0
}

// ProcessFrame runs the pipeline for one frame and returns the rendered
// output. On error nothing is rendered and the session state is exactly as
// it was before the call.
func (s *Session) ProcessFrame(ctx context.Context, f Frame) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	s.busy.Store(true)
	defer s.busy.Store(false)

	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := s.checkFrame(f); err != nil {
		s.logger.Warn("frame dropped", zap.Error(err))
		return nil, err
	}

	fx := s.fx
	if f.Effect != nil {
		fx = *f.Effect
	}

	copy(s.stageAccum, s.accum)
	copy(s.stageExclude, s.exclude)

	var (
		notices   []Notice
		samples   [][]byte
		zeroAlpha bool
	)
	switch {
	case f.Mask != nil:
		samples = s.history.Window(f.Mask)
		if s.frames%uint64(s.params.ExclusionInterval) == 0 {
			s.detector.Compute(samples, s.stageExclude)
		}
		s.acc.Blend(s.stageAccum, f.Mask, s.stageExclude)
	default:
		samples = s.history.Snapshot()
		if motion := mask.MotionMask(samples); motion != nil {
			s.acc.Blend(s.stageAccum, motion, s.stageExclude)
			notices = append(notices, Notice{Kind: NoticeMotionFallback, Message: "no raw mask, using motion between the two newest history entries"})
		} else {
			zeroAlpha = true
			notices = append(notices, Notice{Kind: NoticeMissingMaskSource, Message: "no raw mask and insufficient history, rendering pure background"})
		}
	}

	for _, fb := range s.pending {
		n, err := s.feedbackInto(s.stageAccum, s.stageExclude, samples, fb)
		if err != nil {
			// Queued events were validated on entry; only a resize could
			// invalidate them, and Init clears the queue.
			return nil, newError(InvalidFeedback, err, "queued %s feedback", fb.Kind)
		}
		notices = append(notices, Notice{Kind: NoticeFeedbackApplied, Message: fmt.Sprintf("applied queued %s feedback to %d pixels", fb.Kind, n)})
	}

	alphaSource := s.stageAccum
	if zeroAlpha {
		alphaSource = nil
	}
	out, err := s.comp.Composite(ctx, f.Pixels, s.width, s.height, alphaSource, s.stageExclude, fx)
	if err != nil {
		serr := newError(CompositingFailure, err, "frame dropped")
		s.logger.Warn("frame dropped", zap.Error(serr), zap.Stringer("effect", fx.Kind))
		return nil, serr
	}

	// commit
	if f.Mask != nil {
		s.history.Push(f.Mask)
	}
	s.accum, s.stageAccum = s.stageAccum, s.accum
	s.exclude, s.stageExclude = s.stageExclude, s.exclude
	s.pending = nil
	s.fx = fx
	s.frames++
	s.seq++
	s.state = Processing

	for _, n := range notices {
		s.logger.Info(n.Message, zap.Stringer("notice", n.Kind), zap.Uint64("seq", s.seq))
	}
	all := append(s.takeNotices(), notices...)

	return &Result{
		Pixels:  out,
		Width:   s.width,
		Height:  s.height,
		Seq:     s.seq,
		Notices: all,
	}, nil
}

func (s *Session) checkOpen() error {
	switch s.state {
	case Uninitialized:
		return newError(UninitializedSession, nil, "call init before submitting frames")
	case Finalizing, Done:
		return newError(SessionClosed, nil, "session is %s", s.state)
	}
	return nil
}

func (s *Session) checkFrame(f Frame) error {
	n := s.width * s.height
	if len(f.Pixels) != n*4 {
		return newError(DimensionMismatch, nil, "frame has %d bytes, want %d for %dx%d", len(f.Pixels), n*4, s.width, s.height)
	}
	if f.Mask != nil && len(f.Mask) != n {
		return newError(DimensionMismatch, nil, "mask has %d pixels, want %d for %dx%d", len(f.Mask), n, s.width, s.height)
	}
	if f.Effect != nil {
		if err := f.Effect.Validate(); err != nil {
			return newError(CompositingFailure, err, "frame dropped")
		}
	}
	return nil
}

// Feedback applies a correction to the accumulated mask immediately.
//
// The correction targets fb.Region when set, otherwise the newest raw mask
// in history, otherwise every pixel.
func (s *Session) Feedback(fb mask.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	if err := s.checkFeedback(fb); err != nil {
		return err
	}
	n, err := s.feedbackInto(s.accum, s.exclude, s.history.Snapshot(), fb)
	if err != nil {
		return newError(InvalidFeedback, err, "%s", fb.Kind)
	}
	s.raise(NoticeFeedbackApplied, "applied %s feedback to %d pixels", fb.Kind, n)
	return nil
}

// QueueFeedback defers a correction to the next frame, where it is applied
// right after that frame's observation is accumulated.
func (s *Session) QueueFeedback(fb mask.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	if err := s.checkFeedback(fb); err != nil {
		return err
	}
	if fb.Region != nil {
		fb.Region = append([]byte(nil), fb.Region...)
	}
	s.pending = append(s.pending, fb)
	s.raise(NoticeFeedbackQueued, "queued %s feedback", fb.Kind)
	return nil
}

func (s *Session) checkFeedback(fb mask.Feedback) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if fb.Region != nil && len(fb.Region) != s.width*s.height {
		return newError(DimensionMismatch, nil, "feedback region has %d pixels, want %d", len(fb.Region), s.width*s.height)
	}
	if fb.Kind != mask.Reinforce && fb.Kind != mask.Suppress {
		return newError(InvalidFeedback, nil, "unknown kind %v", fb.Kind)
	}
	if math.IsNaN(fb.Influence) || fb.Influence < 0 || fb.Influence > 1 {
		return newError(InvalidFeedback, nil, "influence must be within [0,1], got %g", fb.Influence)
	}
	return nil
}

// feedbackInto applies fb to accum and, with enough samples, refreshes
// exclude so it reflects the corrected state.
func (s *Session) feedbackInto(accum []float64, exclude []bool, samples [][]byte, fb mask.Feedback) (int, error) {
	influence := fb.Influence
	if influence == 0 {
		influence = s.params.FeedbackInfluence
	}
	target := fb.Region
	if target == nil && len(samples) > 0 {
		target = samples[len(samples)-1]
	}

	n, err := mask.ApplyFeedback(accum, target, fb.Kind, influence, s.params.FeedbackActivity)
	if err != nil {
		return 0, err
	}
	if len(samples) >= s.params.FeedbackRecomputeSamples {
		s.detector.Compute(samples, exclude)
	}
	return n, nil
}

// SetEffect changes the effect used by subsequent frames.
func (s *Session) SetEffect(p effect.Params) error {
	if err := p.Validate(); err != nil {
		return newError(CompositingFailure, err, "effect rejected")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	if s.state == Finalizing || s.state == Done {
		return newError(SessionClosed, nil, "session is %s", s.state)
	}
	s.fx = p
	return nil
}

// Reset clears history, the exclusion map, the accumulated mask and queued
// feedback. Dimensions and the current effect are kept, and the next frame
// behaves exactly like the first frame of a new session.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	if err := s.checkOpen(); err != nil {
		return err
	}
	s.allocate(s.width, s.height)
	s.state = Ready
	s.raise(NoticeReset, "reset accumulated mask and history")
	return nil
}

// Finalize ends the session. Queued feedback is discarded because no frame
// will apply it; no accumulation happens after this call.
func (s *Session) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	if s.state == Finalizing || s.state == Done {
		return newError(SessionClosed, nil, "session is already %s", s.state)
	}
	s.state = Finalizing
	if len(s.pending) > 0 {
		s.logger.Debug("discarding queued feedback", zap.Int("count", len(s.pending)))
		s.pending = nil
	}
	s.state = Done
	s.raise(NoticeFinalized, "session finalized after %d frames", s.seq)
	return nil
}

// Status returns the session as of its last completed operation. It never
// waits for a frame in flight; Busy reports whether one is.
func (s *Session) Status() Status {
	st := *s.status.Load()
	st.Busy = s.busy.Load()
	return st
}

// publish stores the status view read by Status. Callers hold s.mu.
func (s *Session) publish() {
	s.status.Store(&Status{
		ID:              s.id,
		State:           s.state,
		Width:           s.width,
		Height:          s.height,
		Frames:          s.seq,
		HistoryLen:      s.history.Len(),
		ExcludedPixels:  mask.CountExcluded(s.exclude),
		MeanConfidence:  mask.Mean(s.accum),
		PendingFeedback: len(s.pending),
		Effect:          s.fx,
	})
}

// Accum returns a copy of the accumulated mask.
func (s *Session) Accum() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.accum...)
}

// Exclusion returns a copy of the exclusion map.
func (s *Session) Exclusion() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.exclude...)
}

// MaskSnapshot is a copy of the mask state taken under one lock.
type MaskSnapshot struct {
	Width     int
	Height    int
	Accum     []float64
	Exclusion []bool
}

// Snapshot returns the dimensions, accumulated mask and exclusion map as of
// the same committed frame.
func (s *Session) Snapshot() MaskSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MaskSnapshot{
		Width:     s.width,
		Height:    s.height,
		Accum:     append([]float64(nil), s.accum...),
		Exclusion: append([]bool(nil), s.exclude...),
	}
}

// DrainNotices returns and clears notices raised outside frame processing
// (init, feedback, reset, finalize) that no frame has reported yet.
func (s *Session) DrainNotices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.takeNotices()
}

func (s *Session) raise(kind NoticeKind, format string, args ...interface{}) {
	n := Notice{Kind: kind, Message: fmt.Sprintf(format, args...)}
	s.logger.Info(n.Message, zap.Stringer("notice", kind))
	if len(s.notices) == maxPendingNotices {
		s.notices = s.notices[1:]
	}
	s.notices = append(s.notices, n)
}

func (s *Session) takeNotices() []Notice {
	out := s.notices
	s.notices = nil
	return out
}
