package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/atomic"

	"github.com/ironsheep/bgeffect-mcp/internal/mask"
)

// ErrWorkerClosed is returned for events submitted after Close.
var ErrWorkerClosed = errors.New("session worker closed")

type event struct {
	run  func(ctx context.Context)
	ctx  context.Context
	done chan struct{}

	// claimed is set by whichever side gets the event first: the worker
	// running it or the submitter giving up on it.
	claimed *atomic.Bool
}

// Worker feeds a Session from a single goroutine in submission order.
//
// Every input (a frame with its segmentation result, feedback, reset,
// finalize) is one event on a bounded queue. Submitting blocks while the
// queue is full, which is the caller's backpressure; the session itself
// never buffers frames.
type Worker struct {
	s *Session

	events  chan event
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once

	processed atomic.Uint64
}

// NewWorker starts a worker for s with room for queue pending events.
func NewWorker(s *Session, queue int) *Worker {
	if queue < 1 {
		queue = 1
	}
	w := &Worker{
		s:       s,
		events:  make(chan event, queue),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Session returns the wrapped session.
func (w *Worker) Session() *Session { return w.s }

// Processed returns the number of events handled so far.
func (w *Worker) Processed() uint64 { return w.processed.Load() }

func (w *Worker) loop() {
	defer close(w.stopped)
	for {
		select {
		case ev := <-w.events:
			w.handle(ev)
		case <-w.quit:
			for {
				select {
				case ev := <-w.events:
					w.handle(ev)
				default:
					return
				}
			}
		}
	}
}

func (w *Worker) handle(ev event) {
	defer close(ev.done)
	if !ev.claimed.CompareAndSwap(false, true) {
		// the submitter already returned its context error
		return
	}
	ev.run(ev.ctx)
	w.processed.Inc()
}

// submit enqueues fn and waits for it to run. If ctx ends before the worker
// picks the event up, the event is dropped and ctx.Err() returned; once it
// has started it runs to completion and submit reports its outcome.
func (w *Worker) submit(ctx context.Context, fn func(ctx context.Context)) error {
	ev := event{run: fn, ctx: ctx, done: make(chan struct{}), claimed: atomic.NewBool(false)}

	select {
	case <-w.quit:
		return ErrWorkerClosed
	default:
	}

	select {
	case w.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.quit:
		return ErrWorkerClosed
	}

	select {
	case <-ev.done:
		return nil
	case <-ctx.Done():
		if ev.claimed.CompareAndSwap(false, true) {
			return ctx.Err()
		}
		<-ev.done
		return nil
	case <-w.stopped:
		// the loop may have drained the event just before stopping
		select {
		case <-ev.done:
			return nil
		default:
			return ErrWorkerClosed
		}
	}
}

// ProcessFrame queues a frame and returns its result.
func (w *Worker) ProcessFrame(ctx context.Context, f Frame) (*Result, error) {
	var (
		res *Result
		err error
	)
	if serr := w.submit(ctx, func(ctx context.Context) {
		res, err = w.s.ProcessFrame(ctx, f)
	}); serr != nil {
		return nil, serr
	}
	return res, err
}

// Feedback queues an immediate feedback correction.
func (w *Worker) Feedback(ctx context.Context, fb mask.Feedback) error {
	var err error
	if serr := w.submit(ctx, func(context.Context) { err = w.s.Feedback(fb) }); serr != nil {
		return serr
	}
	return err
}

// QueueFeedback queues feedback that applies with the next frame after it.
func (w *Worker) QueueFeedback(ctx context.Context, fb mask.Feedback) error {
	var err error
	if serr := w.submit(ctx, func(context.Context) { err = w.s.QueueFeedback(fb) }); serr != nil {
		return serr
	}
	return err
}

// Reset queues a reset behind any frames already submitted.
func (w *Worker) Reset(ctx context.Context) error {
	var err error
	if serr := w.submit(ctx, func(context.Context) { err = w.s.Reset() }); serr != nil {
		return serr
	}
	return err
}

// Finalize waits for every frame submitted before it, then finalizes the
// session.
func (w *Worker) Finalize(ctx context.Context) error {
	var err error
	if serr := w.submit(ctx, func(context.Context) { err = w.s.Finalize() }); serr != nil {
		return serr
	}
	return err
}

// Close stops accepting events, runs the ones already queued and waits for
// the worker goroutine to exit.
func (w *Worker) Close() {
	w.once.Do(func() { close(w.quit) })
	<-w.stopped
}
