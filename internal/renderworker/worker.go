package renderworker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"timer-stickers/internal/framecache"
	"timer-stickers/internal/logging"
	"timer-stickers/internal/render"
)

// ActionGenerate is the only request action the worker understands.
const ActionGenerate = "generate"

// Response types.
const (
	TypeProgress = "progress"
	TypeComplete = "complete"
	TypeError    = "error"
)

// ErrTerminated is returned by Submit after the worker has been
// terminated.
var ErrTerminated = errors.New("render worker terminated")

// Request asks the worker to render a full countdown range.
type Request struct {
	Action       string `json:"action"`
	TotalSeconds int    `json:"totalSeconds"`
	WorkerID     string `json:"workerId"`
}

// Response is one message from the worker. Progress responses report
// 0-100; a complete response carries the frame sequence in countdown
// order (element i is remaining-seconds totalSeconds-i).
type Response struct {
	Type     string             `json:"type"`
	WorkerID string             `json:"workerId"`
	Progress float64            `json:"progress,omitempty"`
	Frames   []framecache.Frame `json:"-"`
	Err      string             `json:"error,omitempty"`
}

var workerSeq atomic.Int64

// NewWorkerID returns a process-unique worker identifier.
func NewWorkerID() string {
	return fmt.Sprintf("render-%d", workerSeq.Add(1))
}

// Worker renders countdown ranges on its own goroutine.
type Worker struct {
	requests  chan Request
	responses chan Response
	cancel    context.CancelFunc
	done      chan struct{}
}

// Start launches a worker goroutine bound to the given renderer. The
// worker stops when Terminate is called or the parent context ends.
func Start(ctx context.Context, renderer render.Renderer) *Worker {
	ctx, cancel := context.WithCancel(ctx)
	w := &Worker{
		requests:  make(chan Request),
		responses: make(chan Response, 16),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go w.loop(ctx, renderer)
	return w
}

// Submit sends a request to the worker. It fails with ErrTerminated if
// the worker has already stopped.
func (w *Worker) Submit(req Request) error {
	select {
	case w.requests <- req:
		return nil
	case <-w.done:
		return ErrTerminated
	}
}

// Responses returns the worker's response stream.
func (w *Worker) Responses() <-chan Response {
	return w.responses
}

// Terminate stops the worker and waits for its goroutine to exit. It is
// safe to call more than once and on workers that already completed.
func (w *Worker) Terminate() {
	w.cancel()
	<-w.done
}

func (w *Worker) loop(ctx context.Context, renderer render.Renderer) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.requests:
			w.handle(ctx, renderer, req)
		}
	}
}

func (w *Worker) handle(ctx context.Context, renderer render.Renderer, req Request) {
	if req.Action != ActionGenerate {
		w.send(ctx, Response{
			Type:     TypeError,
			WorkerID: req.WorkerID,
			Err:      fmt.Sprintf("unknown action %q", req.Action),
		})
		return
	}
	if req.TotalSeconds < 0 {
		w.send(ctx, Response{
			Type:     TypeError,
			WorkerID: req.WorkerID,
			Err:      fmt.Sprintf("invalid totalSeconds %d", req.TotalSeconds),
		})
		return
	}

	total := req.TotalSeconds + 1
	frames := make([]framecache.Frame, 0, total)

	// Countdown order: remaining totalSeconds down to 0.
	for s := req.TotalSeconds; s >= 0; s-- {
		if ctx.Err() != nil {
			return
		}

		frame, err := renderer.RenderFrame(ctx, s)
		if err != nil {
			logging.Debug("render worker %s: frame %d failed: %v", req.WorkerID, s, err)
			w.send(ctx, Response{Type: TypeError, WorkerID: req.WorkerID, Err: err.Error()})
			return
		}
		frames = append(frames, frame)

		w.send(ctx, Response{
			Type:     TypeProgress,
			WorkerID: req.WorkerID,
			Progress: float64(len(frames)) / float64(total) * 100,
		})
	}

	w.send(ctx, Response{Type: TypeComplete, WorkerID: req.WorkerID, Frames: frames})
}

// send delivers a response unless the worker is being torn down; a
// discarded channel must never block termination.
func (w *Worker) send(ctx context.Context, resp Response) {
	select {
	case w.responses <- resp:
	case <-ctx.Done():
	}
}
