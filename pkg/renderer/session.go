package renderer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/df07/go-rtrace/pkg/core"
)

// Job is one render pass started by a Session
type Job struct {
	ID    uuid.UUID
	Frame *FrameBuffer

	tilesTotal int
	tilesDone  atomic.Int64
	cancel     context.CancelFunc
	done       chan struct{}
	stats      RenderStats
	err        error
}

// Progress returns how many tiles have finished
func (j *Job) Progress() Progress {
	return Progress{TilesTotal: j.tilesTotal, TilesDone: int(j.tilesDone.Load())}
}

// Done is closed once every worker of the job has stopped
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel asks the job to stop without waiting for it. Unlike Session.Cancel it is
// safe to call from the job's own callbacks.
func (j *Job) Cancel() { j.cancel() }

// Wait blocks until the job stops and returns its outcome
func (j *Job) Wait() (RenderStats, error) {
	<-j.done
	return j.stats, j.err
}

// Session owns at most one in-flight render. Starting a new render first cancels the
// previous one and waits for its workers to stop, so two passes never write concurrently.
type Session struct {
	mu      sync.Mutex
	current *Job
	logger  *slog.Logger
}

// NewSession creates an idle session
func NewSession(logger *slog.Logger) *Session {
	return &Session{logger: core.LoggerOrDefault(logger)}
}

// Start cancels any in-flight render, then starts r on a fresh frame buffer.
// Callbacks in opts run on the job's dispatching goroutine and must not call
// Start, Cancel, Current or Wait on the session: those wait on the job that is
// running the callback. Use Job.Cancel instead.
func (s *Session) Start(ctx context.Context, r *Renderer, opts RenderOptions) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:         uuid.New(),
		Frame:      NewFrameBuffer(r.Config().Width, r.Config().Height),
		tilesTotal: len(r.Tiles()),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.current = job

	opts.FrameBuffer = job.Frame
	onProgress := opts.OnProgress
	opts.OnProgress = func(p Progress) {
		job.tilesDone.Store(int64(p.TilesDone))
		if onProgress != nil {
			onProgress(p)
		}
	}

	s.logger.Debug("render job started", "job", job.ID)
	go func() {
		defer close(job.done)
		defer cancel()
		_, job.stats, job.err = r.Render(ctx, opts)
	}()

	return job
}

// Cancel stops the in-flight render, if any, and waits for it to acknowledge
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Current returns the most recently started job, or nil
func (s *Session) Current() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Wait blocks until the current job stops
func (s *Session) Wait() (RenderStats, error) {
	job := s.Current()
	if job == nil {
		return RenderStats{}, nil
	}
	return job.Wait()
}

func (s *Session) stopLocked() {
	if s.current == nil {
		return
	}
	select {
	case <-s.current.done:
		return
	default:
	}
	s.logger.Debug("cancelling render job", "job", s.current.ID)
	s.current.cancel()
	<-s.current.done
}
