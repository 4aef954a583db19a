package async

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/pipeline"
)

// CaptureProcessor is what the scheduler drives; *pipeline.Processor satisfies it.
type CaptureProcessor interface {
	ProcessWithProgress(ctx context.Context, c entity.Capture, fn pipeline.ProgressFunc) (*entity.ContentItem, error)
}

// Scheduler admits captures from a priority queue into at most maxConcurrent
// simultaneous runs. Runs are detached from the submitter's cancellation and
// bounded by the process timeout instead.
type Scheduler struct {
	proc          CaptureProcessor
	logger        *slog.Logger
	maxConcurrent int
	queueSize     int
	timeout       time.Duration

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu       sync.Mutex
	pending  jobHeap
	inFlight map[string]struct{}
	running  int
	seq      uint64
	closed   bool
	space    chan struct{} // closed and replaced whenever a queue slot frees
}

type Option func(*Scheduler)

func WithMaxConcurrent(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewScheduler(proc CaptureProcessor, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		proc:          proc,
		logger:        logger,
		maxConcurrent: 3,
		queueSize:     256,
		timeout:       3 * time.Minute,
		inFlight:      map[string]struct{}{},
		space:         make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.sem = semaphore.NewWeighted(int64(s.maxConcurrent))
	return s
}

// Submit queues a job. It blocks while the queue is full, until ctx is done.
// A job whose key is already queued or running is rejected with ErrAlreadyProcessing.
func (s *Scheduler) Submit(ctx context.Context, job Job) (<-chan Result, error) {
	if job.Key == "" {
		job.Key = job.Capture.ContentHash
	}
	if job.Key == "" {
		job.Key = uuid.NewString()
	}
	if job.Priority == 0 {
		job.Priority = job.Capture.Priority
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	s.mu.Lock()
	for {
		if s.closed {
			s.mu.Unlock()
			s.logger.Warn("cannot enqueue: queue is shutting down", "key", job.Key)
			return nil, common.ErrQueueClosed
		}
		if _, busy := s.inFlight[job.Key]; busy {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", common.ErrAlreadyProcessing, job.Key)
		}
		if s.pending.Len() < s.queueSize {
			break
		}
		wait := s.space
		s.mu.Unlock()
		s.logger.Warn("queue full, applying backpressure", "key", job.Key)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
		s.mu.Lock()
	}

	ch := make(chan Result, 1)
	s.seq++
	heap.Push(&s.pending, &queued{job: job, seq: s.seq, done: ch, parent: ctx})
	s.inFlight[job.Key] = struct{}{}
	s.wg.Add(1)
	s.logger.Info("queued capture for processing", "key", job.Key, "priority", job.Priority, "pending", s.pending.Len())
	s.dispatchLocked()
	s.mu.Unlock()
	return ch, nil
}

// SubmitAndWait submits and waits for the result or ctx. The run itself is not
// cancelled when ctx ends.
func (s *Scheduler) SubmitAndWait(ctx context.Context, job Job) (*entity.ContentItem, error) {
	ch, err := s.Submit(ctx, job)
	if err != nil {
		return nil, err
	}
	select {
	case r := <-ch:
		return r.Item, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// dispatchLocked starts queued jobs while a slot is free. Caller holds s.mu.
func (s *Scheduler) dispatchLocked() {
	for s.pending.Len() > 0 && s.sem.TryAcquire(1) {
		q := heap.Pop(&s.pending).(*queued)
		s.running++
		s.signalSpaceLocked()
		go s.run(q)
	}
}

func (s *Scheduler) signalSpaceLocked() {
	close(s.space)
	s.space = make(chan struct{})
}

func (s *Scheduler) run(q *queued) {
	defer s.wg.Done()
	log := s.logger.With("key", q.job.Key, "trace_id", q.job.TraceID)
	log.Info("capture started", "waited_ms", time.Since(q.job.SubmittedAt).Milliseconds())

	ctx, cancel := context.WithTimeout(context.WithoutCancel(q.parent), s.timeout)
	item, err := s.proc.ProcessWithProgress(ctx, q.job.Capture, q.job.Progress)
	cancel()

	if err != nil {
		log.Error("processing failed", "error", err)
	} else {
		log.Info("processed capture successfully", "content_id", item.ID)
	}
	q.done <- Result{Key: q.job.Key, Item: item, Err: err}
	close(q.done)

	s.mu.Lock()
	s.running--
	delete(s.inFlight, q.job.Key)
	s.sem.Release(1)
	s.dispatchLocked()
	s.mu.Unlock()
}

// Stats reports queued and running counts.
func (s *Scheduler) Stats() (pending, running int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Len(), s.running
}

// Shutdown stops accepting jobs and waits for queued and running ones to finish.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.signalSpaceLocked()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); s.wg.Wait() }()

	select {
	case <-ctx.Done():
		s.logger.Warn("shutdown interrupted by context")
		return ctx.Err()
	case <-done:
		s.logger.Info("queue drained, shutdown complete")
		return nil
	}
}

type queued struct {
	job    Job
	seq    uint64
	done   chan Result
	parent context.Context
}

// jobHeap orders by priority descending, then submission order.
type jobHeap []*queued

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].job.Priority != h[j].job.Priority {
		return h[i].job.Priority > h[j].job.Priority
	}
	return h[i].seq < h[j].seq
}
func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)   { *h = append(*h, x.(*queued)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}
