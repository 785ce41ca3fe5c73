package queue

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync/atomic"
	"time"

	"classcribe/internal/pkg/errs"

	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull       = errs.New("queue is full")
	ErrUnknownKind     = errs.New("no queue registered for job kind")
	ErrManagerStarted  = errs.New("queue manager already started")
	ErrManagerStopped  = errs.New("queue manager not running")
	ErrAlreadyRegister = errs.New("duplicate registration")
)

type Config struct {
	MaxAttempts int
	BackoffBase time.Duration
	Depth       int
}

// ExhaustedFunc runs after a job fails its final attempt (or fails
// permanently). It is the only escape hatch out of the retry loop.
type ExhaustedFunc func(ctx context.Context, job Job, err error)

type queue struct {
	name    string
	workers int
	// One buffered channel per worker; the ordering key picks the channel,
	// so jobs sharing a key execute strictly in enqueue order.
	lanes []chan Job
}

// Manager runs a fixed set of named queues. Worker counts are hard ceilings:
// each queue owns exactly that many goroutines and nothing else executes
// its jobs.
type Manager struct {
	cfg         Config
	queues      map[string]*queue
	kindToQueue map[string]string
	handlers    map[string]Handler
	onExhausted ExhaustedFunc

	// started is read by Enqueue concurrently with Start/Stop.
	started atomic.Bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Depth < 1 {
		cfg.Depth = 1
	}
	return &Manager{
		cfg:         cfg,
		queues:      make(map[string]*queue),
		kindToQueue: make(map[string]string),
		handlers:    make(map[string]Handler),
	}
}

func (m *Manager) RegisterQueue(name string, workers int) error {
	if m.started.Load() {
		return ErrManagerStarted
	}
	if _, ok := m.queues[name]; ok {
		return ErrAlreadyRegister
	}
	if workers < 1 {
		workers = 1
	}
	lanes := make([]chan Job, workers)
	for i := range lanes {
		lanes[i] = make(chan Job, m.cfg.Depth)
	}
	m.queues[name] = &queue{name: name, workers: workers, lanes: lanes}
	return nil
}

func (m *Manager) RegisterHandler(kind, queueName string, h Handler) error {
	if m.started.Load() {
		return ErrManagerStarted
	}
	if _, ok := m.queues[queueName]; !ok {
		return errs.New("unknown queue " + queueName)
	}
	if _, ok := m.handlers[kind]; ok {
		return ErrAlreadyRegister
	}
	m.handlers[kind] = h
	m.kindToQueue[kind] = queueName
	return nil
}

func (m *Manager) OnExhausted(fn ExhaustedFunc) {
	m.onExhausted = fn
}

// Enqueue routes the job to its queue and lane. A full lane rejects
// immediately rather than blocking the caller; callers treat that as
// backpressure.
func (m *Manager) Enqueue(_ context.Context, job Job) error {
	if !m.started.Load() {
		return ErrManagerStopped
	}
	queueName, ok := m.kindToQueue[job.Kind]
	if !ok {
		return ErrUnknownKind
	}
	q := m.queues[queueName]
	lane := q.lanes[laneFor(job.OrderingKey, q.workers)]

	select {
	case lane <- job:
		return nil
	default:
		return errs.Mark(errs.New("lane full in queue "+queueName), ErrQueueFull)
	}
}

func (m *Manager) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrManagerStarted
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.group, runCtx = errgroup.WithContext(runCtx)

	for _, q := range m.queues {
		for i, lane := range q.lanes {
			m.group.Go(m.workerLoop(runCtx, q.name, i, lane))
		}
		slog.Info("queue started", "queue", q.name, "workers", q.workers)
	}
	return nil
}

// Stop cancels all workers and waits for in-flight jobs to finish their
// current attempt. Queued jobs that never ran are dropped; the pipeline
// recovers them through reprocessing, not through queue persistence.
func (m *Manager) Stop() error {
	// Flip first so Enqueue rejects new jobs while workers drain.
	if !m.started.CompareAndSwap(true, false) {
		return ErrManagerStopped
	}
	m.cancel()
	err := m.group.Wait()
	slog.Info("queue manager stopped")
	return err
}

func (m *Manager) workerLoop(ctx context.Context, queueName string, worker int, lane <-chan Job) func() error {
	return func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case job := <-lane:
				m.process(ctx, queueName, worker, job)
			}
		}
	}
}

// process retries in place, blocking the lane. Blocking is deliberate:
// releasing the lane between attempts would let a later job for the same
// ordering key overtake this one.
func (m *Manager) process(ctx context.Context, queueName string, worker int, job Job) {
	handler := m.handlers[job.Kind]

	for attempt := 1; ; attempt++ {
		err := handler(ctx, job)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		if IsPermanent(err) || attempt >= m.cfg.MaxAttempts {
			slog.Error("job exhausted",
				"queue", queueName, "kind", job.Kind, "job_id", job.ID,
				"attempts", attempt, "error", err.Error())
			if m.onExhausted != nil {
				m.onExhausted(ctx, job, err)
			}
			return
		}

		wait := backoffFor(attempt, m.cfg.BackoffBase)
		slog.Warn("job failed, retrying",
			"queue", queueName, "worker", worker, "kind", job.Kind, "job_id", job.ID,
			"attempt", attempt, "wait_ms", wait.Milliseconds(), "error", err.Error())

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func laneFor(orderingKey string, workers int) int {
	if workers == 1 || orderingKey == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderingKey))
	return int(h.Sum32() % uint32(workers))
}
