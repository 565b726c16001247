package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
	"github.com/joseph-ayodele/lab-report-tracker/internal/repository"
)

// Processor is the unit of work a queue worker runs for each task attempt.
type Processor interface {
	Process(ctx context.Context, task *entity.Task) (*entity.TaskOutcome, error)
}

var (
	ErrQueueClosed = errors.New("task queue is shut down")
	ErrQueueFull   = errors.New("task queue is full")
)

// BackoffFunc returns the delay before retry number retry (zero-indexed).
type BackoffFunc func(retry int) time.Duration

// ExponentialBackoff doubles the delay on every retry: 1s, 2s, 4s, ...
func ExponentialBackoff(retry int) time.Duration {
	return time.Duration(1<<retry) * time.Second
}

// TaskQueue drives background processing with a fixed worker pool over a
// bounded channel. Task state transitions are written through the repository
// so a restart can recover in-flight work.
type TaskQueue struct {
	tasks          repository.TaskRepository
	processor      Processor
	logger         *slog.Logger
	workers        int
	queueSize      int
	processTimeout time.Duration
	maxRetries     int
	backoff        BackoffFunc

	queue chan *entity.Task
	wg    sync.WaitGroup
	mu    sync.Mutex
	open  bool
}

type Option func(*TaskQueue)

func WithWorkers(n int) Option {
	return func(q *TaskQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *TaskQueue) {
		if n > 0 {
			q.queueSize = n
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *TaskQueue) {
		if d > 0 {
			q.processTimeout = d
		}
	}
}

func WithMaxRetries(n int) Option {
	return func(q *TaskQueue) {
		if n >= 0 {
			q.maxRetries = n
		}
	}
}

func WithBackoff(fn BackoffFunc) Option {
	return func(q *TaskQueue) {
		if fn != nil {
			q.backoff = fn
		}
	}
}

func NewTaskQueue(tasks repository.TaskRepository, processor Processor, logger *slog.Logger, opts ...Option) *TaskQueue {
	q := &TaskQueue{
		tasks:          tasks,
		processor:      processor,
		logger:         logger,
		workers:        4,
		queueSize:      256,
		processTimeout: 3 * time.Minute,
		maxRetries:     3,
		backoff:        ExponentialBackoff,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the worker pool. It must be called exactly once.
func (q *TaskQueue) Start() {
	q.mu.Lock()
	q.queue = make(chan *entity.Task, q.queueSize)
	q.open = true
	q.mu.Unlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.logger.Info("queue.started", "workers", q.workers, "queue_size", q.queueSize)
}

// Enqueue hands a task to the pool without blocking. A full queue is
// reported to the caller rather than stalling the upload path.
func (q *TaskQueue) Enqueue(task *entity.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.open {
		return ErrQueueClosed
	}
	select {
	case q.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Requeue loads every pending task from storage back into the pool, for
// startup recovery after a crash or deploy.
func (q *TaskQueue) Requeue(ctx context.Context) error {
	pending, err := q.tasks.RequeuePending(ctx)
	if err != nil {
		return err
	}
	for _, task := range pending {
		if err := q.Enqueue(task); err != nil {
			q.logger.Warn("queue.requeue.dropped", "task_id", task.ID, "error", err)
		}
	}
	if len(pending) > 0 {
		q.logger.Info("queue.requeued", "count", len(pending))
	}
	return nil
}

// Shutdown stops intake and waits for in-flight tasks, up to ctx's deadline.
func (q *TaskQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.open {
		q.mu.Unlock()
		return nil
	}
	q.open = false
	close(q.queue)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("queue.drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *TaskQueue) worker(id int) {
	defer q.wg.Done()
	q.logger.Debug("queue.worker.started", "worker", id)
	for task := range q.queue {
		q.run(task)
	}
}

// run executes one task to a terminal state: bounded retries with backoff
// for transient failures, immediate failure for everything else.
func (q *TaskQueue) run(task *entity.Task) {
	ctx := context.Background()

	for retry := 0; ; retry++ {
		attempt, err := q.tasks.MarkRunning(ctx, task.ID)
		if err != nil {
			q.logger.Error("task.mark_running.failed", "task_id", task.ID, "error", err)
			return
		}

		q.logger.Info("task.attempt.start", "task_id", task.ID, "attempt", attempt)

		outcome, perr := q.process(task)
		if perr == nil {
			if err := q.tasks.MarkSucceeded(ctx, task.ID, outcome); err != nil {
				q.logger.Error("task.mark_succeeded.failed", "task_id", task.ID, "error", err)
			}
			q.logger.Info("task.succeeded", "task_id", task.ID, "attempt", attempt, "records", outcome.RecordsSaved)
			return
		}

		if common.KindOf(perr) != common.KindRetryable {
			q.fail(ctx, task, attempt, perr, "permanent")
			return
		}
		if retry >= q.maxRetries {
			q.fail(ctx, task, attempt, perr, "retries exhausted")
			return
		}

		delay := q.backoff(retry)
		q.logger.Warn("task.attempt.retry",
			"task_id", task.ID,
			"attempt", attempt,
			"delay", delay,
			"error", perr,
		)
		time.Sleep(delay)
	}
}

func (q *TaskQueue) process(task *entity.Task) (*entity.TaskOutcome, error) {
	ctx, cancel := context.WithTimeout(context.Background(), q.processTimeout)
	defer cancel()
	return q.processor.Process(ctx, task)
}

func (q *TaskQueue) fail(ctx context.Context, task *entity.Task, attempt int, perr error, reason string) {
	if err := q.tasks.MarkFailed(ctx, task.ID, perr.Error()); err != nil {
		q.logger.Error("task.mark_failed.failed", "task_id", task.ID, "error", err)
	}
	q.logger.Error("task.failed",
		"task_id", task.ID,
		"attempt", attempt,
		"reason", reason,
		"error", perr,
	)
}
