package workqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
)

// DefaultMaxConcurrent bounds simultaneous AI calls across all tasks.
const DefaultMaxConcurrent = 4

// DefaultRetention is how long finished tasks stay pollable.
const DefaultRetention = 30 * time.Minute

// ErrTaskFinished is returned when cancelling a task that already reached a terminal state.
var ErrTaskFinished = fmt.Errorf("task already finished: %w", apperrors.ErrConflict)

// Tracker starts tasks in the background and keeps their handles.
type Tracker struct {
	mu    sync.Mutex
	tasks map[string]*TaskState

	sem       *semaphore.Weighted
	retention time.Duration
	wg        sync.WaitGroup

	// Parent of every task context; cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMaxConcurrent sets how many tasks may run at once. Extra tasks wait as pending.
func WithMaxConcurrent(n int64) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithRetention sets how long finished tasks are kept.
func WithRetention(d time.Duration) Option {
	return func(t *Tracker) {
		t.retention = d
	}
}

// New creates a Tracker.
func New(logger *zap.Logger, opts ...Option) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		tasks:     make(map[string]*TaskState),
		sem:       semaphore.NewWeighted(DefaultMaxConcurrent),
		retention: DefaultRetention,
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger.Named("workqueue"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches a task and returns its pending snapshot. run executes
// outside any lock; commit (optional) runs only if the task was not
// cancelled by the time run returned.
func (t *Tracker) Start(name string, run RunFunc, commit CommitFunc) TaskSnapshot {
	taskCtx, cancel := context.WithCancel(t.ctx)
	ts := newTaskState(uuid.NewString(), name, cancel)

	t.mu.Lock()
	t.pruneLocked()
	t.tasks[ts.id] = ts
	t.mu.Unlock()

	t.logger.Info("task started", zap.String("task_id", ts.id), zap.String("task_name", name))

	t.wg.Add(1)
	go t.runTask(taskCtx, ts, run, commit)

	return ts.Snapshot()
}

func (t *Tracker) runTask(ctx context.Context, ts *TaskState, run RunFunc, commit CommitFunc) {
	defer t.wg.Done()
	defer ts.cancel()

	if err := t.sem.Acquire(ctx, 1); err != nil {
		t.finish(ts, nil, err)
		return
	}
	defer t.sem.Release(1)

	ts.mu.Lock()
	if ts.status != TaskStatusPending {
		ts.mu.Unlock()
		return
	}
	ts.setStatusLocked(TaskStatusRunning)
	ts.mu.Unlock()

	result, err := run(ctx)
	t.finishWithCommit(ctx, ts, result, err, commit)
}

func (t *Tracker) finishWithCommit(ctx context.Context, ts *TaskState, result any, err error, commit CommitFunc) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.status == TaskStatusCancelled {
		t.logger.Info("discarding result of cancelled task",
			zap.String("task_id", ts.id),
			zap.String("task_name", ts.name))
		return
	}
	if err == nil && commit != nil {
		// Detached so Shutdown cannot interrupt a half-applied write.
		result, err = commit(context.WithoutCancel(ctx), result)
	}
	t.completeLocked(ts, result, err)
}

func (t *Tracker) finish(ts *TaskState, result any, err error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.status.IsTerminal() {
		return
	}
	t.completeLocked(ts, result, err)
}

func (t *Tracker) completeLocked(ts *TaskState, result any, err error) {
	switch {
	case err == nil:
		ts.result = result
		ts.setStatusLocked(TaskStatusCompleted)
		t.logger.Info("task completed", zap.String("task_id", ts.id), zap.String("task_name", ts.name))
	case errors.Is(err, context.Canceled):
		ts.setStatusLocked(TaskStatusCancelled)
		t.logger.Info("task cancelled", zap.String("task_id", ts.id), zap.String("task_name", ts.name))
	default:
		ts.err = err
		ts.setStatusLocked(TaskStatusFailed)
		t.logger.Error("task failed",
			zap.String("task_id", ts.id),
			zap.String("task_name", ts.name),
			zap.Error(err))
	}
}

// Get returns a snapshot of the task with id.
func (t *Tracker) Get(id string) (TaskSnapshot, error) {
	ts, err := t.lookup(id)
	if err != nil {
		return TaskSnapshot{}, err
	}
	return ts.Snapshot(), nil
}

// Cancel stops the task with id. A cancelled task never commits its result.
func (t *Tracker) Cancel(id string) (TaskSnapshot, error) {
	ts, err := t.lookup(id)
	if err != nil {
		return TaskSnapshot{}, err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.status.IsTerminal() {
		return ts.snapshotLocked(), ErrTaskFinished
	}
	ts.cancel()
	ts.setStatusLocked(TaskStatusCancelled)
	t.logger.Info("task cancelled", zap.String("task_id", ts.id), zap.String("task_name", ts.name))
	return ts.snapshotLocked(), nil
}

// Wait blocks until the task with id finishes or ctx is done.
func (t *Tracker) Wait(ctx context.Context, id string) (TaskSnapshot, error) {
	ts, err := t.lookup(id)
	if err != nil {
		return TaskSnapshot{}, err
	}
	select {
	case <-ts.done:
		return ts.Snapshot(), nil
	case <-ctx.Done():
		return ts.Snapshot(), ctx.Err()
	}
}

// List returns snapshots of all retained tasks.
func (t *Tracker) List() []TaskSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TaskSnapshot, 0, len(t.tasks))
	for _, ts := range t.tasks {
		out = append(out, ts.Snapshot())
	}
	return out
}

// Shutdown cancels every running task and waits for their goroutines, or
// until ctx is done.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	for _, ts := range t.tasks {
		ts.mu.Lock()
		if !ts.status.IsTerminal() {
			ts.cancel()
			ts.setStatusLocked(TaskStatusCancelled)
		}
		ts.mu.Unlock()
	}
	t.mu.Unlock()
	t.cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) lookup(id string) (*TaskState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts, ok := t.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ts, nil
}

// pruneLocked drops finished tasks older than the retention window.
func (t *Tracker) pruneLocked() {
	if t.retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-t.retention)
	for id, ts := range t.tasks {
		ts.mu.Lock()
		expired := ts.completedAt != nil && ts.completedAt.Before(cutoff)
		ts.mu.Unlock()
		if expired {
			delete(t.tasks, id)
		}
	}
}
