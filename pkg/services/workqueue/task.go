// Package workqueue runs asynchronous AI workflows behind task handles that
// can be polled and cancelled.
package workqueue

import (
	"context"
	"sync"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal returns true once the task can no longer change.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// RunFunc does the slow part of a task, usually an AI call. It must honor ctx.
type RunFunc func(ctx context.Context) (any, error)

// CommitFunc applies a finished result to shared state and returns the value
// reported to pollers. It is never called for a cancelled task.
type CommitFunc func(ctx context.Context, result any) (any, error)

// TaskState holds the runtime state of a task.
type TaskState struct {
	id          string
	name        string
	status      TaskStatus
	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time
	result      any
	err         error

	cancel context.CancelFunc
	done   chan struct{}

	// mu also covers the commit step, so Cancel either wins before the
	// commit starts or observes the completed task.
	mu sync.Mutex
}

func newTaskState(id, name string, cancel context.CancelFunc) *TaskState {
	return &TaskState{
		id:        id,
		name:      name,
		status:    TaskStatusPending,
		createdAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// setStatusLocked updates the status and timestamps. Must be called with mu held.
func (ts *TaskState) setStatusLocked(status TaskStatus) {
	ts.status = status
	now := time.Now()

	switch status {
	case TaskStatusRunning:
		ts.startedAt = &now
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		ts.completedAt = &now
		close(ts.done)
	}
}

// Snapshot returns an immutable copy of the task state.
func (ts *TaskState) Snapshot() TaskSnapshot {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.snapshotLocked()
}

func (ts *TaskState) snapshotLocked() TaskSnapshot {
	var errMsg string
	if ts.err != nil {
		errMsg = ts.err.Error()
	}

	return TaskSnapshot{
		ID:          ts.id,
		Name:        ts.name,
		Status:      ts.status,
		CreatedAt:   ts.createdAt,
		StartedAt:   ts.startedAt,
		CompletedAt: ts.completedAt,
		Result:      ts.result,
		Error:       errMsg,
		err:         ts.err,
	}
}

// TaskSnapshot is an immutable view of task state for serialization.
type TaskSnapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Result      any        `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`

	err error
}

// Err returns the error a failed task ended with.
func (s TaskSnapshot) Err() error {
	return s.err
}
