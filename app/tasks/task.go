package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/blog-comb/app/source"
)

type TaskType string

const (
	TaskTypeRefreshResource TaskType = "refresh_resource"
)

const (
	DefaultMaxRetries = 3
	MaxRetryDelay     = 30 * time.Second
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetResource() source.Resource
	GetRetryCount() int
	ScheduleRetry() (time.Duration, bool)
	Start()
	GetDuration() time.Duration
}

// Task is the bookkeeping shared by refresh tasks: which collection the task
// refreshes and how much of its retry budget is spent.
type Task struct {
	ID         string
	Type       TaskType
	Resource   source.Resource
	RetryCount int
	MaxRetries int
	StartedAt  time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetResource() source.Resource {
	return t.Resource
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

// ScheduleRetry spends one retry and returns the delay before it: 1s, 2s, 4s
// and so on, capped at MaxRetryDelay. It reports false once the budget is
// spent.
func (t *Task) ScheduleRetry() (time.Duration, bool) {
	if t.RetryCount >= t.MaxRetries {
		return 0, false
	}
	t.RetryCount++
	shift := min(t.RetryCount-1, 5)
	return min(time.Second<<shift, MaxRetryDelay), true
}

func (t *Task) Start() {
	t.StartedAt = time.Now()
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt.IsZero() {
		return 0
	}
	return time.Since(t.StartedAt)
}

func NewTask(taskType TaskType, resource source.Resource) Task {
	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		Resource:   resource,
		MaxRetries: DefaultMaxRetries,
	}
}
