package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/blog-comb/app/source"
)

// TaskSchedulerInterface is what the application and the refresh endpoint use
// to drive background work.
//
//	scheduler := NewScheduler(snapshotRepo, client, hub)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRefreshResourceTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueRefresh() int
}

// Fetcher returns the raw JSON body of one upstream collection.
type Fetcher interface {
	FetchCollection(ctx context.Context, resource source.Resource) ([]byte, error)
}

// Notifier receives an event after every refresh attempt.
type Notifier interface {
	Notify(event Event)
}

const (
	EventSnapshotUpdated = "snapshot_updated"
	EventSnapshotFailed  = "snapshot_failed"
)

type Event struct {
	Type      string    `json:"type"`
	Resource  string    `json:"resource"`
	Status    string    `json:"status"`
	ItemCount int       `json:"item_count"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}
