package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/blog-comb/app/database"
	"github.com/lysyi3m/blog-comb/app/source"
)

// RefreshResourceTask fetches one upstream collection and stores it as the new
// snapshot. A failed fetch is recorded without touching the stored payload.
type RefreshResourceTask struct {
	Task
	fetcher      Fetcher
	snapshotRepo database.SnapshotRepository
	notifier     Notifier
}

func NewRefreshResourceTask(resource source.Resource, fetcher Fetcher, snapshotRepo database.SnapshotRepository, notifier Notifier) *RefreshResourceTask {
	return &RefreshResourceTask{
		Task:         NewTask(TaskTypeRefreshResource, resource),
		fetcher:      fetcher,
		snapshotRepo: snapshotRepo,
		notifier:     notifier,
	}
}

func (t *RefreshResourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := t.fetcher.FetchCollection(ctx, t.Resource)
	if err != nil {
		return t.fail(fmt.Errorf("failed to fetch %s: %w", t.Resource, err))
	}

	count, err := source.Validate(t.Resource, data)
	if err != nil {
		return t.fail(fmt.Errorf("invalid %s payload: %w", t.Resource, err))
	}

	now := time.Now().UTC()
	if err := t.snapshotRepo.SaveSnapshot(string(t.Resource), data, count, now); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	t.notify(Event{
		Type:      EventSnapshotUpdated,
		Resource:  string(t.Resource),
		Status:    string(database.StatusReady),
		ItemCount: count,
		At:        now,
	})

	slog.Info("Task completed",
		"type", "RefreshResource",
		"resource", t.Resource,
		"duration", t.GetDuration(),
		"items", count)

	return nil
}

func (t *RefreshResourceTask) fail(fetchErr error) error {
	now := time.Now().UTC()
	if err := t.snapshotRepo.SaveFailure(string(t.Resource), fetchErr.Error(), now); err != nil {
		slog.Error("Failed to record refresh failure", "resource", t.Resource, "error", err)
	}

	status := database.StatusError
	if snapshot, err := t.snapshotRepo.GetSnapshot(string(t.Resource)); err == nil && snapshot != nil {
		status = snapshot.Status
	}

	t.notify(Event{
		Type:     EventSnapshotFailed,
		Resource: string(t.Resource),
		Status:   string(status),
		Error:    fetchErr.Error(),
		At:       now,
	})

	return fetchErr
}

func (t *RefreshResourceTask) notify(event Event) {
	if t.notifier == nil {
		return
	}
	t.notifier.Notify(event)
}
