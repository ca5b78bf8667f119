package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/blog-comb/app/cfg"
	"github.com/lysyi3m/blog-comb/app/database"
	"github.com/lysyi3m/blog-comb/app/source"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	snapshotRepo    database.SnapshotRepository
	fetcher         Fetcher
	notifier        Notifier
	interval        time.Duration
	refreshInterval time.Duration
	workerCount     int
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	taskQueue       chan TaskInterface
	inFlight        map[source.Resource]bool
	mu              sync.Mutex
}

func NewScheduler(snapshotRepo database.SnapshotRepository, fetcher Fetcher, notifier Notifier) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		snapshotRepo:    snapshotRepo,
		fetcher:         fetcher,
		notifier:        notifier,
		interval:        cfg.SchedulerInterval,
		refreshInterval: cfg.RefreshInterval,
		workerCount:     cfg.WorkerCount,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 30),
		inFlight:        make(map[source.Resource]bool),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueRefresh queues a refresh of every collection that is not already
// queued or running, and returns how many were queued.
func (s *Scheduler) EnqueueRefresh() int {
	queued := 0
	for _, resource := range source.Resources {
		if s.enqueueRefresh(resource) {
			queued++
		}
	}
	return queued
}

func (s *Scheduler) enqueueRefresh(resource source.Resource) bool {
	if !s.claim(resource) {
		slog.Debug("Refresh already in flight", "resource", resource)
		return false
	}

	task := NewRefreshResourceTask(resource, s.fetcher, s.snapshotRepo, s.notifier)
	if err := s.EnqueueTask(task); err != nil {
		s.release(resource)
		slog.Warn("Failed to enqueue RefreshResourceTask", "resource", resource, "error", err)
		return false
	}
	return true
}

func (s *Scheduler) enqueueStartupTasks() {
	for _, resource := range source.Resources {
		if err := s.snapshotRepo.MarkLoading(string(resource)); err != nil {
			slog.Warn("Failed to register snapshot", "resource", resource, "error", err)
		}
	}

	slog.Debug("Enqueueing startup refresh", "resources", len(source.Resources))
	s.EnqueueRefresh()
}

func (s *Scheduler) enqueueTasks() {
	now := time.Now().UTC()

	for _, resource := range source.Resources {
		snapshot, err := s.snapshotRepo.GetSnapshot(string(resource))
		if err != nil {
			slog.Warn("Failed to get snapshot from database, skipping", "resource", resource, "error", err)
			continue
		}

		if !snapshot.Stale(now, s.refreshInterval) {
			slog.Debug("Snapshot not due for refresh yet", "resource", resource, "fetched_at", snapshot.FetchedAt)
			continue
		}

		s.enqueueRefresh(resource)
	}
}

func (s *Scheduler) claim(resource source.Resource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[resource] {
		return false
	}
	s.inFlight[resource] = true
	return true
}

func (s *Scheduler) release(resource source.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, resource)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		s.release(task.GetResource())
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	retryDelay, ok := task.ScheduleRetry()
	if !ok {
		s.release(task.GetResource())
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "last_error", err)
		return
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "resource", task.GetResource(), "retry_count", task.GetRetryCount(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-time.After(retryDelay):
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			s.release(task.GetResource())
			return
		}

		if retryErr := s.EnqueueTask(task); retryErr != nil {
			s.release(task.GetResource())
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
		}
	}()
}
