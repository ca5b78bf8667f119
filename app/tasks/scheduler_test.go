package tasks

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/blog-comb/app/cfg"
	"github.com/lysyi3m/blog-comb/app/database"
	"github.com/lysyi3m/blog-comb/app/source"
)

func setupTestConfig(t *testing.T) {
	t.Helper()

	oldArgs := os.Args
	os.Args = []string{"test", "--worker-count", "2", "--scheduler-interval", "3600", "--refresh-interval", "300"}
	defer func() { os.Args = oldArgs }()

	if _, err := cfg.Load(); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
}

// MockSnapshotRepository keeps snapshots in memory
type MockSnapshotRepository struct {
	mu        sync.Mutex
	snapshots map[string]*database.Snapshot
}

var _ database.SnapshotRepository = (*MockSnapshotRepository)(nil)

func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{snapshots: make(map[string]*database.Snapshot)}
}

func (m *MockSnapshotRepository) GetSnapshot(resource string) (*database.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[resource]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (m *MockSnapshotRepository) ListSnapshots() ([]database.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.Snapshot
	for _, s := range m.snapshots {
		out = append(out, *s)
	}
	return out, nil
}

func (m *MockSnapshotRepository) MarkLoading(resource string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[resource]; !ok {
		m.snapshots[resource] = &database.Snapshot{Resource: resource, Status: database.StatusLoading}
	}
	return nil
}

func (m *MockSnapshotRepository) SaveSnapshot(resource string, payload []byte, itemCount int, fetchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[resource] = &database.Snapshot{
		Resource:  resource,
		Payload:   payload,
		ItemCount: itemCount,
		Status:    database.StatusReady,
		FetchedAt: &fetchedAt,
	}
	return nil
}

func (m *MockSnapshotRepository) SaveFailure(resource string, fetchErr string, attemptedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[resource]
	if !ok {
		s = &database.Snapshot{Resource: resource}
		m.snapshots[resource] = s
	}
	s.Error = fetchErr
	s.AttemptedAt = &attemptedAt
	if s.HasPayload() {
		s.Status = database.StatusReady
	} else {
		s.Status = database.StatusError
	}
	return nil
}

// MockFetcher serves canned payloads per resource
type MockFetcher struct {
	mu       sync.Mutex
	payloads map[source.Resource]string
	err      error
	calls    map[source.Resource]int
}

func (m *MockFetcher) FetchCollection(ctx context.Context, resource source.Resource) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[source.Resource]int)
	}
	m.calls[resource]++
	if m.err != nil {
		return nil, m.err
	}
	return []byte(m.payloads[resource]), nil
}

func (m *MockFetcher) Calls(resource source.Resource) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[resource]
}

// MockNotifier records every event
type MockNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (m *MockNotifier) Notify(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockNotifier) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func validPayloads() map[source.Resource]string {
	return map[source.Resource]string{
		source.ResourcePosts:      `[{"id":1,"title":"Hello"},{"id":2,"title":"World"}]`,
		source.ResourceAuthors:    `[{"id":1,"name":"Ada"}]`,
		source.ResourceCategories: `[]`,
	}
}

func TestRefreshResourceTaskStoresSnapshot(t *testing.T) {
	repo := NewMockSnapshotRepository()
	notifier := &MockNotifier{}
	fetcher := &MockFetcher{payloads: validPayloads()}

	task := NewRefreshResourceTask(source.ResourcePosts, fetcher, repo, notifier)
	if task.GetType() != TaskTypeRefreshResource {
		t.Errorf("Expected type %s, got %s", TaskTypeRefreshResource, task.GetType())
	}
	if task.GetID() == "" {
		t.Error("Expected task id to be set")
	}

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	snapshot, _ := repo.GetSnapshot("posts")
	if snapshot == nil || snapshot.Status != database.StatusReady {
		t.Fatalf("Expected ready snapshot, got %+v", snapshot)
	}
	if snapshot.ItemCount != 2 {
		t.Errorf("Expected 2 items, got %d", snapshot.ItemCount)
	}

	events := notifier.Events()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventSnapshotUpdated || events[0].Resource != "posts" || events[0].ItemCount != 2 {
		t.Errorf("Unexpected event: %+v", events[0])
	}
}

func TestRefreshResourceTaskKeepsSnapshotOnFailure(t *testing.T) {
	repo := NewMockSnapshotRepository()
	notifier := &MockNotifier{}
	_ = repo.SaveSnapshot("authors", []byte(`[{"id":1}]`), 1, time.Now())

	fetcher := &MockFetcher{err: errors.New("connection refused")}
	task := NewRefreshResourceTask(source.ResourceAuthors, fetcher, repo, notifier)

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected error from failed fetch")
	}

	snapshot, _ := repo.GetSnapshot("authors")
	if string(snapshot.Payload) != `[{"id":1}]` {
		t.Errorf("Expected payload to be kept, got %s", snapshot.Payload)
	}
	if snapshot.Status != database.StatusReady {
		t.Errorf("Expected status ready, got %s", snapshot.Status)
	}

	events := notifier.Events()
	if len(events) != 1 || events[0].Type != EventSnapshotFailed {
		t.Fatalf("Expected one failure event, got %+v", events)
	}
	if events[0].Status != string(database.StatusReady) {
		t.Errorf("Expected failure event to report ready status, got %s", events[0].Status)
	}
}

func TestRefreshResourceTaskRejectsMalformedPayload(t *testing.T) {
	repo := NewMockSnapshotRepository()
	fetcher := &MockFetcher{payloads: map[source.Resource]string{
		source.ResourceCategories: `{"error":"maintenance"}`,
	}}

	task := NewRefreshResourceTask(source.ResourceCategories, fetcher, repo, nil)
	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected error for malformed payload")
	}

	snapshot, _ := repo.GetSnapshot("categories")
	if snapshot == nil || snapshot.Status != database.StatusError {
		t.Fatalf("Expected error snapshot, got %+v", snapshot)
	}
	if snapshot.HasPayload() {
		t.Error("Malformed payload must not be stored")
	}
}

func TestRefreshResourceTaskCancelledContext(t *testing.T) {
	fetcher := &MockFetcher{payloads: validPayloads()}
	task := NewRefreshResourceTask(source.ResourcePosts, fetcher, NewMockSnapshotRepository(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := task.Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if fetcher.Calls(source.ResourcePosts) != 0 {
		t.Error("Expected no fetch after cancellation")
	}
}

func TestTaskRetryBookkeeping(t *testing.T) {
	task := NewTask(TaskTypeRefreshResource, source.ResourcePosts)

	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}
	if task.GetResource() != source.ResourcePosts {
		t.Errorf("Expected resource posts, got %s", task.GetResource())
	}

	expected := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, want := range expected {
		delay, ok := task.ScheduleRetry()
		if !ok {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		if delay != want {
			t.Errorf("Expected retry %d delay %v, got %v", i+1, want, delay)
		}
	}
	if task.GetRetryCount() != DefaultMaxRetries {
		t.Errorf("Expected retry count %d, got %d", DefaultMaxRetries, task.GetRetryCount())
	}
	if _, ok := task.ScheduleRetry(); ok {
		t.Error("Expected retries to be exhausted")
	}

	other := NewTask(TaskTypeRefreshResource, source.ResourcePosts)
	if other.ID == task.ID {
		t.Error("Expected unique task ids")
	}
}

func TestTaskRetryDelayIsCapped(t *testing.T) {
	task := NewTask(TaskTypeRefreshResource, source.ResourceAuthors)
	task.MaxRetries = 10

	var last time.Duration
	for i := 0; i < task.MaxRetries; i++ {
		delay, ok := task.ScheduleRetry()
		if !ok {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		if delay > MaxRetryDelay {
			t.Errorf("Expected delay at most %v, got %v", MaxRetryDelay, delay)
		}
		last = delay
	}
	if last != MaxRetryDelay {
		t.Errorf("Expected late retries to wait %v, got %v", MaxRetryDelay, last)
	}
}

func TestNewScheduler(t *testing.T) {
	setupTestConfig(t)

	scheduler := NewScheduler(NewMockSnapshotRepository(), &MockFetcher{}, nil)

	if scheduler.workerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", scheduler.workerCount)
	}
	if scheduler.interval != time.Hour {
		t.Errorf("Expected interval 1h, got %v", scheduler.interval)
	}
	if scheduler.refreshInterval != 5*time.Minute {
		t.Errorf("Expected refresh interval 5m, got %v", scheduler.refreshInterval)
	}
}

func TestEnqueueRefreshSkipsInFlight(t *testing.T) {
	setupTestConfig(t)

	scheduler := NewScheduler(NewMockSnapshotRepository(), &MockFetcher{}, nil)

	if n := scheduler.EnqueueRefresh(); n != len(source.Resources) {
		t.Errorf("Expected %d queued tasks, got %d", len(source.Resources), n)
	}
	if n := scheduler.EnqueueRefresh(); n != 0 {
		t.Errorf("Expected no tasks while refresh is in flight, got %d", n)
	}
	if len(scheduler.taskQueue) != len(source.Resources) {
		t.Errorf("Expected %d tasks in queue, got %d", len(source.Resources), len(scheduler.taskQueue))
	}
}

func TestEnqueueTasksOnlyRefreshesStale(t *testing.T) {
	setupTestConfig(t)

	repo := NewMockSnapshotRepository()
	_ = repo.SaveSnapshot("posts", []byte(`[]`), 0, time.Now().UTC())
	_ = repo.SaveSnapshot("authors", []byte(`[]`), 0, time.Now().UTC().Add(-time.Hour))

	scheduler := NewScheduler(repo, &MockFetcher{}, nil)
	scheduler.enqueueTasks()

	queued := map[source.Resource]bool{}
	for len(scheduler.taskQueue) > 0 {
		task := <-scheduler.taskQueue
		queued[task.GetResource()] = true
	}

	if queued[source.ResourcePosts] {
		t.Error("Fresh posts snapshot should not be refreshed")
	}
	if !queued[source.ResourceAuthors] {
		t.Error("Stale authors snapshot should be refreshed")
	}
	if !queued[source.ResourceCategories] {
		t.Error("Missing categories snapshot should be refreshed")
	}
}

func TestSchedulerRunsStartupRefresh(t *testing.T) {
	setupTestConfig(t)

	repo := NewMockSnapshotRepository()
	notifier := &MockNotifier{}
	scheduler := NewScheduler(repo, &MockFetcher{payloads: validPayloads()}, notifier)

	scheduler.Start()
	defer scheduler.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for len(notifier.Events()) < len(source.Resources) {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for refresh events, got %d", len(notifier.Events()))
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, resource := range source.Resources {
		snapshot, _ := repo.GetSnapshot(string(resource))
		if snapshot == nil || snapshot.Status != database.StatusReady {
			t.Errorf("Expected ready snapshot for %s, got %+v", resource, snapshot)
		}
	}
}
