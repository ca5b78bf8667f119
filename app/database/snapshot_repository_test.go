package database

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("Expected clean migration version 1, got %d (dirty=%v)", version, dirty)
	}

	return db
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	db := setupTestDB(t)

	version, _, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1, got %d", version)
	}
}

func TestGetSnapshotMissing(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))

	snapshot, err := repo.GetSnapshot("posts")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if snapshot != nil {
		t.Errorf("Expected nil snapshot, got %+v", snapshot)
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))

	if err := repo.MarkLoading("posts"); err != nil {
		t.Fatalf("MarkLoading failed: %v", err)
	}

	snapshot, err := repo.GetSnapshot("posts")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if snapshot.Status != StatusLoading {
		t.Errorf("Expected status loading, got %s", snapshot.Status)
	}
	if snapshot.HasPayload() {
		t.Error("Expected no payload before first fetch")
	}

	fetchedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.SaveSnapshot("posts", []byte(`[{"id":1}]`), 1, fetchedAt); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	snapshot, _ = repo.GetSnapshot("posts")
	if snapshot.Status != StatusReady {
		t.Errorf("Expected status ready, got %s", snapshot.Status)
	}
	if string(snapshot.Payload) != `[{"id":1}]` {
		t.Errorf("Unexpected payload: %s", snapshot.Payload)
	}
	if snapshot.ItemCount != 1 {
		t.Errorf("Expected item count 1, got %d", snapshot.ItemCount)
	}
	if snapshot.FetchedAt == nil || !snapshot.FetchedAt.Equal(fetchedAt) {
		t.Errorf("Expected fetched_at %v, got %v", fetchedAt, snapshot.FetchedAt)
	}

	// MarkLoading must not reset a fetched snapshot
	if err := repo.MarkLoading("posts"); err != nil {
		t.Fatalf("MarkLoading failed: %v", err)
	}
	snapshot, _ = repo.GetSnapshot("posts")
	if snapshot.Status != StatusReady {
		t.Errorf("Expected status to stay ready, got %s", snapshot.Status)
	}

	// The last saved snapshot wins
	if err := repo.SaveSnapshot("posts", []byte(`[]`), 0, fetchedAt.Add(time.Minute)); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	snapshot, _ = repo.GetSnapshot("posts")
	if string(snapshot.Payload) != `[]` {
		t.Errorf("Expected latest payload, got %s", snapshot.Payload)
	}
}

func TestSaveFailureKeepsExistingPayload(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))

	fetchedAt := time.Now().UTC()
	if err := repo.SaveSnapshot("authors", []byte(`[{"id":"a1"}]`), 1, fetchedAt); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := repo.SaveFailure("authors", "upstream returned 500", fetchedAt.Add(time.Minute)); err != nil {
		t.Fatalf("SaveFailure failed: %v", err)
	}

	snapshot, err := repo.GetSnapshot("authors")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if snapshot.Status != StatusReady {
		t.Errorf("Expected status ready, got %s", snapshot.Status)
	}
	if snapshot.Error != "upstream returned 500" {
		t.Errorf("Expected error to be recorded, got '%s'", snapshot.Error)
	}
	if string(snapshot.Payload) != `[{"id":"a1"}]` {
		t.Errorf("Expected payload to be kept, got %s", snapshot.Payload)
	}
	if snapshot.FetchedAt == nil || !snapshot.FetchedAt.Equal(fetchedAt) {
		t.Errorf("Expected fetched_at to be kept, got %v", snapshot.FetchedAt)
	}
}

func TestSaveFailureWithoutPayload(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))

	if err := repo.SaveFailure("categories", "connection refused", time.Now()); err != nil {
		t.Fatalf("SaveFailure failed: %v", err)
	}

	snapshot, _ := repo.GetSnapshot("categories")
	if snapshot.Status != StatusError {
		t.Errorf("Expected status error, got %s", snapshot.Status)
	}
	if snapshot.FetchedAt != nil {
		t.Errorf("Expected nil fetched_at, got %v", snapshot.FetchedAt)
	}
	if snapshot.AttemptedAt == nil {
		t.Error("Expected attempted_at to be set")
	}
}

func TestListSnapshots(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))

	for _, resource := range []string{"posts", "authors", "categories"} {
		if err := repo.MarkLoading(resource); err != nil {
			t.Fatalf("MarkLoading failed: %v", err)
		}
	}

	snapshots, err := repo.ListSnapshots()
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(snapshots))
	}
	if snapshots[0].Resource != "authors" || snapshots[2].Resource != "posts" {
		t.Errorf("Expected snapshots ordered by resource, got %s..%s", snapshots[0].Resource, snapshots[2].Resource)
	}
}

func TestSnapshotStale(t *testing.T) {
	now := time.Now()
	recent := now.Add(-time.Minute)
	old := now.Add(-time.Hour)

	tests := []struct {
		name     string
		snapshot *Snapshot
		expected bool
	}{
		{"nil snapshot", nil, true},
		{"never fetched", &Snapshot{}, true},
		{"recent", &Snapshot{FetchedAt: &recent}, false},
		{"old", &Snapshot{FetchedAt: &old}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snapshot.Stale(now, 5*time.Minute); got != tt.expected {
				t.Errorf("Expected stale=%v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCatalogStates(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))
	catalog := NewCatalog(repo)

	if q := catalog.Posts(); !q.IsLoading {
		t.Errorf("Expected loading query for missing snapshot, got %+v", q)
	}

	if err := repo.SaveFailure("posts", "timeout", time.Now()); err != nil {
		t.Fatalf("SaveFailure failed: %v", err)
	}
	if q := catalog.Posts(); !q.IsError || q.Err == nil {
		t.Errorf("Expected error query, got %+v", q)
	}

	payload := `[{"id":1,"title":"First","authorId":7},{"id":"2","title":"Second"}]`
	if err := repo.SaveSnapshot("posts", []byte(payload), 2, time.Now()); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	q := catalog.Posts()
	if !q.Ready() {
		t.Fatalf("Expected ready query, got %+v", q)
	}
	if len(q.Data) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(q.Data))
	}

	if q.Data[0].ID.String() != "1" || q.Data[0].AuthorID.String() != "7" {
		t.Errorf("Unexpected first post: %+v", q.Data[0])
	}
	if q.Data[1].ID.String() != "2" {
		t.Errorf("Unexpected second post: %+v", q.Data[1])
	}
}

func TestCatalogDecodesAuthorsAndCategories(t *testing.T) {
	repo := NewSnapshotRepository(setupTestDB(t))
	catalog := NewCatalog(repo)

	if q := catalog.Authors(); !q.IsLoading {
		t.Errorf("Expected loading authors, got %+v", q)
	}

	_ = repo.SaveSnapshot("authors", []byte(`[{"id":1,"name":"Ada","profilePicture":"https://img.test/a.png"}]`), 1, time.Now())
	_ = repo.SaveSnapshot("categories", []byte(`[{"id":"c1","name":"Tech"}]`), 1, time.Now())

	authors := catalog.Authors()
	if !authors.Ready() || len(authors.Data) != 1 {
		t.Fatalf("Expected one author, got %+v", authors)
	}
	if authors.Data[0].Name != "Ada" || authors.Data[0].ProfilePicture != "https://img.test/a.png" {
		t.Errorf("Unexpected author: %+v", authors.Data[0])
	}

	categories := catalog.Categories()
	if !categories.Ready() || len(categories.Data) != 1 {
		t.Fatalf("Expected one category, got %+v", categories)
	}
	if categories.Data[0].Name != "Tech" {
		t.Errorf("Unexpected category: %+v", categories.Data[0])
	}
}
